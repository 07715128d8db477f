package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"domsnap/pkg/config"
	"domsnap/pkg/images"
	"domsnap/pkg/page"
	"domsnap/pkg/snapshot"
)

type written struct {
	path   string
	region string // position of a multi region, empty otherwise
}

func load(ctx context.Context, j *config.Job) (*page.Page, context.Context, context.CancelFunc, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cancel := context.CancelFunc(func() {})
	if j.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
	}
	p, err := page.Load(ctx, j.Input, j.PageOptions()...)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return p, ctx, cancel, nil
}

// capture runs a validated job and writes its output files.
func capture(ctx context.Context, j *config.Job) ([]written, error) {
	p, ctx, cancel, err := load(ctx, j)
	if err != nil {
		return nil, err
	}
	defer cancel()
	pl := p.Snapshot(j.ToSnapshot(), j.SnapshotOptions()...)

	var uri string
	switch j.Format {
	case "png":
		uri, err = pl.ToPng(ctx)
	case "jpeg":
		uri, err = pl.ToJpeg(ctx)
	case "svg":
		uri, err = pl.ToSvgString(ctx)
	case "multi":
		return captureRegions(ctx, pl, j)
	default:
		err = fmt.Errorf("unknown format %q", j.Format)
	}
	if err != nil {
		return nil, err
	}
	if err := writeURI(j.Output, uri); err != nil {
		return nil, err
	}
	return []written{{path: j.Output}}, nil
}

// captureRegions writes region i of a multi capture to <output>-<i><ext>.
func captureRegions(ctx context.Context, pl *snapshot.Pipeline, j *config.Job) ([]written, error) {
	regions, err := pl.ToMultiPic(ctx, j.Selector, j.RegionFormat)
	if err != nil {
		return nil, err
	}
	ext := filepath.Ext(j.Output)
	base := strings.TrimSuffix(j.Output, ext)
	out := make([]written, 0, len(regions))
	for i, r := range regions {
		path := fmt.Sprintf("%s-%d%s", base, i, ext)
		if err := writeURI(path, r.URI); err != nil {
			return nil, err
		}
		out = append(out, written{
			path:   path,
			region: fmt.Sprintf("%gx%g at (%g, %g)", r.Width, r.Height, r.Left, r.Top),
		})
	}
	return out, nil
}

func writeURI(path, uri string) error {
	_, data, err := images.ParseDataURI(uri)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func dump(ctx context.Context, j *config.Job) (string, error) {
	p, ctx, cancel, err := load(ctx, j)
	if err != nil {
		return "", err
	}
	defer cancel()
	clone, err := p.Snapshot(j.ToSnapshot()).Clone(ctx)
	if err != nil {
		return "", err
	}
	return snapshot.DumpTree(clone), nil
}
