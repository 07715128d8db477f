package snapshot

import (
	"context"
	"fmt"
	"strings"

	"domsnap/pkg/html"
)

// Region is one sub-element cropped out of a capture. Coordinates are in
// CSS pixels relative to the root's top-left corner.
type Region struct {
	Left, Top     float64
	Width, Height float64
	URI           string
}

// mimeFor maps a region format name to a MIME type.
func mimeFor(format string) (string, error) {
	switch strings.ToLower(format) {
	case "", "png":
		return "image/png", nil
	case "jpeg", "jpg":
		return "image/jpeg", nil
	}
	return "", fmt.Errorf("snapshot: unsupported image format %q", format)
}

// extractRegions crops every element under root matching selector out of
// fullURI, the encoded full-root surface.
func (p *Pipeline) extractRegions(ctx context.Context, fullURI string, root *html.Node, selector, format string) ([]Region, error) {
	mime, err := mimeFor(format)
	if err != nil {
		return nil, err
	}
	matches, err := p.host.QuerySelectorAll(root, selector)
	if err != nil {
		return nil, fmt.Errorf("snapshot: selector %q: %w", selector, err)
	}

	scale := p.cfg.scale()
	raster := p.rasterizer(scale)
	origin := p.host.BoundingClientRect(root)
	regions := make([]Region, 0, len(matches))
	for _, n := range matches {
		r := p.host.BoundingClientRect(n)
		reg := Region{
			Left:   r.X - origin.X,
			Top:    r.Y - origin.Y,
			Width:  r.Width,
			Height: r.Height,
		}
		c, err := raster.Rasterize(ctx, fullURI, Draw{
			DestWidth:  reg.Width,
			DestHeight: reg.Height,
			SrcX:       reg.Left * scale,
			SrcY:       reg.Top * scale,
			SrcWidth:   reg.Width * scale,
			SrcHeight:  reg.Height * scale,
		})
		if err != nil {
			return nil, err
		}
		if reg.URI, err = c.ToDataURL(mime, p.jpegQuality); err != nil {
			return nil, err
		}
		p.logger().Debug("snapshot: region extracted", "tag", n.TagName, "left", reg.Left, "top", reg.Top, "width", reg.Width, "height", reg.Height)
		regions = append(regions, reg)
	}
	return regions, nil
}
