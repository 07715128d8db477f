// Package config reads capture jobs from YAML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"domsnap/pkg/images"
	"domsnap/pkg/page"
	"domsnap/pkg/snapshot"
)

// Job describes one capture: which document, which element and where the
// image goes.
type Job struct {
	Input           string        `yaml:"input"` // file path or http(s) URL
	Root            string        `yaml:"root"`
	BackgroundColor string        `yaml:"background_color"`
	Scale           float64       `yaml:"scale"`
	Viewport        Viewport      `yaml:"viewport"`
	Format          string        `yaml:"format"` // png | jpeg | svg | multi
	JPEGQuality     float64       `yaml:"jpeg_quality"`
	Selector        string        `yaml:"selector"`      // multi only
	RegionFormat    string        `yaml:"region_format"` // multi only: png | jpeg
	Output          string        `yaml:"output"`
	Timeout         time.Duration `yaml:"timeout"` // zero waits forever
	NoScripts       bool          `yaml:"no_scripts"`
}

type Viewport struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// LoadFile reads a YAML job file.
func LoadFile(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a YAML job and fills in defaults.
func Parse(data []byte) (*Job, error) {
	var j Job
	if err := yaml.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	j.applyDefaults()
	return &j, nil
}

// Default returns a job with every default applied.
func Default() *Job {
	j := &Job{}
	j.applyDefaults()
	return j
}

func (j *Job) applyDefaults() {
	if j.Scale <= 0 {
		j.Scale = snapshot.DefaultScale
	}
	if j.Viewport.Width <= 0 {
		j.Viewport.Width = page.DefaultWidth
	}
	if j.Viewport.Height <= 0 {
		j.Viewport.Height = page.DefaultHeight
	}
	if j.Format == "" {
		j.Format = "png"
	}
	j.Format = strings.ToLower(j.Format)
	if j.Format == "jpg" {
		j.Format = "jpeg"
	}
	if j.JPEGQuality <= 0 || j.JPEGQuality > 1 {
		j.JPEGQuality = images.DefaultJPEGQuality
	}
	if j.RegionFormat == "" {
		j.RegionFormat = "png"
	}
}

// Validate reports every problem that would stop the job from running.
func (j *Job) Validate() error {
	var errs []error
	if j.Input == "" {
		errs = append(errs, errors.New("input is required"))
	}
	if j.Root == "" {
		errs = append(errs, errors.New("root is required"))
	}
	switch j.Format {
	case "png", "jpeg", "svg":
	case "multi":
		if j.Selector == "" {
			errs = append(errs, errors.New("multi format needs a selector"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown format %q", j.Format))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Extension is the file extension of the job's output.
func (j *Job) Extension() string {
	switch j.Format {
	case "jpeg":
		return ".jpg"
	case "svg":
		return ".svg"
	case "multi":
		if j.RegionFormat == "jpeg" || j.RegionFormat == "jpg" {
			return ".jpg"
		}
	}
	return ".png"
}

// ToSnapshot returns the pipeline configuration for the job.
func (j *Job) ToSnapshot() snapshot.Config {
	return snapshot.Config{
		Root:            j.Root,
		BackgroundColor: j.BackgroundColor,
		Scale:           j.Scale,
	}
}

// SnapshotOptions returns the pipeline options for the job.
func (j *Job) SnapshotOptions() []snapshot.Option {
	return []snapshot.Option{snapshot.WithJPEGQuality(j.JPEGQuality)}
}

// PageOptions returns the options for loading the job's input.
func (j *Job) PageOptions() []page.Option {
	opts := []page.Option{page.WithViewport(j.Viewport.Width, j.Viewport.Height)}
	if j.NoScripts {
		opts = append(opts, page.WithoutScripts())
	}
	return opts
}
