// Command domsnap captures an element of an HTML document as an image.
//
//	domsnap png page.html --root "#card" -o card.png
//	domsnap multi https://example.com/report --root main --selector figure
//	domsnap run --config job.yaml
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"domsnap/pkg/config"
	"domsnap/pkg/images"
	"domsnap/pkg/logging"
	"domsnap/pkg/visualtest"
)

const version = "0.3.0"

type flags struct {
	config     string
	root       string
	background string
	scale      float64
	width      float64
	height     float64
	quality    float64
	timeout    time.Duration
	noScripts  bool
	output     string
	selector   string
	regions    string
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "domsnap",
		Short:         "Capture HTML elements as PNG, JPEG or SVG images",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if f.verbose {
				logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&f.config, "config", "c", "", "YAML job file; flags override its values")
	pf.StringVarP(&f.root, "root", "r", "", "selector of the element to capture (required)")
	pf.StringVar(&f.background, "background", "", "background colour for the captured element")
	pf.Float64VarP(&f.scale, "scale", "s", 0, "device scale factor (default 2)")
	pf.Float64Var(&f.width, "width", 0, "viewport width in CSS pixels (default 800)")
	pf.Float64Var(&f.height, "height", 0, "viewport height in CSS pixels (default 600)")
	pf.Float64VarP(&f.quality, "quality", "q", 0, "JPEG quality in (0, 1] (default 0.92)")
	pf.DurationVar(&f.timeout, "timeout", 0, "give up after this long; zero waits for every image")
	pf.BoolVar(&f.noScripts, "no-scripts", false, "do not run the document's scripts")
	pf.StringVarP(&f.output, "output", "o", "", "output file (default snapshot.<ext>)")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "log pipeline steps to stderr")

	for _, format := range []string{"png", "jpeg", "svg"} {
		root.AddCommand(formatCmd(f, format))
	}

	multi := formatCmd(f, "multi")
	multi.Short = "Capture the root once and crop out every element matching --selector"
	multi.Flags().StringVar(&f.selector, "selector", "", "selector of the regions to crop")
	multi.Flags().StringVar(&f.regions, "region-format", "", "png or jpeg (default png)")
	root.AddCommand(multi)

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the job described by --config",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.config == "" {
				return fmt.Errorf("run needs --config")
			}
			return execute(cmd, f, "", args)
		},
	})
	root.AddCommand(dumpCmd(f))
	root.AddCommand(compareCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "domsnap version %s\n", version)
		},
	})
	return root
}

func formatCmd(f *flags, format string) *cobra.Command {
	return &cobra.Command{
		Use:   format + " <file-or-url>",
		Short: "Capture the root element as " + format,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, f, format, args)
		},
	}
}

// job merges the config file, the format named by the subcommand and
// every flag set on the command line, in that order.
func (f *flags) job(cmd *cobra.Command, format string, args []string) (*config.Job, error) {
	j := config.Default()
	if f.config != "" {
		var err error
		if j, err = config.LoadFile(f.config); err != nil {
			return nil, err
		}
	}
	if format != "" {
		j.Format = format
	}
	if len(args) > 0 {
		j.Input = args[0]
	}

	set := cmd.Flags().Changed
	if set("root") {
		j.Root = f.root
	}
	if set("background") {
		j.BackgroundColor = f.background
	}
	if set("scale") {
		j.Scale = f.scale
	}
	if set("width") {
		j.Viewport.Width = f.width
	}
	if set("height") {
		j.Viewport.Height = f.height
	}
	if set("quality") {
		j.JPEGQuality = f.quality
	}
	if set("timeout") {
		j.Timeout = f.timeout
	}
	if set("no-scripts") {
		j.NoScripts = f.noScripts
	}
	if set("output") {
		j.Output = f.output
	}
	if set("selector") {
		j.Selector = f.selector
	}
	if set("region-format") {
		j.RegionFormat = f.regions
	}
	if j.Output == "" {
		j.Output = "snapshot" + j.Extension()
	}
	return j, j.Validate()
}

func execute(cmd *cobra.Command, f *flags, format string, args []string) error {
	j, err := f.job(cmd, format, args)
	if err != nil {
		return err
	}
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)
	w := cmd.ErrOrStderr()

	cyan.Fprintf(w, "Capturing %s from %s\n", j.Root, j.Input)
	files, err := capture(cmd.Context(), j)
	if err != nil {
		return err
	}
	for _, out := range files {
		green.Fprintf(w, "✓ %s", out.path)
		if out.region != "" {
			fmt.Fprintf(w, "  %s", out.region)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func dumpCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <file-or-url>",
		Short: "Print the flattened clone of the root as a tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := f.job(cmd, "", args)
			if err != nil {
				return err
			}
			tree, err := dump(cmd.Context(), j)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), tree)
			return nil
		},
	}
}

func compareCmd() *cobra.Command {
	opts := visualtest.DefaultOptions()
	var diff string
	cmd := &cobra.Command{
		Use:   "compare <actual> <expected>",
		Short: "Compare a capture with a reference image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Diff = diff != ""
			res, err := visualtest.CompareFiles(args[0], args[1], opts)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if res.Diff != nil && !res.Match {
				uri, err := images.ToDataURL(res.Diff, "image/png", 0)
				if err != nil {
					return err
				}
				if err := writeURI(diff, uri); err != nil {
					return err
				}
			}
			if !res.Match {
				color.New(color.FgRed).Fprintf(w, "✗ %d of %d pixels differ (max difference %d)\n",
					res.DifferentPixels, res.TotalPixels, res.MaxDifference)
				return fmt.Errorf("images differ")
			}
			color.New(color.FgGreen).Fprintf(w, "✓ images match (max difference %d)\n", res.MaxDifference)
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.Tolerance, "tolerance", opts.Tolerance, "largest channel difference, 0-255, counted as equal")
	cmd.Flags().IntVar(&opts.FuzzyRadius, "radius", 0, "let pixels match neighbours this far away")
	cmd.Flags().Float64Var(&opts.MaxDifferentPercent, "max-percent", 0, "pass when at most this percentage of pixels differ")
	cmd.Flags().StringVar(&diff, "diff", "", "write a diff image here when the images differ")
	return cmd
}
