package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/spf13/cobra"

	"github.com/pointdash/pointdash/internal/dataset"
	"github.com/pointdash/pointdash/internal/engine"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <dataset>",
	Short: "Report how a dataset will be scaled",
	Long: `Loads a JSON or YAML dataset and prints its extent, the padded domains and
the scale mode chosen for each axis. With --frame the first rendered frame is
printed as JSON instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := dataset.LoadFile(args[0])
		if err != nil {
			return err
		}
		padding, _ := cmd.Flags().GetFloat64("padding")
		threshold, _ := cmd.Flags().GetFloat64("symlog-threshold")

		if cmd.Flags().Changed("frame") {
			width, _ := cmd.Flags().GetFloat64("width")
			height, _ := cmd.Flags().GetFloat64("height")
			return writeFrame(cmd.OutOrStdout(), f.Points, width, height, padding, threshold)
		}
		return writeReport(cmd.OutOrStdout(), f, padding, threshold)
	},
}

func init() {
	inspectCmd.Flags().Float64("padding", engine.DefaultPaddingPercent, "Domain padding in percent of the span")
	inspectCmd.Flags().Float64("symlog-threshold", engine.DefaultSymlogThreshold, "Span above which an axis switches to symlog")
	inspectCmd.Flags().Bool("frame", false, "Print the rendered frame as JSON")
	inspectCmd.Flags().Float64("width", 700, "Viewport width for --frame")
	inspectCmd.Flags().Float64("height", 500, "Viewport height for --frame")
	rootCmd.AddCommand(inspectCmd)
}

type axisReport struct {
	min, max float64
	domain   engine.Domain
	mode     engine.ScaleMode
}

func inspectAxis(values []float64, padding, threshold float64) axisReport {
	r := axisReport{min: math.Inf(1), max: math.Inf(-1)}
	for _, v := range values {
		r.min = math.Min(r.min, v)
		r.max = math.Max(r.max, v)
	}
	r.domain = engine.PaddedDomain(values, padding)
	r.mode = engine.ResolveMode(r.domain, engine.ScaleAuto, threshold)
	return r
}

func writeReport(w io.Writer, f *dataset.File, padding, threshold float64) error {
	name := f.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(w, "dataset: %s\n", name)
	fmt.Fprintf(w, "points:  %d\n", len(f.Points))
	if len(f.Points) == 0 {
		return nil
	}

	xs := make([]float64, len(f.Points))
	ys := make([]float64, len(f.Points))
	for i, p := range f.Points {
		xs[i], ys[i] = p.X, p.Y
	}
	for _, axis := range []struct {
		name string
		r    axisReport
	}{
		{"x", inspectAxis(xs, padding, threshold)},
		{"y", inspectAxis(ys, padding, threshold)},
	} {
		fmt.Fprintf(w, "%s: extent [%g, %g]  domain [%g, %g]  scale %s\n",
			axis.name, axis.r.min, axis.r.max, axis.r.domain.Min, axis.r.domain.Max, axis.r.mode)
	}
	return nil
}

func writeFrame(w io.Writer, points []dataset.Point, width, height, padding, threshold float64) error {
	opts := engine.DefaultOptions()
	opts.DomainPaddingPercent = padding
	opts.SymlogThreshold = threshold
	v := engine.NewView(opts, engine.Callbacks{})
	defer v.Close()
	v.SetViewport(width, height)
	v.SetPoints(points)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v.Render())
}
