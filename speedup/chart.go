// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package speedup

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
	"gonum.org/v1/plot/vg/vgsvg"
)

const (
	chartWidth  = 24 * vg.Centimeter
	chartHeight = 9 * vg.Centimeter
	chartDPI    = 150
)

// Chart draws the compute time and the speedup of c against the rank
// count, side by side, and writes the chart to path. The format is
// chosen by the extension of path, which must be .png, .svg or .pdf.
func Chart(c *Comparison, path string) error {
	if len(c.Entries) < 2 {
		return fmt.Errorf("chart needs at least two rank counts, have %d", len(c.Entries))
	}

	var can vg.CanvasWriterTo
	switch ext := filepath.Ext(path); ext {
	case ".png":
		can = vgimg.PngCanvas{Canvas: vgimg.NewWith(vgimg.UseWH(chartWidth, chartHeight),
			vgimg.UseDPI(chartDPI), vgimg.UseBackgroundColor(color.White))}
	case ".svg":
		can = vgsvg.New(chartWidth, chartHeight)
	case ".pdf":
		can = vgpdf.New(chartWidth, chartHeight)
	default:
		return fmt.Errorf("unsupported chart format %q", ext)
	}

	var times, ratios plotter.XYs
	var names []string
	for i, e := range c.Entries {
		times = append(times, plotter.XY{X: float64(i), Y: e.ComputeSeconds})
		if e.Speedup != nil {
			ratios = append(ratios, plotter.XY{X: float64(i), Y: *e.Speedup})
		}
		names = append(names, strconv.Itoa(e.Ranks))
	}

	tp, err := linePlot("Compute time", "seconds", times, names)
	if err != nil {
		return err
	}
	tp.Y.Min = 0

	sp, err := linePlot(fmt.Sprintf("Time relative to %d ranks", c.Baseline), "run time / baseline time", ratios, names)
	if err != nil {
		return err
	}
	if len(ratios) > 0 {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, r := range ratios {
			lo, hi = math.Min(lo, r.Y), math.Max(hi, r.Y)
		}
		// Force the unit ratio onto the graph to ensure there is a scale.
		lo, hi = math.Min(lo, 1), math.Max(hi, 1)
		sp.Y.Min, sp.Y.Max = lo, hi
		sp.Y.Tick.Marker = ratioLines(lo, hi)
	}

	dc := draw.New(can)
	tiles := draw.Tiles{Rows: 1, Cols: 2, PadX: vg.Centimeter, PadY: vg.Millimeter * 4, PadLeft: vg.Millimeter * 4, PadRight: vg.Millimeter * 4, PadTop: vg.Millimeter * 4, PadBottom: vg.Millimeter * 4}
	cells := plot.Align([][]*plot.Plot{{tp, sp}}, tiles, dc)
	tp.Draw(cells[0][0])
	sp.Draw(cells[0][1])

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := can.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func linePlot(title, ylabel string, xys plotter.XYs, names []string) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = title
	pl.X.Label.Text = "MPI ranks"
	pl.Y.Label.Text = ylabel

	grid := plotter.NewGrid()
	grid.Vertical.Color = nil
	pl.Add(grid)

	if len(xys) > 0 {
		l, pts, err := plotter.NewLinePoints(xys)
		if err != nil {
			return nil, err
		}
		l.Color = color.NRGBA{0, 0, 0xFF, 0xFF}
		pts.Shape = draw.CircleGlyph{}
		pl.Add(l, pts)
	}
	pl.NominalX(names...)
	return pl, nil
}

type lines struct {
	ticks []plot.Tick
}

func (u lines) Ticks(min, max float64) []plot.Tick {
	return u.ticks
}

// roundish finds a roundish fraction less than x, and the number of
// digits for formatting. x is distance from 1.0, so 1 +/- roundish(x)
// gives a good location for a grid line.
func roundish(x float64) (float64, int) {
	if !(x > 0) { // catch NaN also.
		panic(fmt.Sprintf("roundish(%.9g <= 0)", x))
	}
	if x >= 1 {
		return math.Trunc(x), 0
	}
	if x >= 0.5 {
		return 0.5, 1
	}
	if x >= 0.25 {
		return 0.25, 2
	}
	if x >= 0.2 {
		return 0.2, 1
	}
	if x >= 0.1 {
		return 0.1, 1
	}
	x, n := roundish(x * 10)
	return x / 10, n + 1
}

func reverseTicks(ticks []plot.Tick) []plot.Tick {
	l := len(ticks)
	for i := 0; i < l/2; i++ {
		ticks[i], ticks[l-i-1] = ticks[l-i-1], ticks[i]
	}
	return ticks
}

// ratioLines places grid lines at multiples of a roundish step away
// from 1, covering [min, max]. The bounds are inclusive: the axis is
// set to exactly the extreme ratios, and those get a line too.
func ratioLines(min, max float64) lines {
	below, above := 1-min, max-1
	if below <= 0 && above <= 0 {
		return lines{ticks: []plot.Tick{one}}
	}
	step, k := roundish(math.Max(below, above))
	if above > 0 {
		k++ // for 1.frac
	}
	var ticks []plot.Tick
	for t := 1.0; t >= min; t -= step {
		ticks = append(ticks, tick(t, k))
	}
	ticks = reverseTicks(ticks)
	for t := 1 + step; t <= max; t += step {
		ticks = append(ticks, tick(t, k))
	}
	return lines{ticks: ticks}
}

func tick(x float64, k int) plot.Tick {
	return plot.Tick{Value: x, Label: fmt.Sprintf("%.[2]*[1]g", x, k)}
}

var one = plot.Tick{Value: 1.0, Label: "1.0"}
