// Package chart draws the friction-factor chart of a computed trial table.
package chart

import (
	"io"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	apperrors "github.com/kbukum/pipeflow/errors"
	"github.com/kbukum/pipeflow/flow"
	"github.com/kbukum/pipeflow/table"
)

// Default chart size.
const (
	DefaultWidth  = 6 * vg.Inch
	DefaultHeight = 4 * vg.Inch
)

// Formats accepted by Write.
var Formats = []string{"png", "svg", "pdf", "eps", "jpg", "tif"}

// Options controls the chart appearance.
type Options struct {
	Title  string
	Width  vg.Length
	Height vg.Length
}

func (o *Options) applyDefaults() {
	if o.Title == "" {
		o.Title = "Friction factor vs Reynolds number"
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
}

// Series extracts the (Re, column) pairs of t that can sit on a log-log
// chart: both cells valid and strictly positive. Points are sorted by Re.
func Series(t *table.Table, column string) (plotter.XYs, error) {
	if missing := t.Missing(flow.ColRe, column); len(missing) > 0 {
		return nil, apperrors.MissingColumns(missing...)
	}
	re, _ := t.Column(flow.ColRe)
	y, _ := t.Column(column)

	var pts plotter.XYs
	for row := 0; row < t.Rows(); row++ {
		x, xok := re.At(row)
		v, vok := y.At(row)
		if !xok || !vok || x <= 0 || v <= 0 {
			continue
		}
		pts = append(pts, plotter.XY{X: x, Y: v})
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].X < pts[j].X })
	return pts, nil
}

// FrictionChart plots the experimental friction factor as points and the
// theoretical one as a line, both against Re on logarithmic axes.
func FrictionChart(t *table.Table, opts Options) (*plot.Plot, error) {
	opts.applyDefaults()

	exp, err := Series(t, flow.ColFexp)
	if err != nil {
		return nil, err
	}
	theo, err := Series(t, flow.ColFtheo)
	if err != nil {
		return nil, err
	}
	if len(exp) == 0 && len(theo) == 0 {
		return nil, apperrors.InvalidInput("table", "no valid friction factors to plot")
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "Re"
	p.Y.Label.Text = "f"
	p.X.Scale = plot.LogScale{}
	p.Y.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	if len(exp) > 0 {
		scatter, err := plotter.NewScatter(exp)
		if err != nil {
			return nil, err
		}
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		scatter.GlyphStyle.Radius = vg.Points(2.5)
		scatter.GlyphStyle.Color = plotutil.Color(0)
		p.Add(scatter)
		p.Legend.Add("Fexp", scatter)
	}
	if len(theo) > 0 {
		line, points, err := plotter.NewLinePoints(theo)
		if err != nil {
			return nil, err
		}
		line.Color = plotutil.Color(1)
		line.Dashes = plotutil.Dashes(1)
		points.Shape = draw.TriangleGlyph{}
		points.Color = plotutil.Color(1)
		p.Add(line, points)
		p.Legend.Add("Ftheo", line, points)
	}
	return p, nil
}

// Write renders p to w in the given format.
func Write(w io.Writer, p *plot.Plot, opts Options, format string) error {
	opts.applyDefaults()
	wt, err := p.WriterTo(opts.Width, opts.Height, strings.ToLower(format))
	if err != nil {
		return apperrors.InvalidInput("format", err.Error()).WithCause(err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// Save renders p to path. The format follows the file extension.
func Save(path string, p *plot.Plot, opts Options) error {
	opts.applyDefaults()
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return apperrors.InvalidInput("path", "chart file needs an extension such as .png or .svg")
	}
	return p.Save(opts.Width, opts.Height, path)
}
