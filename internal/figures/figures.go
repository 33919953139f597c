// Package figures renders the three diagnostic plots of the calibration
// analysis as fixed-size 300 DPI PNG images.
package figures

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/wsuduce/ghost-rank/domain/ghost"
	"github.com/wsuduce/ghost-rank/internal/errors"
	"github.com/wsuduce/ghost-rank/internal/metric"
)

// Output filenames, fixed so downstream tooling can find them.
const (
	CalibrationCurvePNG = "fig1_calibration_curve.png"
	MonsterParadePNG    = "fig2_monster_parade.png"
	D3AnomalyPNG        = "fig3_d3_anomaly.png"
)

var (
	cleanColor   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	anomalyColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	lawColor     = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	sigmaColor   = color.RGBA{R: 127, G: 127, B: 127, A: 255}
)

// RenderAll writes the three figures into dir, creating it if needed.
// The figures are independent, so they render concurrently; the first
// failure wins.
func RenderAll(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create results directory %s", dir)
	}

	var g errgroup.Group
	g.Go(func() error { return CalibrationCurve(filepath.Join(dir, CalibrationCurvePNG)) })
	g.Go(func() error { return MonsterParade(filepath.Join(dir, MonsterParadePNG)) })
	g.Go(func() error { return D3AnomalyPanels(filepath.Join(dir, D3AnomalyPNG)) })
	return g.Wait()
}

// CalibrationCurve plots the nine clean catalog points in (log10|Ш|, D)
// space together with the calibrated law and the d3 anomaly.
func CalibrationCurve(path string) error {
	p := plot.New()
	p.Title.Text = "Ghost Rank calibration: D = (1/√e) × log₁₀|Ш| + C"
	p.X.Label.Text = "log₁₀|Ш|"
	p.Y.Label.Text = "Diffusion index D"
	p.X.Min, p.X.Max = 2.2, 4.0
	p.Y.Min, p.Y.Max = 1.3, 2.7

	clean := ghost.CalibrationPoints()
	pts := make(plotter.XYs, len(clean))
	for i, c := range clean {
		pts[i] = plotter.XY{X: math.Log10(c.Sha), Y: c.D}
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "failed to build calibration scatter")
	}
	scatter.GlyphStyle.Color = cleanColor
	scatter.GlyphStyle.Radius = vg.Points(4)
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}

	law, err := plotter.NewLine(plotter.XYs{
		{X: 2.2, Y: lawD(2.2)},
		{X: 4.0, Y: lawD(4.0)},
	})
	if err != nil {
		return errors.Wrap(err, "failed to build law line")
	}
	law.LineStyle.Color = lawColor
	law.LineStyle.Width = vg.Points(1.5)
	law.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}

	d3 := ghost.D3Anomaly()
	anomaly, err := plotter.NewScatter(plotter.XYs{{X: math.Log10(d3.Sha), Y: d3.D}})
	if err != nil {
		return errors.Wrap(err, "failed to build anomaly marker")
	}
	anomaly.GlyphStyle.Color = anomalyColor
	anomaly.GlyphStyle.Radius = vg.Points(6)
	anomaly.GlyphStyle.Shape = draw.PyramidGlyph{}

	p.Add(plotter.NewGrid(), scatter, law, anomaly)
	p.Legend.Add("calibration points", scatter)
	p.Legend.Add("calibrated law", law)
	p.Legend.Add(d3.Label+" anomaly", anomaly)
	p.Legend.Top = true
	p.Legend.Left = true

	return savePNG(p, path)
}

// MonsterParade draws horizontal bars of |Ш| for the full catalog,
// largest on top, each annotated with its perfect-square decomposition.
// The d3 anomaly bar is highlighted.
func MonsterParade(path string) error {
	catalog := ghost.AllCalibrationPoints()
	sort.Slice(catalog, func(i, j int) bool { return catalog[i].Sha < catalog[j].Sha })

	p := plot.New()
	p.Title.Text = "Monster parade: verified |Ш| magnitudes"
	p.X.Label.Text = "|Ш|"

	values := make(plotter.Values, len(catalog))
	highlight := make(plotter.Values, len(catalog))
	names := make([]string, len(catalog))
	labels := plotter.XYLabels{
		XYs:    make(plotter.XYs, len(catalog)),
		Labels: make([]string, len(catalog)),
	}
	for i, c := range catalog {
		values[i] = c.Sha
		if c.Anomaly {
			values[i] = 0
			highlight[i] = c.Sha
		}
		names[i] = c.Label
		if c.Name != "" {
			names[i] = fmt.Sprintf("%s (%s)", c.Name, c.Label)
		}
		root := int(math.Sqrt(c.Sha))
		labels.XYs[i] = plotter.XY{X: c.Sha, Y: float64(i)}
		labels.Labels[i] = fmt.Sprintf(" %.0f = %d²", c.Sha, root)
	}

	bars, err := plotter.NewBarChart(values, vg.Points(14))
	if err != nil {
		return errors.Wrap(err, "failed to build parade bars")
	}
	bars.Horizontal = true
	bars.Color = cleanColor
	bars.LineStyle.Width = 0

	anomalyBars, err := plotter.NewBarChart(highlight, vg.Points(14))
	if err != nil {
		return errors.Wrap(err, "failed to build anomaly bar")
	}
	anomalyBars.Horizontal = true
	anomalyBars.Color = anomalyColor
	anomalyBars.LineStyle.Width = 0

	annotations, err := plotter.NewLabels(labels)
	if err != nil {
		return errors.Wrap(err, "failed to build parade annotations")
	}

	p.Add(bars, anomalyBars, annotations)
	p.NominalY(names...)
	p.X.Min = 0

	return savePNG(p, path)
}

// D3AnomalyPanels renders residuals of the full catalog against the
// calibrated law next to their z-scores, with 2σ and 3σ reference lines.
// σ comes from the nine clean residuals only, so the anomaly does not
// dilute its own significance.
func D3AnomalyPanels(path string) error {
	catalog := ghost.AllCalibrationPoints()

	residuals := make([]float64, len(catalog))
	var cleanResiduals []float64
	for i, c := range catalog {
		residuals[i] = c.D - lawD(math.Log10(c.Sha))
		if !c.Anomaly {
			cleanResiduals = append(cleanResiduals, residuals[i])
		}
	}
	sigma, _ := stats.StandardDeviation(cleanResiduals)

	resPlot, err := anomalyPanel(catalog, residuals, "Residual vs calibrated law", "Residual in D", sigma)
	if err != nil {
		return err
	}
	zScores := make([]float64, len(residuals))
	if sigma > 0 {
		for i, r := range residuals {
			zScores[i] = r / sigma
		}
	}
	zPlot, err := anomalyPanel(catalog, zScores, "Residual z-scores", "z-score (σ from clean points)", 1)
	if err != nil {
		return err
	}

	img := vgimg.NewWith(vgimg.UseWH(10*vg.Inch, 7*vg.Inch), vgimg.UseDPI(300))
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: 1, Cols: 2, PadX: vg.Points(12)}
	plots := [][]*plot.Plot{{resPlot, zPlot}}
	canvases := plot.Align(plots, tiles, dc)
	resPlot.Draw(canvases[0][0])
	zPlot.Draw(canvases[0][1])

	return writeCanvas(img, path)
}

// anomalyPanel builds one bar panel of per-point deviations with dashed
// reference lines at ±2σ and ±3σ.
func anomalyPanel(catalog []ghost.CalibrationPoint, deviations []float64, title, xLabel string, sigma float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel

	values := make(plotter.Values, len(deviations))
	highlight := make(plotter.Values, len(deviations))
	names := make([]string, len(catalog))
	for i, c := range catalog {
		values[i] = deviations[i]
		if c.Anomaly {
			values[i] = 0
			highlight[i] = deviations[i]
		}
		names[i] = c.Label
	}

	bars, err := plotter.NewBarChart(values, vg.Points(10))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build deviation bars")
	}
	bars.Horizontal = true
	bars.Color = cleanColor
	bars.LineStyle.Width = 0

	anomalyBars, err := plotter.NewBarChart(highlight, vg.Points(10))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build anomaly deviation bar")
	}
	anomalyBars.Horizontal = true
	anomalyBars.Color = anomalyColor
	anomalyBars.LineStyle.Width = 0

	p.Add(bars, anomalyBars)
	p.NominalY(names...)

	for _, mult := range []float64{2, 3} {
		for _, sign := range []float64{1, -1} {
			ref, err := verticalLine(sign*mult*sigma, len(catalog))
			if err != nil {
				return nil, err
			}
			p.Add(ref)
		}
	}

	return p, nil
}

func verticalLine(x float64, n int) (*plotter.Line, error) {
	l, err := plotter.NewLine(plotter.XYs{
		{X: x, Y: -0.5},
		{X: x, Y: float64(n) - 0.5},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to build reference line")
	}
	l.LineStyle.Color = sigmaColor
	l.LineStyle.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
	return l, nil
}

// lawD evaluates the calibrated law at log10|Ш| = x.
func lawD(x float64) float64 {
	return metric.DiffusionSlope*x + metric.CalibrationIntercept
}

// savePNG draws the plot on a 10×7 inch canvas at 300 DPI.
func savePNG(p *plot.Plot, path string) error {
	img := vgimg.NewWith(vgimg.UseWH(10*vg.Inch, 7*vg.Inch), vgimg.UseDPI(300))
	p.Draw(draw.New(img))
	return writeCanvas(img, path)
}

func writeCanvas(img *vgimg.Canvas, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create figure file %s", path)
	}
	defer f.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return errors.Wrapf(err, "failed to encode figure %s", path)
	}
	return nil
}
