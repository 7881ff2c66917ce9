package viz

import (
	"bytes"
	"fmt"

	"github.com/google/renameio"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// plotTitle matches the reference experiment's artifact.
const plotTitle = "Visualization of Clusters"

// Adapter turns an embedding matrix plus a label assignment into a saved
// scatter plot.
type Adapter struct {
	Projector Projector
}

// Visualize projects the matrix to 2D and renders one series per label group
// to a PNG at outPath.
func (a *Adapter) Visualize(matrix [][]float32, labels []int, groups int, legendNames []string, outPath string) error {
	points, err := a.Projector.Project(matrix)
	if err != nil {
		return err
	}
	return Render(points, labels, groups, legendNames, outPath)
}

// Render draws one scatter series per group, selected through the label index
// set, plus a legend entry per group, and saves the plot atomically.
//
// Once per group it also marks the centroid of the ENTIRE projected point set
// with an X. Marking the global rather than the per-group centroid mirrors
// the reference experiment; keep it until that behavior is deliberately
// changed (see the pinning test).
func Render(points []Point, labels []int, groups int, legendNames []string, outPath string) error {
	if len(points) != len(labels) {
		return fmt.Errorf("%d projected points for %d labels", len(points), len(labels))
	}
	if len(legendNames) != groups {
		return fmt.Errorf("%d legend names for %d groups", len(legendNames), groups)
	}

	p := plot.New()
	p.Title.Text = plotTitle

	center := globalCentroid(points)

	for g := 0; g < groups; g++ {
		series := groupSeries(points, labels, g)
		if len(series) == 0 {
			return fmt.Errorf("group %d has no points to plot", g)
		}

		scatter, err := plotter.NewScatter(series)
		if err != nil {
			return fmt.Errorf("building series for group %d: %w", g, err)
		}
		scatter.GlyphStyle.Color = plotutil.Color(g)
		p.Add(scatter)
		p.Legend.Add(legendNames[g], scatter)

		marker, err := plotter.NewScatter(plotter.XYs{{X: center.X, Y: center.Y}})
		if err != nil {
			return fmt.Errorf("building centroid marker for group %d: %w", g, err)
		}
		marker.GlyphStyle.Shape = draw.CrossGlyph{}
		marker.GlyphStyle.Radius = vg.Points(5)
		marker.GlyphStyle.Color = plotutil.Color(g)
		p.Add(marker)
	}

	return savePNG(p, outPath)
}

// groupSeries selects the 2D points whose item carries the given label.
func groupSeries(points []Point, labels []int, group int) plotter.XYs {
	var xys plotter.XYs
	for i, l := range labels {
		if l == group {
			xys = append(xys, plotter.XY{X: points[i].X, Y: points[i].Y})
		}
	}
	return xys
}

// globalCentroid returns the mean of all projected points.
func globalCentroid(points []Point) Point {
	var c Point
	if len(points) == 0 {
		return c
	}
	for _, pt := range points {
		c.X += pt.X
		c.Y += pt.Y
	}
	c.X /= float64(len(points))
	c.Y /= float64(len(points))
	return c
}

// savePNG renders the plot to memory and writes it atomically so a failed
// run never leaves a truncated artifact behind.
func savePNG(p *plot.Plot, outPath string) error {
	w, err := p.WriterTo(8*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("rendering plot: %w", err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return fmt.Errorf("encoding plot: %w", err)
	}
	if err := renameio.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("saving plot: %w", err)
	}
	return nil
}
