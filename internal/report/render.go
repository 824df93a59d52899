package report

import (
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"shufflebench/internal/benchmark"
)

const (
	compositeCols = 2
	panelWidth    = 12 * vg.Inch
	panelHeight   = 6 * vg.Inch
	singleWidth   = 10 * vg.Inch
	singleHeight  = 6 * vg.Inch
)

var (
	baselineColor = color.RGBA{R: 128, G: 0, B: 128, A: 255}
	overlayColor  = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	unsafePath    = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// BaselineFunc returns the tuple generation time for a tuple size.
type BaselineFunc func(tupleSize float64) (float64, bool)

// ChartObserver is told about every written chart file.
type ChartObserver interface {
	ObserveChart(metric string)
}

// Renderer writes the charts of one report run.
type Renderer struct {
	OutDir    string
	Format    string
	Formatter *Formatter
	// TotalTuples is the fixed tuple count used for throughput; zero uses
	// each row's Tuples column.
	TotalTuples float64
	Baseline    BaselineFunc
	// Lookup, Synchronised and Window configure the theoretical maximum
	// overlay.
	Lookup       *benchmark.Lookup
	Synchronised bool
	Window       time.Duration
	Observer     ChartObserver
	// Benchmarks fixes the colour and marker order of the benchmarks,
	// usually Table.Benchmarks(). Names not listed follow in first-seen
	// order across all groups.
	Benchmarks []string
}

// Artifacts lists the files written for one metric.
type Artifacts struct {
	Composite string
	Panels    []string
	// Skipped holds the keys of groups without any plottable value.
	Skipped []string
}

// CompositePath is the multi-panel image for a metric.
func (r *Renderer) CompositePath(m Metric) string {
	return filepath.Join(r.OutDir, m.Name+"_Combined."+r.format())
}

// PanelPath is the standalone image of one group.
func (r *Renderer) PanelPath(m Metric, key string) string {
	return filepath.Join(r.OutDir, m.Name, m.Name+"_"+unsafePath.ReplaceAllString(key, "_")+"."+r.format())
}

func (r *Renderer) format() string {
	if r.Format == "" {
		return "svg"
	}
	return r.Format
}

// Render draws one panel per group for metric m, writes each panel on its
// own and all of them together in a two-column composite. Groups with no
// plottable value are skipped; if no group is left ErrEmptyGroup is
// returned.
func (r *Renderer) Render(groups []Group, m Metric) (Artifacts, error) {
	if r.Formatter == nil {
		f, err := NewFormatter("en")
		if err != nil {
			return Artifacts{}, err
		}
		r.Formatter = f
	}
	var art Artifacts
	var panels []*plot.Plot
	styles := r.styleIndex(groups)
	for _, g := range groups {
		p, err := r.panel(g, m, styles)
		if errors.Is(err, ErrEmptyGroup) {
			slog.Warn("Skipping empty group", "metric", m.Name, "group", g.Key)
			art.Skipped = append(art.Skipped, g.Key)
			continue
		}
		if err != nil {
			return art, err
		}
		path := r.PanelPath(m, g.Key)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return art, errors.Wrapf(err, "creating %s", filepath.Dir(path))
		}
		if err := p.Save(singleWidth, singleHeight, path); err != nil {
			return art, errors.Wrapf(err, "saving %s", path)
		}
		r.observe(m)
		art.Panels = append(art.Panels, path)
		panels = append(panels, p)
	}
	if len(panels) == 0 {
		return art, errors.Wrapf(ErrEmptyGroup, "metric %s", m.Name)
	}

	art.Composite = r.CompositePath(m)
	if err := r.writeComposite(art.Composite, panels); err != nil {
		return art, err
	}
	r.observe(m)
	slog.Info("Saved combined plot", "metric", m.Name, "path", art.Composite, "panels", len(panels))
	return art, nil
}

func (r *Renderer) observe(m Metric) {
	if r.Observer != nil {
		r.Observer.ObserveChart(m.Name)
	}
}

// styleIndex assigns every benchmark one palette index shared by all panels.
func (r *Renderer) styleIndex(groups []Group) map[string]int {
	index := make(map[string]int)
	add := func(name string) {
		if _, ok := index[name]; !ok {
			index[name] = len(index)
		}
	}
	for _, name := range r.Benchmarks {
		add(name)
	}
	for _, g := range groups {
		for _, rec := range g.Records {
			add(rec.Benchmark)
		}
	}
	return index
}

func (r *Renderer) panel(g Group, m Metric, styles map[string]int) (*plot.Plot, error) {
	lines := Series(g, m, r.TotalTuples)
	minY, maxY, ok := YRange(lines)
	if !ok {
		return nil, ErrEmptyGroup
	}

	p := plot.New()
	title := fmt.Sprintf("Combined - %s %s", g.Column, g.Key)
	if gb, ok := g.Min(benchmark.ColGB); ok {
		title += fmt.Sprintf(" (%s GB)", r.Formatter.Float(gb))
	}
	p.Title.Text = title
	p.X.Label.Text = "Threads"
	p.Y.Label.Text = m.Label()
	p.Add(plotter.NewGrid())
	if m.LogScale {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{}
	}

	var all []Point
	for _, l := range lines {
		line, points, err := plotter.NewLinePoints(toXYs(l.Points))
		if err != nil {
			return nil, errors.Wrapf(err, "series %s", l.Benchmark)
		}
		i := styles[l.Benchmark]
		line.Color = plotutil.Color(i)
		points.Color = plotutil.Color(i)
		points.Shape = plotutil.Shape(i)
		p.Add(line, points)
		p.Legend.Add(l.Benchmark, line, points)
		all = append(all, l.Points...)
	}

	if m.Baseline && r.Baseline != nil {
		if size, ok := g.First(benchmark.ColTupleSize); ok {
			if v, ok := r.Baseline(size); ok {
				fn := plotter.NewFunction(func(float64) float64 { return v })
				fn.Color = baselineColor
				fn.Width = vg.Points(1.5)
				fn.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
				p.Add(fn)
				p.Legend.Add(fmt.Sprintf("Tuple Generation (%s %s)", r.Formatter.Float(v), m.Unit), fn)
				p.Y.Min = math.Min(p.Y.Min, v)
				p.Y.Max = math.Max(p.Y.Max, v)
				minY = math.Min(minY, v)
			}
		}
	}

	if m.Overlay && r.Lookup != nil {
		if err := r.addOverlay(p, g, m); err != nil {
			return nil, err
		}
	}

	for _, a := range PlaceLabels(all, minY, maxY) {
		labels, err := plotter.NewLabels(plotter.XYLabels{
			XYs:    plotter.XYs{{X: a.X, Y: a.Y}},
			Labels: []string{r.Formatter.Value(a.Y)},
		})
		if err != nil {
			return nil, errors.Wrap(err, "creating labels")
		}
		for i := range labels.TextStyle {
			labels.TextStyle[i].XAlign = text.XCenter
		}
		labels.Offset = vg.Point{Y: vg.Points(5 + a.Shift*2)}
		p.Add(labels)
	}
	return p, nil
}

func (r *Renderer) addOverlay(p *plot.Plot, g Group, m Metric) error {
	size, ok := g.First(benchmark.ColTupleSize)
	if !ok {
		return nil
	}
	parts, ok := g.First(benchmark.ColPartitions)
	if !ok {
		return nil
	}
	series := r.Lookup.Series(r.Synchronised, int(size), int(parts), r.Window)
	if len(series) == 0 {
		return nil
	}
	pts := make(plotter.XYs, len(series))
	for i, s := range series {
		pts[i] = plotter.XY{X: float64(s.Threads), Y: s.Throughput}
		if m.Divisor != 0 {
			pts[i].Y /= m.Divisor
		}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrap(err, "theoretical maximum")
	}
	line.Color = overlayColor
	line.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
	p.Add(line)
	p.Legend.Add("Theoretical maximum", line)
	return nil
}

func (r *Renderer) writeComposite(path string, panels []*plot.Plot) error {
	rows := (len(panels) + compositeCols - 1) / compositeCols
	grid := make([][]*plot.Plot, rows)
	for j := range grid {
		grid[j] = make([]*plot.Plot, compositeCols)
		for i := range grid[j] {
			if k := j*compositeCols + i; k < len(panels) {
				grid[j][i] = panels[k]
			} else {
				blank := plot.New()
				blank.HideAxes()
				grid[j][i] = blank
			}
		}
	}

	c, err := draw.NewFormattedCanvas(panelWidth*compositeCols, panelHeight*vg.Length(rows), r.format())
	if err != nil {
		return errors.Wrapf(err, "canvas for %s", path)
	}
	tiles := draw.Tiles{
		Rows: rows, Cols: compositeCols,
		PadTop: vg.Millimeter * 4, PadBottom: vg.Millimeter * 4,
		PadLeft: vg.Millimeter * 4, PadRight: vg.Millimeter * 4,
		PadX: vg.Millimeter * 8, PadY: vg.Millimeter * 8,
	}
	canvases := plot.Align(grid, tiles, draw.New(c))
	for j := range grid {
		for i := range grid[j] {
			grid[j][i].Draw(canvases[j][i])
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "creating %s", filepath.Dir(path))
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	if _, err := c.WriteTo(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	return f.Close()
}

func toXYs(pts []Point) plotter.XYs {
	xys := make(plotter.XYs, len(pts))
	for i, p := range pts {
		xys[i] = plotter.XY{X: p.X, Y: p.Y}
	}
	return xys
}
