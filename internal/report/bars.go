package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gopkg.in/yaml.v3"

	"shufflebench/internal/benchmark"
)

// Comparison is a throughput comparison of several systems across tuple
// sizes, e.g. Apache Flink against SmbLockFreeBatched.
type Comparison struct {
	Title      string   `yaml:"title"`
	Categories []string `yaml:"categories"`
	// Tuples is the number of tuples shuffled per category.
	Tuples  []float64 `yaml:"tuples"`
	Systems []System  `yaml:"systems"`
}

// System holds the elapsed seconds of one system per category.
type System struct {
	Name    string    `yaml:"name"`
	Seconds []float64 `yaml:"seconds"`
}

// Throughput returns tuples per second of system s per category.
func (c *Comparison) Throughput(s System) []float64 {
	out := make([]float64, len(s.Seconds))
	for i, sec := range s.Seconds {
		out[i] = c.Tuples[i] / sec
	}
	return out
}

func (c *Comparison) validate() error {
	if len(c.Categories) == 0 {
		return errors.New("comparison: no categories")
	}
	if len(c.Tuples) != len(c.Categories) {
		return errors.Newf("comparison: %d tuple counts for %d categories", len(c.Tuples), len(c.Categories))
	}
	if len(c.Systems) == 0 {
		return errors.New("comparison: no systems")
	}
	for _, s := range c.Systems {
		if len(s.Seconds) != len(c.Categories) {
			return errors.Newf("comparison: system %q has %d values for %d categories", s.Name, len(s.Seconds), len(c.Categories))
		}
		for _, sec := range s.Seconds {
			if sec <= 0 {
				return errors.Newf("comparison: system %q has non-positive time %v", s.Name, sec)
			}
		}
	}
	return nil
}

// LoadComparison reads a comparison dataset from YAML.
func LoadComparison(path string) (*Comparison, error) {
	var c Comparison
	if err := loadYAML(path, &c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, errors.Wrap(err, path)
	}
	if c.Title == "" {
		c.Title = "Throughput Comparison"
	}
	return &c, nil
}

// RenderComparison draws grouped throughput bars, one group per category.
func RenderComparison(c *Comparison, f *Formatter, path string) error {
	if err := c.validate(); err != nil {
		return err
	}
	p := plot.New()
	p.Title.Text = c.Title
	p.X.Label.Text = "Tuple Size"
	p.Y.Label.Text = "Tuples per Second"
	p.Add(plotter.NewGrid())

	width := vg.Points(24)
	n := len(c.Systems)
	for i, s := range c.Systems {
		tp := c.Throughput(s)
		bars, err := plotter.NewBarChart(plotter.Values(tp), width)
		if err != nil {
			return errors.Wrapf(err, "bars for %s", s.Name)
		}
		bars.Color = plotutil.Color(i)
		bars.LineStyle.Width = 0
		bars.Offset = width * vg.Length(2*i-n+1) / 2
		p.Add(bars)
		p.Legend.Add(s.Name, bars)

		if err := addBarLabels(p, tp, bars.Offset, f.Sci); err != nil {
			return err
		}
	}
	p.Legend.Top = true
	p.NominalX(c.Categories...)
	return save(p, 8*vg.Inch, 5*vg.Inch, path)
}

// Memory is a peak heap usage comparison against a common baseline.
type Memory struct {
	Title           string      `yaml:"title"`
	BaselineGiB     float64     `yaml:"baseline_gib"`
	BaselineLabel   string      `yaml:"baseline_label"`
	Implementations []HeapUsage `yaml:"implementations"`
}

// HeapUsage is the peak heap of one implementation.
type HeapUsage struct {
	Name     string  `yaml:"name"`
	TotalGiB float64 `yaml:"total_gib"`
}

// LoadMemory reads a memory dataset from YAML.
func LoadMemory(path string) (*Memory, error) {
	var m Memory
	if err := loadYAML(path, &m); err != nil {
		return nil, err
	}
	if len(m.Implementations) == 0 {
		return nil, errors.Newf("%s: no implementations", path)
	}
	if m.Title == "" {
		m.Title = "Peak Heap Usage Comparison"
	}
	if m.BaselineLabel == "" {
		m.BaselineLabel = "Min. slotted pages"
	}
	return &m, nil
}

// RenderMemory draws one stacked bar per implementation: the baseline in
// gray and the additional heap above it, sorted by name.
func RenderMemory(m *Memory, f *Formatter, path string) error {
	impls := append([]HeapUsage(nil), m.Implementations...)
	sort.SliceStable(impls, func(i, j int) bool { return impls[i].Name < impls[j].Name })

	base := make(plotter.Values, len(impls))
	over := make(plotter.Values, len(impls))
	names := make([]string, len(impls))
	for i, im := range impls {
		base[i] = m.BaselineGiB
		over[i] = im.TotalGiB - m.BaselineGiB
		if over[i] < 0 {
			over[i] = 0
		}
		names[i] = im.Name
	}

	p := plot.New()
	p.Title.Text = m.Title
	p.X.Label.Text = "Implementations"
	p.Y.Label.Text = "Peak Heap Usage (GiB)"

	width := vg.Points(28)
	baseBars, err := plotter.NewBarChart(base, width)
	if err != nil {
		return errors.Wrap(err, "baseline bars")
	}
	baseBars.Color = color.Gray{Y: 160}
	overBars, err := plotter.NewBarChart(over, width)
	if err != nil {
		return errors.Wrap(err, "overhead bars")
	}
	overBars.Color = plotutil.Color(0)
	overBars.StackOn(baseBars)
	p.Add(baseBars, overBars)
	p.Legend.Add("Additional heap memory", overBars)

	fn := plotter.NewFunction(func(float64) float64 { return m.BaselineGiB })
	fn.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(fn)
	p.Legend.Add(fmt.Sprintf("%s (%s GiB)", m.BaselineLabel, f.Float(m.BaselineGiB)), fn)

	tops := make([]float64, len(impls))
	for i := range impls {
		tops[i] = base[i] + over[i]
	}
	overheads := over
	if err := addBarLabelsText(p, tops, 0, func(i int) string {
		return f.Float(overheads[i]) + " GiB"
	}); err != nil {
		return err
	}
	p.Y.Min = 0
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = 0.785
	p.X.Tick.Label.XAlign = text.XRight
	return save(p, 12*vg.Inch, 6*vg.Inch, path)
}

// RenderPartitions plots elapsed time against the partition count for one
// benchmark.
func RenderPartitions(records []benchmark.Record, name string, f *Formatter, path string) error {
	var pts plotter.XYs
	for _, r := range records {
		if r.Benchmark != name || !r.Valid(benchmark.ColPartitions) || !r.Valid(benchmark.ColTimeSec) {
			continue
		}
		pts = append(pts, plotter.XY{X: r.Value(benchmark.ColPartitions), Y: r.Value(benchmark.ColTimeSec)})
	}
	if len(pts) == 0 {
		return errors.Wrapf(ErrEmptyGroup, "benchmark %s", name)
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].X < pts[j].X })

	p := plot.New()
	p.Title.Text = "Time vs. Number of Partitions"
	p.X.Label.Text = "Number of Partitions"
	p.Y.Label.Text = "Time (seconds)"
	p.Add(plotter.NewGrid())
	line, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrap(err, "partition line")
	}
	line.Color = plotutil.Color(0)
	p.Add(line)
	p.Legend.Add(name, line)

	labels := make([]string, len(pts))
	for i, pt := range pts {
		labels[i] = f.Float(pt.Y)
	}
	l, err := plotter.NewLabels(plotter.XYLabels{XYs: pts, Labels: labels})
	if err != nil {
		return errors.Wrap(err, "partition labels")
	}
	l.Offset = vg.Point{Y: vg.Points(4)}
	p.Add(l)
	return save(p, 20*vg.Inch, 6*vg.Inch, path)
}

func addBarLabels(p *plot.Plot, values []float64, offset vg.Length, format func(float64) string) error {
	return addBarLabelsText(p, values, offset, func(i int) string { return format(values[i]) })
}

func addBarLabelsText(p *plot.Plot, values []float64, offset vg.Length, label func(i int) string) error {
	xys := make(plotter.XYs, len(values))
	labels := make([]string, len(values))
	for i, v := range values {
		xys[i] = plotter.XY{X: float64(i), Y: v}
		labels[i] = label(i)
	}
	l, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return errors.Wrap(err, "bar labels")
	}
	for i := range l.TextStyle {
		l.TextStyle[i].XAlign = text.XCenter
	}
	l.Offset = vg.Point{X: offset, Y: vg.Points(3)}
	p.Add(l)
	return nil
}

func save(p *plot.Plot, w, h vg.Length, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "creating %s", filepath.Dir(path))
	}
	if err := p.Save(w, h, path); err != nil {
		return errors.Wrapf(err, "saving %s", path)
	}
	return nil
}

func loadYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading %s", path)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "decoding %s", path)
	}
	return nil
}
