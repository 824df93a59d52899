package report

import (
	"math"
	"sort"

	"shufflebench/internal/benchmark"
)

// Metric describes one chart family: which value is plotted against the
// thread count and how it is decorated.
type Metric struct {
	Name   string
	Column benchmark.Column
	Unit   string
	// Divisor scales raw values, e.g. 1e6 for a "1 Mio" unit. Zero means 1.
	Divisor float64
	// Baseline draws the tuple generation time for the group's tuple size.
	Baseline bool
	LogScale bool
	// Throughput plots total tuples / time_sec instead of Column.
	Throughput bool
	// Overlay adds the theoretical maximum throughput when a lookup table is
	// available.
	Overlay bool
}

// DefaultMetrics is the chart set produced for a shuffle benchmark log.
func DefaultMetrics() []Metric {
	return []Metric{
		{Name: "Time", Column: benchmark.ColTimeSec, Unit: "sec", Baseline: true},
		{Name: "Throughput", Column: benchmark.ColTimeSec, Unit: "tuples/sec", Throughput: true, Overlay: true},
		{Name: "Instructions", Column: benchmark.ColInstructions, Unit: "1 Mio", Divisor: 1e6},
		{Name: "L1_misses", Column: benchmark.ColL1Misses, Unit: "1 Mio", Divisor: 1e6},
		{Name: "LLC_misses", Column: benchmark.ColLLCMisses, Unit: "1 Mio", Divisor: 1e6},
		{Name: "Branch_misses", Column: benchmark.ColBranchMisses, Unit: "1 Mio", Divisor: 1e6},
		{Name: "IPC", Column: benchmark.ColIPC},
	}
}

// FindMetric returns the default metric with the given name.
func FindMetric(name string) (Metric, bool) {
	for _, m := range DefaultMetrics() {
		if m.Name == name {
			return m, true
		}
	}
	return Metric{}, false
}

// Label is the axis label, e.g. "Time (sec)".
func (m Metric) Label() string {
	if m.Unit == "" {
		return m.Name
	}
	return m.Name + " (" + m.Unit + ")"
}

// Value extracts the metric from one record. totalTuples follows
// benchmark.Record.Throughput.
func (m Metric) Value(r benchmark.Record, totalTuples float64) float64 {
	var v float64
	if m.Throughput {
		v = r.Throughput(totalTuples)
	} else {
		v = r.Value(m.Column)
	}
	if m.Divisor != 0 {
		v /= m.Divisor
	}
	return v
}

// Point is one plotted value.
type Point struct {
	X, Y float64
}

// Line is the series of one benchmark within a group.
type Line struct {
	Benchmark string
	Points    []Point
}

// Series returns one line per benchmark in the group, in first-seen order,
// with points sorted by thread count. Missing and non-finite values are
// skipped, as are non-positive values on a log scale.
func Series(g Group, m Metric, totalTuples float64) []Line {
	var lines []Line
	index := make(map[string]int)
	for _, r := range g.Records {
		x := r.Value(benchmark.ColThreads)
		y := m.Value(r, totalTuples)
		if !finite(x) || !finite(y) || (m.LogScale && y <= 0) {
			continue
		}
		i, ok := index[r.Benchmark]
		if !ok {
			i = len(lines)
			index[r.Benchmark] = i
			lines = append(lines, Line{Benchmark: r.Benchmark})
		}
		lines[i].Points = append(lines[i].Points, Point{X: x, Y: y})
	}
	for _, l := range lines {
		sort.SliceStable(l.Points, func(i, j int) bool { return l.Points[i].X < l.Points[j].X })
	}
	return lines
}

// YRange returns the smallest and largest y over all lines.
func YRange(lines []Line) (min, max float64, ok bool) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, l := range lines {
		for _, p := range l.Points {
			min = math.Min(min, p.Y)
			max = math.Max(max, p.Y)
			ok = true
		}
	}
	return min, max, ok
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
