package benchmark

import (
	"fmt"
	"math"
	"sort"
)

// Summary is the best measured throughput of one benchmark within one group.
type Summary struct {
	Group      string
	Benchmark  string
	Threads    int
	TimeSec    float64
	Throughput float64
	// Speedup is Throughput relative to the reference benchmark of the same
	// group; zero when there is no reference measurement.
	Speedup float64
}

// Summarize picks the highest-throughput row per (group key, benchmark) and
// compares it with reference. totalTuples follows Record.Throughput.
func Summarize(records []Record, reference string, totalTuples float64) []Summary {
	type key struct{ group, bench string }
	best := make(map[key]Summary)
	var order []key
	for _, r := range records {
		tp := r.Throughput(totalTuples)
		if math.IsNaN(tp) || math.IsInf(tp, 0) || !r.Valid(ColThreads) {
			continue
		}
		k := key{r.GroupKey, r.Benchmark}
		cur, ok := best[k]
		if !ok {
			order = append(order, k)
		}
		if !ok || tp > cur.Throughput {
			best[k] = Summary{
				Group:      r.GroupKey,
				Benchmark:  r.Benchmark,
				Threads:    int(r.Value(ColThreads)),
				TimeSec:    r.Value(ColTimeSec),
				Throughput: tp,
			}
		}
	}

	out := make([]Summary, 0, len(order))
	for _, k := range order {
		s := best[k]
		if ref, ok := best[key{k.group, reference}]; ok && ref.Throughput > 0 {
			s.Speedup = s.Throughput / ref.Throughput
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Group < out[j].Group })
	return out
}

func (s Summary) String() string {
	return fmt.Sprintf("%s %s: %.3g tuples/s at %d threads", s.Group, s.Benchmark, s.Throughput, s.Threads)
}
