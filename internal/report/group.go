// Package report turns parsed benchmark tables into comparison charts.
package report

import (
	"sort"
	"strconv"

	"github.com/cockroachdb/errors"

	"shufflebench/internal/benchmark"
)

var (
	ErrEmptyGroup    = errors.New("no plottable values")
	ErrUnknownColumn = benchmark.ErrUnknownColumn
)

// Group is the set of records sharing one value of the grouping column.
type Group struct {
	Column  string
	Key     string
	Records []benchmark.Record
}

// GroupBy partitions records by the value of column. Records with an empty
// value (rows too short to carry it) are left out. Groups are ordered by key,
// numerically when every key is a number.
func GroupBy(records []benchmark.Record, column string) ([]Group, error) {
	index := make(map[string]int)
	var groups []Group
	for _, r := range records {
		key, err := r.Field(column)
		if err != nil {
			return nil, err
		}
		if key == "" || key == "NaN" {
			continue
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Column: column, Key: key})
		}
		groups[i].Records = append(groups[i].Records, r)
	}

	numeric := true
	for _, g := range groups {
		if _, err := strconv.ParseFloat(g.Key, 64); err != nil {
			numeric = false
			break
		}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if numeric {
			a, _ := strconv.ParseFloat(groups[i].Key, 64)
			b, _ := strconv.ParseFloat(groups[j].Key, 64)
			return a < b
		}
		return groups[i].Key < groups[j].Key
	})
	return groups, nil
}

// First returns the first valid value of c in the group.
func (g Group) First(c benchmark.Column) (float64, bool) {
	for _, r := range g.Records {
		if r.Valid(c) {
			return r.Value(c), true
		}
	}
	return 0, false
}

// Min returns the smallest valid value of c in the group.
func (g Group) Min(c benchmark.Column) (float64, bool) {
	var (
		min float64
		ok  bool
	)
	for _, r := range g.Records {
		if !r.Valid(c) {
			continue
		}
		if v := r.Value(c); !ok || v < min {
			min, ok = v, true
		}
	}
	return min, ok
}
