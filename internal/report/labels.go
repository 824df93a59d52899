package report

import (
	"math"
	"sort"
)

// labelOffsetSteps is the number of displacement steps per tolerance.
const labelOffsetSteps = 101

// Annotation is a point label with its vertical displacement. Shift is in
// the same units as the tolerance; renderers turn it into a text offset.
type Annotation struct {
	X, Y  float64
	Shift float64
}

// LabelTolerance derives the collision tolerance from the ratio of the
// largest to the smallest value in a panel. Degenerate ratios (zero or
// negative minimum, NaN) are treated as 1.
func LabelTolerance(minY, maxY float64) float64 {
	ratio := maxY / minY
	if minY <= 0 || !finite(ratio) || ratio <= 0 {
		ratio = 1
	}
	tol := ratio / 4
	low := math.Min(tol/7, 1)
	high := math.Max(tol/7, 1)
	return tol / low / high / 2
}

// PlaceLabels assigns each point a shift so that no two labels sharing an x
// value end up within the tolerance of each other. Labels are processed from
// the lowest y upwards and pushed up by a fixed step until they are clear.
// The result is ordered by y.
func PlaceLabels(points []Point, minY, maxY float64) []Annotation {
	tol := LabelTolerance(minY, maxY)
	step := tol / labelOffsetSteps

	sorted := append([]Point(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y < sorted[j].Y })

	placed := make([]Point, 0, len(sorted))
	out := make([]Annotation, 0, len(sorted))
	for _, p := range sorted {
		adjusted := p.Y
		for collided := true; collided; {
			collided = false
			for _, o := range placed {
				if o.X == p.X && math.Abs(adjusted-o.Y) <= tol {
					collided = true
					adjusted += step
				}
			}
		}
		placed = append(placed, Point{X: p.X, Y: adjusted})
		out = append(out, Annotation{X: p.X, Y: p.Y, Shift: adjusted - p.Y})
	}
	return out
}
