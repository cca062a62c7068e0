// Package geometry holds the pure polygon routines used to draw and hit-test
// cluster overlays: convex hull, hull inflation, circle and capsule fallbacks
// for tiny clusters, vertex centroid and point-in-polygon.
//
// All functions copy their inputs; none of them mutate the caller's slices.
package geometry

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

// Point is a screen-space coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) vec() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

func fromVec(v r2.Vec) Point { return Point{X: v.X, Y: v.Y} }

// Finite reports whether both coordinates are real numbers.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

const (
	circleSteps = 16

	// SingletonExtra is added to the cluster padding to get the radius of a
	// one-member cluster circle.
	SingletonExtra = 20.0

	capsuleExtension = 0.8
	capsuleWidth     = 0.6
	capsuleMinWidth  = 35.0

	horizontalEdgeEpsilon = 1e-9
)

// ConvexHull returns the hull of points using Andrew's monotone chain,
// counter-clockwise in a y-up frame, without collinear points. Inputs of
// zero or one point come back as a copy.
func ConvexHull(points []Point) []Point {
	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].X == sorted[j].X {
			return sorted[i].Y < sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})
	if len(sorted) <= 1 {
		return sorted
	}

	cross := func(o, a, b Point) float64 {
		return r2.Cross(r2.Sub(a.vec(), o.vec()), r2.Sub(b.vec(), o.vec()))
	}

	lower := make([]Point, 0, len(sorted))
	for _, p := range sorted {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	upper := make([]Point, 0, len(sorted))
	for i := len(sorted) - 1; i >= 0; i-- {
		p := sorted[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	hull := make([]Point, 0, len(lower)+len(upper)-2)
	hull = append(hull, lower[:len(lower)-1]...)
	hull = append(hull, upper[:len(upper)-1]...)
	return hull
}

// InflateHull pushes every vertex away from the vertex centroid by padding.
// A vertex sitting on the centroid is treated as one unit away.
func InflateHull(hull []Point, padding float64) []Point {
	if len(hull) == 0 {
		return nil
	}
	c := Centroid(hull).vec()
	out := make([]Point, len(hull))
	for i, p := range hull {
		v := r2.Sub(p.vec(), c)
		length := r2.Norm(v)
		if length == 0 {
			length = 1
		}
		scale := (length + padding) / length
		out[i] = fromVec(r2.Add(c, r2.Scale(scale, v)))
	}
	return out
}

// CirclePolygon approximates a circle with a regular 16-gon, first vertex at
// angle 0.
func CirclePolygon(center Point, radius float64) []Point {
	poly := make([]Point, circleSteps)
	for i := range poly {
		angle := float64(i) / circleSteps * 2 * math.Pi
		poly[i] = Point{
			X: center.X + radius*math.Cos(angle),
			Y: center.Y + radius*math.Sin(angle),
		}
	}
	return poly
}

// CapsulePolygon returns a quad around segment a–b, stretched along the
// segment by 0.8·padding at each end and max(0.6·padding, 35) to each side.
func CapsulePolygon(a, b Point, padding float64) []Point {
	d := r2.Sub(b.vec(), a.vec())
	length := r2.Norm(d)
	if length == 0 {
		length = 1
	}
	u := r2.Scale(1/length, d)
	n := r2.Vec{X: -u.Y, Y: u.X}

	extension := padding * capsuleExtension
	halfWidth := math.Max(padding*capsuleWidth, capsuleMinWidth)

	start := r2.Sub(a.vec(), r2.Scale(extension, u))
	end := r2.Add(b.vec(), r2.Scale(extension, u))
	side := r2.Scale(halfWidth, n)

	return []Point{
		fromVec(r2.Add(start, side)),
		fromVec(r2.Add(end, side)),
		fromVec(r2.Sub(end, side)),
		fromVec(r2.Sub(start, side)),
	}
}

// ClusterPolygon picks the boundary shape for a cluster by member count:
// nothing for none, a circle for one, a capsule for two and an inflated hull
// otherwise. Callers must skip drawing when the result is empty.
func ClusterPolygon(points []Point, padding float64) []Point {
	switch len(points) {
	case 0:
		return nil
	case 1:
		return CirclePolygon(points[0], padding+SingletonExtra)
	case 2:
		return CapsulePolygon(points[0], points[1], padding)
	default:
		return InflateHull(ConvexHull(points), padding)
	}
}

// Centroid is the arithmetic mean of the vertices, not the area centroid.
func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	var sum r2.Vec
	for _, p := range points {
		sum = r2.Add(sum, p.vec())
	}
	return fromVec(r2.Scale(1/float64(len(points)), sum))
}

// PointInPolygon is the even-odd ray casting test.
func PointInPolygon(p Point, polygon []Point) bool {
	inside := false
	for i, j := 0, len(polygon)-1; i < len(polygon); j, i = i, i+1 {
		xi, yi := polygon[i].X, polygon[i].Y
		xj, yj := polygon[j].X, polygon[j].Y
		dy := yj - yi
		if dy == 0 {
			dy = horizontalEdgeEpsilon
		}
		if (yi > p.Y) != (yj > p.Y) && p.X < (xj-xi)*(p.Y-yi)/dy+xi {
			inside = !inside
		}
	}
	return inside
}

// Bounds returns the axis-aligned box around points.
func Bounds(points []Point) (min, max Point) {
	if len(points) == 0 {
		return Point{}, Point{}
	}
	min, max = points[0], points[0]
	for _, p := range points[1:] {
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
		max.X = math.Max(max.X, p.X)
		max.Y = math.Max(max.Y, p.Y)
	}
	return min, max
}
