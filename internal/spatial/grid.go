package spatial

import (
	"math"
	"sort"

	"github.com/chrisdamba/crashlens/internal/models"
)

// Box is a latitude/longitude bounding box in degrees.
type Box struct {
	MinLat, MinLon float64
	MaxLat, MaxLon float64
}

func PointBox(loc models.Location) Box {
	return Box{MinLat: loc.Lat, MinLon: loc.Lon, MaxLat: loc.Lat, MaxLon: loc.Lon}
}

func SegmentBox(seg models.Segment) Box {
	return Box{
		MinLat: math.Min(seg.Start.Lat, seg.End.Lat),
		MinLon: math.Min(seg.Start.Lon, seg.End.Lon),
		MaxLat: math.Max(seg.Start.Lat, seg.End.Lat),
		MaxLon: math.Max(seg.Start.Lon, seg.End.Lon),
	}
}

type cell struct {
	x, y int64
}

type span struct {
	start, end int
}

// Grid buckets items into square cells so that a radius query only looks at
// the cells its search box touches. Members of a cell are stored contiguously
// in one flat slice and the cell map holds index ranges into it. A Grid is
// never modified after NewGrid returns, so concurrent queries are safe.
type Grid[T any] struct {
	cellSizeM  float64
	cellLatDeg float64
	cellLonDeg float64

	items   []T
	members []int32
	cells   map[cell]span

	// items spanning several cells need de-duplication while visiting
	multiCell bool
}

// NewGrid indexes items by the bounding box returned for each of them. The
// longitude width of a cell is fixed at the mean latitude of the items.
func NewGrid[T any](cellSizeM float64, items []T, box func(T) Box) *Grid[T] {
	g := &Grid[T]{
		cellSizeM: cellSizeM,
		items:     items,
		cells:     make(map[cell]span),
	}

	boxes := make([]Box, len(items))
	var latSum float64
	for i, item := range items {
		boxes[i] = box(item)
		latSum += (boxes[i].MinLat + boxes[i].MaxLat) / 2
	}
	refLat := 0.0
	if len(items) > 0 {
		refLat = latSum / float64(len(items))
	}

	g.cellLatDeg = radiansToDegrees(cellSizeM / models.EarthRadiusMeters)
	cosRef := math.Max(math.Cos(degreesToRadians(refLat)), 1e-6)
	g.cellLonDeg = g.cellLatDeg / cosRef

	type entry struct {
		cell cell
		item int32
	}
	var entries []entry
	for i, b := range boxes {
		x0, y0 := g.cellOf(b.MinLat, b.MinLon)
		x1, y1 := g.cellOf(b.MaxLat, b.MaxLon)
		if x0 != x1 || y0 != y1 {
			g.multiCell = true
		}
		for x := x0; x <= x1; x++ {
			for y := y0; y <= y1; y++ {
				entries = append(entries, entry{cell: cell{x, y}, item: int32(i)})
			}
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].cell, entries[j].cell
		if a.x != b.x {
			return a.x < b.x
		}
		return a.y < b.y
	})

	g.members = make([]int32, len(entries))
	for i, e := range entries {
		g.members[i] = e.item
		s, ok := g.cells[e.cell]
		if !ok {
			s.start = i
		}
		s.end = i + 1
		g.cells[e.cell] = s
	}

	return g
}

func (g *Grid[T]) Len() int {
	return len(g.items)
}

func (g *Grid[T]) CellCount() int {
	return len(g.cells)
}

// Visit calls fn once for every item whose box touches a cell within radiusM
// of p. Candidates are a superset of the items within radiusM; the caller
// applies the exact distance test.
func (g *Grid[T]) Visit(p models.Location, radiusM float64, fn func(T)) {
	if len(g.items) == 0 {
		return
	}

	search := SearchBox(p, radiusM)
	x0, y0 := g.cellOf(search.MinLat, search.MinLon)
	x1, y1 := g.cellOf(search.MaxLat, search.MaxLon)

	var seen map[int32]struct{}
	if g.multiCell {
		seen = make(map[int32]struct{})
	}
	visitCell := func(c cell) {
		s, ok := g.cells[c]
		if !ok {
			return
		}
		for _, idx := range g.members[s.start:s.end] {
			if seen != nil {
				if _, dup := seen[idx]; dup {
					continue
				}
				seen[idx] = struct{}{}
			}
			fn(g.items[idx])
		}
	}

	// a very large search box touches more cells than the grid holds
	if float64(x1-x0+1)*float64(y1-y0+1) > float64(len(g.cells)) {
		for _, c := range g.sortedCells() {
			if c.x >= x0 && c.x <= x1 && c.y >= y0 && c.y <= y1 {
				visitCell(c)
			}
		}
		return
	}

	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			visitCell(cell{x, y})
		}
	}
}

func (g *Grid[T]) sortedCells() []cell {
	cells := make([]cell, 0, len(g.cells))
	for c := range g.cells {
		cells = append(cells, c)
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].x != cells[j].x {
			return cells[i].x < cells[j].x
		}
		return cells[i].y < cells[j].y
	})
	return cells
}

func (g *Grid[T]) cellOf(lat, lon float64) (x, y int64) {
	return int64(math.Floor(lon / g.cellLonDeg)), int64(math.Floor(lat / g.cellLatDeg))
}

// SearchBox returns a box that contains every point within radiusM of p, both
// by great-circle distance and in the local equirectangular projection around p.
func SearchBox(p models.Location, radiusM float64) Box {
	angle := radiusM / models.EarthRadiusMeters
	dLat := radiansToDegrees(angle)

	maxLat := math.Min(math.Abs(p.Lat)+dLat, 90)
	cosMax := math.Cos(degreesToRadians(maxLat))

	var dLon float64
	switch ratio := math.Sin(angle/2) / cosMax; {
	case cosMax <= 0 || ratio >= 1:
		dLon = 180
	default:
		great := radiansToDegrees(2 * math.Asin(ratio))
		planar := radiansToDegrees(angle / math.Cos(degreesToRadians(p.Lat)))
		dLon = math.Min(math.Max(great, planar), 180)
	}

	return Box{
		MinLat: p.Lat - dLat,
		MinLon: p.Lon - dLon,
		MaxLat: p.Lat + dLat,
		MaxLon: p.Lon + dLon,
	}
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

func radiansToDegrees(radians float64) float64 {
	return radians * 180 / math.Pi
}
