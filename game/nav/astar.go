package nav

import "container/heap"

type node struct {
	cell   Cell
	g, f   int
	parent *node
}

type openSet []*node

func (o openSet) Len() int            { return len(o) }
func (o openSet) Less(i, j int) bool  { return o[i].f < o[j].f }
func (o openSet) Swap(i, j int)       { o[i], o[j] = o[j], o[i] }
func (o *openSet) Push(x interface{}) { *o = append(*o, x.(*node)) }
func (o *openSet) Pop() interface{} {
	old := *o
	n := old[len(old)-1]
	*o = old[:len(old)-1]
	return n
}

var dirs = [4]Cell{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}

func manhattan(a, b Cell) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// AStar finds the shortest 4-connected path from `from` to `to`.
// The path excludes the start and includes the end. The start cell itself
// is never tested for walkability. Returns nil if no path exists.
func AStar(g *Grid, from, to Cell) []Cell {
	if g == nil {
		return nil
	}
	if from == to {
		return []Cell{}
	}
	if !g.Walkable(to) {
		return nil
	}

	closed := make(map[Cell]bool)
	gScore := map[Cell]int{from: 0}
	open := &openSet{{cell: from, f: manhattan(from, to)}}

	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		if closed[cur.cell] {
			continue
		}
		closed[cur.cell] = true

		if cur.cell == to {
			var path []Cell
			for n := cur; n.parent != nil; n = n.parent {
				path = append(path, n.cell)
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path
		}

		for _, d := range dirs {
			np := Cell{cur.cell.X + d.X, cur.cell.Y + d.Y}
			if closed[np] || !g.Walkable(np) {
				continue
			}
			ng := cur.g + 1
			if prev, ok := gScore[np]; !ok || ng < prev {
				gScore[np] = ng
				heap.Push(open, &node{cell: np, g: ng, f: ng + manhattan(np, to), parent: cur})
			}
		}
	}
	return nil
}

// corners reduces a cell path to the cells where the direction changes.
// The final cell is always kept.
func corners(from Cell, path []Cell) []Cell {
	if len(path) == 0 {
		return nil
	}
	var out []Cell
	prev := from
	for i := 0; i < len(path)-1; i++ {
		d1 := Cell{path[i].X - prev.X, path[i].Y - prev.Y}
		d2 := Cell{path[i+1].X - path[i].X, path[i+1].Y - path[i].Y}
		if d1 != d2 {
			out = append(out, path[i])
		}
		prev = path[i]
	}
	return append(out, path[len(path)-1])
}
