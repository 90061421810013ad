package engine

// Grid is the tile map. It owns the cell-to-behavior mapping; behaviors are
// only removed through SetBehavior.
type Grid struct {
	tiles     [][]byte
	behaviors map[CellCoordinate]CellBehavior
	cellSize  float64
}

// NewGrid creates a grid from layout rows. cellSize must be positive.
func NewGrid(layout []string, cellSize float64) *Grid {
	tiles := make([][]byte, len(layout))
	for i, row := range layout {
		tiles[i] = []byte(row)
	}
	return &Grid{
		tiles:     tiles,
		behaviors: make(map[CellCoordinate]CellBehavior),
		cellSize:  cellSize,
	}
}

func (g *Grid) WorldToCell(pos WorldPos) CellCoordinate {
	return pos.Floor(g.cellSize)
}

// CellCenter returns the world position at the middle of c.
func (g *Grid) CellCenter(c CellCoordinate) WorldPos {
	return WorldPos{
		X: (float64(c.Col) + 0.5) * g.cellSize,
		Y: (float64(c.Row) + 0.5) * g.cellSize,
	}
}

func (g *Grid) BehaviorAt(c CellCoordinate) (CellBehavior, bool) {
	if g == nil {
		return nil, false
	}
	b, ok := g.behaviors[c]
	return b, ok
}

// HasBehavior reports whether c carries a behavior.
func (g *Grid) HasBehavior(c CellCoordinate) bool {
	_, ok := g.behaviors[c]
	return ok
}

// SetBehavior binds b to c; a nil b turns c into plain track.
func (g *Grid) SetBehavior(c CellCoordinate, b CellBehavior) {
	if b == nil {
		delete(g.behaviors, c)
		if g.InBounds(c) {
			g.tiles[c.Row][c.Col] = TilePlain
		}
		return
	}
	g.behaviors[c] = b
}

func (g *Grid) InBounds(c CellCoordinate) bool {
	return c.Row >= 0 && c.Row < len(g.tiles) && c.Col >= 0 && c.Col < len(g.tiles[c.Row])
}

// Tile returns the layout character at c; out of bounds reads as impassable.
func (g *Grid) Tile(c CellCoordinate) byte {
	if !g.InBounds(c) {
		return TileImpassable
	}
	return g.tiles[c.Row][c.Col]
}

func (g *Grid) Rows() int { return len(g.tiles) }

func (g *Grid) Cols() int {
	if len(g.tiles) == 0 {
		return 0
	}
	return len(g.tiles[0])
}

// Find returns every coordinate holding tile.
func (g *Grid) Find(tile byte) []CellCoordinate {
	var found []CellCoordinate
	for r, row := range g.tiles {
		for c, t := range row {
			if t == tile {
				found = append(found, CellCoordinate{Row: r, Col: c})
			}
		}
	}
	return found
}

// Rows as strings, for snapshots.
func (g *Grid) Layout() []string {
	out := make([]string, len(g.tiles))
	for i, row := range g.tiles {
		out[i] = string(row)
	}
	return out
}
