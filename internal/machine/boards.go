package machine

import "fmt"

// ChipID addresses a chip by its (X, Y) position in the node grid.
type ChipID struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Board describes which chips exist on a board model.
type Board struct {
	Name   string
	Width  int
	Height int
	// present[y][x], y counted from the bottom row.
	present [][]bool
}

// Present reports whether a chip exists at (x, y).
func (b Board) Present(x, y int) bool {
	if y < 0 || y >= len(b.present) {
		return false
	}
	if x < 0 || x >= len(b.present[y]) {
		return false
	}
	return b.present[y][x]
}

// Chips lists every present chip, row-major from the bottom-left.
func (b Board) Chips() []ChipID {
	var out []ChipID
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if b.Present(x, y) {
				out = append(out, ChipID{X: x, Y: y})
			}
		}
	}
	return out
}

// Spin3 is the 4-chip development board: a full 2x2 grid.
func Spin3() Board {
	return Board{
		Name:   "spin3",
		Width:  2,
		Height: 2,
		present: [][]bool{
			{true, true},
			{true, true},
		},
	}
}

// Spin5 is the 48-chip production board: an 8x8 grid with the corners
// cut off along the hexagonal torus edges.
func Spin5() Board {
	return Board{
		Name:   "spin5",
		Width:  8,
		Height: 8,
		present: [][]bool{
			{true, true, true, true, true, false, false, false},
			{true, true, true, true, true, true, false, false},
			{true, true, true, true, true, true, true, false},
			{true, true, true, true, true, true, true, true},
			{false, true, true, true, true, true, true, true},
			{false, false, true, true, true, true, true, true},
			{false, false, false, true, true, true, true, true},
			{false, false, false, false, true, true, true, true},
		},
	}
}

// BoardByName resolves a configured board model.
func BoardByName(name string) (Board, error) {
	switch name {
	case "spin3":
		return Spin3(), nil
	case "spin5":
		return Spin5(), nil
	default:
		return Board{}, fmt.Errorf("machine: unknown board model %q", name)
	}
}
