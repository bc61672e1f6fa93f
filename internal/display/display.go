// Package display drives a board's LEDs as a low-resolution display.
//
// Each pixel maps to one chip; pushing a frame writes round(255*pixel)
// into that chip's duty word, so pixel brightness becomes PWM duty.
package display

import (
	"context"
	"fmt"
	"image"
	"math"
	"time"

	"spinnled/internal/scp"
	"spinnled/internal/sdram"
)

// failThreshold is how many per-chip write failures are tolerated
// before Push gives up and reports.
const failThreshold = 10

// Conn is the slice of the SCP client a display needs.
type Conn interface {
	Select(x, y, cpu int)
	WriteMem(addr uint32, elem int, data []byte) error
}

// ChipXY is a pixel's target chip.
type ChipXY struct {
	X, Y int
}

// Geometry maps display pixels onto board chips.
type Geometry struct {
	Name string

	// Display resolution.
	Width, Height int

	// posToChip[y][x] is the chip behind pixel (x, y), y from the
	// bottom row. Pixels may map to absent chips; those are skipped
	// through the enabled check.
	posToChip [][]ChipXY

	// enabled[y][x] marks chips that exist on the board.
	enabled [][]bool
}

// ChipFor returns the chip behind pixel (x, y) and whether that chip is
// present on the board.
func (g Geometry) ChipFor(x, y int) (ChipXY, bool) {
	c := g.posToChip[y][x]
	if c.Y < 0 || c.Y >= len(g.enabled) || c.X < 0 || c.X >= len(g.enabled[c.Y]) {
		return c, false
	}
	return c, g.enabled[c.Y][c.X]
}

// Spin3Display is the 4-chip board viewed as a 4x1 strip.
func Spin3Display() Geometry {
	return Geometry{
		Name:   "spin3",
		Width:  4,
		Height: 1,
		posToChip: [][]ChipXY{
			{{0, 0}, {0, 1}, {1, 0}, {1, 1}},
		},
		enabled: [][]bool{
			{true, true},
			{true, true},
		},
	}
}

// Spin5Display is the 48-chip board viewed as a 7x7 matrix. One corner
// pixel has no chip behind it and maps to the absent chip (7, 0).
func Spin5Display() Geometry {
	return Geometry{
		Name:   "spin5",
		Width:  7,
		Height: 7,
		posToChip: [][]ChipXY{
			{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}, {5, 1}, {6, 2}},
			{{0, 1}, {1, 1}, {2, 1}, {3, 1}, {4, 1}, {5, 2}, {7, 3}},
			{{0, 2}, {1, 2}, {2, 2}, {3, 2}, {4, 2}, {6, 3}, {7, 4}},
			{{1, 3}, {2, 3}, {3, 3}, {4, 3}, {5, 3}, {6, 4}, {7, 5}},
			{{0, 3}, {2, 4}, {3, 4}, {4, 4}, {5, 4}, {6, 5}, {7, 6}},
			{{1, 4}, {3, 5}, {4, 5}, {4, 6}, {5, 5}, {6, 6}, {7, 7}},
			{{2, 5}, {3, 6}, {4, 7}, {5, 7}, {5, 6}, {6, 7}, {7, 0}},
		},
		enabled: [][]bool{
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

// GeometryByName resolves a board model to its display geometry.
func GeometryByName(name string) (Geometry, error) {
	switch name {
	case "spin3":
		return Spin3Display(), nil
	case "spin5":
		return Spin5Display(), nil
	default:
		return Geometry{}, fmt.Errorf("display: unknown board model %q", name)
	}
}

// Display pushes pixel frames to a board over SCP.
type Display struct {
	geo  Geometry
	conn Conn

	// frame[y][x], brightness in [0, 1].
	frame [][]float64

	failCount int
}

func New(geo Geometry, conn Conn) *Display {
	frame := make([][]float64, geo.Height)
	for y := range frame {
		frame[y] = make([]float64, geo.Width)
	}
	return &Display{geo: geo, conn: conn, frame: frame}
}

// SetPixel sets one pixel's brightness. Values outside [0, 1] are
// clamped.
func (d *Display) SetPixel(x, y int, v float64) error {
	if x < 0 || x >= d.geo.Width || y < 0 || y >= d.geo.Height {
		return fmt.Errorf("display: pixel (%d, %d) outside %dx%d", x, y, d.geo.Width, d.geo.Height)
	}
	d.frame[y][x] = clamp01(v)
	return nil
}

// SetFrame replaces the whole frame.
func (d *Display) SetFrame(frame [][]float64) error {
	if len(frame) != d.geo.Height {
		return fmt.Errorf("display: frame height %d, want %d", len(frame), d.geo.Height)
	}
	for y, row := range frame {
		if len(row) != d.geo.Width {
			return fmt.Errorf("display: frame row %d width %d, want %d", y, len(row), d.geo.Width)
		}
		for x, v := range row {
			d.frame[y][x] = clamp01(v)
		}
	}
	return nil
}

// Push writes every mapped pixel's duty word to its chip. Individual
// write failures are tolerated up to failThreshold across the life of
// the display, mirroring the original tooling's retry-ish behavior for
// flaky boards.
func (d *Display) Push() error {
	for y := 0; y < d.geo.Height; y++ {
		for x := 0; x < d.geo.Width; x++ {
			chip, ok := d.geo.ChipFor(x, y)
			if !ok {
				continue
			}
			duty := uint32(math.Round(255 * d.frame[y][x]))

			d.conn.Select(chip.X, chip.Y, 0)
			var word [4]byte
			word[0] = byte(duty)
			word[1] = byte(duty >> 8)
			word[2] = byte(duty >> 16)
			word[3] = byte(duty >> 24)
			if err := d.conn.WriteMem(sdram.BaseAddr, scp.TypeWord, word[:]); err != nil {
				d.failCount++
				if d.failCount > failThreshold {
					return fmt.Errorf("display: chip (%d, %d): %w", chip.X, chip.Y, err)
				}
			}
		}
	}
	return nil
}

// Scroll slides img across the display column by column until the image
// is exhausted or ctx is canceled.
func (d *Display) Scroll(ctx context.Context, img image.Image, interval time.Duration) error {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	width := img.Bounds().Dx()
	steps := width - d.geo.Width + 1
	if steps < 1 {
		steps = 1
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for i := 0; i < steps; i++ {
		if err := d.SetFrame(FrameFromImage(img, d.geo, i)); err != nil {
			return err
		}
		if err := d.Push(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return nil
}

// FrameFromImage extracts a geometry-sized window from img starting at
// column offset, converting to grayscale brightness. Image row 0 is the
// top, display row 0 the bottom, so rows are flipped.
func FrameFromImage(img image.Image, geo Geometry, offset int) [][]float64 {
	b := img.Bounds()
	frame := make([][]float64, geo.Height)
	for y := range frame {
		frame[y] = make([]float64, geo.Width)
		for x := range frame[y] {
			ix := b.Min.X + offset + x
			iy := b.Min.Y + (geo.Height - 1 - y)
			if ix >= b.Max.X || iy >= b.Max.Y {
				continue
			}
			r, g, bl, _ := img.At(ix, iy).RGBA()
			// Rec. 601 luma on 16-bit channels.
			frame[y][x] = (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(bl)) / 65535.0
		}
	}
	return frame
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
