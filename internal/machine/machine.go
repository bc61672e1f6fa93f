// Package machine emulates a board full of chips running the LED blink
// demo. Each present chip owns an SDRAM bank and a PWM blinker; an SCP
// responder on UDP lets host tooling write the per-chip duty word,
// poke LEDs, and query the firmware identity, the same way a real
// board's monitor processor would.
package machine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"spinnled/internal/blinker"
	"spinnled/internal/led"
	"spinnled/internal/scp"
	"spinnled/internal/sdram"
)

type Config struct {
	// Board is the board model: spin3 or spin5.
	Board string
	// Listen is the UDP address for the SCP responder.
	Listen string
	// TickInterval is the PWM timer period for every chip.
	TickInterval time.Duration
	// LED configures the physical output wired to chip (0, 0).
	LED led.Config
	// BankFile optionally backs chip (0, 0)'s SDRAM bank with a file,
	// so the duty word can be seeded or inspected from outside.
	BankFile string
	// BankSize is the emulated SDRAM size per chip in bytes.
	BankSize int
}

// Chip is one emulated node: its memory bank, LED output, and blinker.
type Chip struct {
	ID   ChipID
	Bank *sdram.Bank
	LED  led.LED

	svc *blinker.Service
}

type Machine struct {
	cfg   Config
	board Board

	chips map[ChipID]*Chip

	conn    *net.UDPConn
	startAt time.Time

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopCh   chan struct{}
}

// New builds the chip grid. Chip (0, 0) gets the configured LED backend
// and bank file; every other chip gets a recording stub and an
// in-process bank.
func New(cfg Config) (*Machine, error) {
	if cfg.Board == "" {
		cfg.Board = "spin5"
	}
	if cfg.Listen == "" {
		cfg.Listen = ":17893"
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = blinker.DefaultTickInterval
	}

	board, err := BoardByName(cfg.Board)
	if err != nil {
		return nil, err
	}

	m := &Machine{
		cfg:    cfg,
		board:  board,
		chips:  make(map[ChipID]*Chip),
		stopCh: make(chan struct{}),
	}

	for _, id := range board.Chips() {
		chip, err := m.buildChip(id)
		if err != nil {
			m.closeChips()
			return nil, err
		}
		m.chips[id] = chip
	}
	return m, nil
}

func (m *Machine) buildChip(id ChipID) (*Chip, error) {
	root := id == ChipID{}

	var bank *sdram.Bank
	if root && m.cfg.BankFile != "" {
		b, err := sdram.OpenFileBank(m.cfg.BankFile, m.cfg.BankSize)
		if err != nil {
			return nil, fmt.Errorf("machine: chip (0,0) bank: %w", err)
		}
		bank = b
	} else {
		bank = sdram.NewBank(m.cfg.BankSize)
	}

	var out led.LED
	if root {
		l, err := led.Open(m.cfg.LED)
		if err != nil {
			_ = bank.Close()
			return nil, fmt.Errorf("machine: chip (0,0) led: %w", err)
		}
		out = l
	} else {
		out = led.NewStub()
	}

	return &Chip{
		ID:   id,
		Bank: bank,
		LED:  out,
		svc:  blinker.NewService(blinker.Config{TickInterval: m.cfg.TickInterval}, bank, out),
	}, nil
}

// Board returns the board model in use.
func (m *Machine) Board() Board {
	return m.board
}

// Chip returns the chip at (x, y), or nil when no such chip exists.
func (m *Machine) Chip(x, y int) *Chip {
	return m.chips[ChipID{X: x, Y: y}]
}

// Addr returns the responder's bound UDP address. Valid after Start.
func (m *Machine) Addr() net.Addr {
	if m.conn == nil {
		return nil
	}
	return m.conn.LocalAddr()
}

// Start launches every chip's blinker and the SCP responder, then
// returns. The machine runs until Close or context cancellation.
func (m *Machine) Start(ctx context.Context) error {
	laddr, err := net.ResolveUDPAddr("udp", m.cfg.Listen)
	if err != nil {
		return fmt.Errorf("machine: resolve listen addr: %w", err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return fmt.Errorf("machine: listen: %w", err)
	}
	m.conn = conn
	m.startAt = time.Now().UTC()

	for _, chip := range m.chips {
		if err := chip.svc.Start(ctx); err != nil {
			m.Close()
			return err
		}
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.serve(conn)
	}()

	go func() {
		select {
		case <-ctx.Done():
			m.Close()
		case <-m.stopCh:
		}
	}()
	return nil
}

// Close stops the responder and every blinker, and releases the LED
// backends and memory banks.
func (m *Machine) Close() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
	if m.conn != nil {
		_ = m.conn.Close()
	}
	m.wg.Wait()
	m.closeChips()
}

func (m *Machine) closeChips() {
	for _, chip := range m.chips {
		chip.svc.Close()
		_ = chip.LED.Close()
		_ = chip.Bank.Close()
	}
}

// packetConn is the slice of *net.UDPConn the responder loop uses.
type packetConn interface {
	ReadFromUDP(b []byte) (int, *net.UDPAddr, error)
	WriteToUDP(b []byte, addr *net.UDPAddr) (int, error)
}

func (m *Machine) serve(conn packetConn) {
	buf := make([]byte, 2048)
	for {
		n, raddr, err := conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-m.stopCh:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			// Transient socket errors must not kill the responder.
			log.Printf("machine: udp read: %v", err)
			continue
		}

		req := &scp.Message{}
		if err := req.Unmarshal(buf[:n]); err != nil {
			log.Printf("machine: dropping malformed packet from %s: %v", raddr, err)
			continue
		}

		resp := m.handle(req)
		if resp == nil {
			continue
		}
		out, err := resp.Marshal()
		if err != nil {
			log.Printf("machine: marshal response: %v", err)
			continue
		}
		if _, err := conn.WriteToUDP(out, raddr); err != nil {
			log.Printf("machine: udp write to %s: %v", raddr, err)
		}
	}
}

// Snapshot is the machine-wide status view.
type Snapshot struct {
	Board     string         `json:"board"`
	StartedAt time.Time      `json:"started_utc"`
	UptimeSec float64        `json:"uptime_sec"`
	Chips     []ChipSnapshot `json:"chips"`
}

type ChipSnapshot struct {
	ChipID
	blinker.Snapshot
}

// Snapshot reports every chip's blinker state, ordered row-major from
// the bottom-left.
func (m *Machine) Snapshot() Snapshot {
	snap := Snapshot{
		Board:     m.board.Name,
		StartedAt: m.startAt,
	}
	if !m.startAt.IsZero() {
		snap.UptimeSec = time.Since(m.startAt).Seconds()
	}
	for _, id := range m.board.Chips() {
		snap.Chips = append(snap.Chips, ChipSnapshot{
			ChipID:   id,
			Snapshot: m.chips[id].svc.Snapshot(),
		})
	}
	return snap
}
