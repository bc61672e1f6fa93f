package scp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"
)

const (
	defaultTimeout = 1 * time.Second
	defaultRetries = 10
)

// Client is an SCP connection to one board. Commands are addressed to
// the currently selected node and CPU (Select); the zero selection is
// the root monitor processor at (0, 0).
//
// A Client is not safe for concurrent use: SCP is a lock-step
// request/response protocol over a single socket.
type Client struct {
	conn net.Conn

	timeout time.Duration
	retries int

	x, y, cpu int
	seq       uint16
}

// Dial connects to an SCP endpoint, e.g. "192.168.240.1:17893".
func Dial(addr string) (*Client, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("scp: resolve %q: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("scp: dial: %w", err)
	}
	return NewClient(conn), nil
}

// NewClient wraps an existing datagram connection. Used by Dial and by
// tests that run against a loopback responder.
func NewClient(conn net.Conn) *Client {
	return &Client{conn: conn, timeout: defaultTimeout, retries: defaultRetries}
}

// Select chooses the target node and CPU for subsequent commands.
func (c *Client) Select(x, y, cpu int) {
	c.x, c.y, c.cpu = x, y, cpu
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// nextSeq advances the mod-128 sequence counter. SC&MP convention keeps
// the low bit clear on host-originated sequence numbers.
func (c *Client) nextSeq() uint16 {
	c.seq = (c.seq + 1) % 128
	return 2 * c.seq
}

// Call addresses msg to the selected CPU, transmits it, and waits for
// the response. Receive timeouts and RC_TIMEOUT responses are retried;
// any other non-OK response code is returned as an *RCError.
func (c *Client) Call(msg *Message) (*Message, error) {
	msg.DstCPU = byte(c.cpu)
	msg.DstX = byte(c.x)
	msg.DstY = byte(c.y)
	msg.Seq = c.nextSeq()

	pkt, err := msg.Marshal()
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 2048)
	for attempt := 0; attempt < c.retries; attempt++ {
		if _, err := c.conn.Write(pkt); err != nil {
			return nil, fmt.Errorf("scp: send: %w", err)
		}
		if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return nil, fmt.Errorf("scp: set deadline: %w", err)
		}

		n, err := c.conn.Read(buf)
		if err != nil {
			if isTimeout(err) {
				continue
			}
			return nil, fmt.Errorf("scp: receive: %w", err)
		}

		resp := &Message{}
		if err := resp.Unmarshal(buf[:n]); err != nil {
			return nil, err
		}
		if resp.CmdRC == RCTimeout {
			continue
		}
		if resp.CmdRC != RCOK {
			return nil, &RCError{RC: resp.CmdRC}
		}
		return resp, nil
	}
	return nil, fmt.Errorf("scp: no response from %s after %d attempts", c.conn.RemoteAddr(), c.retries)
}

func isTimeout(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, os.ErrDeadlineExceeded)
}

// VersionInfo is the decoded response to CMD_VER.
type VersionInfo struct {
	VirtCPU byte
	PhysCPU byte
	NodeX   byte
	NodeY   byte
	Size    uint16
	Version float64
	Time    uint32
	Desc    string
}

// Version queries the target's firmware identity.
func (c *Client) Version() (VersionInfo, error) {
	resp, err := c.Call(NewMessage(CmdVer))
	if err != nil {
		return VersionInfo{}, err
	}
	return parseVersion(resp.Body())
}

func parseVersion(body []byte) (VersionInfo, error) {
	if len(body) < 12 {
		return VersionInfo{}, fmt.Errorf("scp: version response too short: %d bytes", len(body))
	}
	v := VersionInfo{
		VirtCPU: body[0],
		PhysCPU: body[1],
		NodeY:   body[2],
		NodeX:   body[3],
		Size:    binary.LittleEndian.Uint16(body[4:6]),
		Version: float64(binary.LittleEndian.Uint16(body[6:8])) / 100.0,
		Time:    binary.LittleEndian.Uint32(body[8:12]),
		Desc:    strings.TrimRight(string(body[12:]), "\x00"),
	}
	return v, nil
}

// Ping checks that the selected CPU is responding.
func (c *Client) Ping() error {
	_, err := c.Call(NewMessage(CmdPing))
	return err
}

// WriteMem uploads data to the target starting at addr, split into
// DataSize chunks. elem declares the element width and both addr and
// the data length must be aligned to it.
func (c *Client) WriteMem(addr uint32, elem int, data []byte) error {
	if err := CheckAlign(elem, addr, len(data)); err != nil {
		return err
	}

	for off := 0; off < len(data); off += DataSize {
		end := off + DataSize
		if end > len(data) {
			end = len(data)
		}
		chunk := data[off:end]

		msg := NewMessage(CmdWrite)
		msg.Arg1 = addr + uint32(off)
		msg.Arg2 = uint32(len(chunk))
		msg.Arg3 = uint32(elem)
		msg.Payload = chunk
		if _, err := c.Call(msg); err != nil {
			return err
		}
	}
	return nil
}

// ReadMem downloads size bytes from the target starting at addr.
func (c *Client) ReadMem(addr uint32, elem int, size int) ([]byte, error) {
	if err := CheckAlign(elem, addr, size); err != nil {
		return nil, err
	}

	out := make([]byte, 0, size)
	for len(out) < size {
		n := size - len(out)
		if n > DataSize {
			n = DataSize
		}

		msg := NewMessage(CmdRead)
		msg.Arg1 = addr + uint32(len(out))
		msg.Arg2 = uint32(n)
		msg.Arg3 = uint32(elem)
		resp, err := c.Call(msg)
		if err != nil {
			return nil, err
		}

		body := resp.Body()
		if len(body) == 0 {
			return nil, fmt.Errorf("scp: empty read response at 0x%08x", addr+uint32(len(out)))
		}
		out = append(out, body...)
	}
	return out[:size], nil
}

// WriteWord writes a single 32-bit little-endian word.
func (c *Client) WriteWord(addr uint32, value uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], value)
	return c.WriteMem(addr, TypeWord, b[:])
}

// SetLEDs applies one action per LED on the selected node. Actions are
// LEDNoChange, LEDInvert, LEDOff or LEDOn.
func (c *Client) SetLEDs(led1, led2, led3, led4 int) error {
	msg := NewMessage(CmdLED)
	msg.Arg1 = uint32(led4&3)<<6 | uint32(led3&3)<<4 | uint32(led2&3)<<2 | uint32(led1&3)
	_, err := c.Call(msg)
	return err
}
