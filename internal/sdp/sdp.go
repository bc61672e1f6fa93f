// Package sdp implements the SpiNNaker Datagram Protocol wire format.
//
// An SDP packet travels inside a single UDP datagram: two pad bytes
// (the SC&MP header length marker followed by zero), an 8-byte header,
// then up to 272 bytes of payload. All multi-byte fields are
// little-endian.
package sdp

import (
	"encoding/binary"
	"fmt"
)

const (
	// HeaderLen is the on-wire size of the pad bytes plus the SDP header.
	HeaderLen = 10

	// MaxPayload is the largest payload SC&MP accepts in one packet.
	MaxPayload = 272

	// FlagReplyExpected marks a packet whose sender wants a response.
	FlagReplyExpected = 0x80
)

// Message is a single SDP packet.
//
// Processor addressing packs a 3-bit port and a 5-bit CPU index into one
// byte; node addressing packs X and Y grid coordinates into a 16-bit
// word. Marshal applies the masks, so out-of-range values are silently
// truncated the same way the on-board firmware truncates them.
type Message struct {
	Flags byte
	Tag   byte

	DstCPU  byte // 0-31
	DstPort byte // 0-7
	SrcCPU  byte
	SrcPort byte

	DstX byte
	DstY byte
	SrcX byte
	SrcY byte

	Data []byte
}

// NewMessage returns a message with the header defaults used by the
// host-side tooling: reply expected, transient IP tag, command port on
// the target, and a fake source CPU outside the real 0-17 range.
func NewMessage() *Message {
	return &Message{
		Flags:   0x87,
		Tag:     0xFF,
		DstPort: 1,
		SrcCPU:  31,
		SrcPort: 7,
	}
}

// Marshal encodes the message for transmission.
func (m *Message) Marshal() ([]byte, error) {
	if len(m.Data) > MaxPayload {
		return nil, fmt.Errorf("sdp: payload %d bytes exceeds maximum %d", len(m.Data), MaxPayload)
	}

	out := make([]byte, HeaderLen+len(m.Data))
	out[0] = 8 // sizeof(sdp_hdr_t) in SC&MP
	out[1] = 0
	out[2] = m.Flags
	out[3] = m.Tag
	out[4] = packProc(m.DstPort, m.DstCPU)
	out[5] = packProc(m.SrcPort, m.SrcCPU)
	binary.LittleEndian.PutUint16(out[6:8], packAddr(m.DstX, m.DstY))
	binary.LittleEndian.PutUint16(out[8:10], packAddr(m.SrcX, m.SrcY))
	copy(out[HeaderLen:], m.Data)
	return out, nil
}

// Unmarshal decodes a received datagram into m.
func (m *Message) Unmarshal(pkt []byte) error {
	if len(pkt) < HeaderLen {
		return fmt.Errorf("sdp: packet too short: %d bytes", len(pkt))
	}

	m.Flags = pkt[2]
	m.Tag = pkt[3]
	m.DstPort, m.DstCPU = unpackProc(pkt[4])
	m.SrcPort, m.SrcCPU = unpackProc(pkt[5])
	m.DstX, m.DstY = unpackAddr(binary.LittleEndian.Uint16(pkt[6:8]))
	m.SrcX, m.SrcY = unpackAddr(binary.LittleEndian.Uint16(pkt[8:10]))
	m.Data = append([]byte(nil), pkt[HeaderLen:]...)
	return nil
}

// ReplyTo fills in m's header as a response to req: source and
// destination are swapped and the reply-expected flag is cleared.
func (m *Message) ReplyTo(req *Message) {
	m.Flags = req.Flags &^ FlagReplyExpected
	m.Tag = req.Tag
	m.DstCPU, m.DstPort = req.SrcCPU, req.SrcPort
	m.SrcCPU, m.SrcPort = req.DstCPU, req.DstPort
	m.DstX, m.DstY = req.SrcX, req.SrcY
	m.SrcX, m.SrcY = req.DstX, req.DstY
}

func packProc(port, cpu byte) byte {
	return (port&7)<<5 | cpu&31
}

func unpackProc(b byte) (port, cpu byte) {
	return b >> 5, b & 0x1F
}

func packAddr(x, y byte) uint16 {
	return uint16(x)<<8 | uint16(y)
}

func unpackAddr(v uint16) (x, y byte) {
	return byte(v >> 8), byte(v)
}
