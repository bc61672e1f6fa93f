// Package scp implements the SpiNNaker Command Protocol on top of SDP:
// the message layout, the command and response-code tables, and a UDP
// client for talking to a board (or to the emulated machine in this
// repository).
package scp

import (
	"encoding/binary"
	"fmt"

	"spinnled/internal/sdp"
)

// Message is an SCP packet: an SDP header followed by a command (or
// response) code, a sequence number, and a body. When HasArgs is set
// the body starts with three 32-bit argument words ahead of the
// variable-length payload; responses shorter than three words carry
// their body in Payload alone.
type Message struct {
	sdp.Message

	CmdRC uint16
	Seq   uint16

	HasArgs bool
	Arg1    uint32
	Arg2    uint32
	Arg3    uint32
	Payload []byte
}

// NewMessage returns a command message addressed to the SC&MP command
// port (SDP port 0) with the usual host-side header defaults.
func NewMessage(cmd uint16) *Message {
	m := &Message{Message: *sdp.NewMessage(), CmdRC: cmd, HasArgs: true}
	m.DstPort = 0
	return m
}

// Body returns the SCP body bytes: the packed argument words (when
// present) followed by the payload.
func (m *Message) Body() []byte {
	if !m.HasArgs {
		return m.Payload
	}
	body := make([]byte, 12+len(m.Payload))
	binary.LittleEndian.PutUint32(body[0:4], m.Arg1)
	binary.LittleEndian.PutUint32(body[4:8], m.Arg2)
	binary.LittleEndian.PutUint32(body[8:12], m.Arg3)
	copy(body[12:], m.Payload)
	return body
}

// SetBody splits raw body bytes into argument words and payload using
// the same rule SC&MP applies: bodies of at least three words populate
// the arguments, anything shorter is plain payload.
func (m *Message) SetBody(body []byte) {
	if len(body) >= 12 {
		m.HasArgs = true
		m.Arg1 = binary.LittleEndian.Uint32(body[0:4])
		m.Arg2 = binary.LittleEndian.Uint32(body[4:8])
		m.Arg3 = binary.LittleEndian.Uint32(body[8:12])
		m.Payload = append([]byte(nil), body[12:]...)
		return
	}
	m.HasArgs = false
	m.Arg1, m.Arg2, m.Arg3 = 0, 0, 0
	m.Payload = append([]byte(nil), body...)
}

// Marshal encodes the message for transmission.
func (m *Message) Marshal() ([]byte, error) {
	body := m.Body()
	data := make([]byte, 4+len(body))
	binary.LittleEndian.PutUint16(data[0:2], m.CmdRC)
	binary.LittleEndian.PutUint16(data[2:4], m.Seq)
	copy(data[4:], body)

	m.Data = data
	return m.Message.Marshal()
}

// Unmarshal decodes a received datagram into m.
func (m *Message) Unmarshal(pkt []byte) error {
	if err := m.Message.Unmarshal(pkt); err != nil {
		return err
	}
	if len(m.Data) < 4 {
		return fmt.Errorf("scp: packet too short for command header: %d data bytes", len(m.Data))
	}
	m.CmdRC = binary.LittleEndian.Uint16(m.Data[0:2])
	m.Seq = binary.LittleEndian.Uint16(m.Data[2:4])
	m.SetBody(m.Data[4:])
	return nil
}
