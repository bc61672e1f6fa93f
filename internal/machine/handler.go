package machine

import (
	"encoding/binary"
	"time"

	"spinnled/internal/scp"
	"spinnled/internal/sdp"
)

// Firmware identity reported by CMD_VER.
const (
	versionNum  = 120 // reported as 1.20
	versionDesc = "spinnled/SC&MP"
)

// maxCPU is the highest valid CPU index on a node (18 cores).
const maxCPU = 17

// handle dispatches one SCP request and builds the response. A nil
// return drops the packet (only used when the sender did not ask for a
// reply).
func (m *Machine) handle(req *scp.Message) *scp.Message {
	resp := &scp.Message{}
	resp.ReplyTo(&req.Message)
	resp.Seq = req.Seq
	resp.CmdRC = scp.RCOK

	rc := m.dispatch(req, resp)
	if rc != scp.RCOK {
		// Error responses carry no body.
		*resp = scp.Message{CmdRC: rc, Seq: req.Seq}
		resp.ReplyTo(&req.Message)
	}

	if req.Flags&sdp.FlagReplyExpected == 0 {
		return nil
	}
	return resp
}

func (m *Machine) dispatch(req *scp.Message, resp *scp.Message) uint16 {
	if req.DstPort != 0 {
		return scp.RCPort
	}
	if req.DstCPU > maxCPU {
		return scp.RCCPU
	}

	chip := m.Chip(int(req.DstX), int(req.DstY))
	if chip == nil {
		return scp.RCDead
	}

	switch req.CmdRC {
	case scp.CmdVer:
		m.handleVersion(req, resp)
		return scp.RCOK
	case scp.CmdPing:
		return scp.RCOK
	case scp.CmdRead:
		return m.handleRead(chip, req, resp)
	case scp.CmdWrite:
		return m.handleWrite(chip, req)
	case scp.CmdLED:
		return m.handleLED(chip, req)
	default:
		return scp.RCCmd
	}
}

func (m *Machine) handleVersion(req *scp.Message, resp *scp.Message) {
	body := make([]byte, 12, 12+len(versionDesc)+1)
	body[0] = req.DstCPU // virtual CPU
	body[1] = req.DstCPU // physical CPU; 1:1 in the emulator
	body[2] = req.DstY
	body[3] = req.DstX
	binary.LittleEndian.PutUint16(body[4:6], uint16(len(m.chips)))
	binary.LittleEndian.PutUint16(body[6:8], versionNum)
	binary.LittleEndian.PutUint32(body[8:12], uint32(time.Now().Unix()))
	body = append(body, versionDesc...)
	body = append(body, 0)
	resp.SetBody(body)
}

func (m *Machine) handleRead(chip *Chip, req *scp.Message, resp *scp.Message) uint16 {
	addr := req.Arg1
	n := int(req.Arg2)
	elem := int(req.Arg3)

	if n <= 0 || n > scp.DataSize {
		return scp.RCArg
	}
	if err := scp.CheckAlign(elem, addr, n); err != nil {
		return scp.RCArg
	}

	data, err := chip.Bank.Read(addr, n)
	if err != nil {
		return scp.RCArg
	}
	resp.SetBody(data)
	return scp.RCOK
}

func (m *Machine) handleWrite(chip *Chip, req *scp.Message) uint16 {
	addr := req.Arg1
	elem := int(req.Arg3)
	data := req.Payload

	if int(req.Arg2) != len(data) || len(data) > scp.DataSize {
		return scp.RCLen
	}
	if err := scp.CheckAlign(elem, addr, len(data)); err != nil {
		return scp.RCArg
	}
	if err := chip.Bank.Write(addr, data); err != nil {
		return scp.RCArg
	}
	return scp.RCOK
}

// handleLED applies the 2-bit action for LED 0; emulated chips carry a
// single LED. Whatever this sets, the chip's blinker overrides on its
// next tick, exactly as on hardware where the monitor and the app share
// the LED register.
func (m *Machine) handleLED(chip *Chip, req *scp.Message) uint16 {
	switch req.Arg1 & 3 {
	case scp.LEDNoChange:
	case scp.LEDOn:
		_ = chip.LED.Set(true)
	case scp.LEDOff:
		_ = chip.LED.Set(false)
	case scp.LEDInvert:
		_ = chip.LED.Set(!chip.LED.On())
	}
	return scp.RCOK
}
