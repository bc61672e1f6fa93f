package scp

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestMessage_RoundTripWithArgs(t *testing.T) {
	m := NewMessage(CmdWrite)
	m.Arg1 = 0x70000000
	m.Arg2 = 4
	m.Arg3 = TypeWord
	m.Payload = []byte{0x7F, 0x00, 0x00, 0x00}

	pkt, err := m.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var back Message
	if err := back.Unmarshal(pkt); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	if back.CmdRC != CmdWrite {
		t.Fatalf("cmd=%d want %d", back.CmdRC, CmdWrite)
	}
	if !back.HasArgs {
		t.Fatalf("expected args to survive round trip")
	}
	if back.Arg1 != 0x70000000 || back.Arg2 != 4 || back.Arg3 != TypeWord {
		t.Fatalf("args=%x,%d,%d", back.Arg1, back.Arg2, back.Arg3)
	}
	if !bytes.Equal(back.Payload, m.Payload) {
		t.Fatalf("payload=% x want % x", back.Payload, m.Payload)
	}
}

func TestMessage_ShortBodyHasNoArgs(t *testing.T) {
	var m Message
	m.SetBody([]byte{1, 2, 3, 4})
	if m.HasArgs {
		t.Fatalf("4-byte body must not populate args")
	}
	if !bytes.Equal(m.Payload, []byte{1, 2, 3, 4}) {
		t.Fatalf("payload=% x", m.Payload)
	}
	if !bytes.Equal(m.Body(), []byte{1, 2, 3, 4}) {
		t.Fatalf("body=% x", m.Body())
	}
}

func TestMessage_BodySetBodySymmetric(t *testing.T) {
	body := make([]byte, 20)
	for i := range body {
		body[i] = byte(i)
	}

	var m Message
	m.SetBody(body)
	if !m.HasArgs {
		t.Fatalf("20-byte body must populate args")
	}
	if got := m.Body(); !bytes.Equal(got, body) {
		t.Fatalf("Body()=% x want % x", got, body)
	}
	if want := binary.LittleEndian.Uint32(body[0:4]); m.Arg1 != want {
		t.Fatalf("arg1=%x want %x", m.Arg1, want)
	}
}

func TestUnmarshal_RejectsMissingCommandHeader(t *testing.T) {
	sdpOnly := []byte{0x08, 0x00, 0x07, 0xFF, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01}
	var m Message
	if err := m.Unmarshal(sdpOnly); err == nil {
		t.Fatalf("expected error for packet without cmd_rc/seq")
	}
}

func TestCheckAlign(t *testing.T) {
	cases := []struct {
		name    string
		elem    int
		addr    uint32
		n       int
		wantErr bool
	}{
		{"WordAligned", TypeWord, 0x70000000, 8, false},
		{"WordBadAddr", TypeWord, 0x70000002, 8, true},
		{"WordBadLen", TypeWord, 0x70000000, 6, true},
		{"HalfAligned", TypeHalf, 0x70000002, 2, false},
		{"ByteAnything", TypeByte, 0x70000001, 3, false},
		{"InvalidElem", 9, 0x70000000, 4, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckAlign(tc.elem, tc.addr, tc.n)
			if (err != nil) != tc.wantErr {
				t.Fatalf("CheckAlign(%d, %#x, %d) error=%v wantErr=%v", tc.elem, tc.addr, tc.n, err, tc.wantErr)
			}
		})
	}
}

func TestRCString(t *testing.T) {
	if got := RCString(RCDead); got != "RC_DEAD: SHM dest dead" {
		t.Fatalf("RCString(RCDead)=%q", got)
	}
	if got := RCString(0x42); got != "RC 0x42" {
		t.Fatalf("RCString(unknown)=%q", got)
	}
}

func TestParseVersion(t *testing.T) {
	body := make([]byte, 12)
	body[0] = 1 // virt cpu
	body[1] = 2 // phys cpu
	body[2] = 3 // node y
	body[3] = 4 // node x
	binary.LittleEndian.PutUint16(body[4:6], 48)
	binary.LittleEndian.PutUint16(body[6:8], 133)
	binary.LittleEndian.PutUint32(body[8:12], 1700000000)
	body = append(body, []byte("test/fw\x00")...)

	v, err := parseVersion(body)
	if err != nil {
		t.Fatalf("parseVersion() error: %v", err)
	}
	if v.NodeX != 4 || v.NodeY != 3 {
		t.Fatalf("node=(%d,%d) want (4,3)", v.NodeX, v.NodeY)
	}
	if v.Version != 1.33 {
		t.Fatalf("version=%v want 1.33", v.Version)
	}
	if v.Desc != "test/fw" {
		t.Fatalf("desc=%q want %q", v.Desc, "test/fw")
	}
	if v.Size != 48 {
		t.Fatalf("size=%d want 48", v.Size)
	}
}
