package scp

import "fmt"

// SC&MP command codes. Only the subset exercised by the blink demo is
// implemented board-side, but the full table is kept so decoded packets
// print sensibly.
const (
	CmdVer       = 0
	CmdRun       = 1
	CmdRead      = 2
	CmdWrite     = 3
	CmdAPLX      = 4
	CmdLinkProbe = 16
	CmdLinkRead  = 17
	CmdLinkWrite = 18
	CmdAR        = 19
	CmdNNP       = 20
	CmdP2PC      = 21
	CmdPing      = 22
	CmdFFD       = 23
	CmdAS        = 24
	CmdLED       = 25
	CmdIPTag     = 26
	CmdSROM      = 27
	CmdReset     = 55
	CmdTube      = 64
)

// SC&MP response codes.
const (
	RCOK         = 0x80 // Command completed OK
	RCLen        = 0x81 // Bad packet length
	RCSum        = 0x82 // Bad checksum
	RCCmd        = 0x83 // Bad/invalid command
	RCArg        = 0x84 // Invalid arguments
	RCPort       = 0x85 // Bad port number
	RCTimeout    = 0x86 // Timeout
	RCRoute      = 0x87 // No P2P route
	RCCPU        = 0x88 // Bad CPU number
	RCDead       = 0x89 // SHM dest dead
	RCBuf        = 0x8A // No free SHM buffers
	RCP2PNoReply = 0x8B // No reply to open
	RCP2PReject  = 0x8C // Open rejected
	RCP2PBusy    = 0x8D // Dest busy
	RCP2PTimeout = 0x8E // Dest died?
	RCPktTx      = 0x8F // Pkt Tx failed
)

// Element sizes for memory commands.
const (
	TypeByte = 0
	TypeHalf = 1
	TypeWord = 2
)

// LED actions, two bits per LED in arg1 of CmdLED.
const (
	LEDNoChange = 0
	LEDInvert   = 1
	LEDOff      = 2
	LEDOn       = 3
)

// DataSize is the maximum SCP data chunk per packet.
const DataSize = 256

var rcText = map[uint16]string{
	RCOK:         "RC_OK: command completed OK",
	RCLen:        "RC_LEN: bad packet length",
	RCSum:        "RC_SUM: bad checksum",
	RCCmd:        "RC_CMD: bad/invalid command",
	RCArg:        "RC_ARG: invalid arguments",
	RCPort:       "RC_PORT: bad port number",
	RCTimeout:    "RC_TIMEOUT: timeout",
	RCRoute:      "RC_ROUTE: no P2P route",
	RCCPU:        "RC_CPU: bad CPU number",
	RCDead:       "RC_DEAD: SHM dest dead",
	RCBuf:        "RC_BUF: no free SHM buffers",
	RCP2PNoReply: "RC_P2P_NOREPLY: no reply to open",
	RCP2PReject:  "RC_P2P_REJECT: open rejected",
	RCP2PBusy:    "RC_P2P_BUSY: dest busy",
	RCP2PTimeout: "RC_P2P_TIMEOUT: dest not responding",
	RCPktTx:      "RC_PKT_TX: packet tx failed",
}

// RCString returns a readable name for a response code.
func RCString(rc uint16) string {
	if s, ok := rcText[rc]; ok {
		return s
	}
	return fmt.Sprintf("RC 0x%02x", rc)
}

// RCError is returned when the board answers with a non-OK response code.
type RCError struct {
	RC uint16
}

func (e *RCError) Error() string {
	return fmt.Sprintf("scp: command failed: %s", RCString(e.RC))
}

// ElemSize maps an element type to its byte width.
func ElemSize(elem int) (int, error) {
	switch elem {
	case TypeByte:
		return 1, nil
	case TypeHalf:
		return 2, nil
	case TypeWord:
		return 4, nil
	default:
		return 0, fmt.Errorf("scp: invalid element type %d", elem)
	}
}

// CheckAlign verifies that addr and n are multiples of the element size.
func CheckAlign(elem int, addr uint32, n int) error {
	size, err := ElemSize(elem)
	if err != nil {
		return err
	}
	if int(addr)%size != 0 {
		return fmt.Errorf("scp: address 0x%08x not aligned to %d-byte elements", addr, size)
	}
	if n%size != 0 {
		return fmt.Errorf("scp: length %d not aligned to %d-byte elements", n, size)
	}
	return nil
}
