// spinnctl talks SCP to a board (real or emulated): query its identity,
// write per-chip PWM duty cycles, poke LEDs, and scroll images across
// the LED matrix.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spinnled/internal/display"
	"spinnled/internal/scp"
	"spinnled/internal/sdram"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: spinnctl [-addr host:port] <command> [options]

Commands:
  version                     query firmware identity of chip (0,0)
  ping    [-x N -y N]         check a chip is alive
  duty    [-x N -y N] -value V  set a chip's PWM duty cycle (0-255 effective)
  led     [-x N -y N] -action on|off|invert  drive a chip LED directly
  read    [-x N -y N] -a ADDR -n LEN   dump memory as hex
  scroll  -image FILE [-board spin3|spin5] [-interval D]  scroll an image
`)
	os.Exit(2)
}

func main() {
	var addr string
	flag.StringVar(&addr, "addr", "127.0.0.1:17893", "board SCP address")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}

	client, err := scp.Dial(addr)
	if err != nil {
		log.Fatalf("connect failed: %v", err)
	}
	defer client.Close()

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "version":
		runVersion(client)
	case "ping":
		runPing(client, args)
	case "duty":
		runDuty(client, args)
	case "led":
		runLED(client, args)
	case "read":
		runRead(client, args)
	case "scroll":
		runScroll(client, args)
	default:
		usage()
	}
}

func chipFlags(fs *flag.FlagSet) (x, y *int) {
	x = fs.Int("x", 0, "chip X coordinate")
	y = fs.Int("y", 0, "chip Y coordinate")
	return x, y
}

func runVersion(client *scp.Client) {
	v, err := client.Version()
	if err != nil {
		log.Fatalf("version failed: %v", err)
	}
	fmt.Printf("%s v%.2f on chip (%d,%d), cpu %d/%d, %d chips, built %s\n",
		v.Desc, v.Version, v.NodeX, v.NodeY, v.VirtCPU, v.PhysCPU, v.Size,
		time.Unix(int64(v.Time), 0).UTC().Format(time.RFC3339))
}

func runPing(client *scp.Client, args []string) {
	fs := flag.NewFlagSet("ping", flag.ExitOnError)
	x, y := chipFlags(fs)
	_ = fs.Parse(args)

	client.Select(*x, *y, 0)
	if err := client.Ping(); err != nil {
		log.Fatalf("ping (%d,%d) failed: %v", *x, *y, err)
	}
	fmt.Printf("chip (%d,%d) alive\n", *x, *y)
}

func runDuty(client *scp.Client, args []string) {
	fs := flag.NewFlagSet("duty", flag.ExitOnError)
	x, y := chipFlags(fs)
	value := fs.Uint("value", 0, "duty-cycle value (0-255 effective; larger means always on)")
	_ = fs.Parse(args)

	client.Select(*x, *y, 0)
	if err := client.WriteWord(sdram.BaseAddr, uint32(*value)); err != nil {
		log.Fatalf("duty write failed: %v", err)
	}
	fmt.Printf("chip (%d,%d) duty=%d\n", *x, *y, *value)
}

func runLED(client *scp.Client, args []string) {
	fs := flag.NewFlagSet("led", flag.ExitOnError)
	x, y := chipFlags(fs)
	action := fs.String("action", "on", "LED action: on, off or invert")
	_ = fs.Parse(args)

	var act int
	switch *action {
	case "on":
		act = scp.LEDOn
	case "off":
		act = scp.LEDOff
	case "invert":
		act = scp.LEDInvert
	default:
		log.Fatalf("invalid -action %q", *action)
	}

	client.Select(*x, *y, 0)
	if err := client.SetLEDs(act, scp.LEDNoChange, scp.LEDNoChange, scp.LEDNoChange); err != nil {
		log.Fatalf("led command failed: %v", err)
	}
}

func runRead(client *scp.Client, args []string) {
	fs := flag.NewFlagSet("read", flag.ExitOnError)
	x, y := chipFlags(fs)
	addr := fs.Uint64("a", sdram.BaseAddr, "start address")
	n := fs.Int("n", 4, "bytes to read (word aligned)")
	_ = fs.Parse(args)

	client.Select(*x, *y, 0)
	data, err := client.ReadMem(uint32(*addr), scp.TypeWord, *n)
	if err != nil {
		log.Fatalf("read failed: %v", err)
	}
	fmt.Print(hex.Dump(data))
}

func runScroll(client *scp.Client, args []string) {
	fs := flag.NewFlagSet("scroll", flag.ExitOnError)
	imagePath := fs.String("image", "", "image file to scroll (png or jpeg)")
	board := fs.String("board", "spin5", "board model: spin3 or spin5")
	interval := fs.Duration("interval", 100*time.Millisecond, "time per scroll step")
	_ = fs.Parse(args)

	if *imagePath == "" {
		log.Fatalf("scroll requires -image")
	}

	f, err := os.Open(*imagePath)
	if err != nil {
		log.Fatalf("open image: %v", err)
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		log.Fatalf("decode image: %v", err)
	}

	geo, err := display.GeometryByName(*board)
	if err != nil {
		log.Fatalf("%v", err)
	}

	// Probe the connection before streaming frames.
	if _, err := client.Version(); err != nil {
		log.Fatalf("board not responding: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	d := display.New(geo, client)
	if err := d.Scroll(ctx, img, *interval); err != nil && ctx.Err() == nil {
		log.Fatalf("scroll failed: %v", err)
	}
}
