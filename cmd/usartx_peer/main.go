//go:build !tinygo

// Command usartx_peer drives the PC end of a link to a board running usartx.
// It runs a script of send/expect/sleep steps against a serial port, or, with
// -list, prints the ports it can see.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/jangala-dev/tinygo-usartx/hostlink"
	"github.com/jangala-dev/tinygo-usartx/usartx"
	"go.bug.st/serial"
)

func main() {
	var (
		portName   string
		baud       uint
		frame      string
		scriptPath string
		timeout    = hostlink.DefaultTimeout
		list       bool
		verbose    bool
	)
	flag.StringVar(&portName, "port", "", "Serial port connected to the board.")
	flag.UintVar(&baud, "baud", uint(usartx.DefaultBaudRate), "Baud rate.")
	flag.StringVar(&frame, "frame", "8N1", "Frame in USART notation (word length includes parity).")
	flag.StringVar(&scriptPath, "script", "-", "Script file, or - for stdin.")
	flag.DurationVar(&timeout, "timeout", timeout, "Inter-byte timeout for expect steps.")
	flag.BoolVar(&list, "list", false, "List serial ports and exit.")
	flag.BoolVar(&verbose, "v", false, "Log every step.")
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if list {
		if err := listPorts(os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}
	if portName == "" {
		fmt.Fprintln(os.Stderr, "error: -port is required")
		os.Exit(2)
	}
	fc, err := hostlink.ParseFrame(frame)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := hostlink.Config{Port: portName, BaudRate: uint32(baud), Frame: fc, Timeout: timeout}
	if err := run(ctx, cfg, scriptPath); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg hostlink.Config, scriptPath string) error {
	var script io.Reader = os.Stdin
	if scriptPath != "-" {
		f, err := os.Open(scriptPath)
		if err != nil {
			return fmt.Errorf("open script %q: %w", scriptPath, err)
		}
		defer f.Close()
		script = f
	}

	l, err := hostlink.Open(cfg)
	if err != nil {
		if errors.Is(err, hostlink.ErrUnsupportedFrame) {
			return fmt.Errorf("%w (try a frame with parity, or 8N1)", err)
		}
		return err
	}
	defer l.Close()

	steps, err := l.Run(ctx, script)
	if err != nil {
		return fmt.Errorf("after %d steps: %w", steps, err)
	}
	return nil
}

func listPorts(w io.Writer) error {
	ports, err := serial.GetPortsList()
	if err != nil {
		return fmt.Errorf("list ports: %w", err)
	}
	if len(ports) == 0 {
		fmt.Fprintln(w, "no serial ports found")
		return nil
	}
	fmt.Fprintln(w, strings.Join(ports, "\n"))
	return nil
}
