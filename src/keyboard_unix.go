//go:build !windows

package main

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"golang.org/x/term"
)

// playKeyboard reads keys from f in raw mode until 'q', Ctrl-C or ctx is done.
// Terminals do not report key release, so each note is released after hold.
func playKeyboard(ctx context.Context, f *os.File, sink noteSink, base int, hold time.Duration) error {
	fd := int(f.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to set raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)
	if err := syscall.SetNonblock(fd, true); err != nil {
		return fmt.Errorf("failed to set nonblocking stdin: %w", err)
	}
	defer syscall.SetNonblock(fd, false)

	fmt.Fprintf(os.Stderr, "keys: %s (q to quit)\r\n", keyRow)
	buf := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		n, err := syscall.Read(fd, buf)
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK || n == 0 {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			return err
		}
		if !handleKey(buf[0], sink, base, hold) {
			return nil
		}
	}
}
