//go:build windows

package main

import (
	"context"
	"fmt"
	"os"
	"time"
)

func playKeyboard(ctx context.Context, f *os.File, sink noteSink, base int, hold time.Duration) error {
	return fmt.Errorf("-keys is not supported on windows")
}
