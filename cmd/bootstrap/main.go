// Command bootstrap loads a WASM module and invokes its entry point once.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/reglet-dev/wasm-bootstrap/domain/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()

	if code := exitCode(err, os.Stderr); code != 0 {
		os.Exit(code)
	}
}

// exitCode maps the command result to a process exit status. A load or invoke
// failure has already been written by the reporter and leaves the status at 0.
// Anything else (flags, config) is printed to w and exits 1.
func exitCode(err error, w io.Writer) int {
	if err == nil {
		return 0
	}
	if _, reported := errors.StageOf(err); reported {
		return 0
	}
	fmt.Fprintln(w, "Error:", err)
	return 1
}
