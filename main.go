package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/chuckie/autocommit/internal/ui"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(streams{out: stdout, err: stderr})
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	code := exitCode(err)
	if errors.Is(err, errDeclined) {
		// Already reported.
		return code
	}
	if code == exitInterrupted {
		fmt.Fprintln(stderr)
		ui.Warn(stderr, "Interrupted.")
		return code
	}

	if output, _ := root.PersistentFlags().GetString("output"); output == "json" {
		_ = writeJSON(stdout, errorJSON{Success: false, Error: err.Error(), Code: code})
		return code
	}
	ui.Fail(stderr, "Error: %v", err)
	if code == exitUsage {
		var usage usageError
		if errors.As(err, &usage) {
			fmt.Fprintln(stderr, "Run 'autocommit --help' for usage.")
		}
	}
	return code
}
