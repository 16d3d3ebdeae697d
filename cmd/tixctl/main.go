// SPDX-License-Identifier: MIT

// Command tixctl drives a running tixsim daemon over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ManuGH/tixsim/internal/version"
	"github.com/spf13/pflag"
)

const defaultServer = "http://localhost:5000"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := pflag.NewFlagSet("tixctl", pflag.ContinueOnError)
	global.SetOutput(stderr)
	global.SetInterspersed(false)
	server := global.String("server", defaultServer, "base URL of the tixsim API")
	timeout := global.Duration("timeout", 10*time.Second, "per-request timeout")
	showVersion := global.Bool("version", false, "print version and exit")
	global.Usage = func() { printUsage(stderr, global) }

	if err := global.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *showVersion {
		fmt.Fprintln(stdout, version.String())
		return 0
	}
	rest := global.Args()
	if len(rest) == 0 {
		printUsage(stderr, global)
		return 2
	}

	c := newClient(*server, *timeout)
	var err error
	switch rest[0] {
	case "start":
		err = runStart(ctx, c, rest[1:], stdout, stderr)
	case "stop":
		err = printMessage(stdout)(c.post(ctx, "/stop", nil))
	case "reset":
		err = printMessage(stdout)(c.post(ctx, "/reset", nil))
	case "status":
		err = runStatus(ctx, c, rest[1:], stdout, stderr)
	case "watch":
		err = runWatch(ctx, c, rest[1:], stdout, stderr)
	case "preset":
		err = runPreset(ctx, c, stdout)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", rest[0])
		printUsage(stderr, global)
		return 2
	}

	var usage usageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &usage):
		return 2
	default:
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
}

func printUsage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(w, "Usage: tixctl [--server URL] <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  start    start a run (--vendors --customers --total --capacity --release-rate --retrieval-rate)")
	fmt.Fprintln(w, "  stop     stop the running exchange")
	fmt.Fprintln(w, "  reset    clear pool, counters and log")
	fmt.Fprintln(w, "  status   print the current snapshot (--tail N)")
	fmt.Fprintln(w, "  watch    poll status until interrupted (--interval, --count)")
	fmt.Fprintln(w, "  preset   print the last saved run configuration")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global flags:")
	fmt.Fprint(w, fs.FlagUsages())
}

// usageError marks flag parsing failures that were already reported.
type usageError struct{ err error }

func (u usageError) Error() string { return u.err.Error() }

func parseFlags(fs *pflag.FlagSet, args []string, stderr io.Writer) error {
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return usageError{err}
	}
	return nil
}
