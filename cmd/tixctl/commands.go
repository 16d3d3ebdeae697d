// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ManuGH/tixsim/internal/api"
	"github.com/spf13/pflag"
)

func runStart(ctx context.Context, c *client, args []string, stdout, stderr io.Writer) error {
	var req api.StartRequest
	fs := pflag.NewFlagSet("start", pflag.ContinueOnError)
	fs.IntVar(&req.Vendors, "vendors", 1, "number of vendors")
	fs.IntVar(&req.Customers, "customers", 1, "number of customers")
	fs.IntVar(&req.Total, "total", 0, "tickets to release over the run")
	fs.IntVar(&req.Capacity, "capacity", 0, "maximum tickets in the pool")
	fs.IntVar(&req.TicketReleaseRate, "release-rate", 1000, "vendor tick interval in milliseconds")
	fs.IntVar(&req.CustomerRetrievalRate, "retrieval-rate", 1000, "customer tick interval in milliseconds")
	if err := parseFlags(fs, args, stderr); err != nil {
		return err
	}

	var resp api.StartResponse
	if err := c.postJSON(ctx, "/start", req, &resp); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s run=%s\n", resp.Message, resp.RunID)
	return nil
}

func printMessage(stdout io.Writer) func(api.MessageResponse, error) error {
	return func(m api.MessageResponse, err error) error {
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, m.Message)
		return nil
	}
}

func runStatus(ctx context.Context, c *client, args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("status", pflag.ContinueOnError)
	tail := fs.Int("tail", 0, "only show the last N log lines (0 shows all)")
	if err := parseFlags(fs, args, stderr); err != nil {
		return err
	}
	st, err := c.status(ctx, *tail)
	if err != nil {
		return err
	}
	printStatus(stdout, st)
	for _, line := range st.Logs {
		fmt.Fprintf(stdout, "  %s\n", line)
	}
	return nil
}

func runWatch(ctx context.Context, c *client, args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("watch", pflag.ContinueOnError)
	interval := fs.Duration("interval", time.Second, "poll interval")
	count := fs.Int("count", 0, "stop after N polls (0 polls until interrupted)")
	if err := parseFlags(fs, args, stderr); err != nil {
		return err
	}
	if *interval <= 0 {
		return fmt.Errorf("--interval must be positive")
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	seen := 0
	for n := 1; ; n++ {
		st, err := c.status(ctx, 0)
		if err != nil {
			return err
		}
		printStatus(stdout, st)
		// Print only log lines added since the previous poll. A reset shrinks the log.
		if len(st.Logs) < seen {
			seen = 0
		}
		for _, line := range st.Logs[seen:] {
			fmt.Fprintf(stdout, "  %s\n", line)
		}
		seen = len(st.Logs)

		if *count > 0 && n >= *count {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func runPreset(ctx context.Context, c *client, stdout io.Writer) error {
	var p api.PresetResponse
	if err := c.getJSON(ctx, "/preset", &p); err != nil {
		return err
	}
	cfg := p.Config
	fmt.Fprintf(stdout, "saved %s run=%s\n", p.SavedAt.Format(time.RFC3339), p.RunID)
	fmt.Fprintf(stdout, "  vendors=%d customers=%d total=%d capacity=%d release=%dms retrieval=%dms\n",
		cfg.Vendors, cfg.Customers, cfg.Total, cfg.Capacity, cfg.TicketReleaseRate, cfg.CustomerRetrievalRate)
	return nil
}

func printStatus(w io.Writer, st api.StatusResponse) {
	parts := []string{
		"status=" + st.Status,
		fmt.Sprintf("pool=%d/%d", st.TicketPool, st.Capacity),
		fmt.Sprintf("sold=%d", st.TicketsSold),
		fmt.Sprintf("waiting=%d", st.Waiting),
		fmt.Sprintf("total=%d", st.TotalTickets),
	}
	if st.Halted != "" {
		parts = append(parts, "halted="+st.Halted)
	}
	fmt.Fprintln(w, strings.Join(parts, " "))
}
