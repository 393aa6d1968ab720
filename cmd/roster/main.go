// Package main is a terminal client for the Roster server.
// Each line read from stdin is typed into the form and submitted with Enter.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/roster/roster/internal/client"
	"github.com/roster/roster/internal/view"
)

func main() {
	addr := flag.String("addr", "http://localhost:8080", "server base URL")
	timeout := flag.Duration("timeout", 10*time.Second, "per-request timeout")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, client.New(*addr, client.WithTimeout(*timeout)), os.Stdin, os.Stdout); err != nil {
		logger.Error("roster client failed", "addr", *addr, "error", err)
		os.Exit(1)
	}
}

// run loads the initial list, then submits each input line and re-renders.
func run(ctx context.Context, c *client.Client, in io.Reader, out io.Writer) error {
	users, err := c.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}

	v := view.New(c, users)
	if err := v.Render(out); err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		v.SetInput(scanner.Text())
		v.Submit(ctx)
		if err := v.Render(out); err != nil {
			return err
		}
	}
	return scanner.Err()
}
