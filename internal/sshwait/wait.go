// Package sshwait polls a TCP endpoint until the SSH service inside the
// container accepts connections or a deadline elapses.
package sshwait

import (
	"context"
	"net"
	"strconv"
	"time"

	apperrors "github.com/deadpackets/pwnbox-cli/internal/errors"
)

// DialFunc attempts one connection probe. Injectable for tests.
type DialFunc func(network, address string, timeout time.Duration) (net.Conn, error)

// Waiter polls at a fixed interval with a per-probe connect timeout, so a
// single stuck probe can never exceed the interval budget.
type Waiter struct {
	Interval       time.Duration
	ConnectTimeout time.Duration

	dial DialFunc
}

// New returns a Waiter with the default 1s probe interval.
func New() *Waiter {
	return &Waiter{
		Interval:       time.Second,
		ConnectTimeout: time.Second,
		dial:           net.DialTimeout,
	}
}

// WithDialer replaces the probe dialer, for tests.
func (w *Waiter) WithDialer(dial DialFunc) *Waiter {
	w.dial = dial
	return w
}

// Wait probes host:port until a connection succeeds or timeout elapses. On
// timeout it returns a TimeoutError and leaves the container untouched; a
// slow boot should never tear down a box the user can still attach to.
// Cancellation aborts the loop immediately with the context's error.
func (w *Waiter) Wait(ctx context.Context, host string, port int, timeout time.Duration) error {
	address := net.JoinHostPort(host, strconv.Itoa(port))
	start := time.Now()
	deadline := start.Add(timeout)

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, err := w.dial("tcp", address, w.ConnectTimeout)
		if err == nil {
			_ = conn.Close() //nolint:errcheck // probe connection, nothing read
			return nil
		}

		if !time.Now().Before(deadline) {
			return &apperrors.TimeoutError{Host: host, Port: port, Elapsed: time.Since(start)}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
