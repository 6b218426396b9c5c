// Package printer delivers command streams to network label printers over
// raw TCP.
package printer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

const (
	DefaultPort    = 9100
	DefaultTimeout = 10 * time.Second
)

var (
	ErrTimeout     = errors.New("printer timed out")
	ErrUnreachable = errors.New("printer unreachable")
)

// TransportError is a delivery failure. It never describes a rendering
// problem: the bytes were valid, the printer did not take them.
type TransportError struct {
	Op   string // "dial" or "write"
	Addr string
	Kind error // ErrTimeout, ErrUnreachable or context.Canceled
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("printer %s %s: %v: %v", e.Op, e.Addr, e.Kind, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func (e *TransportError) Timeout() bool {
	return errors.Is(e.Kind, ErrTimeout)
}

// Addr joins host and port, using DefaultPort when port is zero.
func Addr(host string, port int) string {
	if port <= 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

type Transport struct {
	timeout time.Duration
	dial    DialFunc
}

type Option func(*Transport)

// WithDialer replaces the TCP dialer.
func WithDialer(dial DialFunc) Option {
	return func(t *Transport) {
		if dial != nil {
			t.dial = dial
		}
	}
}

func NewTransport(timeout time.Duration, opts ...Option) *Transport {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	d := &net.Dialer{}
	t := &Transport{timeout: timeout, dial: d.DialContext}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Transport) Timeout() time.Duration {
	return t.timeout
}

// Send writes data to addr. One timer bounds connect and write together; when
// it fires the connection is torn down before Send returns. The connection is
// closed on every path. Send does not retry.
func (t *Transport) Send(ctx context.Context, addr string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	conn, err := t.dial(ctx, "tcp", addr)
	if err != nil {
		return classify(ctx, "dial", addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	// cancellation of the parent unblocks a write stuck on a full buffer
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if _, err := conn.Write(data); err != nil {
		return classify(ctx, "write", addr, err)
	}
	return nil
}

func classify(ctx context.Context, op, addr string, err error) error {
	kind := ErrUnreachable

	var ne net.Error
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		kind = context.Canceled
	case errors.Is(ctx.Err(), context.DeadlineExceeded),
		errors.Is(err, os.ErrDeadlineExceeded),
		errors.As(err, &ne) && ne.Timeout():
		kind = ErrTimeout
	}
	return &TransportError{Op: op, Addr: addr, Kind: kind, Err: err}
}
