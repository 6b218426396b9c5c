package printer

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("printer circuit open")

// Sender delivers a command stream to one printer address.
type Sender interface {
	Send(ctx context.Context, addr string, data []byte) error
}

type breakerState string

const (
	stateClosed   breakerState = "closed"
	stateOpen     breakerState = "open"
	stateHalfOpen breakerState = "half_open"
)

type ProtectedSenderConfig struct {
	FailureThreshold int           // consecutive failures to open an address
	Cooldown         time.Duration // time an address stays open before a trial send
	HalfOpenMaxCalls int
}

// ProtectedSender stops hammering printers that keep failing. State is kept
// per address so one jammed kiosk does not block the others. It never
// retries; it only refuses.
type ProtectedSender struct {
	inner Sender
	cfg   ProtectedSenderConfig
	now   func() time.Time

	mu       sync.Mutex
	breakers map[string]*breaker
}

type breaker struct {
	state               breakerState
	consecutiveFailures int
	openedAt            time.Time
	halfOpenInFlight    int
}

func NewProtectedSender(inner Sender, cfg ProtectedSenderConfig) *ProtectedSender {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 1
	}

	return &ProtectedSender{
		inner:    inner,
		cfg:      cfg,
		now:      time.Now,
		breakers: make(map[string]*breaker),
	}
}

func (p *ProtectedSender) Send(ctx context.Context, addr string, data []byte) error {
	if !p.allow(addr) {
		return &TransportError{Op: "dial", Addr: addr, Kind: ErrUnreachable, Err: ErrCircuitOpen}
	}

	err := p.inner.Send(ctx, addr, data)
	p.after(addr, err)
	return err
}

// State reports the breaker state of addr, mainly for diagnostics.
func (p *ProtectedSender) State(addr string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	b, ok := p.breakers[addr]
	if !ok {
		return string(stateClosed)
	}
	return string(b.state)
}

func (p *ProtectedSender) lookup(addr string) *breaker {
	b, ok := p.breakers[addr]
	if !ok {
		b = &breaker{state: stateClosed}
		p.breakers[addr] = b
	}
	return b
}

func (p *ProtectedSender) allow(addr string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	b := p.lookup(addr)
	switch b.state {
	case stateOpen:
		if p.now().Sub(b.openedAt) < p.cfg.Cooldown {
			return false
		}
		b.state = stateHalfOpen
		b.halfOpenInFlight = 1
		return true
	case stateHalfOpen:
		if b.halfOpenInFlight >= p.cfg.HalfOpenMaxCalls {
			return false
		}
		b.halfOpenInFlight++
		return true
	default:
		return true
	}
}

func (p *ProtectedSender) after(addr string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	b := p.lookup(addr)
	if b.state == stateHalfOpen && b.halfOpenInFlight > 0 {
		b.halfOpenInFlight--
	}

	// a caller giving up says nothing about the printer
	if errors.Is(err, context.Canceled) {
		return
	}

	if err == nil {
		b.consecutiveFailures = 0
		b.state = stateClosed
		return
	}

	b.consecutiveFailures++
	if b.state == stateHalfOpen || b.consecutiveFailures >= p.cfg.FailureThreshold {
		b.state = stateOpen
		b.openedAt = p.now()
	}
}
