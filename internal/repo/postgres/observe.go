package postgres

import "github.com/geocoder89/eventprint/internal/observability"

// instrumented gives every repo the same query timing.
type instrumented struct {
	prom *observability.Prom
}

func (i instrumented) observe(op string, fn func() error) error {
	if i.prom != nil {
		return i.prom.ObserveDB(op, fn)
	}
	return fn()
}
