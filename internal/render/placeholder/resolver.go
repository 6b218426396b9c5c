// Package placeholder substitutes {{token}} markers against a render Context.
// Every renderer goes through the same Resolver so document and printer
// outputs agree on substitution.
package placeholder

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/geocoder89/eventprint/internal/domain/template"
)

var tokenPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.\-]+)\s*\}\}`)

// Computed derives a value from the context and the resolver's clock reading.
type Computed func(c Context, now time.Time, r *Resolver) string

type Resolver struct {
	verifyBaseURL string
	now           func() time.Time
	loc           *time.Location
	computed      map[string]Computed
}

type Option func(*Resolver)

func WithVerifyBaseURL(base string) Option {
	return func(r *Resolver) {
		r.verifyBaseURL = strings.TrimRight(strings.TrimSpace(base), "/")
	}
}

// WithClock fixes the time source used by date tokens such as {{today}}.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLocation sets the zone dates are printed in. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(r *Resolver) {
		if loc != nil {
			r.loc = loc
		}
	}
}

func New(opts ...Option) *Resolver {
	r := &Resolver{
		now: time.Now,
		loc: time.UTC,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.computed = map[string]Computed{
		"event_date":       eventDateRange,
		"event_dates":      eventDateRange,
		"event_start_date": eventStartDate,
		"event_end_date":   eventEndDate,
		"today":            today,
		"issue_date":       today,
		"year":             year,
		"verification_url": verificationURL,
		"verify_url":       verificationURL,
	}
	return r
}

// Register adds or replaces a computed token.
func (r *Resolver) Register(name string, fn Computed) {
	r.computed[normalize(name)] = fn
}

// Now returns the resolver's clock reading in its location.
func (r *Resolver) Now() time.Time {
	return r.now().In(r.loc)
}

// Resolve replaces every known token in s. Unknown tokens are returned verbatim.
func (r *Resolver) Resolve(s string, c Context) string {
	if !strings.Contains(s, "{{") {
		return s
	}

	var now time.Time
	nowRead := false

	return tokenPattern.ReplaceAllStringFunc(s, func(match string) string {
		sub := tokenPattern.FindStringSubmatch(match)
		if len(sub) < 2 {
			return match
		}
		name := normalize(sub[1])

		if field, ok := direct[name]; ok {
			return field(c)
		}

		if fn, ok := r.computed[name]; ok {
			if !nowRead {
				now = r.Now()
				nowRead = true
			}
			return fn(c, now, r)
		}

		if v, ok := answer(c, name); ok {
			return v
		}

		return match
	})
}

// Text resolves s and then applies the element's case transform.
func (r *Resolver) Text(s string, c Context, tc template.TextCase) string {
	return ApplyCase(r.Resolve(s, c), tc)
}

// Known reports whether name resolves against any context.
func (r *Resolver) Known(name string) bool {
	name = normalize(name)
	if _, ok := direct[name]; ok {
		return true
	}
	_, ok := r.computed[name]
	return ok
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

var direct = map[string]func(Context) string{
	"name":            Context.FullName,
	"full_name":       Context.FullName,
	"attendee_name":   Context.FullName,
	"first_name":      func(c Context) string { return c.FirstName },
	"last_name":       func(c Context) string { return c.LastName },
	"email":           func(c Context) string { return c.Email },
	"phone":           func(c Context) string { return c.Phone },
	"company":         func(c Context) string { return c.Company },
	"job_title":       func(c Context) string { return c.JobTitle },
	"ticket_type":     func(c Context) string { return c.TicketType },
	"registration_id": func(c Context) string { return c.RegistrationID },
	"checkin_token":   func(c Context) string { return c.CheckinToken },
	"event_name":      func(c Context) string { return c.EventName },
	"event_title":     func(c Context) string { return c.EventName },
	"venue":           func(c Context) string { return c.Venue },
	"city":            func(c Context) string { return c.City },
	"organizer":       func(c Context) string { return c.Organizer },
}

func answer(c Context, name string) (string, bool) {
	key, ok := strings.CutPrefix(name, "answers.")
	if !ok || key == "" || c.Answers == nil {
		return "", false
	}
	if v, ok := c.Answers[key]; ok {
		return v, true
	}
	// Contexts decoded from JSON keep the caller's key spelling.
	for k, v := range c.Answers {
		if normalize(k) == key {
			return v, true
		}
	}
	return "", false
}

const longDate = "January 2, 2006"

func eventStartDate(c Context, _ time.Time, r *Resolver) string {
	if c.EventStart.IsZero() {
		return ""
	}
	return c.EventStart.In(r.loc).Format(longDate)
}

func eventEndDate(c Context, _ time.Time, r *Resolver) string {
	end := c.EventEnd
	if end.IsZero() {
		end = c.EventStart
	}
	if end.IsZero() {
		return ""
	}
	return end.In(r.loc).Format(longDate)
}

// eventDateRange collapses the shared parts of the start and end dates.
func eventDateRange(c Context, _ time.Time, r *Resolver) string {
	if c.EventStart.IsZero() {
		return ""
	}
	start := c.EventStart.In(r.loc)
	end := start
	if !c.EventEnd.IsZero() && c.EventEnd.After(c.EventStart) {
		end = c.EventEnd.In(r.loc)
	}

	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()

	switch {
	case sy == ey && sm == em && sd == ed:
		return start.Format(longDate)
	case sy == ey && sm == em:
		return start.Format("January 2") + " - " + end.Format("2, 2006")
	case sy == ey:
		return start.Format("January 2") + " - " + end.Format(longDate)
	default:
		return start.Format(longDate) + " - " + end.Format(longDate)
	}
}

func today(_ Context, now time.Time, _ *Resolver) string {
	return now.Format(longDate)
}

func year(_ Context, now time.Time, _ *Resolver) string {
	return now.Format("2006")
}

func verificationURL(c Context, _ time.Time, r *Resolver) string {
	if c.CheckinToken == "" {
		return ""
	}
	return r.verifyBaseURL + "/verify/" + url.PathEscape(c.CheckinToken)
}
