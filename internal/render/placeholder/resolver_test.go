package placeholder

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/eventprint/internal/domain/event"
	"github.com/geocoder89/eventprint/internal/domain/registration"
	"github.com/geocoder89/eventprint/internal/domain/template"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

var fixedNow = time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

func newTestResolver() *Resolver {
	return New(
		WithClock(func() time.Time { return fixedNow }),
		WithVerifyBaseURL("https://events.example.com/"),
	)
}

func testContext() Context {
	end := time.Date(2026, time.May, 12, 17, 0, 0, 0, time.UTC)
	ev := event.Event{
		ID:      "ev-1",
		Title:   "GopherCon",
		Venue:   "Hall B",
		City:    "Lisbon",
		StartAt: time.Date(2026, time.May, 10, 9, 0, 0, 0, time.UTC),
		EndAt:   &end,
	}
	reg := registration.Registration{
		ID:             "reg-1",
		EventID:        "ev-1",
		FirstName:      "Jane",
		LastName:       "Doe",
		Email:          "jane@example.com",
		Company:        "Acme",
		TicketTypeName: "VIP",
		CheckinToken:   "tok 42",
		Answers:        map[string]string{"T_Shirt": "M"},
	}
	return FromRecords(ev, reg)
}

func TestResolve_Tokens(t *testing.T) {
	r := newTestResolver()
	c := testContext()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain text untouched", in: "Welcome", want: "Welcome"},
		{name: "full name", in: "{{name}}", want: "Jane Doe"},
		{name: "case insensitive", in: "{{First_Name}} / {{LAST_NAME}}", want: "Jane / Doe"},
		{name: "inner whitespace", in: "{{ company }}", want: "Acme"},
		{name: "ticket type", in: "{{ticket_type}}", want: "VIP"},
		{name: "event name", in: "{{event_name}} @ {{venue}}", want: "GopherCon @ Hall B"},
		{name: "date range same month", in: "{{event_date}}", want: "May 10 - 12, 2026"},
		{name: "today from clock", in: "Issued {{today}}", want: "Issued March 14, 2026"},
		{name: "verification url", in: "{{verification_url}}", want: "https://events.example.com/verify/tok%2042"},
		{name: "answers", in: "{{answers.t_shirt}}", want: "M"},
		{name: "empty known field", in: "[{{phone}}]", want: "[]"},
		{name: "unknown left verbatim", in: "Hi {{nickname}}!", want: "Hi {{nickname}}!"},
		{name: "unknown answer left verbatim", in: "{{answers.diet}}", want: "{{answers.diet}}"},
		{name: "unbalanced braces", in: "{{name", want: "{{name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.in, c))
		})
	}
}

func TestEventDateRange(t *testing.T) {
	r := newTestResolver()
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 10, 0, 0, 0, time.UTC) }

	tests := []struct {
		name       string
		start, end time.Time
		want       string
	}{
		{name: "single day", start: day(2026, 1, 5), end: day(2026, 1, 5), want: "January 5, 2026"},
		{name: "no end", start: day(2026, 1, 5), want: "January 5, 2026"},
		{name: "same month", start: day(2026, 1, 5), end: day(2026, 1, 7), want: "January 5 - 7, 2026"},
		{name: "same year", start: day(2026, 1, 30), end: day(2026, 2, 2), want: "January 30 - February 2, 2026"},
		{name: "across years", start: day(2025, 12, 30), end: day(2026, 1, 2), want: "December 30, 2025 - January 2, 2026"},
		{name: "end before start", start: day(2026, 1, 5), end: day(2026, 1, 1), want: "January 5, 2026"},
		{name: "no start", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Context{EventStart: tt.start, EventEnd: tt.end}
			assert.Equal(t, tt.want, r.Resolve("{{event_date}}", c))
		})
	}
}

func TestResolve_RegisteredComputedToken(t *testing.T) {
	r := newTestResolver()
	r.Register("Badge_Color", func(c Context, _ time.Time, _ *Resolver) string {
		if c.TicketType == "VIP" {
			return "gold"
		}
		return "blue"
	})

	assert.Equal(t, "gold", r.Resolve("{{badge_color}}", testContext()))
	assert.True(t, r.Known("badge_color"))
	assert.False(t, r.Known("nickname"))
}

var knownTokens = []string{
	"name", "first_name", "last_name", "email", "phone", "company", "job_title",
	"ticket_type", "registration_id", "event_name", "venue", "city",
	"event_date", "event_start_date", "event_end_date", "today", "issue_date", "verification_url",
}

func TestResolve_KnownTokensLeaveNoMarkers(t *testing.T) {
	r := newTestResolver()
	c := testContext()

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(rt, "n")
		var b strings.Builder
		for i := 0; i < n; i++ {
			b.WriteString(rapid.StringMatching(`[A-Za-z ,.:]{0,6}`).Draw(rt, "text"))
			tok := rapid.SampledFrom(knownTokens).Draw(rt, "token")
			if rapid.Bool().Draw(rt, "upper") {
				tok = strings.ToUpper(tok)
			}
			b.WriteString("{{" + tok + "}}")
		}

		out := r.Resolve(b.String(), c)
		if strings.Contains(out, "{{") || strings.Contains(out, "}}") {
			rt.Fatalf("unresolved marker in %q -> %q", b.String(), out)
		}
	})
}

func TestResolve_AnswersFromDecodedContext(t *testing.T) {
	r := newTestResolver()

	var c Context
	err := json.Unmarshal([]byte(`{"first_name":"Ada","answers":{"T_Shirt":"L","Diet":"vegan"}}`), &c)
	assert.NoError(t, err)

	assert.Equal(t, "L / vegan", r.Resolve("{{answers.t_shirt}} / {{ Answers.DIET }}", c))
	assert.Equal(t, "{{answers.size}}", r.Resolve("{{answers.size}}", c))
}

func TestResolve_UnknownTokensPreserved(t *testing.T) {
	r := newTestResolver()
	c := testContext()

	rapid.Check(t, func(rt *rapid.T) {
		name := "x_" + rapid.StringMatching(`[a-z0-9_]{1,12}`).Draw(rt, "name")
		token := "{{" + name + "}}"
		in := "before " + token + " after"

		out := r.Resolve(in, c)
		if !strings.Contains(out, token) {
			rt.Fatalf("token %q lost: %q", token, out)
		}
	})
}

// nameRunes covers ASCII plus Latin-1 and Latin Extended-A letters, where
// attendee names live.
func nameRunes() []rune {
	rs := []rune(" ,.'-0123456789")
	for r := 'A'; r <= 'Z'; r++ {
		rs = append(rs, r, r+('a'-'A'))
	}
	rs = append(rs, 0xB5)
	for r := rune(0xC0); r <= 0x17F; r++ {
		if r != 0xD7 && r != 0xF7 {
			rs = append(rs, r)
		}
	}
	return rs
}

func TestApplyCase_Properties(t *testing.T) {
	alphabet := nameRunes()
	rapid.Check(t, func(rt *rapid.T) {
		s := rapid.StringOfN(rapid.RuneFrom(alphabet), 0, 40, -1).Draw(rt, "s")

		upperThenLower := ApplyCase(ApplyCase(s, template.CaseUpper), template.CaseLower)
		if upperThenLower != ApplyCase(s, template.CaseLower) {
			rt.Fatalf("upper+lower %q != lower %q", upperThenLower, ApplyCase(s, template.CaseLower))
		}

		once := ApplyCase(s, template.CaseCapitalize)
		twice := ApplyCase(once, template.CaseCapitalize)
		if once != twice {
			rt.Fatalf("capitalize not idempotent: %q vs %q", once, twice)
		}
	})
}

func TestApplyCase_NonASCIINames(t *testing.T) {
	tests := []struct {
		in   string
		tc   template.TextCase
		want string
	}{
		{in: "Strauß", tc: template.CaseUpper, want: "STRAUß"},
		{in: "Jürgen Groß", tc: template.CaseUpper, want: "JÜRGEN GROß"},
		{in: "JÜRGEN GROß", tc: template.CaseLower, want: "jürgen groß"},
		{in: "łukasz żółć", tc: template.CaseCapitalize, want: "Łukasz Żółć"},
		// decomposed input comes out composed
		{in: "Zoe\u0308", tc: template.CaseUpper, want: "ZOË"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ApplyCase(tt.in, tt.tc), tt.in)
		assert.Equal(t, ApplyCase(tt.in, template.CaseLower), ApplyCase(ApplyCase(tt.in, template.CaseUpper), template.CaseLower), tt.in)
	}
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Jane Doe", Capitalize("jane doe"))
	assert.Equal(t, "O'Neil-Smith", Capitalize("o'neil-smith"))
	assert.Equal(t, "McDonald", Capitalize("mcDonald"))
	assert.Equal(t, "  Émile", Capitalize("  émile"))
	assert.Equal(t, "", Capitalize(""))
}

func TestText_AppliesCaseAfterSubstitution(t *testing.T) {
	r := newTestResolver()
	c := testContext()

	assert.Equal(t, "JANE DOE", r.Text("{{name}}", c, template.CaseUpper))
	assert.Equal(t, "Jane Doe", r.Text("{{name}}", c, template.CaseNone))
	assert.Equal(t, "{{nickname}}", r.Text("{{nickname}}", c, template.CaseNone))
}
