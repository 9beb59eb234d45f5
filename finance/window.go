package finance

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/linesmerrill/clinic-api/models"
)

// Window is an inclusive [Start, End] pair of instants
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies inside the window, both ends included
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// WindowParams are the raw query parameters a window can be resolved from
type WindowParams struct {
	Date  string
	Month string
	Year  string
	From  string
	To    string
}

// WindowParamsFromQuery reads date, month, year, from and to out of a query string
func WindowParamsFromQuery(q url.Values) WindowParams {
	return WindowParams{
		Date:  strings.TrimSpace(q.Get("date")),
		Month: strings.TrimSpace(q.Get("month")),
		Year:  strings.TrimSpace(q.Get("year")),
		From:  strings.TrimSpace(q.Get("from")),
		To:    strings.TrimSpace(q.Get("to")),
	}
}

// Empty reports whether no window parameter was supplied at all
func (p WindowParams) Empty() bool {
	return p.Date == "" && p.Month == "" && p.Year == "" && p.From == "" && p.To == ""
}

// Resolver turns window parameters into concrete windows in the clinic's time zone
type Resolver struct {
	Location *time.Location
	Now      func() time.Time
}

// NewResolver returns a resolver for loc using the wall clock
func NewResolver(loc *time.Location) Resolver {
	if loc == nil {
		loc = time.Local
	}
	return Resolver{Location: loc, Now: time.Now}
}

func (r Resolver) location() *time.Location {
	if r.Location == nil {
		return time.Local
	}
	return r.Location
}

func (r Resolver) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// Resolve returns the window described by p, or nil when p names no window. When more
// than one form is present the precedence is date, then month+year, then year, then
// from+to. A month without a year is only an error when no other form is present.
func (r Resolver) Resolve(p WindowParams) (*Window, error) {
	switch {
	case p.Date != "":
		d, err := r.ParseDate(p.Date)
		if err != nil {
			return nil, models.NewValidationError("date", "invalid date %q", p.Date)
		}
		w := r.Day(d)
		return &w, nil
	case p.Month != "" && p.Year != "":
		year, err := parseYear(p.Year)
		if err != nil {
			return nil, err
		}
		month, err := strconv.Atoi(p.Month)
		if err != nil || month < 1 || month > 12 {
			return nil, models.NewValidationError("month", "month must be between 1 and 12, got %q", p.Month)
		}
		w := r.Month(year, time.Month(month))
		return &w, nil
	case p.Year != "":
		year, err := parseYear(p.Year)
		if err != nil {
			return nil, err
		}
		w := r.Year(year)
		return &w, nil
	case p.From != "" || p.To != "":
		if p.From == "" || p.To == "" {
			return nil, models.NewValidationError("from", "from and to must be supplied together")
		}
		from, err := r.ParseDate(p.From)
		if err != nil {
			return nil, models.NewValidationError("from", "invalid date %q", p.From)
		}
		to, err := r.ParseDate(p.To)
		if err != nil {
			return nil, models.NewValidationError("to", "invalid date %q", p.To)
		}
		w := Window{Start: startOfDay(from), End: endOfDay(to)}
		if w.End.Before(w.Start) {
			return nil, models.NewValidationError("from", "from %s is after to %s", p.From, p.To)
		}
		return &w, nil
	case p.Month != "":
		return nil, models.NewValidationError("year", "month %q needs a year", p.Month)
	}
	return nil, nil
}

// ResolveOrToday resolves p and falls back to today's window when p names none
func (r Resolver) ResolveOrToday(p WindowParams) (Window, error) {
	w, err := r.Resolve(p)
	if err != nil {
		return Window{}, err
	}
	if w == nil {
		return r.Today(), nil
	}
	return *w, nil
}

// Today is the window covering the current calendar day
func (r Resolver) Today() Window {
	return r.Day(r.now().In(r.location()))
}

// Day is the window covering the calendar day of d in the clinic's time zone
func (r Resolver) Day(d time.Time) Window {
	d = d.In(r.location())
	return Window{Start: startOfDay(d), End: endOfDay(d)}
}

// Month is the window covering every day of the given month
func (r Resolver) Month(year int, month time.Month) Window {
	first := time.Date(year, month, 1, 0, 0, 0, 0, r.location())
	last := first.AddDate(0, 1, -1)
	return Window{Start: first, End: endOfDay(last)}
}

// Year is the window covering January 1 through December 31
func (r Resolver) Year(year int) Window {
	first := time.Date(year, time.January, 1, 0, 0, 0, 0, r.location())
	last := time.Date(year, time.December, 31, 0, 0, 0, 0, r.location())
	return Window{Start: first, End: endOfDay(last)}
}

// ParseDate accepts a plain calendar date or an RFC 3339 timestamp and returns
// midnight of that calendar date in the clinic's time zone
func (r Resolver) ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseInLocation("2006-01-02", s, r.location()); err == nil {
		return d, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return startOfDay(t.In(r.location())), nil
}

// ParseInstant accepts a calendar date (midnight local) or an RFC 3339 timestamp
func (r Resolver) ParseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseInLocation("2006-01-02", s, r.location()); err == nil {
		return d, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, models.NewValidationError("date", "invalid date %q", s)
	}
	return t, nil
}

func parseYear(s string) (int, error) {
	year, err := strconv.Atoi(s)
	if err != nil || year <= 0 {
		return 0, models.NewValidationError("year", "invalid year %q", s)
	}
	return year, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}
