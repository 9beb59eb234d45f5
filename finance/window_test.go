package finance

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/clinic-api/models"
)

func testResolver(t *testing.T) Resolver {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return Resolver{
		Location: loc,
		Now:      func() time.Time { return time.Date(2024, time.March, 15, 10, 30, 0, 0, loc) },
	}
}

func TestResolveDateWindow(t *testing.T) {
	r := testResolver(t)

	w, err := r.Resolve(WindowParams{Date: "2024-03-16"})
	require.NoError(t, err)
	require.NotNil(t, w)

	assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, r.Location), w.Start)
	assert.Equal(t, time.Date(2024, 3, 16, 23, 59, 59, 999000000, r.Location), w.End)

	assert.True(t, w.Contains(time.Date(2024, 3, 16, 23, 59, 59, 999000000, r.Location)))
	assert.False(t, w.Contains(time.Date(2024, 3, 17, 0, 0, 0, 0, r.Location)))
	assert.True(t, w.Contains(time.Date(2024, 3, 16, 0, 0, 0, 0, r.Location)))
	assert.False(t, w.Contains(time.Date(2024, 3, 15, 23, 59, 59, 999999999, r.Location)))
}

func TestResolveDateAcceptsTimestamps(t *testing.T) {
	r := testResolver(t)

	// 20:00 UTC on the 15th is already the 16th in Kolkata
	w, err := r.Resolve(WindowParams{Date: "2024-03-15T20:00:00Z"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, r.Location), w.Start)
}

func TestResolveMonthEndsOnLastCalendarDay(t *testing.T) {
	r := testResolver(t)

	tests := []struct {
		month, year string
		lastDay     int
	}{
		{"2", "2024", 29},
		{"2", "2023", 28},
		{"1", "2023", 31},
		{"4", "2023", 30},
		{"12", "2023", 31},
		{"2", "2000", 29},
		{"2", "1900", 28},
	}
	for _, tt := range tests {
		w, err := r.Resolve(WindowParams{Month: tt.month, Year: tt.year})
		require.NoError(t, err)
		assert.Equal(t, 1, w.Start.Day())
		assert.Equal(t, 0, w.Start.Hour())
		assert.Equal(t, tt.lastDay, w.End.Day(), "month %s/%s", tt.month, tt.year)
		assert.Equal(t, w.Start.Month(), w.End.Month())
		assert.Equal(t, 23, w.End.Hour())
		assert.Equal(t, 999000000, w.End.Nanosecond())
	}
}

func TestResolveYear(t *testing.T) {
	r := testResolver(t)

	w, err := r.Resolve(WindowParams{Year: "2024"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, r.Location), w.Start)
	assert.Equal(t, time.Date(2024, 12, 31, 23, 59, 59, 999000000, r.Location), w.End)
}

func TestResolveFromTo(t *testing.T) {
	r := testResolver(t)

	w, err := r.Resolve(WindowParams{From: "2024-03-01", To: "2024-03-10"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, r.Location), w.Start)
	assert.Equal(t, time.Date(2024, 3, 10, 23, 59, 59, 999000000, r.Location), w.End)
}

func TestResolvePrecedence(t *testing.T) {
	r := testResolver(t)

	all := WindowParams{Date: "2024-05-05", Month: "2", Year: "2023", From: "2020-01-01", To: "2020-01-02"}
	w, err := r.Resolve(all)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 5, 0, 0, 0, 0, r.Location), w.Start)

	all.Date = ""
	w, err = r.Resolve(all)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 2, 1, 0, 0, 0, 0, r.Location), w.Start)

	all.Month = ""
	w, err = r.Resolve(all)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, r.Location), w.Start)

	all.Year = ""
	w, err = r.Resolve(all)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, r.Location), w.Start)

	// same input, same answer
	again, err := r.Resolve(all)
	require.NoError(t, err)
	assert.Equal(t, w, again)
}

func TestResolveLoneMonthFallsThroughToFromTo(t *testing.T) {
	r := testResolver(t)

	w, err := r.Resolve(WindowParams{Month: "3", From: "2024-01-01", To: "2024-01-31"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, r.Location), w.Start)
	assert.Equal(t, time.Date(2024, 1, 31, 23, 59, 59, 999000000, r.Location), w.End)
}

func TestResolveNothingSupplied(t *testing.T) {
	r := testResolver(t)

	w, err := r.Resolve(WindowParams{})
	require.NoError(t, err)
	assert.Nil(t, w)

	today, err := r.ResolveOrToday(WindowParams{})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, r.Location), today.Start)
	assert.Equal(t, time.Date(2024, 3, 15, 23, 59, 59, 999000000, r.Location), today.End)
}

func TestResolveRejectsBadInput(t *testing.T) {
	r := testResolver(t)

	bad := []WindowParams{
		{Date: "16/03/2024"},
		{Date: "yesterday"},
		{Month: "13", Year: "2024"},
		{Month: "0", Year: "2024"},
		{Month: "march", Year: "2024"},
		{Year: "twenty"},
		{Year: "-4"},
		{Month: "3"},
		{From: "2024-03-01"},
		{To: "2024-03-01"},
		{From: "2024-03-10", To: "2024-03-01"},
		{From: "nope", To: "2024-03-01"},
	}
	for _, p := range bad {
		_, err := r.Resolve(p)
		var verr *models.ValidationError
		assert.True(t, errors.As(err, &verr), "expected validation error for %+v, got %v", p, err)
	}
}

func TestWindowParamsFromQuery(t *testing.T) {
	q := url.Values{}
	q.Set("month", " 3 ")
	q.Set("year", "2024")

	p := WindowParamsFromQuery(q)
	assert.Equal(t, WindowParams{Month: "3", Year: "2024"}, p)
	assert.False(t, p.Empty())
	assert.True(t, WindowParams{}.Empty())
}

func TestParseInstant(t *testing.T) {
	r := testResolver(t)

	d, err := r.ParseInstant("2024-03-12")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 12, 0, 0, 0, 0, r.Location), d)

	ts, err := r.ParseInstant("2024-03-12T18:45:00Z")
	require.NoError(t, err)
	assert.True(t, ts.Equal(time.Date(2024, 3, 12, 18, 45, 0, 0, time.UTC)))

	_, err = r.ParseInstant("yesterday")
	var ve *models.ValidationError
	assert.True(t, errors.As(err, &ve))
}
