package clock

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrOutOfRange is returned when a GameTime is built from fields outside
	// 0:00:00 - 23:59:59.99...
	ErrOutOfRange = errors.New("clock: time out of range")
	// ErrBadFormat is returned by Parse for strings that are not H:MM[:SS[.fff]].
	ErrBadFormat = errors.New("clock: bad time format")
)

// GameTime is an in-game time of day in 24-hour format.
//
// Construction validates every field. Mutation through AddRealTime carries
// seconds into minutes and minutes into hours; the hour is never wrapped
// back to 0, so a clock left running past midnight reports hour 24 and up.
type GameTime struct {
	Hour   int     `json:"hour"`
	Minute int     `json:"minute"`
	Second float64 `json:"second"`
}

// New returns the time h:m:s, or ErrOutOfRange.
func New(h, m int, s float64) (GameTime, error) {
	if h < 0 || h > 23 || m < 0 || m > 59 || s < 0 || s >= 60 || math.IsNaN(s) {
		return GameTime{}, fmt.Errorf("%w: %d:%d:%g", ErrOutOfRange, h, m, s)
	}
	return GameTime{Hour: h, Minute: m, Second: s}, nil
}

// MustNew is New for constants known to be valid. It panics otherwise.
func MustNew(h, m int, s float64) GameTime {
	t, err := New(h, m, s)
	if err != nil {
		panic(err)
	}
	return t
}

// Parse reads "H:MM", "H:MM:SS" or "H:MM:SS.fff".
func Parse(s string) (GameTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return GameTime{}, fmt.Errorf("%w: %q", ErrBadFormat, s)
	}
	for i, p := range parts {
		if !plainNumber(p, i == 2) {
			return GameTime{}, fmt.Errorf("%w: %q", ErrBadFormat, s)
		}
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return GameTime{}, fmt.Errorf("%w: %q", ErrBadFormat, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return GameTime{}, fmt.Errorf("%w: %q", ErrBadFormat, s)
	}
	var sec float64
	if len(parts) == 3 {
		sec, err = strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return GameTime{}, fmt.Errorf("%w: %q", ErrBadFormat, s)
		}
	}
	return New(h, m, sec)
}

// plainNumber reports whether s is made of digits only, allowing a single
// decimal point when frac is set. Signs and exponents are rejected.
func plainNumber(s string, frac bool) bool {
	if s == "" || s == "." {
		return false
	}
	dots := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' && frac:
			dots++
		default:
			return false
		}
	}
	return dots <= 1
}

// TotalSeconds is the number of seconds since midnight. All ordering is
// defined on this value.
func (t GameTime) TotalSeconds() float64 {
	return float64(t.Hour)*3600 + float64(t.Minute)*60 + t.Second
}

// Compare returns -1, 0 or +1 like time.Time.Compare.
func (t GameTime) Compare(u GameTime) int {
	a, b := t.TotalSeconds(), u.TotalSeconds()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (t GameTime) Before(u GameTime) bool        { return t.TotalSeconds() < u.TotalSeconds() }
func (t GameTime) After(u GameTime) bool         { return t.TotalSeconds() > u.TotalSeconds() }
func (t GameTime) BeforeOrEqual(u GameTime) bool { return t.TotalSeconds() <= u.TotalSeconds() }
func (t GameTime) AfterOrEqual(u GameTime) bool  { return t.TotalSeconds() >= u.TotalSeconds() }

// Equal reports whether both times name the same second of the day.
func (t GameTime) Equal(u GameTime) bool { return t.TotalSeconds() == u.TotalSeconds() }

// AddRealTime adds an amount of (already scaled) real seconds and carries
// the overflow upward. Negative amounts borrow, so minute and second stay
// in range and only the hour can drop below zero.
func (t *GameTime) AddRealTime(seconds float64) {
	minutes := math.Trunc(seconds / 60)
	t.Second += seconds - minutes*60
	t.Minute += int(minutes)
	t.rollOver()
}

func (t *GameTime) rollOver() {
	for t.Second >= 60 {
		t.Second -= 60
		t.Minute++
	}
	for t.Second < 0 {
		t.Second += 60
		t.Minute--
	}
	// Borrowing from a tiny negative second can round up to exactly 60.
	if t.Second >= 60 {
		t.Second -= 60
		t.Minute++
	}
	if t.Minute >= 60 || t.Minute < 0 {
		carry := t.Minute / 60
		t.Minute %= 60
		if t.Minute < 0 {
			t.Minute += 60
			carry--
		}
		t.Hour += carry
	}
}

func (t GameTime) String() string {
	return fmt.Sprintf("%d:%02d:%05.2f", t.Hour, t.Minute, t.Second)
}

// IsWithinRange reports whether min < t <= max. The lower bound is
// exclusive and the upper bound inclusive, so back-to-back ranges
// never both claim the same instant.
func IsWithinRange(t, min, max GameTime) bool {
	return t.After(min) && t.BeforeOrEqual(max)
}
