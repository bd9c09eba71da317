package analysis

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sections of the dashboard that run an analysis
const (
	SectionHourly  = "hourly"
	SectionMonthly = "monthly"
)

// ErrNoData is returned when no group has a single PM10 reading
var ErrNoData = errors.New("no PM10 readings available")

// ErrInvalidYear is returned for a year selection that is not a number
var ErrInvalidYear = errors.New("invalid year")

// Error is an analysis failure scoped to one dashboard section
type Error struct {
	Section string
	Cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s analysis failed: %v", e.Section, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Guard runs fn and converts both returned errors and panics into *Error for
// section, so one failing section cannot take down its siblings.
func Guard(section string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &Error{Section: section, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()

	if ferr := fn(); ferr != nil {
		var ae *Error
		if errors.As(ferr, &ae) {
			return ae
		}
		return &Error{Section: section, Cause: ferr}
	}
	return nil
}

// ParseYear parses a year selection
func ParseYear(s string) (int, error) {
	y, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || y < 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidYear, s)
	}
	return y, nil
}
