// Package semester computes the academic term for a calendar date.
//
// The Korean academic calendar has two teaching terms per year with breaks
// between them:
//   - Term 1 (spring): March 1 - June 20
//   - Summer break:    June 21 - August 31
//   - Term 2 (fall):   September 1 - December 20
//   - Winter break:    December 21 - end of February
//
// The academic year of a winter break crosses the calendar year boundary:
// January and February belong to the prior academic year's winter.
// All functions are pure; nothing here touches a clock or a store.
package semester

import (
	"fmt"
	"time"
)

// Term identifies a period within the academic year.
type Term int

// Term values. Spring and Fall are teaching terms; Summer and Winter are
// break periods.
const (
	Spring Term = iota + 1
	Summer
	Fall
	Winter
)

// String returns the lowercase term name.
func (t Term) String() string {
	switch t {
	case Spring:
		return "spring"
	case Summer:
		return "summer"
	case Fall:
		return "fall"
	case Winter:
		return "winter"
	default:
		return "unknown"
	}
}

// Number returns the enrollment-record term number: 1 for spring, 2 for
// fall, 0 for break periods.
func (t Term) Number() int {
	switch t {
	case Spring:
		return 1
	case Fall:
		return 2
	default:
		return 0
	}
}

// Context describes where a date falls in the academic calendar.
type Context struct {
	Year      int  // Academic year (calendar year the term started in)
	Term      Term // Spring, Summer, Fall, or Winter
	IsBreak   bool // True for Summer and Winter
	Estimated bool // Set when the context was snapped to the nearest teaching term
}

// Resolve computes the semester context for a date.
func Resolve(date time.Time) Context {
	year, month, day := date.Year(), int(date.Month()), date.Day()

	switch {
	case month >= 3 && (month < 6 || (month == 6 && day <= 20)):
		return Context{Year: year, Term: Spring}
	case (month == 6 && day > 20) || month == 7 || month == 8:
		return Context{Year: year, Term: Summer, IsBreak: true}
	case month >= 9 && (month < 12 || (month == 12 && day <= 20)):
		return Context{Year: year, Term: Fall}
	case month == 12:
		// Late December: winter of the current academic year
		return Context{Year: year, Term: Winter, IsBreak: true}
	default:
		// January / February: winter of the prior academic year
		return Context{Year: year - 1, Term: Winter, IsBreak: true}
	}
}

// Teaching snaps the context to a teaching term. Teaching terms are
// returned unchanged; breaks map to the upcoming term with Estimated set,
// since that is the term a student planning during a break cares about.
func (c Context) Teaching() Context {
	switch c.Term {
	case Spring, Fall:
		return c
	case Summer:
		return Context{Year: c.Year, Term: Fall, Estimated: true}
	default: // Winter of year Y runs into the next spring
		return Context{Year: c.Year + 1, Term: Spring, Estimated: true}
	}
}

// Next returns the teaching term after this context.
// From a break it returns the term the break leads into.
func (c Context) Next() Context {
	switch c.Term {
	case Spring:
		return Context{Year: c.Year, Term: Fall}
	case Summer:
		return Context{Year: c.Year, Term: Fall}
	case Fall:
		return Context{Year: c.Year + 1, Term: Spring}
	default: // Winter
		return Context{Year: c.Year + 1, Term: Spring}
	}
}

// Prev returns the teaching term before this context.
func (c Context) Prev() Context {
	switch c.Term {
	case Spring:
		return Context{Year: c.Year - 1, Term: Fall}
	case Summer:
		return Context{Year: c.Year, Term: Spring}
	case Fall:
		return Context{Year: c.Year, Term: Spring}
	default: // Winter
		return Context{Year: c.Year, Term: Fall}
	}
}

// Label returns the enrollment-record semester label, e.g. "2025-1".
// Break contexts are snapped to the nearest teaching term first.
func (c Context) Label() string {
	t := c.Teaching()
	return fmt.Sprintf("%d-%d", t.Year, t.Term.Number())
}
