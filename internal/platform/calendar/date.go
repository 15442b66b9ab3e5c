// Package calendar models days as timezone-free calendar dates.
package calendar

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Layout is the wire and storage format of a Date.
const Layout = "2006-01-02"

// Date is a calendar day. It is stored as "YYYY-MM-DD" text so that equality
// and ordering behave the same on every SQL backend.
type Date struct {
	civil.Date
}

func New(year int, month time.Month, day int) Date {
	return Date{civil.Date{Year: year, Month: month, Day: day}}
}

// Parse accepts "YYYY-MM-DD" and rejects anything else, including impossible days.
func Parse(s string) (Date, error) {
	d, err := civil.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("calendar: invalid date %q: %w", s, err)
	}
	if !d.IsValid() {
		return Date{}, fmt.Errorf("calendar: invalid date %q", s)
	}
	return Date{d}, nil
}

// Of returns the calendar day t falls on in loc. A nil loc means UTC.
func Of(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return Date{civil.DateOf(t.In(loc))}
}

func (d Date) AddDays(n int) Date { return Date{d.Date.AddDays(n)} }
func (d Date) Before(o Date) bool { return d.Date.Before(o.Date) }
func (d Date) After(o Date) bool  { return d.Date.After(o.Date) }
func (d Date) IsZero() bool       { return d.Date == civil.Date{} }

// Scan implements sql.Scanner.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case string:
		return d.parseInto(v)
	case []byte:
		return d.parseInto(string(v))
	case time.Time:
		*d = Date{civil.DateOf(v)}
		return nil
	default:
		return fmt.Errorf("calendar: cannot scan %T into Date", src)
	}
}

func (d *Date) parseInto(s string) error {
	if len(s) > len(Layout) {
		s = s[:len(Layout)]
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}
