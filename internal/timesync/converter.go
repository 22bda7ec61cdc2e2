package timesync

import (
	"fmt"
	"time"

	"github.com/mrzor/audit-tracer/internal/audit"
)

// DisplayLayout is the default display format: weekday, day without padding,
// month, year, and 24h time.
const DisplayLayout = "Mon 2 Jan 2006 15:04:05"

// Converter handles conversion from audit timestamps to wall-clock time.
type Converter struct {
	loc    *time.Location
	layout string
}

// NewConverter creates a converter for the named time zone ("" or "UTC" for UTC,
// "Local" for the host zone, or an IANA name).
func NewConverter(zone string) (*Converter, error) {
	loc := time.UTC
	if zone != "" && zone != "UTC" {
		var err error
		loc, err = time.LoadLocation(zone)
		if err != nil {
			return nil, fmt.Errorf("loading time zone %q: %w", zone, err)
		}
	}

	return &Converter{
		loc:    loc,
		layout: DisplayLayout,
	}, nil
}

// ToWallClock converts an audit timestamp to a time.Time in the converter's location.
// This is a pure function of the timestamp and the configured location.
func (c *Converter) ToWallClock(ts audit.Timestamp) time.Time {
	return ts.Time().In(c.loc)
}

// Format renders an audit timestamp for display.
func (c *Converter) Format(ts audit.Timestamp) string {
	return c.ToWallClock(ts).Format(c.layout)
}

// Location returns the display location.
func (c *Converter) Location() *time.Location {
	return c.loc
}
