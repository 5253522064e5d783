package tool

import (
	"fmt"
	"time"
)

// BusinessHours is the staffed window of the human support desk, Monday to Friday.
type BusinessHours struct {
	Location  *time.Location
	OpenHour  int
	CloseHour int
}

func DefaultBusinessHours(loc *time.Location) BusinessHours {
	if loc == nil {
		loc = time.UTC
	}
	return BusinessHours{Location: loc, OpenHour: 9, CloseHour: 18}
}

func (b BusinessHours) normalized() BusinessHours {
	if b.Location == nil {
		b.Location = time.UTC
	}
	if b.OpenHour == 0 && b.CloseHour == 0 {
		b.OpenHour, b.CloseHour = 9, 18
	}
	return b
}

func (b BusinessHours) IsOpen(now time.Time) bool {
	b = b.normalized()
	local := now.In(b.Location)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	h := local.Hour()
	return h >= b.OpenHour && h < b.CloseHour
}

func (b BusinessHours) Window() string {
	b = b.normalized()
	return fmt.Sprintf("Monday-Friday %s - %s %s", clock(b.OpenHour), clock(b.CloseHour), b.Location.String())
}

func (b BusinessHours) Describe(now time.Time) string {
	b = b.normalized()
	local := now.In(b.Location)
	switch {
	case b.IsOpen(now):
		return "We are currently open! Business hours: " + b.Window()
	case local.Weekday() == time.Saturday || local.Weekday() == time.Sunday:
		return "We are closed on weekends. Business hours: " + b.Window() + ". AI support is available 24/7."
	default:
		return "We are currently closed. Business hours: " + b.Window() + ". AI support is available 24/7."
	}
}

func clock(hour int) string {
	switch {
	case hour == 0:
		return "12 AM"
	case hour < 12:
		return fmt.Sprintf("%d AM", hour)
	case hour == 12:
		return "12 PM"
	default:
		return fmt.Sprintf("%d PM", hour-12)
	}
}
