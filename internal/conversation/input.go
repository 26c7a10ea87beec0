package conversation

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/groupcal/calbot/core/telegram/state"
)

const (
	dateLayout = "2.1.2006"

	// DisplayLayout renders event timestamps in replies.
	DisplayLayout = "02.01.2006 15:04"

	// NoDescription is the input that skips the description.
	NoDescription = "-"

	maxDurationHours = 24 * 366
)

var (
	clockRe    = regexp.MustCompile(`^(\d{1,2}):(\d{1,2})$`)
	durationRe = regexp.MustCompile(`^\d+(?:[.,]\d+)?$`)
)

var (
	ErrBadDate     = errors.New("date must look like DD.MM.YYYY")
	ErrBadTime     = errors.New("time must look like HH:MM")
	ErrBadDuration = errors.New("duration must be a non-negative number of hours")
)

// ParseDate reads D.M.YYYY with one or two digit day and month.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrBadDate
	}
	return d, nil
}

// ParseClock reads H:M on a 24 hour clock; hour and minute take one or two digits.
func ParseClock(s string) (hour, minute int, err error) {
	m := clockRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, ErrBadTime
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return 0, 0, ErrBadTime
	}
	return hour, minute, nil
}

// ParseDuration reads a plain decimal number of hours; both "." and ","
// separate decimals. Signs, exponents and hex forms are rejected.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if !durationRe.MatchString(s) {
		return 0, ErrBadDuration
	}
	h, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || h > maxDurationHours {
		return 0, ErrBadDuration
	}
	return time.Duration(math.Round(h*3600)) * time.Second, nil
}

// At places the wall clock hour:minute of date in loc.
func At(date time.Time, hour, minute int, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc)
}

// Description maps the skip marker to an empty description.
func Description(s string) string {
	s = strings.TrimSpace(s)
	if s == NoDescription {
		return ""
	}
	return s
}

// Draft is the event being assembled by the create flow.
type Draft struct {
	Name  string
	Date  time.Time
	Start time.Time
	End   time.Time
}

// DraftFrom reads the create flow fields from a session.
func DraftFrom(sess state.Session) Draft {
	d := Draft{Name: sess.String(KeyName)}
	d.Date, _ = sess.Data[KeyDate].(time.Time)
	d.Start, _ = sess.Data[KeyStart].(time.Time)
	d.End, _ = sess.Data[KeyEnd].(time.Time)
	return d
}
