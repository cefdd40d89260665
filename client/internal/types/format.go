package types

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// ADIF wire layouts for dates and times.
const (
	dateLayout      = "20060102"
	timeLayout      = "150405"
	shortTimeLayout = "1504"
)

// Date returns the calendar date y-m-d at UTC midnight.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// TimeOfDay returns a wall-clock time with no date component.
func TimeOfDay(hour, min, sec int) time.Time {
	return time.Date(0, time.January, 1, hour, min, sec, 0, time.UTC)
}

func normalizeDate(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

func normalizeTime(t time.Time) time.Time {
	return TimeOfDay(t.Hour(), t.Minute(), t.Second())
}

// ParseDate decodes an ADIF YYYYMMDD date. Impossible dates such as
// 20240230 are rejected rather than normalized.
func ParseDate(s string) (time.Time, error) {
	if len(s) != 8 || !allDigits(s) {
		return time.Time{}, fmt.Errorf("date %q must be 8 digits (YYYYMMDD)", s)
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

// ParseTime decodes an ADIF HHMM or HHMMSS time; missing seconds are zero.
func ParseTime(s string) (time.Time, error) {
	if (len(s) != 4 && len(s) != 6) || !allDigits(s) {
		return time.Time{}, fmt.Errorf("time %q must be HHMM or HHMMSS", s)
	}
	layout := timeLayout
	if len(s) == 4 {
		layout = shortTimeLayout
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q", s)
	}
	return normalizeTime(t), nil
}

// ParseFreq decodes a frequency in megahertz. The whole string must parse.
func ParseFreq(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid frequency %q", s)
	}
	return f, nil
}

// FormatDate encodes t as YYYYMMDD.
func FormatDate(t time.Time) string { return t.Format(dateLayout) }

// FormatTime encodes t as HHMMSS.
func FormatTime(t time.Time) string { return t.Format(timeLayout) }

// FormatFreq encodes f with the shortest representation that parses back
// to the same value.
func FormatFreq(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
