package mapper

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	time.UnixDate,
	"01/02/2006 15:04:05",
	"01/02/2006",
}

var reMSDate = regexp.MustCompile(`^/Date\((-?\d+)([+-]\d{4})?\)/$`)

// parseTime parses s with layout when given, otherwise tries ISO-8601 first
// and then a list of common layouts. Inputs without a zone are read in loc.
func parseTime(s, layout string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if layout != "" {
		return time.ParseInLocation(layout, s, loc)
	}
	if m := reMSDate.FindStringSubmatch(s); m != nil {
		ms, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return time.Time{}, err
		}
		t := time.UnixMilli(ms).UTC()
		if m[2] != "" {
			offset, _ := strconv.Atoi(m[2])
			sign := 1
			if offset < 0 {
				sign, offset = -1, -offset
			}
			secs := sign * ((offset/100)*3600 + (offset%100)*60)
			t = t.In(time.FixedZone("", secs))
		}
		return t, nil
	}
	for _, l := range dateLayouts {
		if t, err := time.ParseInLocation(l, s, loc); err == nil {
			return t, nil
		}
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return unixTime(secs), nil
	}
	return time.Time{}, errors.Errorf("unrecognized date %q", s)
}

func unixTime(secs float64) time.Time {
	whole := int64(secs)
	frac := secs - float64(whole)
	return time.Unix(whole, int64(frac*1e9)).UTC()
}

var reClockSpan = regexp.MustCompile(`^(-)?(?:(\d+)\.)?(\d+):(\d{1,2})(?::(\d{1,2})(?:\.(\d{1,9}))?)?$`)

var reISOSpan = regexp.MustCompile(`^(-)?P(?:(\d+(?:\.\d+)?)W)?(?:(\d+(?:\.\d+)?)D)?(?:T(?:(\d+(?:\.\d+)?)H)?(?:(\d+(?:\.\d+)?)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// parseDuration accepts Go durations ("1h30m"), clock spans
// ("[-][d.]hh:mm[:ss[.fffffff]]"), ISO-8601 durations ("P1DT2H") and plain
// integers, which count nanoseconds.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n), nil
	}
	if m := reClockSpan.FindStringSubmatch(s); m != nil {
		days := atoi(m[2])
		hours := atoi(m[3])
		minutes := atoi(m[4])
		seconds := atoi(m[5])
		d := time.Duration(days)*24*time.Hour +
			time.Duration(hours)*time.Hour +
			time.Duration(minutes)*time.Minute +
			time.Duration(seconds)*time.Second
		if m[6] != "" {
			frac := m[6] + strings.Repeat("0", 9-len(m[6]))
			d += time.Duration(atoi(frac))
		}
		if m[1] == "-" {
			d = -d
		}
		return d, nil
	}
	if m := reISOSpan.FindStringSubmatch(s); m != nil && s != "P" && s != "-P" {
		units := []time.Duration{7 * 24 * time.Hour, 24 * time.Hour, time.Hour, time.Minute, time.Second}
		var d time.Duration
		for i, unit := range units {
			if m[i+2] == "" {
				continue
			}
			f, err := strconv.ParseFloat(m[i+2], 64)
			if err != nil {
				return 0, err
			}
			d += time.Duration(f * float64(unit))
		}
		if m[1] == "-" {
			d = -d
		}
		return d, nil
	}
	return 0, errors.Errorf("unrecognized duration %q", s)
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}
