package timeutil

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ISODuration is an ISO-8601 duration limited to the fixed-length
// designators (weeks, days, hours, minutes, seconds). Years and months have
// no fixed length and are rejected. Days are always 24 hours.
type ISODuration time.Duration

func ParseISODuration(s string) (ISODuration, error) {
	var d ISODuration
	if err := d.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("timeutil.ParseISODuration: %w", err)
	}

	return d, nil
}

func (d ISODuration) Duration() time.Duration { return time.Duration(d) }

// Seconds truncates to whole seconds.
func (d ISODuration) Seconds() int { return int(time.Duration(d) / time.Second) }

type isoDesignator struct {
	c    byte
	unit time.Duration
	time bool
}

// in the order they must appear
var isoDesignators = []isoDesignator{
	{'W', time.Hour * 24 * 7, false},
	{'D', time.Hour * 24, false},
	{'H', time.Hour, true},
	{'M', time.Minute, true},
	{'S', time.Second, true},
}

func findDesignator(c byte, inTime bool, after int) (int, bool) {
	for i := after + 1; i < len(isoDesignators); i++ {
		if isoDesignators[i].c == c && isoDesignators[i].time == inTime {
			return i, true
		}
	}

	return 0, false
}

func (d *ISODuration) UnmarshalText(b []byte) error {
	s := string(b)

	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	if !strings.HasPrefix(s, "P") {
		return fmt.Errorf("timeutil.ISODuration.UnmarshalText: %q does not start with 'P'", b)
	}
	s = s[1:]

	if s == "" {
		return fmt.Errorf("timeutil.ISODuration.UnmarshalText: %q has no components", b)
	}

	var total float64
	inTime := false
	last := -1

	for len(s) > 0 {
		if s[0] == 'T' {
			if inTime {
				return fmt.Errorf("timeutil.ISODuration.UnmarshalText: %q has more than one 'T'", b)
			}
			if len(s) == 1 {
				return fmt.Errorf("timeutil.ISODuration.UnmarshalText: %q has no components after 'T'", b)
			}

			inTime = true
			s = s[1:]
			continue
		}

		n := strings.IndexFunc(s, func(r rune) bool { return (r < '0' || r > '9') && r != '.' && r != ',' })
		if n == -1 {
			return fmt.Errorf("timeutil.ISODuration.UnmarshalText: %q is missing a designator after %q", b, s)
		}
		if n == 0 {
			return fmt.Errorf("timeutil.ISODuration.UnmarshalText: %q has no number before '%c'", b, s[0])
		}

		v, err := strconv.ParseFloat(strings.Replace(s[:n], ",", ".", 1), 64)
		if err != nil {
			return fmt.Errorf("timeutil.ISODuration.UnmarshalText: %q: %w", b, err)
		}

		idx, ok := findDesignator(s[n], inTime, last)
		if !ok {
			return fmt.Errorf("timeutil.ISODuration.UnmarshalText: %q has unexpected designator '%c'", b, s[n])
		}

		total += v * float64(isoDesignators[idx].unit)
		last = idx
		s = s[n+1:]
	}

	if negative {
		total = -total
	}

	*d = ISODuration(math.Round(total))

	return nil
}

// MarshalText writes days and the time section; weeks are folded into days.
func (d ISODuration) MarshalText() ([]byte, error) {
	v := time.Duration(d)

	var sb strings.Builder

	if v < 0 {
		sb.WriteByte('-')
		v = -v
	}

	sb.WriteByte('P')

	if days := v / (time.Hour * 24); days > 0 {
		sb.WriteString(strconv.FormatInt(int64(days), 10) + "D")
		v -= days * time.Hour * 24

		if v == 0 {
			return []byte(sb.String()), nil
		}
	}

	sb.WriteByte('T')

	if h := v / time.Hour; h > 0 {
		sb.WriteString(strconv.FormatInt(int64(h), 10) + "H")
		v -= h * time.Hour
	}

	if m := v / time.Minute; m > 0 {
		sb.WriteString(strconv.FormatInt(int64(m), 10) + "M")
		v -= m * time.Minute
	}

	if v > 0 || strings.HasSuffix(sb.String(), "T") {
		sb.WriteString(strconv.FormatFloat(v.Seconds(), 'f', -1, 64) + "S")
	}

	return []byte(sb.String()), nil
}

func (d ISODuration) String() string {
	b, _ := d.MarshalText()
	return string(b)
}
