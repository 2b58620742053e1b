package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tartampluch/go-sobriety/internal/config"
)

// ErrInvalidDate is returned by ParseStart when no supported layout matches.
var ErrInvalidDate = errors.New(config.ErrDateParse)

// ParseStart parses a user-supplied start date.
//
// Layouts carrying an offset (RFC 3339) keep it; the others are interpreted
// in loc. A bare date means midnight of that day.
func ParseStart(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if loc == nil {
		loc = time.Local
	}

	if t, err := time.Parse(config.DateFormatRFC3339, value); err == nil {
		return t, nil
	}

	localLayouts := []string{
		config.DateFormatFullDash,
		config.DateFormatFullBasic,
		config.DateFormatDateTime,
		config.DateFormatDateTimeSec,
		config.DateFormatDateTimeSpace,
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
}
