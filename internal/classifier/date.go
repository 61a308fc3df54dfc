package classifier

import (
	"net/mail"
	"strings"
	"time"
)

// dateLayouts are tried in order after net/mail rejects a Date header.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC3339,
	time.DateTime,
	time.DateOnly,
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// ParseAppliedAt parses an RFC 2822 Date header into UTC.
//
// When the value is empty or unparseable it returns now() and reports the time as estimated.
func ParseAppliedAt(value string, now func() time.Time) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value != "" {
		if t, err := mail.ParseDate(value); err == nil {
			return t.UTC(), false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, value); err == nil {
				return t.UTC(), false
			}
		}
	}
	if now == nil {
		now = time.Now
	}
	return now().UTC(), true
}
