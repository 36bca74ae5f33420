package builder

import (
	"regexp"
	"strings"
	"time"
)

var trailingOffsetRe = regexp.MustCompile(`[+-]\d{2}:\d{2}$`)

// CAP timestamps carry an offset that is stripped before parsing; the wall
// clock reading is then taken in the builder's location.
var capLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05-07",
}

var (
	isoLiteralRe  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2}`)
	textLiteralRe = regexp.MustCompile(`\d{1,2}\s+\w{3}\s+\d{4}\s+\d{2}:\d{2}:\d{2}`)
)

var literalLayouts = []string{
	"2006-01-02 15:04:05",
	"2 Jan 2006 15:04:05",
}

var updatedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
	"2006-01-02 15:04:05",
}

func parseIn(loc *time.Location, value string, layouts []string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseCAPTime(loc *time.Location, value string) (time.Time, bool) {
	value = trailingOffsetRe.ReplaceAllString(strings.TrimSpace(value), "")
	return parseIn(loc, value, capLayouts)
}

// parseLiteralTime looks for a date written into free text. Only the first
// literal found is considered.
func parseLiteralTime(loc *time.Location, text string) (time.Time, bool) {
	literal := isoLiteralRe.FindString(text)
	if literal == "" {
		literal = textLiteralRe.FindString(text)
	}
	if literal == "" {
		return time.Time{}, false
	}
	return parseIn(loc, strings.Join(strings.Fields(literal), " "), literalLayouts)
}

func parseUpdatedTime(loc *time.Location, value string) (time.Time, bool) {
	return parseIn(loc, value, updatedLayouts)
}
