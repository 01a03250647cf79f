package dates

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/width"
)

// Layout is the canonical storage form of a posting date.
const Layout = "2006-01-02"

// ErrUnrecognizedDate is returned when no known format matches.
var ErrUnrecognizedDate = errors.New("unrecognized date format")

var (
	labelRegex    = regexp.MustCompile(`(?i)^(작성일|등록일|게시일|날짜|date|posted)\s*[:：]?\s*`)
	timeTailRegex = regexp.MustCompile(`\s+\d{1,2}:\d{2}(:\d{2})?$`)
	isoStampRegex = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})T\d{2}:\d{2}`)
)

// numeric patterns in priority order; groups are year, month, day
var numericFormats = []struct {
	name string
	re   *regexp.Regexp
}{
	{"YYYY-MM-DD", regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)},
	{"YYYY/MM/DD", regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})$`)},
	{"YYYY.MM.DD", regexp.MustCompile(`^(\d{4})\.\s*(\d{1,2})\.\s*(\d{1,2})\.?$`)},
	{"YY.MM.DD", regexp.MustCompile(`^(\d{2})\.\s*(\d{1,2})\.\s*(\d{1,2})\.?$`)},
	{"YYYY년 M월 D일", regexp.MustCompile(`^(\d{4})\s*년\s*(\d{1,2})\s*월\s*(\d{1,2})\s*일$`)},
	{"YYYYMMDD", regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)},
}

// textual layouts tried after the numeric ones
var textLayouts = []string{
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Mon, 2 Jan 2006",
}

// Normalize parses a date as found on a listing page and returns it as YYYY-MM-DD.
func Normalize(raw string) (string, error) {
	t, err := Parse(raw)
	if err != nil {
		return "", err
	}
	return t.Format(Layout), nil
}

// Parse is Normalize without the final formatting step.
func Parse(raw string) (time.Time, error) {
	s := clean(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty input", ErrUnrecognizedDate)
	}

	//ISO timestamps: keep the date part only
	if m := isoStampRegex.FindStringSubmatch(s); m != nil {
		s = m[1]
	}

	for _, f := range numericFormats {
		m := f.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		if t, ok := build(m[1], m[2], m[3]); ok {
			return t, nil
		}
		// matched the shape but not a real calendar date
		return time.Time{}, fmt.Errorf("%w: %q is not a valid %s date", ErrUnrecognizedDate, raw, f.name)
	}

	for _, layout := range textLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognizedDate, raw)
}

// clean folds full-width characters, strips labels and trailing clock times.
func clean(raw string) string {
	s := width.Fold.String(raw)
	s = strings.Join(strings.Fields(s), " ")
	s = labelRegex.ReplaceAllString(s, "")
	s = timeTailRegex.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, ".") && !strings.Contains(s, " ") {
		//"2024.03.01." style
		s = strings.TrimSuffix(s, ".")
	}
	return s
}

func build(ys, ms, ds string) (time.Time, bool) {
	year, err := strconv.Atoi(ys)
	if err != nil {
		return time.Time{}, false
	}
	if len(ys) == 2 {
		year += 2000
	}
	month, err := strconv.Atoi(ms)
	if err != nil {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(ds)
	if err != nil {
		return time.Time{}, false
	}
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 -> Mar 1); reject that
	if t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
