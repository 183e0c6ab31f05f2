package queryparser

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/weatherai/internal/weather"
)

var (
	placeRe   = regexp.MustCompile(`(?i)\b(?:in|for|at)\s+([\p{L}][\p{L}\s'.\-]*)`)
	daysRe    = regexp.MustCompile(`(?i)\b(\d{1,3})\s*-?\s*days?\b`)
	isoDateRe = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	wordRe    = regexp.MustCompile(`[\p{L}']+`)
	tokenRe   = regexp.MustCompile(`\p{L}+`)
)

// Words that end a place name captured after "in", "for" or "at".
var placeStopwords = map[string]bool{
	"a": true, "an": true, "as": true, "at": true, "during": true, "for": true,
	"from": true, "in": true, "last": true, "month": true, "next": true,
	"now": true, "over": true, "past": true, "right": true, "the": true,
	"this": true, "today": true, "tomorrow": true, "week": true,
	"weekend": true, "with": true, "yesterday": true, "on": true, "days": true,
}

// RegexParser extracts a Query with keyword rules. It never fails and is the
// fallback when no language model is configured or reachable.
type RegexParser struct {
	// DefaultLocation is used when the text names no place.
	DefaultLocation string

	now func() time.Time
}

func NewRegexParser(defaultLocation string) *RegexParser {
	return &RegexParser{DefaultLocation: defaultLocation, now: time.Now}
}

func (p *RegexParser) today() time.Time {
	if p.now == nil {
		return weather.Day(time.Now())
	}
	return weather.Day(p.now())
}

func (p *RegexParser) Parse(_ context.Context, text string) (weather.Query, error) {
	lower := strings.ToLower(text)

	q := weather.Query{
		Location:  p.location(text),
		Direction: direction(lower),
	}
	q.Days = days(lower, q.Direction)
	q.Intent = intentFor(q.Direction)
	q.Format = format(lower, q.Days)

	dates := isoDateRe.FindAllString(text, 2)
	if len(dates) > 0 {
		if start, err := time.Parse(weather.DateLayout, dates[0]); err == nil {
			q.Start = &start
		}
	}
	if len(dates) > 1 {
		if end, err := time.Parse(weather.DateLayout, dates[1]); err == nil {
			q.End = &end
		}
	}
	if q.Start != nil && q.Start.Before(p.today()) {
		q.Direction = weather.DirectionPast
		q.Intent = weather.IntentHistorical
	}

	return q, nil
}

// location returns the first place phrase after a preposition, cut at the
// first stopword.
func (p *RegexParser) location(text string) string {
	for _, m := range placeRe.FindAllStringSubmatch(text, -1) {
		var words []string
		for _, w := range wordRe.FindAllString(m[1], -1) {
			if placeStopwords[strings.ToLower(w)] {
				break
			}
			words = append(words, w)
		}
		if len(words) > 0 {
			return strings.Join(words, " ")
		}
	}
	return p.DefaultLocation
}

func direction(lower string) weather.Direction {
	switch {
	case hasWord(lower, "past", "last", "previous", "ago", "was", "were", "historical", "history", "yesterday"):
		return weather.DirectionPast
	case hasWord(lower, "forecast", "next", "tomorrow", "will", "going", "upcoming"):
		return weather.DirectionFuture
	case hasWord(lower, "current", "currently", "now", "today"):
		return weather.DirectionCurrent
	default:
		return weather.DirectionFuture
	}
}

func days(lower string, dir weather.Direction) int {
	if m := daysRe.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	switch {
	case hasWord(lower, "month"):
		return 30
	case hasWord(lower, "week", "weekly"):
		return 7
	case hasWord(lower, "weekend"):
		return 2
	case hasWord(lower, "tomorrow", "yesterday"):
		return 1
	case dir == weather.DirectionCurrent:
		return 1
	default:
		return 0
	}
}

func intentFor(dir weather.Direction) weather.Intent {
	switch dir {
	case weather.DirectionPast:
		return weather.IntentHistorical
	case weather.DirectionCurrent:
		return weather.IntentCurrent
	default:
		return weather.IntentForecast
	}
}

// format honours an explicit request, else prefers a table for multi-day
// answers.
func format(lower string, days int) weather.Format {
	switch {
	case strings.Contains(lower, "table"):
		return weather.FormatTable
	case hasWord(lower, "chart", "graph", "plot", "visualize", "visualise", "trends"):
		return weather.FormatChart
	case hasWord(lower, "summary", "summarize", "summarise"):
		return weather.FormatSummary
	case days > 1:
		return weather.FormatTable
	default:
		return weather.FormatText
	}
}

// hasWord reports whether any of words occurs as a whole word in lower.
func hasWord(lower string, words ...string) bool {
	for _, tok := range tokenRe.FindAllString(lower, -1) {
		for _, w := range words {
			if tok == w {
				return true
			}
		}
	}
	return false
}
