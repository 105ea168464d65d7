package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// datePattern matches the date shapes seen across source prose:
// "January 5, 2026", "Jan 5 2026", "5 January 2026" and "2026-01-05".
const datePattern = `((?:January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)\.?\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}|\d{1,2}(?:st|nd|rd|th)?\s+(?:January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)\.?,?\s+\d{4}|\d{4}-\d{2}-\d{2})`

var dateLayouts = []string{
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"2006-01-02",
}

// deathKeywords gate date and age extraction: a date only counts as a death
// date when one of these co-occurs in the same sentence, so biographical
// dates ("graduated in 1985") are never promoted.
var deathKeywords = []string{
	"passed away",
	"passed peacefully",
	"passed suddenly",
	"passing of",
	"died",
	"death of",
	"entered into rest",
	"went to be with",
	"departed this life",
	"lost his battle",
	"lost her battle",
	"at rest",
}

// dateRule is one named pattern in the ordered death-date cascade.
type dateRule struct {
	name string
	re   *regexp.Regexp
}

// deathDateRules are tried in priority order; the first match wins. Each
// rule requires its own death phrasing, so none can fire on an unrelated
// biographical date.
var deathDateRules = []dateRule{
	{"passed-away-on", regexp.MustCompile(`(?i)passed(?:\s+away|\s+peacefully|\s+suddenly)?[^.;]*?\bon\s+` + datePattern)},
	{"entered-rest-on", regexp.MustCompile(`(?i)entered into rest[^.;]*?\b(?:on\s+)?` + datePattern)},
	{"died-on", regexp.MustCompile(`(?i)\bdied\b[^.;]*?\b(?:on\s+)?` + datePattern)},
	{"on-date-passed", regexp.MustCompile(`(?i)\bon\s+` + datePattern + `[^.;]*?\b(?:passed away|passed peacefully|died|entered into rest)`)},
	{"passing-of-date", regexp.MustCompile(`(?i)(?:passing|death) of\b[^.;]*?\b` + datePattern)},
}

var (
	parenRangeRe = regexp.MustCompile(`\(\s*` + datePattern + `\s*[-–—]\s*` + datePattern + `\s*\)`)
	yearRangeRe  = regexp.MustCompile(`\(?\s*(\d{4})\s*[-–—]\s*(\d{4})\s*\)?`)
	ordinalSufRe = regexp.MustCompile(`(\d{1,2})(?:st|nd|rd|th)`)
	looseDateRe  = regexp.MustCompile(datePattern)
	monthAbbrRe  = regexp.MustCompile(`\b(Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)\.`)
)

// DeathDate runs the ordered rule cascade over free text. It fails closed:
// when no keyword-gated pattern matches, the zero time is returned and the
// caller drops the candidate rather than guessing. The matched rule name is
// returned for diagnostics.
func DeathDate(text string) (time.Time, string, bool) {
	clean := normalizeProse(text)

	for _, rule := range deathDateRules {
		m := rule.re.FindStringSubmatch(clean)
		if m == nil {
			continue
		}
		for _, candidate := range m[1:] {
			if candidate == "" {
				continue
			}
			if d, ok := ParseDate(candidate); ok {
				return d, rule.name, true
			}
		}
	}

	// A parenthetical full-date range is the standard obituary header form;
	// the later date is the death date.
	if _, death, ok := DateRange(clean); ok {
		return death, "paren-range", true
	}

	// Last resort: any date in a sentence that carries a death keyword.
	for _, sentence := range splitSentences(clean) {
		if !hasDeathKeyword(sentence) {
			continue
		}
		if m := looseDateRe.FindString(sentence); m != "" {
			if d, ok := ParseDate(m); ok {
				return d, "keyword-sentence", true
			}
		}
	}

	return time.Time{}, "", false
}

// DateRange parses a parenthetical "(birth - death)" full-date range.
func DateRange(text string) (time.Time, time.Time, bool) {
	clean := normalizeProse(text)

	m := parenRangeRe.FindStringSubmatch(clean)
	if m == nil {
		return time.Time{}, time.Time{}, false
	}

	birth, okB := ParseDate(m[1])
	death, okD := ParseDate(m[2])
	if !okB || !okD || !death.After(birth) {
		return time.Time{}, time.Time{}, false
	}

	return birth, death, true
}

// YearRange parses a "(1940 - 2026)" year-only range. Callers must treat
// ages derived from it as approximate.
func YearRange(text string) (int, int, bool) {
	m := yearRangeRe.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false
	}

	birth, _ := strconv.Atoi(m[1])
	death, _ := strconv.Atoi(m[2])
	if birth <= 0 || death <= birth || death-birth > 120 {
		return 0, 0, false
	}

	return birth, death, true
}

// ParseDate parses one textual date in any supported layout.
func ParseDate(raw string) (time.Time, bool) {
	clean := strings.TrimSpace(raw)
	clean = ordinalSufRe.ReplaceAllString(clean, "$1")
	clean = monthAbbrRe.ReplaceAllString(clean, "$1")
	clean = strings.ReplaceAll(clean, "Sept ", "Sep ")
	clean = strings.Join(strings.Fields(clean), " ")

	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, clean); err == nil {
			return d, true
		}
	}

	return time.Time{}, false
}

func normalizeProse(text string) string {
	// Month-abbreviation periods would otherwise break sentence splitting.
	clean := monthAbbrRe.ReplaceAllString(text, "$1")
	return strings.Join(strings.Fields(clean), " ")
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == ';' || r == '!' || r == '?' || r == '\n'
	})
}

func hasDeathKeyword(sentence string) bool {
	lower := strings.ToLower(sentence)
	for _, kw := range deathKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
