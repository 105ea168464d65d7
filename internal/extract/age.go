package extract

import (
	"regexp"
	"strconv"
	"time"
)

var (
	// "in her 93rd year" means 92 completed years; the off-by-one is applied
	// at extraction time.
	ordinalYearRe = regexp.MustCompile(`(?i)\bin\s+(?:his|her|their)\s+(\d{1,3})(?:st|nd|rd|th)\s+year\b`)
	ageOfRe       = regexp.MustCompile(`(?i)\b(?:at the age of|aged)\s+(\d{1,3})\b`)
)

// Age extracts an age from free text. Ordinal-year phrasing wins outright;
// explicit "at the age of N" is accepted only when its sentence also
// carries a death keyword, so "admitted to college at the age of 16" never
// becomes a death age. Zero means unknown.
func Age(text string) int {
	clean := normalizeProse(text)

	if m := ordinalYearRe.FindStringSubmatch(clean); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 1 {
			return n - 1
		}
	}

	for _, sentence := range splitSentences(clean) {
		m := ageOfRe.FindStringSubmatch(sentence)
		if m == nil {
			continue
		}
		if !hasDeathKeyword(sentence) {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && plausibleAge(n) {
			return n
		}
	}

	return 0
}

// AgeFromDates computes the completed years between birth and death with
// full date precision; plain year subtraction overstates the age for anyone
// who died before their birthday.
func AgeFromDates(birth, death time.Time) int {
	if birth.IsZero() || death.IsZero() || !death.After(birth) {
		return 0
	}

	age := death.Year() - birth.Year()
	anniversary := time.Date(death.Year(), birth.Month(), birth.Day(), 0, 0, 0, 0, time.UTC)
	if death.Before(anniversary) {
		age--
	}

	if !plausibleAge(age) {
		return 0
	}
	return age
}

// AgeFromYears is the years-only approximation, off by up to one year
// depending on where the birthday falls. Callers should prefer AgeFromDates.
func AgeFromYears(birthYear, deathYear int) int {
	age := deathYear - birthYear
	if !plausibleAge(age) {
		return 0
	}
	return age
}

func plausibleAge(n int) bool {
	return n > 0 && n <= 120
}
