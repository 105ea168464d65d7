package extract

import (
	"regexp"
	"strings"
)

// cityFixes corrects known truncations and typos seen in source markup.
var cityFixes = map[string]string{
	"sudbury":          "Sudbury",
	"greater sudbury":  "Greater Sudbury",
	"north ba":         "North Bay",
	"north bay":        "North Bay",
	"sault ste. mari":  "Sault Ste. Marie",
	"sault ste marie":  "Sault Ste. Marie",
	"sault ste. marie": "Sault Ste. Marie",
	"toroto":           "Toronto",
	"toronto":          "Toronto",
	"ottaw":            "Ottawa",
	"ottawa":           "Ottawa",
	"timmins":          "Timmins",
	"espanola":         "Espanola",
	"elliot lake":      "Elliot Lake",
	"sturgeon falls":   "Sturgeon Falls",
	"thunder bay":      "Thunder Bay",
}

var (
	cityProvinceRe = regexp.MustCompile(`\b([A-Z][A-Za-z'.\- ]{1,30}?),\s*(?:Ontario|Ont\.?|ON|Quebec|QC|Manitoba|MB)\b`)
	facilityCityRe = regexp.MustCompile(`\b(?:at|in)\s+(?:the\s+)?[A-Z][\w'.\- ]*?(?:Hospital|Hospice|Health Centre|Health Sciences|Manor|Lodge|Villa|Care Centre|Nursing Home)[^,.]*?,?\s+(?:in\s+)?([A-Z][a-z'.]+(?:\s[A-Z][A-Za-z'.]+)*)`)
	streetRe       = regexp.MustCompile(`(?i)\b\d+\s+\w+\s+(?:st|street|ave|avenue|rd|road|blvd|drive|dr)\b`)
	encodedRe      = regexp.MustCompile(`%[0-9A-Fa-f]{2}|&#\d+;|[<>{}]`)
)

// Location pulls a "City, Province" or facility-adjacent city mention from
// free text. Nothing is fabricated: unusable text yields "".
func Location(text string) string {
	clean := normalizeProse(text)

	if m := cityProvinceRe.FindStringSubmatch(clean); m != nil {
		if city, ok := CanonicalCity(m[1]); ok {
			return city
		}
	}

	if m := facilityCityRe.FindStringSubmatch(clean); m != nil {
		if city, ok := CanonicalCity(m[1]); ok {
			return city
		}
	}

	return ""
}

// CanonicalCity normalizes a raw place value against the fix table and
// rejects values that look like street addresses, encoded garbage or
// sentences rather than place names.
func CanonicalCity(raw string) (string, bool) {
	clean := strings.TrimSpace(raw)
	if clean == "" {
		return "", false
	}

	if streetRe.MatchString(clean) || encodedRe.MatchString(clean) {
		return "", false
	}
	if strings.ContainsAny(clean, "0123456789") {
		return "", false
	}
	if len(strings.Fields(clean)) > 4 || hasDeathKeyword(clean) {
		return "", false
	}

	key := strings.ToLower(strings.Trim(clean, " .,"))
	if fixed, ok := cityFixes[key]; ok {
		return fixed, true
	}

	// Unknown but clean-looking place names pass through title-cased.
	return titleCase(key), true
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
