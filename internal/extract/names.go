package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	parentheticalRe = regexp.MustCompile(`\([^)]*\)`)
	nonAlphaRe      = regexp.MustCompile(`[^a-z ]+`)

	honorifics = map[string]bool{
		"mr": true, "mrs": true, "ms": true, "miss": true,
		"dr": true, "rev": true, "fr": true, "sister": true, "deacon": true,
	}
	suffixes = map[string]bool{
		"jr": true, "sr": true, "ii": true, "iii": true, "iv": true, "esq": true,
	}
)

// NormalizeName collapses a display name to comparable form: honorifics and
// generational suffixes stripped, parenthetical nicknames dropped, lowercase
// alphabetic tokens only.
func NormalizeName(name string) string {
	lower := strings.ToLower(parentheticalRe.ReplaceAllString(name, " "))
	lower = nonAlphaRe.ReplaceAllString(lower, " ")

	var kept []string
	tokens := strings.Fields(lower)
	for i, tok := range tokens {
		if i == 0 && honorifics[tok] {
			continue
		}
		if i == len(tokens)-1 && suffixes[tok] {
			continue
		}
		kept = append(kept, tok)
	}

	return strings.Join(kept, " ")
}

// SameName reports whether two normalized names describe the same person:
// equal forms always match; substring containment matches only when both
// exceed minLen, which guards against folding short common names together.
func SameName(a, b string, minLen int) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	if len(a) < minLen || len(b) < minLen {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// ProvenanceHash fingerprints the identity-bearing fields for suppression
// lookups. Deterministic across runs and sources.
func ProvenanceHash(name string, death time.Time) string {
	seed := NormalizeName(name) + "|" + death.Format("2006-01-02")
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}

// Excerpt caps a factual description at max runes without cutting a word.
func Excerpt(text string, max int) string {
	clean := strings.Join(strings.Fields(text), " ")
	if max <= 0 || utf8.RuneCountInString(clean) <= max {
		return clean
	}

	cut := string([]rune(clean)[:max])
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,;:") + "…"
}
