package ingest

import (
	"regexp"
	"strconv"
	"strings"
)

// Company name extraction: a capitalized leading phrase followed by a verb
// cue or a comma. Ordered; the first matching pattern wins.
var companyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^([A-Z][A-Za-z0-9\s\.]+?)(?:\s+raises?\s)`),
	regexp.MustCompile(`^([A-Z][A-Za-z0-9\s\.]+?)(?:\s+announces?\s)`),
	regexp.MustCompile(`^([A-Z][A-Za-z0-9\s\.]+?)(?:\s+secures?\s)`),
	regexp.MustCompile(`^([A-Z][A-Za-z0-9\s\.]+?)(?:\s+closes?\s)`),
	regexp.MustCompile(`^([A-Z][A-Za-z0-9\s\.]+?)(?:\s+gets?\s)`),
	regexp.MustCompile(`^([A-Z][A-Za-z0-9\s\.]+?)(?:,\s)`),
}

// companyStopWords end the leading-words fallback scan.
var companyStopWords = map[string]bool{
	"raises":    true,
	"announces": true,
	"secures":   true,
	"closes":    true,
	"gets":      true,
	"lands":     true,
	"-":         true,
	"–":    true, // en dash
	"|":         true,
}

// ExtractCompanyName pulls a company name out of a title. Best-effort: an
// empty result means no name could be determined, which callers must accept.
func ExtractCompanyName(title string) string {
	for _, pattern := range companyPatterns {
		if match := pattern.FindStringSubmatch(title); match != nil {
			return strings.TrimSpace(match[1])
		}
	}

	// Fallback: leading words up to a stop word. A stop word at position
	// zero, or a single-word title, yields nothing.
	words := strings.Fields(title)
	if len(words) >= 2 {
		var companyWords []string
		limit := min(len(words), 5)
		for _, word := range words[:limit] {
			if companyStopWords[strings.ToLower(word)] {
				break
			}
			companyWords = append(companyWords, word)
		}
		if len(companyWords) > 0 {
			return strings.Join(companyWords, " ")
		}
	}

	return ""
}

type roundRule struct {
	pattern   *regexp.Regexp
	transform func(match []string) string
}

// Round type resolution is an ordered rule table; the first matching rule
// wins and unmatched text yields no round type.
var roundRules = []roundRule{
	{regexp.MustCompile(`series\s+([a-z])`), func(m []string) string { return "series_" + m[1] }},
	{regexp.MustCompile(`seed\s+round`), func(m []string) string { return "seed" }},
	{regexp.MustCompile(`pre-seed`), func(m []string) string { return "pre_seed" }},
	{regexp.MustCompile(`seed`), func(m []string) string { return "seed" }},
	{regexp.MustCompile(`series\s+([a-z])\d?`), func(m []string) string { return "series_" + m[1] }},
	{regexp.MustCompile(`growth\s+round`), func(m []string) string { return "growth" }},
	{regexp.MustCompile(`bridge\s+round`), func(m []string) string { return "bridge" }},
}

var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$(\d+(?:\.\d+)?)\s*(?:million|m\b)`),
	regexp.MustCompile(`\$(\d+(?:\.\d+)?)\s*(?:billion|b\b)`),
	regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:million|m)\s*(?:dollars|\$)`),
}

// ExtractFundingFacts pulls a round type and USD amount out of free text.
// Only the first matching amount is used; multiple amounts are not
// aggregated. Extraction never fails: unmatched fields stay null.
func ExtractFundingFacts(title, summary string) FundingFacts {
	facts := FundingFacts{Investors: []string{}}

	text := strings.ToLower(title + " " + summary)

	for _, rule := range roundRules {
		if match := rule.pattern.FindStringSubmatch(text); match != nil {
			facts.RoundType = rule.transform(match)
			break
		}
	}

	for _, pattern := range amountPatterns {
		loc := pattern.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}

		amount, err := strconv.ParseFloat(text[loc[2]:loc[3]], 64)
		if err != nil {
			break
		}

		// The billion qualifier is detected in a fixed-width window around
		// the match rather than the matched unit itself. Known heuristic
		// limitation, kept as-is.
		billionWindow := text[loc[0]:min(loc[1]+10, len(text))]
		shortWindow := text[loc[0]:min(loc[1]+3, len(text))]
		if strings.Contains(billionWindow, "billion") || strings.Contains(shortWindow, "b") {
			amount *= 1000
		}

		usd := amount * 1_000_000
		facts.AmountUSD = &usd
		break
	}

	return facts
}
