package ingest

import (
	"strings"

	"github.com/mena-signal/server/app/database"
)

// fundingKeywords are matched case-insensitively against title and summary.
// Any hit classifies the item as funding news.
var fundingKeywords = []string{
	"raise", "raised", "funding", "series", "seed", "investment",
	"million", "billion", "$", "valuation", "round", "venture",
	"backed", "investor", "capital", "led by",
}

// Classify labels a candidate as funding or company news. A keyword hit in
// the title or summary wins; otherwise a source category hint containing
// "funding" does; the default is company news.
func Classify(title, summary, category string) database.ItemType {
	titleLower := strings.ToLower(title)
	summaryLower := strings.ToLower(summary)

	for _, keyword := range fundingKeywords {
		if strings.Contains(titleLower, keyword) || strings.Contains(summaryLower, keyword) {
			return database.ItemTypeFunding
		}
	}

	if strings.Contains(strings.ToLower(category), "funding") {
		return database.ItemTypeFunding
	}

	return database.ItemTypeCompany
}
