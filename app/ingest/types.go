package ingest

import (
	"time"
)

// Candidate is a normalized feed entry before deduplication and persistence.
type Candidate struct {
	Title       string
	URL         string
	PublishedAt *time.Time
	Summary     string
	Raw         string // raw entry payload as JSON, kept for audit
}

// FundingFacts holds the best-effort structured facts extracted from a
// funding item's free text. All fields are independently nullable.
type FundingFacts struct {
	RoundType string
	AmountUSD *float64
	Investors []string
}
