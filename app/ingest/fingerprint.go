package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Fingerprint derives the stable dedup key for an item from its URL, title
// and optional publish time. Two items with equal fingerprints are the same
// item; fingerprint equality is the sole dedup criterion.
//
// The URL contributes only its lowercased host and path with surrounding
// slashes trimmed, so query strings, fragments and trailing slashes do not
// produce distinct keys. A present publish time changes the result.
func Fingerprint(rawURL, title string, publishedAt *time.Time) string {
	normalizedURL := rawURL
	if parsed, err := url.Parse(rawURL); err == nil {
		normalizedURL = parsed.Host + parsed.Path
	}
	normalizedURL = strings.Trim(strings.ToLower(normalizedURL), "/")

	normalizedTitle := strings.TrimSpace(strings.ToLower(title))

	dateStr := ""
	if publishedAt != nil {
		dateStr = publishedAt.UTC().Format(time.RFC3339)
	}

	content := fmt.Sprintf("%s|%s|%s", normalizedURL, normalizedTitle, dateStr)

	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
