// Package edgar provides a client for the SEC EDGAR submissions and archive
// APIs, plus extraction of 13F information tables from raw filing documents.
package edgar

import (
	"fmt"
	"strings"
	"time"
)

// APIError represents a non-OK response from EDGAR.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EDGAR API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// RateLimitError represents a rate limit response. The caller must pause for
// RetryAfter before issuing the next request; requests are not retried
// automatically.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("EDGAR rate limit exceeded, retry after %v", e.RetryAfter)
}

// NotFoundError indicates the entity or filing does not exist remotely.
type NotFoundError struct {
	Endpoint string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("EDGAR resource not found: %s", e.Endpoint)
}

// submissionsResponse mirrors the submissions API JSON. Recent filings come
// as parallel column arrays, one element per filing.
type submissionsResponse struct {
	Name    string `json:"name"`
	Filings struct {
		Recent struct {
			AccessionNumber []string `json:"accessionNumber"`
			FilingDate      []string `json:"filingDate"`
			Form            []string `json:"form"`
		} `json:"recent"`
	} `json:"filings"`
}

// NormalizeCIK converts any accepted CIK spelling to the 13-character
// "CIK" + 10-digit zero-padded form used by the submissions API.
func NormalizeCIK(cik string) (string, error) {
	cik = strings.ToUpper(strings.TrimSpace(cik))

	digits := cik
	if strings.HasPrefix(cik, "CIK") {
		digits = strings.TrimPrefix(cik, "CIK")
	}
	if digits == "" || len(digits) > 10 {
		return "", fmt.Errorf("invalid CIK number: %q", cik)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("invalid CIK number: %q", cik)
		}
	}

	return "CIK" + strings.Repeat("0", 10-len(digits)) + digits, nil
}

// bareCIK strips the prefix and leading zeros for archive URLs.
func bareCIK(normalized string) string {
	return strings.TrimLeft(strings.TrimPrefix(normalized, "CIK"), "0")
}
