package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/tenax/internal/models"
)

const (
	// DefaultBaseURL is the base URL for the submissions API.
	DefaultBaseURL = "https://data.sec.gov/submissions"

	// DefaultArchiveURL is the base URL for raw filing documents.
	DefaultArchiveURL = "https://www.sec.gov/Archives/edgar/data"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRequestDelay is the minimum delay between requests. The SEC
	// fair-access policy allows at most 10 requests per second; one per
	// second keeps collection well inside it.
	DefaultRequestDelay = 1 * time.Second

	// DefaultRetryAfter is the pause applied on a 429 when the server
	// provides no Retry-After header.
	DefaultRetryAfter = 10 * time.Second
)

// Client fetches the filing index and raw filing documents for tracked
// entities. A single Client carries one shared rate limiter, so the
// inter-request delay holds no matter how many entities are processed
// concurrently.
type Client struct {
	baseURL    string
	archiveURL string
	userAgent  string
	targetForm string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom submissions API base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithArchiveURL sets a custom archive base URL.
func WithArchiveURL(archiveURL string) ClientOption {
	return func(c *Client) {
		c.archiveURL = strings.TrimRight(archiveURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRequestTimeout sets the per-request HTTP timeout.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithRequestDelay sets the minimum delay between requests.
func WithRequestDelay(delay time.Duration) ClientOption {
	return func(c *Client) {
		if delay > 0 {
			c.limiter = rate.NewLimiter(rate.Every(delay), 1)
		}
	}
}

// WithTargetForm sets the form type retained from the filing index.
func WithTargetForm(form string) ClientOption {
	return func(c *Client) {
		c.targetForm = form
	}
}

// NewClient creates a new EDGAR client. The SEC requires a User-Agent
// identifying the caller; requests without one are rejected.
func NewClient(userAgent string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		archiveURL: DefaultArchiveURL,
		userAgent:  userAgent,
		targetForm: "13F-HR",
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Every(DefaultRequestDelay), 1),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// get performs a rate-limited GET and returns the response body.
func (c *Client) get(ctx context.Context, reqURL, endpoint string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait cancelled: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	// Gzip negotiation is left to the transport: setting Accept-Encoding
	// explicitly disables its transparent decompression and the body would
	// arrive as raw gzip bytes.
	req.Header.Set("User-Agent", c.userAgent)

	if c.logger != nil {
		c.logger.Debug().
			Str("url", reqURL).
			Msg("EDGAR API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to read
	case http.StatusNotFound:
		return nil, &NotFoundError{Endpoint: endpoint}
	case http.StatusTooManyRequests:
		retryAfter := DefaultRetryAfter
		if v := resp.Header.Get("Retry-After"); v != "" {
			if d, err := time.ParseDuration(v + "s"); err == nil {
				retryAfter = d
			}
		}
		return nil, &RateLimitError{RetryAfter: retryAfter}
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   endpoint,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// ListFilings retrieves the entity's filing index, filtered to the target
// form type and trimmed according to the entity's history policy. Results
// are ordered most recent first; date ties are broken by accession number
// so the ordering is deterministic.
func (c *Client) ListFilings(ctx context.Context, entity *models.TrackedEntity) ([]models.FilingMeta, error) {
	if entity.Policy == models.PolicySkip {
		return nil, nil
	}

	normalized, err := NormalizeCIK(entity.CIK)
	if err != nil {
		return nil, err
	}

	endpoint := "/" + normalized + ".json"
	body, err := c.get(ctx, c.baseURL+endpoint, endpoint)
	if err != nil {
		return nil, err
	}

	var submissions submissionsResponse
	if err := json.Unmarshal(body, &submissions); err != nil {
		return nil, fmt.Errorf("failed to decode submissions response: %w", err)
	}

	recent := submissions.Filings.Recent
	var filings []models.FilingMeta
	for i, form := range recent.Form {
		if form != c.targetForm {
			continue
		}
		if i >= len(recent.FilingDate) || i >= len(recent.AccessionNumber) {
			break
		}
		filed, err := time.Parse("2006-01-02", recent.FilingDate[i])
		if err != nil {
			if c.logger != nil {
				c.logger.Warn().
					Str("cik", entity.CIK).
					Str("date", recent.FilingDate[i]).
					Msg("Skipping filing with unparseable date")
			}
			continue
		}
		filings = append(filings, models.FilingMeta{
			CIK:             normalized,
			CompanyName:     submissions.Name,
			FormType:        form,
			FilingDate:      filed,
			AccessionNumber: recent.AccessionNumber[i],
		})
	}

	if len(filings) == 0 {
		if c.logger != nil {
			c.logger.Info().
				Str("cik", entity.CIK).
				Str("form", c.targetForm).
				Msg("No filings of target form for entity")
		}
		return nil, nil
	}

	sort.Slice(filings, func(i, j int) bool {
		if !filings[i].FilingDate.Equal(filings[j].FilingDate) {
			return filings[i].FilingDate.After(filings[j].FilingDate)
		}
		return filings[i].AccessionNumber > filings[j].AccessionNumber
	})

	if entity.Policy == models.PolicyLatestOnly {
		filings = filings[:1]
	}

	return filings, nil
}

// FetchDocument retrieves the raw text of one filing from the archive.
func (c *Client) FetchDocument(ctx context.Context, meta models.FilingMeta) (string, error) {
	accession := strings.ReplaceAll(meta.AccessionNumber, "-", "")
	endpoint := fmt.Sprintf("/%s/%s/%s.txt", bareCIK(meta.CIK), accession, meta.AccessionNumber)

	body, err := c.get(ctx, c.archiveURL+endpoint, endpoint)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
