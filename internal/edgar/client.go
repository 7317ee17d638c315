package edgar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Filings can run past 50MB once exhibits are inlined.
const maxDocumentBytes = 64 << 20

// Client fetches filing documents from the EDGAR archive. The SEC requires
// a descriptive User-Agent with a contact address on every request.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func NewClient(baseURL, userAgent string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// RetryableError indicates a transient failure (rate limit or server error)
// that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("edgar status %d: %s", e.StatusCode, truncate(e.Message, 200))
}

// DocumentURL builds the archive URL for one document of a filing. The
// archive path uses the unpadded CIK and the dashless accession number.
func (c *Client) DocumentURL(cik, accession, filename string) string {
	cik = strings.TrimLeft(cik, "0")
	if cik == "" {
		cik = "0"
	}
	return fmt.Sprintf("%s/Archives/edgar/data/%s/%s/%s",
		c.baseURL, cik, strings.ReplaceAll(accession, "-", ""), filename)
}

// FetchDocument downloads one document of a filing.
func (c *Client) FetchDocument(ctx context.Context, cik, accession, filename string) ([]byte, error) {
	u := c.DocumentURL(cik, accession, filename)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("edgar fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("edgar fetch %s: status %d: %s", u, resp.StatusCode, string(respBody))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Close releases resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
