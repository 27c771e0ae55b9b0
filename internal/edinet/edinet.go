// Package edinet is a thin client for the EDINET v2 disclosure API: listing
// annual securities reports and downloading their PDFs.
//
// API reference:
// https://disclosure2dl.edinet-fsa.go.jp/guide/static/disclosure/WZEK0110.html
package edinet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Document is one filing returned by the index.
type Document struct {
	DocID       string
	FilerName   string
	Description string
}

// Index searches the filing index by company name. An empty result is a
// valid, non-error outcome.
type Index interface {
	Search(ctx context.Context, companyName string) ([]Document, error)
}

// Fetcher downloads a filing's PDF to a local file.
type Fetcher interface {
	FetchPDF(ctx context.Context, docID string) (string, error)
}

// docTypeFinancialReports selects annual securities reports and related
// filings on the list endpoint, and the PDF rendition on the document
// endpoint.
const docTypeFinancialReports = "2"

const (
	defaultListURL     = "https://disclosure.edinet-fsa.go.jp/api/v2/documents.json"
	defaultDocumentURL = "https://api.edinet-fsa.go.jp/api/v2/documents"
	defaultLookback    = 90
)

// ClientOpts configures the EDINET client.
type ClientOpts struct {
	APIKey       string
	OutputDir    string // where fetched PDFs land
	LookbackDays int    // how far back Search scans the daily lists
	HTTPClient   *http.Client

	// Overridable endpoints for tests.
	ListURL     string
	DocumentURL string
}

// Client implements Index and Fetcher against the EDINET v2 API.
type Client struct {
	opts ClientOpts
	http *http.Client
	now  func() time.Time
}

// NewClient builds a Client. APIKey and OutputDir are required.
func NewClient(opts ClientOpts) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("edinet API key required")
	}
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("edinet output dir required")
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, err
	}
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = defaultLookback
	}
	if opts.ListURL == "" {
		opts.ListURL = defaultListURL
	}
	if opts.DocumentURL == "" {
		opts.DocumentURL = defaultDocumentURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{opts: opts, http: hc, now: time.Now}, nil
}

// DocumentsForDate lists the financial-report filings submitted on the date.
func (c *Client) DocumentsForDate(ctx context.Context, date time.Time) ([]Document, error) {
	q := url.Values{}
	q.Set("date", date.Format("2006-01-02"))
	q.Set("type", docTypeFinancialReports)
	q.Set("Subscription-Key", c.opts.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.ListURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("edinet list request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("edinet list returned status %d", resp.StatusCode)
	}

	var body struct {
		Metadata struct {
			Status string `json:"status"`
		} `json:"metadata"`
		Results []struct {
			DocID          string `json:"docID"`
			FilerName      string `json:"filerName"`
			DocDescription string `json:"docDescription"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode edinet list: %w", err)
	}
	if body.Metadata.Status != "" && body.Metadata.Status != "200" {
		return nil, fmt.Errorf("edinet list returned api status %s", body.Metadata.Status)
	}

	docs := make([]Document, 0, len(body.Results))
	for _, r := range body.Results {
		docs = append(docs, Document{DocID: r.DocID, FilerName: r.FilerName, Description: r.DocDescription})
	}
	return docs, nil
}

// Search scans the daily filing lists over the lookback window and returns
// filings whose filer name contains companyName. Days whose list cannot be
// fetched are skipped; an empty result is not an error.
func (c *Client) Search(ctx context.Context, companyName string) ([]Document, error) {
	var out []Document
	today := c.now()
	for day := 0; day < c.opts.LookbackDays; day++ {
		docs, err := c.DocumentsForDate(ctx, today.AddDate(0, 0, -day))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		for _, d := range docs {
			if strings.Contains(d.FilerName, companyName) {
				out = append(out, d)
			}
		}
	}
	return out, nil
}

// FetchPDF downloads the filing PDF into the output dir and returns the
// local path. HTTP failures propagate with no retry.
func (c *Client) FetchPDF(ctx context.Context, docID string) (string, error) {
	q := url.Values{}
	q.Set("type", docTypeFinancialReports)
	q.Set("Subscription-Key", c.opts.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, DocumentURL(c.opts.DocumentURL, docID)+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("edinet document request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("edinet document %s returned status %d", docID, resp.StatusCode)
	}

	outPath := filepath.Join(c.opts.OutputDir, docID+".pdf")
	f, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(outPath)
		return "", fmt.Errorf("write %s: %w", outPath, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return outPath, nil
}

// DocumentURL returns the document endpoint for a doc id.
func DocumentURL(base, docID string) string {
	return strings.TrimSuffix(base, "/") + "/" + docID
}
