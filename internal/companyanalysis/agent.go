// Package companyanalysis implements the second demo agent: a bearer-token
// REST service that analyzes a company from web-search results.
package companyanalysis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SearchResult is one web-search hit.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Searcher queries a web-search backend. Tests inject fakes.
type Searcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// HTTPSearcher calls a JSON search API: GET {base}?q=<query> returning
// {"results": [{"title": ..., "snippet": ...}]}.
type HTTPSearcher struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func (s *HTTPSearcher) Search(ctx context.Context, query string) ([]SearchResult, error) {
	hc := s.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.BaseURL+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, err
	}
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API returned status %d", resp.StatusCode)
	}
	var body struct {
		Results []SearchResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return body.Results, nil
}

// Analysis is the structured result of one company analysis.
type Analysis struct {
	Overview    string         `json:"overview"`
	KeyPoints   []string       `json:"key_points"`
	Industry    string         `json:"industry"`
	Competitors []string       `json:"competitors"`
	RecentNews  []NewsItem     `json:"recent_news"`
	Sources     []SearchResult `json:"sources,omitempty"`
}

// NewsItem is one news entry in an analysis.
type NewsItem struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// Report wraps an analysis with its subject and timestamp.
type Report struct {
	CompanyName string    `json:"company_name"`
	Analysis    Analysis  `json:"analysis"`
	Timestamp   time.Time `json:"timestamp"`
}

// Agent performs company analysis over a search backend.
type Agent struct {
	search Searcher
	now    func() time.Time
}

// NewAgent builds an Agent.
func NewAgent(search Searcher) *Agent {
	return &Agent{search: search, now: time.Now}
}

// AnalyzeCompany searches for the company and sorts the hits into analysis
// buckets by title keyword.
func (a *Agent) AnalyzeCompany(ctx context.Context, companyName string) (*Report, error) {
	if strings.TrimSpace(companyName) == "" {
		return nil, fmt.Errorf("company name required")
	}
	results, err := a.search.Search(ctx, companyName+" company information")
	if err != nil {
		return nil, err
	}

	analysis := Analysis{Sources: results}
	for _, r := range results {
		title := strings.ToLower(r.Title)
		switch {
		case strings.Contains(title, "overview"):
			if analysis.Overview == "" {
				analysis.Overview = r.Snippet
			}
		case strings.Contains(title, "industry"):
			if analysis.Industry == "" {
				analysis.Industry = r.Snippet
			}
		case strings.Contains(title, "competitor"):
			analysis.Competitors = append(analysis.Competitors, r.Snippet)
		case strings.Contains(title, "news"):
			analysis.RecentNews = append(analysis.RecentNews, NewsItem{Title: r.Title, Summary: r.Snippet})
		default:
			analysis.KeyPoints = append(analysis.KeyPoints, r.Snippet)
		}
	}
	return &Report{
		CompanyName: companyName,
		Analysis:    analysis,
		Timestamp:   a.now().UTC(),
	}, nil
}
