package edinet

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

func newTestClient(t *testing.T, listURL, docURL string, lookback int) *Client {
	t.Helper()
	c, err := NewClient(ClientOpts{
		APIKey:       "test-key",
		OutputDir:    t.TempDir(),
		LookbackDays: lookback,
		ListURL:      listURL,
		DocumentURL:  docURL,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func listResponse(docs ...Document) any {
	results := make([]map[string]string, 0, len(docs))
	for _, d := range docs {
		results = append(results, map[string]string{
			"docID":          d.DocID,
			"filerName":      d.FilerName,
			"docDescription": d.Description,
		})
	}
	return map[string]any{
		"metadata": map[string]string{"status": "200"},
		"results":  results,
	}
}

func TestDocumentsForDate(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("type"); got != "2" {
			t.Errorf("type param: got %q", got)
		}
		if got := r.URL.Query().Get("Subscription-Key"); got != "test-key" {
			t.Errorf("subscription key: got %q", got)
		}
		_ = json.NewEncoder(w).Encode(listResponse(
			Document{DocID: "S100ABCD", FilerName: "ACCERT株式会社", Description: "有価証券報告書"},
		))
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL, srv.URL, 1)
	docs, err := c.DocumentsForDate(context.Background(), time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("DocumentsForDate: %v", err)
	}
	if len(docs) != 1 || docs[0].DocID != "S100ABCD" || docs[0].FilerName != "ACCERT株式会社" {
		t.Fatalf("docs: %+v", docs)
	}
}

func TestDocumentsForDate_apiError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"metadata": map[string]string{"status": "404"}})
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL, srv.URL, 1)
	if _, err := c.DocumentsForDate(context.Background(), time.Now()); err == nil {
		t.Fatal("api status 404 must be an error")
	}
}

func TestSearch_filtersByFilerName(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(listResponse(
			Document{DocID: "S1", FilerName: "ACCERT株式会社"},
			Document{DocID: "S2", FilerName: "別の会社"},
		))
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL, srv.URL, 3)
	docs, err := c.Search(context.Background(), "ACCERT")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	// One match per scanned day.
	if len(docs) != 3 {
		t.Fatalf("got %d docs, want 3", len(docs))
	}
	for _, d := range docs {
		if d.DocID != "S1" {
			t.Fatalf("unexpected doc %+v", d)
		}
	}
}

func TestSearch_skipsFailedDays(t *testing.T) {
	t.Parallel()
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(listResponse(Document{DocID: "S1", FilerName: "ACCERT株式会社"}))
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL, srv.URL, 2)
	docs, err := c.Search(context.Background(), "ACCERT")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d docs, want 1 (failed day skipped)", len(docs))
	}
}

func TestSearch_emptyResultIsNotError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(listResponse())
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL, srv.URL, 2)
	docs, err := c.Search(context.Background(), "存在しない会社")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("got %d docs, want 0", len(docs))
	}
}

func TestFetchPDF(t *testing.T) {
	t.Parallel()
	const pdfBody = "%PDF-1.7 test body"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/S100ABCD" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		fmt.Fprint(w, pdfBody)
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL, srv.URL, 1)
	path, err := c.FetchPDF(context.Background(), "S100ABCD")
	if err != nil {
		t.Fatalf("FetchPDF: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fetched pdf: %v", err)
	}
	if string(data) != pdfBody {
		t.Fatalf("pdf content: got %q", data)
	}
}

func TestFetchPDF_httpErrorPropagates(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL, srv.URL, 1)
	if _, err := c.FetchPDF(context.Background(), "S100ABCD"); err == nil {
		t.Fatal("HTTP 404 must propagate")
	}
}

func TestDocumentURL(t *testing.T) {
	t.Parallel()
	got := DocumentURL("https://api.example.com/api/v2/documents/", "S1")
	if got != "https://api.example.com/api/v2/documents/S1" {
		t.Fatalf("got %q", got)
	}
}
