// companyagent runs the company-analysis demo agent: a bearer-token REST
// service that analyzes a company from web-search results.
// Example: go run ./cmd/companyagent --addr=:8000
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/companyanalysis"
)

func main() {
	addr := flag.String("addr", ":8000", "HTTP listen address")
	searchURL := flag.String("search-url", os.Getenv("SEARCH_API_URL"), "Web search API base URL (env: SEARCH_API_URL)")
	flag.Parse()

	if *searchURL == "" {
		slog.Error("missing required configuration", "var", "SEARCH_API_URL")
		os.Exit(1)
	}

	_, srv := companyanalysis.NewServer(companyanalysis.ServerOptions{
		Addr:        *addr,
		TokenSecret: os.Getenv("TOKEN_SECRET"),
		Searcher: &companyanalysis.HTTPSearcher{
			BaseURL: *searchURL,
			APIKey:  os.Getenv("SEARCH_API_KEY"),
		},
	})
	slog.Info("company analysis agent listening", "addr", *addr)
	if err := srv.ListenAndServe(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}
