package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/config"
	"github.com/sakamoto-family-smile/sakamomo-family-agents/pkg/a2a"
)

// defaultCard is the built-in discovery document for the filing agent.
func defaultCard(url string) a2a.AgentCard {
	return a2a.AgentCard{
		Name:               "asset_securities_report_agent",
		Description:        "Finds a company's annual securities report on EDINET and analyzes it",
		URL:                url,
		Version:            "1.0.0",
		Capabilities:       a2a.AgentCapabilities{Streaming: false},
		DefaultInputModes:  []string{"text", "text/plain"},
		DefaultOutputModes: []string{"text", "text/plain"},
		Skills: []a2a.AgentSkill{
			{
				ID:          "analyze_securities_report",
				Name:        "有価証券報告書分析",
				Description: "企業名から有価証券報告書を検索し、内容を分析します",
				Tags:        []string{"finance", "edinet"},
				Examples:    []string{"トヨタ自動車の有価証券報告書を分析してください"},
			},
		},
	}
}

func newCardCmd() *cobra.Command {
	var cardPath string

	cmd := &cobra.Command{
		Use:   "card",
		Short: "Print the agent discovery document as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			card := defaultCard("http://localhost:10010/")
			if cardPath != "" {
				loaded, err := config.LoadCard(cardPath)
				if err != nil {
					return err
				}
				if loaded != nil {
					card = *loaded
				}
			}
			out, err := json.MarshalIndent(card, "", "  ")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&cardPath, "card", "", "Path to a YAML agent card overriding the built-in one")
	return cmd
}
