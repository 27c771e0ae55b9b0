package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakamoto-family-smile/sakamomo-family-agents/pkg/client"
)

func newSendCmd() *cobra.Command {
	var (
		serverURL string
		apiKey    string
		taskID    string
		sessionID string
	)

	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Send a message to a running agent and print the resulting task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if strings.TrimSpace(text) == "" {
				return errors.New("message must not be empty")
			}
			c := client.New(serverURL, apiKey)
			task, err := c.SendTask(cmd.Context(), taskID, sessionID, text)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(task, "", "  ")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:10010", "Agent base URL")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key (if the agent requires one)")
	cmd.Flags().StringVar(&taskID, "task", "", "Task id (default: a fresh UUID)")
	cmd.Flags().StringVar(&sessionID, "session", "", "Session id for multi-turn conversations (default: a fresh UUID)")

	return cmd
}
