package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/render-gateway/internal/traffic"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <user-agent>",
		Short: "Print how the gateway classifies a User-Agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := traffic.Classify(args[0])
			out := struct {
				traffic.Classification
				IsBot     bool `json:"is_bot"`
				IsCrawler bool `json:"is_crawler"`
			}{c, c.IsBot(), c.IsCrawler()}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return fmt.Errorf("encode classification: %w", err)
			}
			return nil
		},
	}
}
