package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/tiergate/pkg/client"
)

func newUsageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show your plan and this month's usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			var summary *client.PlanSummary
			err := withRefresh(ctx, func() (err error) {
				summary, err = apiClient.Usage(ctx)
				return err
			})
			if err != nil {
				return fmt.Errorf("failed to get usage: %w", err)
			}

			out := cmd.OutOrStdout()
			if !isTable() {
				return printOutput(out, summary)
			}
			printSummary(out, summary)
			return nil
		},
	}
}

func printSummary(out io.Writer, s *client.PlanSummary) {
	fmt.Fprintf(out, "Plan:      %s (%s)\n", s.PlanLabel, s.PlanID)
	fmt.Fprintf(out, "Tier:      %s\n", s.PowerTier)
	if s.ExpiresAt != nil {
		fmt.Fprintf(out, "Renews:    %s\n", s.ExpiresAt.Format("2006-01-02"))
	}
	fmt.Fprintf(out, "Period:    %s\n", s.Period)
	fmt.Fprintf(out, "Messages:  %s\n", formatUsage(s.Used.Messages, s.Limits.Messages))
	fmt.Fprintf(out, "Tokens:    %s\n", formatUsage(s.Used.Tokens, s.Limits.Tokens))
	fmt.Fprintf(out, "Per reply: %s tokens\n", formatLimit(s.Limits.TokensPerMessage))
	if len(s.ModuleAccess) > 0 {
		fmt.Fprintf(out, "Modules:   %s\n", strings.Join(s.ModuleAccess, ", "))
	}

	if len(s.History) == 0 {
		return
	}
	periods := make([]string, 0, len(s.History))
	for p := range s.History {
		periods = append(periods, p)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(periods)))

	fmt.Fprintln(out)
	table := NewTable(out, "PERIOD", "MESSAGES", "TOKENS")
	for _, p := range periods {
		h := s.History[p]
		table.AddRow(p, fmt.Sprint(h.Messages), fmt.Sprint(h.Tokens))
	}
	table.Render()
}
