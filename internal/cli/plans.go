package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/tiergate/pkg/client"
)

func newPlansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "List subscription plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			plans, err := apiClient.Plans(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list plans: %w", err)
			}

			out := cmd.OutOrStdout()
			if !isTable() {
				return printOutput(out, plans)
			}

			table := NewTable(out, "", "ID", "LABEL", "PRICE", "MESSAGES", "TOKENS", "PER REPLY", "TIER", "MODULES")
			for _, p := range plans {
				marker := ""
				if p.IsCurrent {
					marker = "*"
				}
				modules := "-"
				if len(p.ModuleAccess) > 0 {
					modules = strings.Join(p.ModuleAccess, ",")
				}
				table.AddRow(
					marker,
					p.ID,
					p.Label,
					formatPrice(p.PriceCents),
					formatLimit(p.MonthlyMessageLimit),
					formatLimit(p.MonthlyTokenLimit),
					formatLimit(p.TokensPerMessageLimit),
					p.PowerTier,
					modules,
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.AddCommand(newPlansCheckoutCmd())
	return cmd
}

func newPlansCheckoutCmd() *cobra.Command {
	var duration string

	cmd := &cobra.Command{
		Use:   "checkout <plan-id>",
		Short: "Open a Stripe checkout for a paid plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			var co *client.Checkout
			err := withRefresh(ctx, func() (err error) {
				co, err = apiClient.Checkout(ctx, strings.ToUpper(args[0]), duration)
				return err
			})
			if err != nil {
				return fmt.Errorf("checkout failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if !isTable() {
				return printOutput(out, co)
			}
			fmt.Fprintf(out, "Complete your purchase at:\n  %s\n", co.URL)
			return nil
		},
	}

	cmd.Flags().StringVar(&duration, "duration", "monthly", "billing term: monthly or annual")
	return cmd
}
