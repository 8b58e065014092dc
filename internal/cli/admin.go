package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/tiergate/pkg/client"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative commands (admin role required)",
	}

	cmd.AddCommand(newAdminUsersCmd())
	cmd.AddCommand(newAdminSetPlanCmd())
	cmd.AddCommand(newAdminSetRoleCmd())

	return cmd
}

func newAdminUsersCmd() *cobra.Command {
	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List users with their plan and usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			var result *client.UserPage
			err := withRefresh(ctx, func() (err error) {
				result, err = apiClient.ListUsers(ctx, page, pageSize)
				return err
			})
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}

			out := cmd.OutOrStdout()
			if !isTable() {
				return printOutput(out, result)
			}

			table := NewTable(out, "ID", "EMAIL", "ROLE", "PLAN", "PERIOD", "MESSAGES", "TOKENS")
			for _, u := range result.Data {
				table.AddRow(
					u.ID,
					truncate(u.Email, 32),
					u.Role,
					u.PlanID,
					u.Period,
					fmt.Sprint(u.MessagesUsed),
					fmt.Sprint(u.TokensUsed),
				)
			}
			table.Render()
			fmt.Fprintf(out, "\nPage %d of %d (%d users)\n", result.Page, result.TotalPages, result.TotalItems)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "users per page")
	return cmd
}

func newAdminSetPlanCmd() *cobra.Command {
	var duration string

	cmd := &cobra.Command{
		Use:   "set-plan <user-id> <plan-id>",
		Short: "Assign a plan without payment and reset the user's usage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			var summary *client.PlanSummary
			err := withRefresh(ctx, func() (err error) {
				summary, err = apiClient.SetPlan(ctx, args[0], strings.ToUpper(args[1]), duration)
				return err
			})
			if err != nil {
				return fmt.Errorf("failed to set plan: %w", err)
			}

			out := cmd.OutOrStdout()
			if !isTable() {
				return printOutput(out, summary)
			}
			printSummary(out, summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&duration, "duration", "", "term for paid plans: monthly or annual")
	return cmd
}

func newAdminSetRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <user-id> <user|admin>",
		Short: "Grant or revoke admin rights",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			var user *client.User
			err := withRefresh(ctx, func() (err error) {
				user, err = apiClient.SetRole(ctx, args[0], strings.ToLower(args[1]))
				return err
			})
			if err != nil {
				return fmt.Errorf("failed to set role: %w", err)
			}

			if !isTable() {
				return printOutput(cmd.OutOrStdout(), user)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Email, user.Role)
			return nil
		},
	}
}
