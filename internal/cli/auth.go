package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/pratik-mahalle/tiergate/pkg/client"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication commands",
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthRegisterCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	cmd.AddCommand(newAuthWhoamiCmd())

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			if email == "" {
				email = promptInput(cmd.OutOrStdout(), in, "Email: ")
			}
			if password == "" {
				password = promptPassword(cmd.OutOrStdout(), in, "Password: ")
			}

			resp, err := apiClient.Login(context.Background(), email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			if err := saveSession(resp); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", resp.User.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")

	return cmd
}

func newAuthRegisterCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new account on the free plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()
			if email == "" {
				email = promptInput(out, in, "Email: ")
			}
			if password == "" {
				password = promptPassword(out, in, "Password: ")
				confirm := promptPassword(out, in, "Confirm password: ")
				if password != confirm {
					return fmt.Errorf("passwords do not match")
				}
			}

			resp, err := apiClient.Register(context.Background(), email, password)
			if err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}
			if err := saveSession(resp); err != nil {
				return err
			}

			fmt.Fprintf(out, "Account created. Logged in as %s on %s\n", resp.User.Email, resp.User.PlanID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")

	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			// The server only clears cookies, so a failure here is not fatal
			_ = apiClient.Logout(context.Background())

			viper.Set("auth.token", "")
			viper.Set("auth.refresh_token", "")
			viper.Set("auth.email", "")
			if err := writeConfig(); err != nil {
				return fmt.Errorf("failed to clear credentials: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Logged out successfully")
			return nil
		},
	}
}

func newAuthWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show current user info",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			var user *client.User
			err := withRefresh(ctx, func() (err error) {
				user, err = apiClient.GetCurrentUser(ctx)
				return err
			})
			if err != nil {
				return fmt.Errorf("failed to get user info: %w", err)
			}

			out := cmd.OutOrStdout()
			if !isTable() {
				return printOutput(out, user)
			}

			fmt.Fprintf(out, "Email:    %s\n", user.Email)
			fmt.Fprintf(out, "Role:     %s\n", user.Role)
			fmt.Fprintf(out, "Plan:     %s\n", user.PlanID)
			if user.PlanExpiresAt != nil {
				fmt.Fprintf(out, "Renews:   %s\n", user.PlanExpiresAt.Format("2006-01-02"))
			}
			fmt.Fprintf(out, "ID:       %s\n", user.ID)
			return nil
		},
	}
}

func promptInput(out io.Writer, in *bufio.Reader, prompt string) string {
	fmt.Fprint(out, prompt)
	input, _ := in.ReadString('\n')
	return strings.TrimSpace(input)
}

// promptPassword reads without echo on a terminal and falls back to a plain
// line read when stdin is piped
func promptPassword(out io.Writer, in *bufio.Reader, prompt string) string {
	fmt.Fprint(out, prompt)
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		input, _ := in.ReadString('\n')
		return strings.TrimSpace(input)
	}
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return ""
	}
	return string(password)
}
