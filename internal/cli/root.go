package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pratik-mahalle/tiergate/pkg/client"
)

const defaultServerURL = "http://localhost:8080"

var (
	cfgFile      string
	outputFormat string
	serverURL    string
	apiClient    *client.Client
)

// NewRootCmd builds the tiergate command tree
func NewRootCmd() *cobra.Command {
	cfgFile, outputFormat, serverURL, apiClient = "", "", "", nil
	viper.Reset()

	rootCmd := &cobra.Command{
		Use:   "tiergate",
		Short: "tiergate CLI - metered, plan-gated AI chat",
		Long: `tiergate CLI talks to a tiergate API server: sign in, chat within your
plan's monthly message and token allowance, inspect usage, and manage plans.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			initConfig()
			// Skip client init for config commands
			if cmd.Name() == "config" || (cmd.Parent() != nil && cmd.Parent().Name() == "config") {
				return nil
			}
			if cmd.Name() == "login" || cmd.Name() == "register" || cmd.Name() == "plans" {
				return initClient()
			}
			return initAuthenticatedClient()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.tiergate/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (overrides config)")

	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newPlansCmd())
	rootCmd.AddCommand(newUsageCmd())
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newAdminCmd())

	return rootCmd
}

// Execute runs the CLI with os.Args
func Execute() error {
	return NewRootCmd().Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigFile(defaultConfigPath())
	}
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("TIERGATE")
	viper.AutomaticEnv()

	viper.SetDefault("server_url", defaultServerURL)
	viper.SetDefault("output", "table")

	_ = viper.ReadInConfig()
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".tiergate", "config.yaml")
	}
	return filepath.Join(home, ".tiergate", "config.yaml")
}

func writeConfig() error {
	path := viper.ConfigFileUsed()
	if path == "" {
		path = defaultConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return viper.WriteConfigAs(path)
}

func initClient() error {
	url := viper.GetString("server_url")
	if serverURL != "" {
		url = serverURL
	}

	apiClient = client.NewClient(client.Config{
		BaseURL: url,
		Token:   viper.GetString("auth.token"),
	})
	return nil
}

func initAuthenticatedClient() error {
	if err := initClient(); err != nil {
		return err
	}
	if apiClient.GetToken() == "" {
		return fmt.Errorf("not authenticated. Run 'tiergate auth login' first")
	}
	return nil
}

// withRefresh runs call and, when the access token has expired and a refresh
// token is stored, refreshes once and retries
func withRefresh(ctx context.Context, call func() error) error {
	err := call()
	apiErr, ok := client.AsAPIError(err)
	if !ok || !apiErr.IsUnauthorized() {
		return err
	}
	refresh := viper.GetString("auth.refresh_token")
	if refresh == "" {
		return err
	}

	resp, rerr := apiClient.RefreshToken(ctx, refresh)
	if rerr != nil {
		return fmt.Errorf("session expired. Run 'tiergate auth login' again: %w", err)
	}
	if err := saveSession(resp); err != nil {
		return err
	}
	return call()
}

func saveSession(resp *client.AuthResponse) error {
	viper.Set("auth.token", resp.AccessToken)
	viper.Set("auth.refresh_token", resp.RefreshToken)
	if resp.User != nil {
		viper.Set("auth.email", resp.User.Email)
	}
	if err := writeConfig(); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

func getOutputFormat() string {
	if outputFormat != "" {
		return outputFormat
	}
	return viper.GetString("output")
}
