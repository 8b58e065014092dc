package cli

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// settableKeys are the keys config set accepts, each with its check.
// Session keys under auth are written by login and never set by hand.
var settableKeys = map[string]func(string) error{
	"server_url": func(v string) error {
		u, err := url.Parse(v)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("server_url must be an http(s) URL, got %q", v)
		}
		return nil
	},
	"output": func(v string) error {
		switch v {
		case "table", "json", "yaml":
			return nil
		}
		return fmt.Errorf("output must be table, json or yaml, got %q", v)
	},
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
	}
	cmd.AddCommand(newConfigInitCmd(), newConfigSetCmd(), newConfigGetCmd(), newConfigListCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactive first-time setup",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			for _, q := range []struct{ key, prompt, def string }{
				{key: "server_url", prompt: "Server URL", def: defaultServerURL},
				{key: "output", prompt: "Default output format (table/json/yaml)", def: "table"},
			} {
				val, err := ask(in, out, q.prompt, q.def)
				if err != nil {
					return err
				}
				if err := settableKeys[q.key](val); err != nil {
					return err
				}
				viper.Set(q.key, val)
			}

			if err := writeConfig(); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			fmt.Fprintf(out, "Configuration saved to %s\n", viper.ConfigFileUsed())
			return nil
		},
	}
}

// ask prompts once and returns def for an empty answer
func ask(in *bufio.Reader, out io.Writer, prompt, def string) (string, error) {
	fmt.Fprintf(out, "%s [%s]: ", prompt, def)
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	if line = strings.TrimSpace(line); line != "" {
		return line, nil
	}
	return def, nil
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set server_url or output",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, val := strings.ToLower(args[0]), args[1]
			check, ok := settableKeys[key]
			if !ok {
				return fmt.Errorf("unknown config key %q (settable: %s)", key, strings.Join(sortedKeys(settableKeys), ", "))
			}
			if err := check(val); err != nil {
				return err
			}

			viper.Set(key, val)
			if err := writeConfig(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, val)
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if !viper.IsSet(key) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: (not set)\n", key)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", key, masked(key, viper.GetString(key)))
			return nil
		},
	}
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show all configuration values",
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := viper.AllKeys()
			sort.Strings(keys)
			for _, key := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", key, masked(key, viper.GetString(key)))
			}
			return nil
		},
	}
}

// masked hides stored tokens
func masked(key, val string) string {
	if strings.HasSuffix(key, "token") && val != "" {
		return "(stored)"
	}
	return val
}

func sortedKeys(m map[string]func(string) error) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
