package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/tiergate/pkg/client"
)

func newChatCmd() *cobra.Command {
	var module string

	cmd := &cobra.Command{
		Use:   "chat [message...]",
		Short: "Send a message, or start an interactive session with no arguments",
		RunE: func(cmd *cobra.Command, args []string) error {
			module = strings.ToUpper(module)
			out := cmd.OutOrStdout()

			if len(args) > 0 {
				resp, err := send(context.Background(), []client.Message{{Role: "user", Content: strings.Join(args, " ")}}, module)
				if err != nil {
					return explain(err)
				}
				if !isTable() {
					return printOutput(out, resp)
				}
				printReply(out, resp)
				return nil
			}

			return repl(cmd.Context(), cmd.InOrStdin(), out, module)
		},
	}

	cmd.Flags().StringVarP(&module, "module", "m", "", "feature module, e.g. CODE_ASSIST_MODULE")
	return cmd
}

func send(ctx context.Context, history []client.Message, module string) (*client.ChatResponse, error) {
	var resp *client.ChatResponse
	err := withRefresh(ctx, func() (err error) {
		resp, err = apiClient.Chat(ctx, client.ChatRequest{Messages: history, Module: module})
		return err
	})
	return resp, err
}

// repl keeps a conversation going until EOF or /quit. A denied message is
// reported and dropped from the history.
func repl(ctx context.Context, in io.Reader, out io.Writer, module string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	fmt.Fprintln(out, "Type a message. Commands: /usage, /reset, /quit")

	var history []client.Message
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			history = nil
			fmt.Fprintln(out, "Conversation cleared.")
			continue
		case "/usage":
			summary, err := apiClient.Usage(ctx)
			if err != nil {
				fmt.Fprintln(out, explain(err))
				continue
			}
			printSummary(out, summary)
			continue
		}

		turn := append(history, client.Message{Role: "user", Content: line})
		resp, err := send(ctx, turn, module)
		if err != nil {
			fmt.Fprintln(out, explain(err))
			if apiErr, ok := client.AsAPIError(err); ok && apiErr.IsUnauthorized() {
				return err
			}
			continue
		}

		history = append(turn, client.Message{Role: "assistant", Content: resp.Reply})
		printReply(out, resp)
	}
}

func printReply(out io.Writer, resp *client.ChatResponse) {
	fmt.Fprintln(out, resp.Reply)
	footer := fmt.Sprintf("-- %s, %d tokens", resp.Model, resp.TokensUsed)
	if u := resp.Usage; u != nil {
		footer += fmt.Sprintf(", %s messages left this month", formatLimit(u.Remaining.Messages))
	}
	fmt.Fprintln(out, footer)
}

// explain rewrites plan denials into actionable messages
func explain(err error) error {
	apiErr, ok := client.AsAPIError(err)
	if !ok {
		return err
	}
	d, hasDenial := apiErr.Denial()
	switch {
	case apiErr.Code == client.CodeMessageLimit && hasDenial:
		return fmt.Errorf("monthly message limit reached (%d/%d on %s). Run 'tiergate plans' to upgrade", d.MessagesUsed, d.MessageLimit, d.PlanID)
	case apiErr.Code == client.CodeTokenLimit && hasDenial:
		return fmt.Errorf("monthly token limit reached (%d/%d on %s). Run 'tiergate plans' to upgrade", d.TokensUsed, d.TokenLimit, d.PlanID)
	case apiErr.Code == client.CodeModuleNotInPlan && hasDenial:
		return fmt.Errorf("%s is not included in %s. Run 'tiergate plans' to see which plans include it", d.Module, d.PlanID)
	}
	return err
}
