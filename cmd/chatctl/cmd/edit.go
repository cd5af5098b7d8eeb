package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gochat/internal/chat/repository"
)

var editCmd = &cobra.Command{
	Use:   "edit <message-id> <text...>",
	Short: "Change the body of a sent message",
	Long:  "Edits keep the message in place; the thread's activity time does not change.",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := strings.Join(args[1:], " ")

		client, cleanup, err := openClient()
		if err != nil {
			return err
		}
		defer cleanup()

		body, _, err = client.Composer.Screen(body)
		if err != nil {
			return describe(err)
		}
		if err := client.Repo.AmendMessage(cmd.Context(), args[0], body); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("message %s not found", args[0])
			}
			return describe(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "edited %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
}
