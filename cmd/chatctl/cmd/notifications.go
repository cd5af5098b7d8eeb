package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var notificationsLimit int

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "List your notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cleanup, err := openClient()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		unread, err := client.Notifications.UnreadCount(ctx, client.Auth.ProfileID)
		if err != nil {
			return describe(err)
		}
		list, err := client.Notifications.ForUser(ctx, client.Auth.ProfileID, notificationsLimit, 0)
		if err != nil {
			return describe(err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d unread\n", unread)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, n := range list {
			state := " "
			if n.ReadAt == nil {
				state = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", state, n.ID, n.Type, n.Message, humanize.Time(n.CreatedAt))
		}
		return w.Flush()
	},
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read <notification-id>",
	Short: "Mark a notification as read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cleanup, err := openClient()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := client.Notifications.MarkAsRead(cmd.Context(), args[0], client.Auth.ProfileID); err != nil {
			return describe(err)
		}
		return nil
	},
}

func init() {
	notificationsCmd.Flags().IntVar(&notificationsLimit, "limit", 20, "number of notifications")
	notificationsCmd.AddCommand(notificationsReadCmd)
	rootCmd.AddCommand(notificationsCmd)
}
