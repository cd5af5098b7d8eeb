package cmd

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"gochat/internal/session"
	"gochat/internal/store"
)

var (
	watchChannel string
	watchThread  string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the channel list, a channel or a thread live",
	Long: `Print the current view and reprint it whenever it changes.

Without flags the organization's channel list is followed. --channel follows the
threads of a channel, --thread additionally follows one thread's messages.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cleanup, err := openClient()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		s, err := session.New(ctx, client.Auth, client.Repo, client.Coordinator)
		if err != nil {
			return err
		}
		defer s.Close()

		switch {
		case watchThread != "":
			if watchChannel != "" {
				if err := s.OpenChannel(ctx, watchChannel); err != nil {
					return describe(err)
				}
			}
			err = s.OpenThread(ctx, watchThread)
		case watchChannel != "":
			err = s.OpenChannel(ctx, watchChannel)
		default:
			err = s.OpenOrganization(ctx)
		}
		if err != nil {
			return describe(err)
		}

		out := cmd.OutOrStdout()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-s.Changes():
				printView(out, s)
			}
		}
	},
}

func printView(out io.Writer, s *session.Session) {
	st := s.Store()
	fmt.Fprintln(out, "----")

	if thread, ok := st.Thread(); ok {
		fmt.Fprintf(out, "thread %s\n", titleOf(&thread))
		for _, m := range st.Messages() {
			marker := ""
			if m.EditedAt != nil {
				marker = " (edited)"
			}
			if st.Pending(store.KindMessages, m.ID) {
				marker += " (sending)"
			}
			fmt.Fprintf(out, "  [%s] %s: %s%s\n", humanize.Time(m.CreatedAt), m.UserID, m.Body, marker)
			for _, a := range st.Attachments(m.ID) {
				fmt.Fprintf(out, "      + %s (%s)\n", a.OriginalName, humanize.IBytes(uint64(a.SizeBytes)))
			}
		}
		return
	}

	if st.ChannelID() != "" {
		for _, t := range st.Threads() {
			fmt.Fprintf(out, "  %s  %s  %s\n", t.ID, titleOf(&t), humanize.Time(t.LastMessageAt))
		}
		return
	}

	for _, c := range st.Channels() {
		fmt.Fprintf(out, "  #%s  %s\n", c.Name, c.ID)
	}
}

func init() {
	watchCmd.Flags().StringVar(&watchChannel, "channel", "", "channel id")
	watchCmd.Flags().StringVar(&watchThread, "thread", "", "thread id")
	rootCmd.AddCommand(watchCmd)
}
