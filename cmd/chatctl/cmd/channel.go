package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"gochat/internal/common"
	"gochat/internal/dbmysql"
)

var (
	channelType        string
	channelDescription string
	threadChannel      string
	threadTitle        string
)

var channelCmd = &cobra.Command{
	Use:   "channel",
	Short: "List and create channels",
}

var channelListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the channels of your organization",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cleanup, err := openClient()
		if err != nil {
			return err
		}
		defer cleanup()

		channels, err := client.Repo.ChannelsByOrg(cmd.Context(), client.Auth.OrgID)
		if err != nil {
			return describe(err)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tTYPE")
		for _, c := range channels {
			fmt.Fprintf(w, "%s\t#%s\t%s\n", c.ID, c.Name, c.Type)
		}
		return w.Flush()
	},
}

var channelCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a channel; you become its admin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cleanup, err := openClient()
		if err != nil {
			return err
		}
		defer cleanup()

		channel := &dbmysql.Channel{
			OrgID:     client.Auth.OrgID,
			Name:      args[0],
			Type:      common.ChannelType(channelType),
			CreatedBy: client.Auth.ProfileID,
		}
		if channelDescription != "" {
			channel.Description = &channelDescription
		}
		if err := client.Repo.CreateChannel(cmd.Context(), channel); err != nil {
			return describe(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created #%s (%s)\n", channel.Name, channel.ID)
		return nil
	},
}

var threadCmd = &cobra.Command{
	Use:   "thread",
	Short: "List and create threads",
}

var threadListCmd = &cobra.Command{
	Use:   "list",
	Short: "List threads of a channel, most recently active first",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cleanup, err := openClient()
		if err != nil {
			return err
		}
		defer cleanup()

		threads, err := client.Repo.ThreadsByChannel(cmd.Context(), threadChannel)
		if err != nil {
			return describe(err)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tACTIVE")
		for _, t := range threads {
			fmt.Fprintf(w, "%s\t%s\t%s\n", t.ID, titleOf(t), humanize.Time(t.LastMessageAt))
		}
		return w.Flush()
	},
}

var threadCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Start a thread in a channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cleanup, err := openClient()
		if err != nil {
			return err
		}
		defer cleanup()

		thread := &dbmysql.Thread{ChannelID: threadChannel, CreatedBy: client.Auth.ProfileID}
		if threadTitle != "" {
			thread.Title = &threadTitle
		}
		if err := client.Repo.CreateThread(cmd.Context(), thread); err != nil {
			return describe(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created thread %s\n", thread.ID)
		return nil
	},
}

func titleOf(t *dbmysql.Thread) string {
	if t.Title == nil || *t.Title == "" {
		return "(untitled)"
	}
	return *t.Title
}

func init() {
	channelCreateCmd.Flags().StringVar(&channelType, "type", string(common.ChannelPublic), "public, private or dm")
	channelCreateCmd.Flags().StringVar(&channelDescription, "description", "", "channel description")
	channelCmd.AddCommand(channelListCmd, channelCreateCmd)

	threadCmd.PersistentFlags().StringVar(&threadChannel, "channel", "", "channel id")
	_ = threadCmd.MarkPersistentFlagRequired("channel")
	threadCreateCmd.Flags().StringVar(&threadTitle, "title", "", "thread title")
	threadCmd.AddCommand(threadListCmd, threadCreateCmd)

	rootCmd.AddCommand(channelCmd, threadCmd)
}
