package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"gochat/internal/chat/service"
	"gochat/internal/common"
	"gochat/internal/media"
	"gochat/internal/session"
)

var (
	sendThread  string
	sendFiles   []string
	sendCC      []string
	sendReplyTo string
	sendTTL     int
	sendRetries int
	sendFollow  bool
)

var sendCmd = &cobra.Command{
	Use:   "send --thread <id> [text...]",
	Short: "Send a message with optional attachments and CC",
	Long: `Send a message to a thread. Attachments are uploaded after the message is stored;
if one fails the message stays sent and --retries controls how often the remaining
steps are attempted again.

Examples:
  chatctl send --thread 1f0c... "minutes attached" --file minutes.pdf
  chatctl send --thread 1f0c... --cc <profile-id> "please review"
  chatctl send --thread 1f0c... --follow "on my way"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		draft := service.Draft{
			ThreadID: sendThread,
			Body:     strings.Join(args, " "),
			CC:       sendCC,
		}
		if sendReplyTo != "" {
			draft.ReplyTo = &sendReplyTo
		}
		if sendTTL > 0 {
			draft.TTLHours = &sendTTL
		}
		for _, path := range sendFiles {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			draft.Files = append(draft.Files, media.File{Name: filepath.Base(path), Data: data})
		}

		client, cleanup, err := openClient()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		composer := client.Composer
		var s *session.Session
		if sendFollow {
			// the message shows in the thread view before the store confirms it
			s, err = session.New(ctx, client.Auth, client.Repo, client.Coordinator)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.OpenThread(ctx, sendThread); err != nil {
				return describe(err)
			}
			composer = composer.WithLocalStore(s.Store())
		}

		attempt, err := composer.Send(ctx, client.Auth, draft)
		for retry := 0; err != nil && common.IsPartial(err) && retry < sendRetries; retry++ {
			fmt.Fprintf(out, "retrying: %s\n", strings.Join(attempt.Remaining(), ", "))
			err = attempt.Submit(ctx)
		}

		for _, advisory := range attempt.Warnings().Advisories() {
			fmt.Fprintf(out, "note: %s\n", advisory)
		}
		if err != nil {
			var partial *common.PartialCompositionError
			if errors.As(err, &partial) {
				fmt.Fprintf(out, "message %s sent; not done: %s\n", partial.MessageID, strings.Join(partial.Remaining, ", "))
			}
			return describe(err)
		}

		msg := attempt.Message()
		fmt.Fprintf(out, "sent %s with %d attachment(s)\n", msg.ID, len(attempt.Attachments()))
		if s != nil {
			printView(out, s)
			// the local copy stays marked as sending until a reload confirms it
			if err := s.Refresh(ctx); err != nil {
				fmt.Fprintf(out, "could not confirm: %v\n", err)
				return nil
			}
			printView(out, s)
		}
		return nil
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendThread, "thread", "", "thread id")
	sendCmd.Flags().StringArrayVar(&sendFiles, "file", nil, "attach a file (repeatable)")
	sendCmd.Flags().StringArrayVar(&sendCC, "cc", nil, "CC a profile id (repeatable)")
	sendCmd.Flags().StringVar(&sendReplyTo, "reply-to", "", "message id this replies to")
	sendCmd.Flags().IntVar(&sendTTL, "ttl-hours", 0, "ask for the message to expire after N hours")
	sendCmd.Flags().IntVar(&sendRetries, "retries", 0, "times to retry unfinished steps of a sent message")
	sendCmd.Flags().BoolVar(&sendFollow, "follow", false, "show the thread with the message until the store confirms it")
	_ = sendCmd.MarkFlagRequired("thread")
	rootCmd.AddCommand(sendCmd)
}
