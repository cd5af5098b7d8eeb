package cmd

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"gochat/internal/media"
)

var signTTL time.Duration

var signURLCmd = &cobra.Command{
	Use:   "sign-url <storage-path>",
	Short: "Issue a short-lived download link for an attachment",
	Long: `Issue a fresh signed link for an attachment's storage path. Links are valid for
5 minutes by default and never longer than 10 minutes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cleanup, err := openClient()
		if err != nil {
			return err
		}
		defer cleanup()

		ttl := signTTL
		if ttl == 0 {
			ttl = client.Config.Auth.SignedURLTTL
		}
		link, err := client.Uploader.SignedURL(cmd.Context(), args[0], ttl)
		if err != nil {
			return describe(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), link.URL)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", humanize.Time(link.ExpiresAt))
		return nil
	},
}

func init() {
	signURLCmd.Flags().DurationVar(&signTTL, "ttl", 0, fmt.Sprintf("link lifetime, at most %s", media.MaxSignedURLTTL))
	rootCmd.AddCommand(signURLCmd)
}
