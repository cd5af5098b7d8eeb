package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"gochat/internal/search"
)

var (
	searchMessagesOnly    bool
	searchAttachmentsOnly bool
	searchType            string
	searchJSON            bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search messages and attachments of your organization",
	Long: `Search message bodies and attachment file names. Each category returns at most
20 results, messages first.

Examples:
  chatctl search budget
  chatctl search --attachments --type pdf invoice`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		client, cleanup, err := openClient()
		if err != nil {
			return err
		}
		defer cleanup()

		filter := search.DefaultFilter()
		filter.ContentTypeHint = searchType
		if searchMessagesOnly {
			filter.IncludeAttachments = false
		}
		if searchAttachmentsOnly {
			filter.IncludeMessages = false
		}

		results, err := client.Search.Search(cmd.Context(), client.Auth, query, filter)
		if err != nil {
			return describe(err)
		}

		out := cmd.OutOrStdout()
		if searchJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}
		if len(results) == 0 {
			fmt.Fprintln(out, "No results.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KIND\tWHERE\tTEXT\tWHEN")
		for _, r := range results {
			switch r.Kind {
			case search.KindMessage:
				m := r.Message
				fmt.Fprintf(w, "message\t%s\t%s\t%s\n",
					r.Title(), search.Snippet(m.Body, query, 60), humanize.Time(m.CreatedAt))
			case search.KindAttachment:
				a := r.Attachment
				where := "(not linked)"
				if threadID, ok := r.Target(); ok {
					where = "thread " + threadID
				}
				fmt.Fprintf(w, "%s\t%s\t%s (%s)\t%s\n",
					r.Family(), where, a.OriginalName, humanize.IBytes(uint64(a.SizeBytes)), humanize.Time(a.CreatedAt))
			}
		}
		return w.Flush()
	},
}

func init() {
	searchCmd.Flags().BoolVar(&searchMessagesOnly, "messages", false, "only search messages")
	searchCmd.Flags().BoolVar(&searchAttachmentsOnly, "attachments", false, "only search attachments")
	searchCmd.Flags().StringVar(&searchType, "type", "", "attachment content type hint: pdf, image, word, excel")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print results as JSON")
	searchCmd.MarkFlagsMutuallyExclusive("messages", "attachments")
	rootCmd.AddCommand(searchCmd)
}
