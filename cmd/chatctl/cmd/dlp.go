package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"gochat/internal/dlp"
)

var dlpCmd = &cobra.Command{
	Use:   "dlp [text...]",
	Short: "Check text against the content rules",
	Long: `Scan text for blocked and masked patterns without sending anything.
Reads standard input when no text is given. Exits non-zero when the text would be blocked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if len(args) == 0 {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			text = string(data)
		}

		scanner := dlp.Default()
		warnings := scanner.Scan(text)
		out := cmd.OutOrStdout()
		if len(warnings) == 0 {
			fmt.Fprintln(out, "clean")
			return nil
		}

		for _, w := range warnings {
			fmt.Fprintf(out, "%-6s %-40s %d match(es)  %s\n", w.Disposition, w.Tag, len(w.Matches), w.Advisory)
		}
		if warnings.Masking() {
			fmt.Fprintf(out, "\nmasked: %s\n", scanner.Mask(text))
		}
		if warnings.Blocking() {
			cmd.SilenceErrors = true
			fmt.Fprintln(os.Stderr, "blocked")
			return fmt.Errorf("blocked content")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dlpCmd)
}
