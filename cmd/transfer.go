package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcanaland/flashcards/internal/cardline"
	"github.com/arcanaland/flashcards/internal/importer"
)

var errImportRejected = errors.New("import rejected")

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import [list] [file]",
	Short: "Import cards from text into a list",
	Long: `Import reads one card per line from a file, or from standard input when no
file is given, and adds the cards to the list:

  unknown - known
  unknown - known / comment

Blank lines are skipped. If any line is malformed nothing is imported and the
offending lines are shown. Use --check to only look for malformed lines.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := app.Store()
		if err != nil {
			return err
		}

		l, err := resolveList(cmd.Context(), s, args[0])
		if err != nil {
			return err
		}

		text, err := readImportText(cmd, args)
		if err != nil {
			return err
		}

		im := importer.New(s, app.logger)
		check, _ := cmd.Flags().GetBool("check")

		var res importer.Result
		if check {
			res = im.Check(text, l.ID)
		} else {
			res, err = im.TryImport(cmd.Context(), text, l.ID)
			if err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if !res.OK() {
			printFailedLines(out, text, res.FailedLines)
			return errImportRejected
		}

		if check {
			fmt.Fprintf(out, "All lines are valid: %d cards would be imported into %s\n", len(res.Cards), l.Name)
		} else {
			fmt.Fprintf(out, "Imported %d cards into %s\n", len(res.Cards), l.Name)
		}
		return nil
	},
}

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [list]",
	Short: "Export the cards of a list as text",
	Long: `Export writes the cards of a list one per line, in the format read by import.
Without --output the text is written to standard output.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := app.Store()
		if err != nil {
			return err
		}

		l, err := resolveList(cmd.Context(), s, argOrEmpty(args))
		if err != nil {
			return err
		}

		cards, err := s.CardsInList(cmd.Context(), l.ID)
		if err != nil {
			return err
		}

		text := cardline.EncodeAll(cards)
		if len(cards) > 0 {
			text += "\n"
		}

		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			_, err := io.WriteString(cmd.OutOrStdout(), text)
			return err
		}

		if err := os.WriteFile(output, []byte(text), 0644); err != nil {
			return fmt.Errorf("error writing %s: %w", output, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d cards to %s\n", len(cards), output)
		return nil
	},
}

func readImportText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 2 {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return "", fmt.Errorf("error reading %s: %w", args[1], err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("error reading standard input: %w", err)
	}
	return string(data), nil
}

// printFailedLines echoes the text with malformed lines highlighted
func printFailedLines(w io.Writer, text string, failed []int) {
	bad := make(map[int]bool, len(failed))
	for _, n := range failed {
		bad[n] = true
	}

	suffix := ""
	if len(failed) > 1 {
		suffix = "s"
	}
	fmt.Fprintln(w, colorize.RedString("%d incorrect line%s", len(failed), suffix))

	lines := cardline.SplitLines(text)
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		n := i + 1
		if bad[n] {
			fmt.Fprintf(w, "%s %s\n", colorize.RedString("%4d !", n), colorize.RedString(line))
		} else {
			fmt.Fprintf(w, "%s %s\n", colorize.HiBlackString("%4d  ", n), line)
		}
	}
}

func init() {
	RootCmd.AddCommand(importCmd)
	RootCmd.AddCommand(exportCmd)

	importCmd.Flags().Bool("check", false, "Only report malformed lines, import nothing")
	exportCmd.Flags().StringP("output", "o", "", "Write to a file instead of standard output")
}
