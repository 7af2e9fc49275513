package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcanaland/flashcards/internal/card"
	"github.com/arcanaland/flashcards/internal/store"
)

// cardCmd represents the card command group
var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "Manage the cards of a list",
}

// cardLsCmd represents the card ls command
var cardLsCmd = &cobra.Command{
	Use:   "ls [list]",
	Short: "Show the cards of a list",
	Long: `Show the cards of a list in the order they were added.
Without a list name, the default list is used.`,
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

		out := cmd.OutOrStdout()
		if len(cards) == 0 {
			fmt.Fprintf(out, "List %s has no cards.\n", l.Name)
			return nil
		}

		for _, c := range cards {
			fmt.Fprintf(out, "%s  %s %s %s",
				colorize.HiBlackString("%4d", c.ID),
				colorize.HiWhiteString(c.UnknownWord),
				colorize.CyanString("-"),
				c.KnownWord)
			if comment := c.CommentText(); comment != "" {
				fmt.Fprintf(out, "  %s", colorize.HiBlackString(comment))
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

// cardAddCmd represents the card add command
var cardAddCmd = &cobra.Command{
	Use:   "add [list] [unknown_word] [known_word]",
	Short: "Add a card to a list",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := app.Store()
		if err != nil {
			return err
		}

		l, err := resolveList(cmd.Context(), s, args[0])
		if err != nil {
			return err
		}

		comment, _ := cmd.Flags().GetString("comment")
		c, err := s.CreateCard(cmd.Context(),
			card.New(args[1], args[2], card.OptionalComment(comment), l.ID, time.Now()))
		if err != nil {
			return describeValidation(err, "card")
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Added card %d to %s\n", c.ID, l.Name)
		return nil
	},
}

// cardEditCmd represents the card edit command
var cardEditCmd = &cobra.Command{
	Use:   "edit [card_id]",
	Short: "Change the words or comment of a card",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := app.Store()
		if err != nil {
			return err
		}

		id, err := parseCardID(args[0])
		if err != nil {
			return err
		}

		c, err := s.Card(cmd.Context(), id)
		if errors.Is(err, store.ErrCardNotFound) {
			return fmt.Errorf("card not found: %d", id)
		} else if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("unknown") {
			c.UnknownWord, _ = flags.GetString("unknown")
		}
		if flags.Changed("known") {
			c.KnownWord, _ = flags.GetString("known")
		}
		if flags.Changed("comment") {
			comment, _ := flags.GetString("comment")
			c.Comment = card.OptionalComment(comment)
		}

		if _, err := s.UpdateCard(cmd.Context(), c); err != nil {
			return describeValidation(err, "card")
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Updated card %d\n", id)
		return nil
	},
}

// cardRmCmd represents the card rm command
var cardRmCmd = &cobra.Command{
	Use:   "rm [card_id]",
	Short: "Delete a card",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := app.Store()
		if err != nil {
			return err
		}

		id, err := parseCardID(args[0])
		if err != nil {
			return err
		}

		if err := s.DeleteCard(cmd.Context(), id); err != nil {
			if errors.Is(err, store.ErrCardNotFound) {
				return fmt.Errorf("card not found: %d", id)
			}
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Deleted card %d\n", id)
		return nil
	},
}

func parseCardID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid card id: %s", s)
	}
	return id, nil
}

func argOrEmpty(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func init() {
	RootCmd.AddCommand(cardCmd)
	cardCmd.AddCommand(cardLsCmd)
	cardCmd.AddCommand(cardAddCmd)
	cardCmd.AddCommand(cardEditCmd)
	cardCmd.AddCommand(cardRmCmd)

	cardAddCmd.Flags().StringP("comment", "c", "", "Optional comment shown with the answer")
	cardEditCmd.Flags().StringP("unknown", "u", "", "New word to learn")
	cardEditCmd.Flags().StringP("known", "k", "", "New known word")
	cardEditCmd.Flags().StringP("comment", "c", "", "New comment; empty removes it")
}
