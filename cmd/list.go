package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arcanaland/flashcards/internal/card"
	"github.com/arcanaland/flashcards/internal/config"
	"github.com/arcanaland/flashcards/internal/store"
	"github.com/arcanaland/flashcards/internal/validator"
)

// listCmd represents the list command group
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Manage card lists",
	Long:  `Commands for creating, renaming and removing lists of flashcards.`,
}

// listLsCmd represents the list ls command
var listLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "Show all card lists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := app.Store()
		if err != nil {
			return err
		}

		lists, err := s.Lists(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(lists) == 0 {
			fmt.Fprintln(out, "No lists yet.")
			fmt.Fprintln(out, "Create one with 'flashcards list create <name>'.")
			return nil
		}

		for _, l := range lists {
			cards, err := s.CardsInList(cmd.Context(), l.ID)
			if err != nil {
				return err
			}
			if l.Name == app.cfg.DefaultList {
				fmt.Fprintf(out, "* %s (%d cards) [DEFAULT]\n", l.Name, len(cards))
			} else {
				fmt.Fprintf(out, "  %s (%d cards)\n", l.Name, len(cards))
			}
		}
		return nil
	},
}

// listCreateCmd represents the list create command
var listCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new card list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := app.Store()
		if err != nil {
			return err
		}

		l, err := s.CreateList(cmd.Context(), args[0])
		if err != nil {
			return describeValidation(err, "list")
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created list: %s\n", l.Name)
		return nil
	},
}

// listRenameCmd represents the list rename command
var listRenameCmd = &cobra.Command{
	Use:   "rename [name] [new_name]",
	Short: "Rename a card list",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := app.Store()
		if err != nil {
			return err
		}

		l, err := resolveList(cmd.Context(), s, args[0])
		if err != nil {
			return err
		}

		renamed, err := s.RenameList(cmd.Context(), l.ID, args[1])
		if err != nil {
			return describeValidation(err, "list")
		}

		// keep the default pointing at the same list
		if app.cfg.DefaultList == l.Name {
			if err := config.SetDefaultList(renamed.Name); err != nil {
				return err
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", l.Name, renamed.Name)
		return nil
	},
}

// listRmCmd represents the list rm command
var listRmCmd = &cobra.Command{
	Use:   "rm [name]",
	Short: "Delete a card list and all its cards",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := app.Store()
		if err != nil {
			return err
		}

		l, err := resolveList(cmd.Context(), s, args[0])
		if err != nil {
			return err
		}

		if err := s.DeleteList(cmd.Context(), l.ID); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Deleted list: %s\n", l.Name)
		return nil
	},
}

// listSetDefaultCmd represents the list set-default command
var listSetDefaultCmd = &cobra.Command{
	Use:   "set-default [name]",
	Short: "Set the list learned when none is given",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := app.Store()
		if err != nil {
			return err
		}

		l, err := resolveList(cmd.Context(), s, args[0])
		if err != nil {
			return err
		}

		if err := config.SetDefaultList(l.Name); err != nil {
			return fmt.Errorf("error setting default list: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Default list set to: %s\n", l.Name)
		return nil
	},
}

// resolveList finds a list by name, falling back to the configured default
func resolveList(ctx context.Context, s *store.Store, name string) (card.List, error) {
	if name == "" {
		name = app.cfg.DefaultList
	}
	if name == "" {
		return card.List{}, errors.New("no list given and no default list set (see 'flashcards list set-default')")
	}

	l, err := s.ListByName(ctx, name)
	if errors.Is(err, store.ErrListNotFound) {
		return card.List{}, fmt.Errorf("list not found: %s", name)
	}
	return l, err
}

// describeValidation turns a ValidationError into a message for the given subject
func describeValidation(err error, subject string) error {
	ve, ok := validator.AsValidationError(err)
	if !ok {
		return err
	}
	switch ve.Reason {
	case validator.ReasonDuplicate:
		return fmt.Errorf("a %s with this %s already exists", subject, ve.Field)
	case validator.ReasonBlank:
		return fmt.Errorf("%s %s must not be blank", subject, ve.Field)
	}
	return err
}

func init() {
	RootCmd.AddCommand(listCmd)
	listCmd.AddCommand(listLsCmd)
	listCmd.AddCommand(listCreateCmd)
	listCmd.AddCommand(listRenameCmd)
	listCmd.AddCommand(listRmCmd)
	listCmd.AddCommand(listSetDefaultCmd)
}
