package cmd

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/arcanaland/flashcards/internal/config"
	"github.com/arcanaland/flashcards/internal/logging"
	"github.com/arcanaland/flashcards/internal/store"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "flashcards",
	Short: "Learn word pairs from the terminal",
	Long: `Flashcards keeps lists of word pairs and quizzes you on them.
Cards can be imported and exported as plain text, one card per line:

  unknown - known
  unknown - known / comment

Inside a word, write \-, \/ and \n for a dash, a slash and a line break.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return app.setup()
	},
}

// application holds what the commands share during one invocation
type application struct {
	cfg    *config.Config
	logOut *logging.Deferred
	logger *slog.Logger
	store  *store.Store
}

var app application

func (a *application) setup() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logOut = logging.NewDeferred(os.Stderr)
	a.logger = logging.New(a.logOut, cfg.LogLevel)
	return nil
}

// Store opens the card database on first use
func (a *application) Store() (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := store.Open(a.cfg.DatabasePath, a.logger)
	if err != nil {
		return nil, err
	}
	a.store = s
	return s, nil
}

func (a *application) close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("closing database", "error", err)
	}
	a.store = nil
}

func init() {
	cobra.OnFinalize(app.close)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return RootCmd.Execute()
}
