package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/arcanaland/flashcards/internal/learn"
)

const (
	keyEnter  = "\r"
	keyCtrlC  = "\x03"
	keyEscape = "\x1b"

	hideCursor = "\x1b[?25l"
	showCursor = "\x1b[?25h"
)

// errStopLearning ends the learn loop without an error
var errStopLearning = errors.New("stop learning")

// learnCmd represents the learn command
var learnCmd = &cobra.Command{
	Use:   "learn [list]",
	Short: "Learn the cards of a list",
	Long: `Learn shows the cards of a list one at a time in random order.
Without a list name, the default list is used.

  y  remembered         n  forgotten        s  show the answer
  r  restart all        f  restart failed   v  show failed cards
  q  quit`,
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

		in, out := int(os.Stdin.Fd()), int(os.Stdout.Fd())
		if !term.IsTerminal(in) {
			return errors.New("learn needs an interactive terminal")
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		session := learn.NewSession(l.ID, learn.WithLogger(app.logger))
		feed, err := learn.Follow(ctx, s, session.ListID())
		if err != nil {
			return err
		}

		// log lines would tear the raw-mode frame; show them once the terminal is restored
		app.logOut.Hold()
		defer func() {
			if err := app.logOut.Release(); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
			}
		}()

		oldState, err := term.MakeRaw(in)
		if err != nil {
			return fmt.Errorf("error switching terminal to raw mode: %w", err)
		}
		defer term.Restore(in, oldState)

		w := cmd.OutOrStdout()
		fmt.Fprint(w, hideCursor)
		defer fmt.Fprint(w, clearScreen+showCursor)

		v := newView(w, func() int {
			width, _, err := term.GetSize(out)
			if err != nil {
				return 0
			}
			return width
		})

		unsubscribe := session.Subscribe(v.render)
		defer unsubscribe()

		return runLearn(ctx, session, feed, readKeys(ctx, os.Stdin), app.logger)
	},
}

// runLearn drives the session from repository snapshots and key presses
// until the user quits, the keys run out or ctx is done
func runLearn(ctx context.Context, session *learn.Session, feed <-chan learn.Snapshot, keys <-chan string, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-feed:
			if !ok {
				feed = nil
				continue
			}
			session.Apply(snap)
		case key, ok := <-keys:
			if !ok {
				return nil
			}
			err := dispatchKey(learnKeys, session, key)
			if errors.Is(err, errStopLearning) {
				return nil
			}
			if err != nil {
				logger.Debug("key ignored", "key", fmt.Sprintf("%q", key), "error", err)
			}
		}
	}
}

// readKeys forwards raw terminal input one read at a time until r fails or
// ctx is done. A Read already in progress is not interrupted.
func readKeys(ctx context.Context, r io.Reader) <-chan string {
	keys := make(chan string)
	go func() {
		defer close(keys)
		buf := make([]byte, 16)
		for ctx.Err() == nil {
			n, err := r.Read(buf)
			if n > 0 {
				select {
				case keys <- string(buf[:n]):
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return keys
}

// keyHandler runs action for the first key press it matches
type keyHandler struct {
	match  func(s learn.State, key string) bool
	action func(s *learn.Session) error
}

// dispatchKey runs the first handler matching the key in the current state.
// Keys no handler matches are dropped.
func dispatchKey(handlers []keyHandler, session *learn.Session, key string) error {
	state := session.State()
	for _, h := range handlers {
		if h.match(state, key) {
			return h.action(session)
		}
	}
	return nil
}

func stopLearning(*learn.Session) error { return errStopLearning }

func learning(s learn.State) bool {
	return s.Stage == learn.Learning
}

func judging(s learn.State) bool {
	return learning(s) && !s.Learning.ShowMode
}

func reviewing(s learn.State) bool {
	return learning(s) && s.Learning.ShowMode
}

func hasFailures(s learn.State) bool {
	return s.Stage == learn.Done && s.Done.Failures > 0
}

func is(key string, keys ...string) bool {
	for _, k := range keys {
		if key == k {
			return true
		}
	}
	return false
}

// learnKeys is ordered by priority
var learnKeys = []keyHandler{
	{
		match:  func(_ learn.State, key string) bool { return is(key, "q", "Q", keyCtrlC, keyEscape) },
		action: stopLearning,
	},
	{
		match:  func(s learn.State, key string) bool { return judging(s) && is(key, "y", "Y") },
		action: (*learn.Session).MarkSuccess,
	},
	{
		match:  func(s learn.State, key string) bool { return judging(s) && is(key, "n", "N") },
		action: (*learn.Session).MarkFailure,
	},
	{
		match: func(s learn.State, key string) bool {
			return judging(s) && !s.Learning.Revealed && is(key, "s", "S", " ")
		},
		action: (*learn.Session).Reveal,
	},
	{
		// show mode only walks forward
		match:  func(s learn.State, key string) bool { return reviewing(s) && is(key, keyEnter, " ", "n", "N") },
		action: (*learn.Session).MarkFailure,
	},
	{
		match:  func(s learn.State, key string) bool { return s.Stage == learn.Done && is(key, "r", "R") },
		action: (*learn.Session).RestartWithAllCards,
	},
	{
		match:  func(s learn.State, key string) bool { return hasFailures(s) && is(key, "f", "F") },
		action: (*learn.Session).RestartWithFailures,
	},
	{
		match:  func(s learn.State, key string) bool { return hasFailures(s) && is(key, "v", "V") },
		action: (*learn.Session).ShowFailures,
	},
	{
		match:  func(s learn.State, key string) bool { return s.Stage == learn.Done && is(key, keyEnter) },
		action: stopLearning,
	},
}

func init() {
	RootCmd.AddCommand(learnCmd)
}
