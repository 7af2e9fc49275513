package cmd

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	colorize "github.com/fatih/color"

	"github.com/arcanaland/flashcards/internal/learn"
)

const (
	clearScreen  = "\x1b[H\x1b[2J"
	defaultWidth = 80
)

// view draws learn states on a raw-mode terminal, one full frame per state
type view struct {
	w     io.Writer
	width func() int
}

func newView(w io.Writer, width func() int) *view {
	return &view{w: w, width: width}
}

func (v *view) render(s learn.State) {
	fmt.Fprint(v.w, clearScreen+strings.Join(v.frame(s), "\r\n")+"\r\n")
}

func (v *view) frame(s learn.State) []string {
	width := defaultWidth
	if v.width != nil {
		if w := v.width(); w > 0 {
			width = w
		}
	}

	var lines []string
	switch s.Stage {
	case learn.NotReady:
		lines = []string{"", colorize.HiBlackString("Loading...")}
	case learn.Empty:
		lines = []string{
			"",
			colorize.YellowString("This list no longer exists"),
			"",
			hint("q", "quit"),
		}
	case learn.Learning:
		lines = learningLines(s.Learning, width)
	case learn.Done:
		lines = doneLines(s.Done)
	}

	for i, line := range lines {
		lines[i] = center(line, width)
	}
	return lines
}

func learningLines(l *learn.LearningState, width int) []string {
	lines := []string{
		colorize.CyanString("Learning ") + colorize.HiWhiteString(l.List.Name),
		colorize.HiBlackString("%d of %d", l.Index+1, l.Total),
		"",
		l.Prompt(),
		"",
	}

	if !l.Revealed {
		lines = append(lines, wrap(l.Card.KnownWord, width, colorize.HiWhiteString)...)
		lines = append(lines, "", hint("n", "no")+"   "+hint("s", "show")+"   "+hint("y", "yes"))
		return lines
	}

	lines = append(lines, wrap(l.Card.KnownWord, width, colorize.HiBlackString)...)
	lines = append(lines, wrap(l.Card.UnknownWord, width, colorize.HiWhiteString)...)
	if comment := l.Card.CommentText(); comment != "" {
		lines = append(lines, wrap(comment, width, colorize.HiBlackString)...)
	}
	lines = append(lines, "")

	if l.ShowMode {
		label := "next"
		if l.IsLast() {
			label = "done"
		}
		lines = append(lines, hint("enter", label))
	} else {
		lines = append(lines, hint("n", "no")+"   "+hint("y", "yes"))
	}
	return lines
}

func doneLines(d *learn.DoneState) []string {
	lines := []string{
		colorize.GreenString("Done! You remember %d of %d", d.Success, d.Total),
		"",
		hint("r", "restart all"),
	}
	if d.Failures > 0 {
		lines = append(lines,
			"",
			fmt.Sprintf("Try to remember %d more?", d.Failures),
			hint("v", "show them")+"   "+hint("f", "restart them"),
		)
	}
	return append(lines, "", hint("enter", "finish"))
}

func hint(key, label string) string {
	return colorize.CyanString("[%s]", key) + " " + label
}

// wrap splits text on its explicit line breaks and wraps each part to width
func wrap(text string, width int, paint func(string, ...interface{}) string) []string {
	var out []string
	for _, part := range strings.Split(text, "\n") {
		for _, line := range wrapText(part, width-4) {
			out = append(out, paint("%s", line))
		}
	}
	return out
}

// wrapText wraps text to a specified width. Runs of spaces inside a line are
// kept; spaces at the ends and where a line is broken are dropped.
func wrapText(text string, width int) []string {
	if width < 10 {
		width = 40
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return []string{""}
	}

	words := strings.Split(text, " ")
	var result []string
	current := words[0]
	for _, word := range words[1:] {
		switch {
		case utf8.RuneCountInString(current)+1+utf8.RuneCountInString(word) <= width:
			current += " " + word
		case word == "":
		default:
			result = append(result, current)
			current = word
		}
	}
	return append(result, current)
}

func center(line string, width int) string {
	visible := utf8.RuneCountInString(stripAnsi(line))
	if visible >= width {
		return line
	}
	return strings.Repeat(" ", (width-visible)/2) + line
}

// stripAnsi removes ANSI escape sequences from a string
func stripAnsi(s string) string {
	var result strings.Builder
	inEscape := false
	for _, c := range s {
		if inEscape {
			if c == 'm' {
				inEscape = false
			}
		} else if c == '\033' {
			inEscape = true
		} else {
			result.WriteRune(c)
		}
	}
	return result.String()
}
