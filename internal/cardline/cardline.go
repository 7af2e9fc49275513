// Package cardline converts flashcards to and from a single line of text.
//
// A line has the form
//
//	unknown - known
//	unknown - known / comment
//
// Inside a field, `\-`, `\/` and `\n` stand for a dash, a slash and a newline.
package cardline

import (
	"strings"

	"github.com/arcanaland/flashcards/internal/card"
)

const (
	dashDelimiter  = " - "
	slashDelimiter = " / "
)

// Kind is the outcome of decoding one line
type Kind int

const (
	Success Kind = iota
	Empty
	Failure
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Empty:
		return "empty"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// Result is the decoded form of one line. Words and Comment are set only for Success.
type Result struct {
	Kind        Kind
	Line        int // 1-based position in the decoded block
	UnknownWord string
	KnownWord   string
	Comment     *string
}

// Encode renders a card as one line of text
func Encode(c card.Card) string {
	var b strings.Builder
	b.WriteString(escape(c.UnknownWord))
	b.WriteString(dashDelimiter)
	b.WriteString(escape(c.KnownWord))
	if c.Comment != nil {
		b.WriteString(slashDelimiter)
		b.WriteString(escape(*c.Comment))
	}
	return b.String()
}

// EncodeAll renders cards one per line
func EncodeAll(cards []card.Card) string {
	lines := make([]string, len(cards))
	for i, c := range cards {
		lines[i] = Encode(c)
	}
	return strings.Join(lines, "\n")
}

// Decode parses a single line. lineNumber is carried into the result unchanged.
func Decode(line string, lineNumber int) Result {
	if strings.TrimSpace(line) == "" {
		return Result{Kind: Empty, Line: lineNumber}
	}

	bodyAndComment := strings.Split(line, slashDelimiter)
	if len(bodyAndComment) > 2 {
		return Result{Kind: Failure, Line: lineNumber}
	}

	words := strings.Split(bodyAndComment[0], dashDelimiter)
	if len(words) != 2 || isBlank(words[0]) || isBlank(words[1]) {
		return Result{Kind: Failure, Line: lineNumber}
	}

	r := Result{
		Kind:        Success,
		Line:        lineNumber,
		UnknownWord: unescape(words[0]),
		KnownWord:   unescape(words[1]),
	}
	if len(bodyAndComment) == 2 {
		comment := unescape(bodyAndComment[1])
		r.Comment = &comment
	}
	return r
}

// DecodeText decodes every line of text, numbering lines from 1
func DecodeText(text string) []Result {
	lines := SplitLines(text)
	results := make([]Result, len(lines))
	for i, line := range lines {
		results[i] = Decode(line, i+1)
	}
	return results
}

// FailedLines returns the line numbers of failed results in ascending order
func FailedLines(results []Result) []int {
	var lines []int
	for _, r := range results {
		if r.Kind == Failure {
			lines = append(lines, r.Line)
		}
	}
	return lines
}

// SplitLines splits on \n, \r\n and \r. An empty text is one empty line.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

var escaper = strings.NewReplacer(
	"-", `\-`,
	"/", `\/`,
	"\n", `\n`,
)

func escape(s string) string {
	return escaper.Replace(s)
}

// unescape is a single left-to-right pass, so `\\-` style overlaps never
// depend on replacement order. Unknown escapes are kept verbatim.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '-':
				b.WriteByte('-')
				i++
				continue
			case '/':
				b.WriteByte('/')
				i++
				continue
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
