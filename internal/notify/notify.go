// Package notify prints the leveled progress messages a generate run emits.
package notify

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Level is the severity of a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelSuccess
	LevelError
)

type style struct {
	badge string
	bg    *color.Color
	fg    *color.Color
}

// Notifier writes one badge-prefixed line per message.
type Notifier struct {
	w       io.Writer
	verbose bool
	styles  map[Level]style
}

// Option configures a Notifier.
type Option func(*Notifier, *bool)

// WithVerbose enables Verbosef output.
func WithVerbose(v bool) Option {
	return func(n *Notifier, _ *bool) { n.verbose = v }
}

// WithColor forces colour on or off. Without it colour is used only when w
// is a terminal.
func WithColor(enabled bool) Option {
	return func(_ *Notifier, c *bool) { *c = enabled }
}

// New returns a Notifier writing to w.
func New(w io.Writer, opts ...Option) *Notifier {
	n := &Notifier{w: w}
	colored := isTerminal(w)
	for _, opt := range opts {
		opt(n, &colored)
	}
	n.styles = map[Level]style{
		LevelInfo:    newStyle(" i ", color.BgBlue, color.FgBlue, colored),
		LevelWarn:    newStyle(" ⚠ ", color.BgYellow, color.FgWhite, colored),
		LevelSuccess: newStyle(" ✓ ", color.BgGreen, color.FgGreen, colored),
		LevelError:   newStyle(" ✘ ", color.BgRed, color.FgRed, colored),
	}
	return n
}

// Discard returns a Notifier that prints nothing.
func Discard() *Notifier {
	return New(io.Discard, WithColor(false))
}

func newStyle(badge string, bg, fg color.Attribute, colored bool) style {
	s := style{
		badge: badge,
		bg:    color.New(bg, color.FgBlack, color.Bold),
		fg:    color.New(fg, color.Bold),
	}
	if colored {
		s.bg.EnableColor()
		s.fg.EnableColor()
	} else {
		s.bg.DisableColor()
		s.fg.DisableColor()
	}
	return s
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (n *Notifier) print(l Level, msg string) {
	if n == nil {
		return
	}
	s := n.styles[l]
	fmt.Fprintf(n.w, "%s %s\n", s.bg.Sprint(s.badge), s.fg.Sprint(msg))
}

func (n *Notifier) Info(format string, args ...any) { n.print(LevelInfo, fmt.Sprintf(format, args...)) }
func (n *Notifier) Warn(format string, args ...any) { n.print(LevelWarn, fmt.Sprintf(format, args...)) }
func (n *Notifier) Success(format string, args ...any) {
	n.print(LevelSuccess, fmt.Sprintf(format, args...))
}
func (n *Notifier) Error(format string, args ...any) { n.print(LevelError, fmt.Sprintf(format, args...)) }

// Verbosef prints an info line only in verbose mode.
func (n *Notifier) Verbosef(format string, args ...any) {
	if n == nil || !n.verbose {
		return
	}
	n.print(LevelInfo, fmt.Sprintf(format, args...))
}

// Verbose reports whether verbose output is enabled.
func (n *Notifier) Verbose() bool {
	return n != nil && n.verbose
}
