package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const statusLabelWidth = 16

// styler writes labelled status lines, coloring them when the target is a
// terminal.
type styler struct {
	out     io.Writer
	colored bool
}

func newStyler(out io.Writer) *styler {
	s := &styler{out: out}
	if file, ok := out.(*os.File); ok {
		fd := file.Fd()
		s.colored = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	return s
}

func (s *styler) heading(title string) {
	banner := fmt.Sprintf("== %s ==", title)
	fmt.Fprintln(s.out, s.paint(text.FgBlue, banner))
	fmt.Fprintln(s.out, s.paint(text.FgBlue, strings.Repeat("-", len(banner))))
}

func (s *styler) line(label string, kind statusKind, detail string) {
	badge := "[" + kindBadge(kind) + "]"
	if detail != "" {
		badge += " " + detail
	}
	rendered := fmt.Sprintf("  %-*s %s", statusLabelWidth, label+":", badge)
	fmt.Fprintln(s.out, s.paint(kindColor(kind), rendered))
}

func (s *styler) blank() {
	fmt.Fprintln(s.out)
}

func (s *styler) paint(color text.Color, value string) string {
	if !s.colored {
		return value
	}
	return color.Sprint(value)
}

func kindBadge(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func kindColor(kind statusKind) text.Color {
	switch kind {
	case statusOK:
		return text.FgGreen
	case statusWarn:
		return text.FgYellow
	case statusError:
		return text.FgRed
	default:
		return text.FgBlue
	}
}
