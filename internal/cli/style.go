package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/morikuni/aec"
)

// style colours output only when it goes straight to a terminal.
type style struct {
	color bool
}

func newStyle(w io.Writer) style {
	f, ok := w.(*os.File)
	if !ok {
		return style{}
	}
	return style{color: isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())}
}

func (s style) apply(a aec.ANSI, str string) string {
	if !s.color {
		return str
	}
	return a.Apply(str)
}

func (s style) clockedIn(str string) string  { return s.apply(aec.GreenF.With(aec.Bold), str) }
func (s style) clockedOut(str string) string { return s.apply(aec.YellowF, str) }

func (s style) errorf(format string, args ...any) string {
	return s.apply(aec.RedF, fmt.Sprintf(format, args...))
}
