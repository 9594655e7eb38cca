package magiskbuild

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gookit/color"
	"golang.org/x/term"
)

// color-compatible printer interface (works with *color.Theme and *color.Style)
type colorPrinter interface {
	Printf(format string, a ...any)
	Println(a ...any)
}

// cPrintf prints with a colored style or falls back to fmt.Printf when nil
func cPrintf(p colorPrinter, format string, a ...any) {
	if p == nil {
		fmt.Printf(format, a...)
		return
	}
	p.Printf(format, a...)
}

// logger prints debug traces when w is set, which --verbose does.
type logger struct {
	w io.Writer
}

func newLogger(verbose bool) logger {
	if verbose {
		return logger{w: os.Stdout}
	}
	return logger{}
}

func (l logger) debugf(format string, args ...any) {
	if l.w != nil {
		fmt.Fprintf(l.w, format, args...)
	}
}

// step prints a "-> msg" progress line.
func step(format string, args ...any) {
	colArrow.Print("-> ")
	colSuccess.Println(fmt.Sprintf(format, args...))
}

// header prints a banner line the same way for every pipeline stage.
func header(msg string) {
	fmt.Println()
	for _, line := range strings.Split(msg, "\n") {
		colHeader.Println(line)
	}
	fmt.Println()
}

// fatal prints the error banner to w. Callers decide the exit code.
func fatal(w io.Writer, err error) {
	fmt.Fprintln(w)
	for _, line := range strings.Split("! "+err.Error(), "\n") {
		fmt.Fprintln(w, colFatal.Sprint(line))
	}
	fmt.Fprintln(w)
}

// setupColor turns rendering off when stdout is not a terminal.
func setupColor() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		color.Enable = false
	}
}
