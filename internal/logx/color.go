package logx

import (
	"io"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
)

const (
	colorGreen  = "\033[97;42m"
	colorYellow = "\033[90;43m"
	colorRed    = "\033[97;41m"
	colorBlue   = "\033[97;44m"
	colorReset  = "\033[0m"
)

// ColorizeStatusWith wraps the status code in an ANSI background matching its class.
func ColorizeStatusWith(status int, color bool) string {
	s := strconv.Itoa(status)
	if !color {
		return s
	}
	var c string
	switch {
	case status >= 500:
		c = colorRed
	case status >= 400:
		c = colorYellow
	case status >= 300:
		c = colorBlue
	default:
		c = colorGreen
	}
	return c + " " + s + " " + colorReset
}

// IsTerminal reports whether w is a terminal that accepts ANSI colors.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
