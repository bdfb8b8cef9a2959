package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the boletim banner with the version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{` _           _      _   _           `, "#38bdf8"},
		{`| |__   ___ | | ___| |_(_)_ __ ___  `, "#60a5fa"},
		{`| '_ \ / _ \| |/ _ \ __| | '_ ` + "`" + ` _ \ `, "#818cf8"},
		{`| |_) | (_) | |  __/ |_| | | | | | |`, "#a78bfa"},
		{`|_.__/ \___/|_|\___|\__|_|_| |_| |_|`, "#c084fc"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  v"+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}
