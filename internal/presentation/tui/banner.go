package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`     _             _          `, "#34d399"},
	{`    / \   _ __ ___| |__   ___ `, "#2dd4bf"},
	{`   / _ \ | '__/ __| '_ \ / _ \`, "#22d3ee"},
	{`  / ___ \| | | (__| | | |  __/`, "#38bdf8"},
	{` /_/   \_\_|  \___|_| |_|\___|`, "#60a5fa"},
}

// Banner returns the ASCII art banner colored for the given profile.
// termenv.Ascii yields plain text.
func Banner(p termenv.Profile) string {
	var sb strings.Builder
	sb.WriteString("\n")
	for _, l := range bannerLines {
		sb.WriteString(termenv.String(l.text).Foreground(p.Color(l.color)).String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// PrintBanner writes the banner to w using the terminal's color profile.
func PrintBanner(w io.Writer) {
	fmt.Fprintln(w, Banner(termenv.NewOutput(w).ColorProfile()))
}
