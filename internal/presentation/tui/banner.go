package tui

import (
	"fmt"
	"io"

	"github.com/aretw0/screener/pkg/domain"
	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"  ____                                      ",
	" / ___|  ___ _ __ ___  ___ _ __   ___ _ __ ",
	" \\___ \\ / __| '__/ _ \\/ _ \\ '_ \\ / _ \\ '__|",
	"  ___) | (__| | |  __/  __/ | | |  __/ |   ",
	" |____/ \\___|_|  \\___|\\___|_| |_|\\___|_|   ",
}

var bannerColors = []string{"#34d399", "#2dd4bf", "#22d3ee", "#38bdf8", "#60a5fa"}

// PrintBanner writes the Screener banner with the company and version to w.
func PrintBanner(w io.Writer, company, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, out.String(line).Foreground(p.Color(bannerColors[i])))
	}
	fmt.Fprintln(w, out.String(fmt.Sprintf("  %s screening interview · v%s", company, version)).Faint())
	fmt.Fprintln(w)
}

// PrintOutcome writes a colored one-line summary of a finished interview.
func PrintOutcome(w io.Writer, sess *domain.Session) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	color := "#facc15"
	switch sess.State.Outcome {
	case domain.OutcomeAccepted:
		color = "#22c55e"
	case domain.OutcomeRejected:
		color = "#ef4444"
	}
	label := out.String(string(sess.State.Outcome)).Foreground(p.Color(color)).Bold()
	fmt.Fprintf(w, "\nOutcome: %s (stage %s)\n", label, sess.Current)
}
