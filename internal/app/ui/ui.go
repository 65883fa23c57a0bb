package ui

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"golang.org/x/term"
)

const AsciiArt = `
██╗   ██╗███████╗██████╗ ██╗██████╗
██║   ██║██╔════╝██╔══██╗██║██╔══██╗
██║   ██║█████╗  ██████╔╝██║██║  ██║
╚██╗ ██╔╝██╔══╝  ██╔══██╗██║██║  ██║
 ╚████╔╝ ███████╗██║  ██║██║██████╔╝
  ╚═══╝  ╚══════╝╚═╝  ╚═╝╚═╝╚═════╝
`

const (
	ColorReset  = "\033[0m"
	ColorGray   = "\033[90m"
	ColorWhite  = "\033[97m"
	ColorRed    = "\033[91m"
	ColorGreen  = "\033[92m"
	ColorYellow = "\033[93m"
	ColorBlue   = "\033[94m"
)

var colorEnabled atomic.Bool

func init() {
	colorEnabled.Store(term.IsTerminal(int(os.Stdout.Fd())) && os.Getenv("NO_COLOR") == "")
}

// SetColor forces colouring on or off, e.g. for --no-color or JSON output.
func SetColor(on bool) {
	colorEnabled.Store(on)
}

func ColorEnabled() bool {
	return colorEnabled.Load()
}

// Paint wraps s in color when stdout is a colour terminal.
func Paint(color, s string) string {
	if !colorEnabled.Load() || color == "" {
		return s
	}
	return color + s + ColorReset
}

// PrintGradientAsciiArt prints the banner with a yellow to blue gradient.
func PrintGradientAsciiArt() {
	lines := strings.Split(strings.Trim(AsciiArt, "\n"), "\n")
	if !colorEnabled.Load() {
		fmt.Println(strings.Join(lines, "\n"))
		return
	}
	for i, line := range lines {
		ratio := float64(i) / float64(len(lines)-1)

		var r, g, b int
		if ratio < 0.5 {
			local := ratio * 2
			r = int(255 * (1 - local))
			g = 255
			b = int(255 * local)
		} else {
			local := (ratio - 0.5) * 2
			g = int(255 * (1 - local))
			b = 255
		}
		fmt.Printf("\033[38;2;%d;%d;%dm%s\033[0m\n", r, g, b, line)
	}
}
