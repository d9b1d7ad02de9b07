// Copyright © 2024 The wlscope authors

package diagnostic

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorMode controls when ANSI color codes are used.
type ColorMode int

const (
	ColorAuto   ColorMode = iota // detect based on terminal and NO_COLOR
	ColorAlways                  // always use colors
	ColorNever                   // never use colors
)

// ParseColorMode parses "auto", "always" or "never".
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	}
	return ColorAuto, fmt.Errorf("unknown color mode %q (want auto, always or never)", s)
}

type styleFunc func(a ...interface{}) string

// palette holds the styles of diagnostic output.
type palette struct {
	bold     styleFunc
	yellow   styleFunc
	boldRed  styleFunc
	boldBlue styleFunc
	boldCyan styleFunc
}

func newPalette(enabled bool) palette {
	style := func(attrs ...color.Attribute) styleFunc {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return palette{
		bold:     style(color.Bold),
		yellow:   style(color.FgYellow, color.Bold),
		boldRed:  style(color.FgRed, color.Bold),
		boldBlue: style(color.FgBlue, color.Bold),
		boldCyan: style(color.FgCyan, color.Bold),
	}
}

// choosePalette selects the palette for mode and the writer w.
func choosePalette(mode ColorMode, w io.Writer) palette {
	switch mode {
	case ColorAlways:
		return newPalette(true)
	case ColorNever:
		return newPalette(false)
	default: // ColorAuto
		if os.Getenv("NO_COLOR") != "" {
			return newPalette(false)
		}
		return newPalette(IsTerminal(w))
	}
}

// IsTerminal reports whether w is a file connected to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
