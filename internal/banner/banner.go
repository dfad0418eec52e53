// Package banner prints the startup ASCII header.
package banner

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

const art = `
    ██████╗ ██╗    ██╗███╗   ██╗██████╗  ██████╗ ██╗  ██╗
    ██╔══██╗██║    ██║████╗  ██║██╔══██╗██╔═══██╗╚██╗██╔╝
    ██████╔╝██║ █╗ ██║██╔██╗ ██║██████╔╝██║   ██║ ╚███╔╝
    ██╔═══╝ ██║███╗██║██║╚██╗██║██╔══██╗██║   ██║ ██╔██╗
    ██║     ╚███╔███╔╝██║ ╚████║██████╔╝╚██████╔╝██╔╝ ██╗
    ╚═╝      ╚══╝╚══╝ ╚═╝  ╚═══╝╚═════╝  ╚═════╝ ╚═╝  ╚═╝
`

// Print writes the banner and a centered version subtitle to w.
func Print(w io.Writer, version string) {
	fmt.Fprint(w, color.RedString(art))

	subtitle := fmt.Sprintf("%s - Made by @DeadPackets", version)
	width := len(strings.Split(art, "\n")[1])
	fmt.Fprintf(w, "%s\n\n", color.BlueString("%s", center(subtitle, width)))
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	pad := (width - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}
