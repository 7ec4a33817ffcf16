// cmd/fmaview/main.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// fmaview steps through a recorded flight-guidance trace in the terminal,
// showing the flight mode annunciator for each frame.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mmp/autoflight/recorder"

	"github.com/apenwarr/fixconsole"
	"github.com/gdamore/tcell/v2"
)

type viewer struct {
	hdr    recorder.Header
	frames []recorder.Frame
	cur    int
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: fmaview trace.afr\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := fixconsole.FixConsoleIfNeeded(); err != nil {
		fmt.Printf("FixConsole: %v\n", err)
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	hdr, frames, err := recorder.ReadAll(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}
	if len(frames) == 0 {
		fmt.Printf("%s: no frames recorded\n", flag.Arg(0))
		return
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing screen: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()

	screen.SetStyle(tcell.StyleDefault.
		Background(tcell.ColorReset).
		Foreground(tcell.ColorReset))

	v := &viewer{hdr: hdr, frames: frames}
	for {
		v.render(screen)
		screen.Show()

		if !v.handleEvent(screen.PollEvent(), screen) {
			return
		}
	}
}

// handleEvent returns false when the viewer should exit.
func (v *viewer) handleEvent(ev tcell.Event, screen tcell.Screen) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		screen.Sync()

	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyRight:
			v.seek(v.cur + 1)
		case tcell.KeyLeft:
			v.seek(v.cur - 1)
		case tcell.KeyDown, tcell.KeyPgDn:
			v.seek(v.cur + 10)
		case tcell.KeyUp, tcell.KeyPgUp:
			v.seek(v.cur - 10)
		case tcell.KeyHome:
			v.seek(0)
		case tcell.KeyEnd:
			v.seek(len(v.frames) - 1)
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case 'n':
				v.seek(nextChange(v.frames, v.cur, 1))
			case 'p':
				v.seek(nextChange(v.frames, v.cur, -1))
			}
		}
	}
	return true
}

func (v *viewer) seek(i int) {
	v.cur = max(0, min(i, len(v.frames)-1))
}

const columnWidth = 14

func (v *viewer) render(screen tcell.Screen) {
	screen.Clear()
	width, height := screen.Size()

	styleHeader := tcell.StyleDefault.Bold(true).Reverse(true)
	styleActive := tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleArmed := tcell.StyleDefault.Foreground(tcell.ColorTeal)
	styleWhite := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleFlag := tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleChanged := tcell.StyleDefault.Foreground(tcell.ColorFuchsia)
	styleHelp := tcell.StyleDefault.Foreground(tcell.ColorGray)

	f := &v.frames[v.cur]
	drawText(screen, 0, 0, width, styleHeader,
		fmt.Sprintf(" %s  profile %s  t=%.2f  frame %d/%d ", v.hdr.Source, v.hdr.Profile.Name, f.Time,
			v.cur+1, len(v.frames)))

	fma := MakeFMA(f)
	columns := []struct {
		active, armed string
	}{
		{fma.Autothrust, ""},
		{fma.Vertical, fma.VerticalArmed},
		{fma.Lateral, fma.LateralArmed},
		{"", ""},
		{fma.APFD, ""},
	}
	for i, c := range columns {
		x := 1 + i*(columnWidth+1)
		if x >= width {
			break
		}
		if i > 0 {
			for y := 2; y < 5; y++ {
				screen.SetContent(x-1, y, tcell.RuneVLine, nil, styleWhite)
			}
		}
		style := styleActive
		if i == 4 {
			style = styleWhite
		}
		drawText(screen, x, 2, columnWidth, style, center(c.active, columnWidth))
		drawText(screen, x, 3, columnWidth, styleArmed, center(c.armed, columnWidth))
	}
	drawText(screen, 1, 5, width-1, styleFlag, strings.Join(fma.Flags, "  "))

	// Surrounding frames, with mode changes highlighted.
	y := 7
	for i := max(0, v.cur-(height-10)/2); i < len(v.frames) && y < height-2; i++ {
		fr := &v.frames[i]
		m := MakeFMA(fr)
		style := styleHelp
		if i == v.cur {
			style = tcell.StyleDefault.Reverse(true)
		} else if i > 0 && modesChanged(&v.frames[i-1].Output, &fr.Output) {
			style = styleChanged
		}
		drawText(screen, 0, y, width, style, fmt.Sprintf(" %8.2f  %-9s %-10s %-14s %-10s %-9s %s", fr.Time,
			m.Autothrust, m.Vertical, m.VerticalArmed, m.Lateral, m.LateralArmed, m.APFD))
		y++
	}

	drawText(screen, 0, height-1, width, styleHelp,
		" [←/→]=Step  [↑/↓]=10 frames  [n/p]=Next/previous mode change  [Home/End]  [q]=Quit ")
}

func center(s string, w int) string {
	r := []rune(s)
	if len(r) >= w {
		return string(r[:w])
	}
	return strings.Repeat(" ", (w-len(r))/2) + s
}

func drawText(screen tcell.Screen, x, y, maxWidth int, style tcell.Style, text string) {
	col := 0
	for _, r := range text {
		if col >= maxWidth {
			break
		}
		screen.SetContent(x+col, y, r, nil, style)
		col++
	}
	for col < maxWidth {
		screen.SetContent(x+col, y, ' ', nil, style)
		col++
	}
}
