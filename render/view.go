// Package render draws boards on a terminal.
package render

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/tonobo/autopilot"
)

var (
	styleEmpty = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleHead  = tcell.StyleDefault.Foreground(tcell.ColorLime).Bold(true)
	styleBody  = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleFood  = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	stylePath  = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleText  = tcell.StyleDefault
)

const (
	runeEmpty = '·'
	runeHead  = '@'
	runeBody  = 'o'
	runeFood  = '*'
	runePath  = '+'
)

// View draws one board per tick. Row 0 holds a status line; the grid
// starts on row 1.
type View struct {
	screen tcell.Screen
}

func NewView(s tcell.Screen) *View {
	return &View{screen: s}
}

func (v *View) Draw(b autopilot.BoardState, path autopilot.Path, status string) {
	v.screen.Clear()
	for i, r := range status {
		v.screen.SetContent(i, 0, r, nil, styleText)
	}
	for row := 0; row < b.Height; row++ {
		for col := 0; col < b.Width; col++ {
			v.put(autopilot.Cell{Col: col, Row: row}, runeEmpty, styleEmpty)
		}
	}
	for _, c := range path {
		v.put(c, runePath, stylePath)
	}
	if len(b.Snake) > 0 {
		v.put(b.Food, runeFood, styleFood)
	}
	for i := len(b.Snake) - 1; i >= 0; i-- {
		if i == 0 {
			v.put(b.Snake[i], runeHead, styleHead)
		} else {
			v.put(b.Snake[i], runeBody, styleBody)
		}
	}
	v.screen.Show()
}

func (v *View) put(c autopilot.Cell, r rune, st tcell.Style) {
	v.screen.SetContent(c.Col, c.Row+1, r, nil, st)
}

// Record draws the board of a dispatched move.
func (v *View) Record(rec autopilot.TickRecord) error {
	status := fmt.Sprintf("tick %d  score %d  move %s", rec.Tick, rec.Board.Score, rec.Move)
	if rec.Fallback {
		status += "  (survival)"
	}
	v.Draw(rec.Board, rec.Path, status)
	return nil
}
