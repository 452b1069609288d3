package view

import (
	"bytes"
	"eggsnake/src/events"
	"fmt"
	"github.com/jroimartin/gocui"
	"github.com/logrusorgru/aurora"
	"github.com/mattn/go-runewidth"
	"strings"
	"time"
)

type keyBindings struct {
	key      interface{}
	name     string
	descr    string
	handler  func(v *gocui.View) error
	viewName string
}

//ConsoleUI shows the event feed in a gocui window
type ConsoleUI struct {
	f *Feed
	g *gocui.Gui
	k []keyBindings
}

const (
	leftColumnWidth = 32
	minWindowHeight = 12
)

func NewConsoleUI() (*ConsoleUI, error) {
	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return nil, err
	}
	t := &ConsoleUI{g: g}
	t.k = []keyBindings{
		{gocui.KeyCtrlC,
			"^C",
			"Exit",
			t.cmdQuit,
			""},
		{'q',
			"Q",
			"Exit",
			t.cmdQuit,
			""},
		{'c',
			"C",
			"Clear",
			t.cmdClear,
			""},
	}
	t.g.SetManagerFunc(t.layout)
	if err := t.initKeyBindings(t.k); err != nil {
		t.g.Close()
		return nil, err
	}
	return t, nil
}

func (t *ConsoleUI) initKeyBindings(k []keyBindings) error {
	for _, kb := range k {
		h := kb.handler
		if err := t.g.SetKeybinding(kb.viewName, kb.key, gocui.ModNone, func(gui *gocui.Gui, view *gocui.View) error { return h(view) }); err != nil {
			return err
		}
	}
	return nil
}

func (t *ConsoleUI) Register(f *Feed) {
	t.f = f
}

//Start runs the UI until the exit key, the terminal is restored on return
func (t *ConsoleUI) Start() error {
	defer t.g.Close()
	if err := t.g.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}
	return nil
}

//Refresh can be called from any goroutine
func (t *ConsoleUI) Refresh() {
	t.g.Update(func(g *gocui.Gui) error {
		t.renderEvents(g)
		t.renderStatus(g)
		return nil
	})
}

func (t *ConsoleUI) renderEvents(g *gocui.Gui) {
	v, err := g.View("events")
	if err != nil {
		return
	}
	v.Clear()
	maxW, maxH := v.Size()
	entries := t.f.Entries()
	//only the tail fits
	if len(entries) > maxH {
		entries = entries[len(entries)-maxH:]
	}
	var b bytes.Buffer
	for i, e := range entries {
		if i != 0 {
			b.WriteByte('\n')
		}
		stamp := e.At.Format("15:04:05.000") + " "
		b.WriteString(stamp)
		b.WriteString(colorize(Entry{Kind: e.Kind, Text: fit(e.Text, maxW-len(stamp))}))
	}
	_, _ = fmt.Fprint(v, b.String())
}

func (t *ConsoleUI) renderStatus(g *gocui.Gui) {
	v, err := g.View("status")
	if err != nil {
		return
	}
	s := t.f.Status()
	v.Clear()
	_, _ = fmt.Fprintln(v, t.renderProp("Received", "%v", s.Received))
	_, _ = fmt.Fprintln(v, t.renderProp("Lagged", "%v", s.Lagged))
	_, _ = fmt.Fprintln(v, t.renderProp("Errors", "%v", s.Errors))
	_, _ = fmt.Fprintln(v, t.renderProp("Uptime", "%v", time.Since(s.Started).Round(time.Second)))
	if !s.Last.IsZero() {
		_, _ = fmt.Fprintln(v, t.renderProp("Last", "%v", s.Last.Format("15:04:05")))
	}
}

func (t *ConsoleUI) renderProp(name string, valueformat string, values ...interface{}) string {
	return fmt.Sprintf(" "+aurora.Colorize(name, aurora.GreenFg).String()+": "+valueformat, values...)
}

func (t *ConsoleUI) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()

	if maxY < minWindowHeight || maxX < leftColumnWidth*2 {
		if _, err := t.headerLayout(g, maxY, "Terminal too small"); err != nil && err != gocui.ErrUnknownView {
			return err
		}
		_ = g.DeleteView("status")
		_ = g.DeleteView("events")
		_ = g.DeleteView("help")
		return nil
	}
	if _, err := t.headerLayout(g, 2, "eggsnake "+events.LogEvent+" monitor"); err != nil && err != gocui.ErrUnknownView {
		return err
	}

	if v, err := g.SetView("status", 0, 3, leftColumnWidth, maxY-3); err != nil {
		if err != gocui.ErrUnknownView || v == nil {
			return err
		}
		v.Title = "Status"
		v.Frame = true
	}
	t.renderStatus(g)

	if v, err := g.SetView("events", leftColumnWidth+1, 3, maxX-1, maxY-3); err != nil {
		if err != gocui.ErrUnknownView || v == nil {
			return err
		}
		v.Title = events.BusInterface + "." + events.LogEvent
		v.Frame = true
		v.Wrap = false
	}
	t.renderEvents(g)

	if v, err := g.SetView("help", -1, maxY-3, maxX, maxY-1); err != nil {
		if err != gocui.ErrUnknownView || v == nil {
			return err
		}
		v.Frame = false
		b := bytes.Buffer{}
		b.WriteString("KEYBINDINGS: ")
		for i, k := range t.k {
			if i != 0 {
				b.WriteString(", ")
			}
			b.WriteString(aurora.Green(k.name).String())
			b.WriteString(": ")
			b.WriteString(k.descr)
		}
		_, _ = fmt.Fprintln(v, b.String())
	}
	return nil
}

func (t *ConsoleUI) headerLayout(g *gocui.Gui, height int, text string) (v *gocui.View, err error) {
	maxX, _ := g.Size()
	if v, err = g.SetView("header", -1, -1, maxX+1, height); err != nil {
		if err == gocui.ErrUnknownView && v != nil {
			v.Frame = false
			v.BgColor = gocui.ColorCyan
			v.FgColor = gocui.ColorBlack
		}
	}
	if v != nil {
		v.Clear()
		text = fit(text, maxX)
		pad := (maxX - runewidth.StringWidth(text)) / 2
		if pad < 0 {
			pad = 0
		}
		_, _ = fmt.Fprintln(v, strings.Repeat("\n", height/2)+strings.Repeat(" ", pad)+text)
	}
	return
}

func (t *ConsoleUI) cmdQuit(_ *gocui.View) error {
	return gocui.ErrQuit
}

func (t *ConsoleUI) cmdClear(_ *gocui.View) error {
	t.f.Clear()
	return nil
}

//fit truncates s to w terminal cells
func fit(s string, w int) string {
	if w <= 0 {
		return ""
	}
	return runewidth.Truncate(s, w, "…")
}
