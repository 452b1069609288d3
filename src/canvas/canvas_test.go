package canvas

import (
	"eggsnake/src/events"
	"eggsnake/src/world"
	"errors"
	"github.com/gdamore/tcell/v2"
	"strings"
	"sync"
	"testing"
	"time"
)

//trackedScreen counts the terminal restorations
type trackedScreen struct {
	tcell.SimulationScreen
	mu   sync.Mutex
	fini int
}

func (s *trackedScreen) Fini() {
	s.mu.Lock()
	s.fini++
	s.mu.Unlock()
	s.SimulationScreen.Fini()
}

func (s *trackedScreen) finiCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fini
}

type recordSink struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recordSink) Emit(msg string) {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
}

func (r *recordSink) has(sub string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.msgs {
		if strings.Contains(m, sub) {
			return true
		}
	}
	return false
}

func newScreen(t *testing.T, w int, h int) *trackedScreen {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	if err := sim.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	sim.SetSize(w, h)
	return &trackedScreen{SimulationScreen: sim}
}

func newCanvas(t *testing.T, sink *recordSink) (*Canvas, *trackedScreen) {
	t.Helper()
	if sink == nil {
		sink = &recordSink{}
	}
	screen := newScreen(t, MinWidth, MinHeight)
	c, err := New(screen, sink)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.SetSleep(func(time.Duration) { time.Sleep(time.Millisecond) })
	t.Cleanup(c.CleanUp)
	return c, screen
}

func newGame(t *testing.T) (*world.Snake, *world.Food) {
	t.Helper()
	s, err := world.NewSnake(4, 8, 4, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	return s, world.NewFood(0, MinWidth, MinHeight, nil)
}

func animate(t *testing.T, c *Canvas, s *world.Snake, f *world.Food, u Updater) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- c.Animate(s, f, u) }()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("Animate did not return")
		return nil
	}
}

func TestNewTooSmall(t *testing.T) {
	cases := map[string][2]int{
		"narrow": {MinWidth - 1, MinHeight},
		"short":  {MinWidth, MinHeight - 1},
		"both":   {80, 25},
	}
	for name, size := range cases {
		t.Run(name, func(t *testing.T) {
			screen := newScreen(t, size[0], size[1])
			c, err := New(screen, nil)
			if !errors.Is(err, ErrTerminalTooSmall) || c != nil {
				t.Fatalf("New = %v, %v, want ErrTerminalTooSmall", c, err)
			}
			if screen.finiCount() != 1 {
				t.Errorf("terminal restored %d times, want 1", screen.finiCount())
			}
		})
	}
}

func TestNewLargeTerminal(t *testing.T) {
	sink := &recordSink{}
	screen := newScreen(t, 200, 60)
	c, err := New(screen, sink)
	if err != nil {
		t.Fatal(err)
	}
	defer c.CleanUp()
	if w, h := c.Size(); w != MinWidth || h != MinHeight {
		t.Errorf("grid = %dx%d, want %dx%d", w, h, MinWidth, MinHeight)
	}
	if !sink.has("initializing canvas (width: 160, height: 40") {
		t.Errorf("events = %q", sink.msgs)
	}
}

func TestNewWithoutSink(t *testing.T) {
	screen := newScreen(t, MinWidth, MinHeight)
	c, err := New(screen, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.CleanUp()
	if _, ok := c.sink.(events.Nop); !ok {
		t.Errorf("sink = %T, want events.Nop", c.sink)
	}
	if err := c.OnResize(MinWidth, MinHeight); err != nil {
		t.Errorf("OnResize: %v", err)
	}
}

func TestRebuildBorder(t *testing.T) {
	c, _ := newCanvas(t, nil)
	c.Stamp(world.Position{X: 5, Y: 5}, SnakeGlyph)
	c.RebuildBorder()

	w, h := c.Size()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			vEdge := x == 0 || x == w-1
			hEdge := y == 0 || y == h-1
			want := Blank
			switch {
			case vEdge && hEdge:
				want = Corner
			case vEdge:
				want = VertEdge
			case hEdge:
				want = HorizEdge
			}
			if got := c.Cell(x, y); got != want {
				t.Fatalf("cell (%d,%d) = %q, want %q", x, y, got, want)
			}
		}
	}
	for _, p := range [][2]int{{0, 0}, {w - 1, 0}, {0, h - 1}, {w - 1, h - 1}} {
		if c.Cell(p[0], p[1]) != Corner {
			t.Errorf("no corner at %v", p)
		}
	}
}

func TestStampOutside(t *testing.T) {
	c, _ := newCanvas(t, nil)
	c.RebuildBorder()
	for _, p := range []world.Position{{X: -1, Y: 0}, {X: 0, Y: -1}, {X: MinWidth, Y: 0}, {X: 0, Y: MinHeight}} {
		c.Stamp(p, EggGlyph)
	}
	for _, r := range c.buffer {
		if r == EggGlyph {
			t.Fatal("stamp outside the grid reached the buffer")
		}
	}
}

func TestFlush(t *testing.T) {
	c, screen := newCanvas(t, nil)
	c.RebuildBorder()
	c.Stamp(world.Position{X: 3, Y: 2}, EggGlyph)
	c.flush()

	cells, w, _ := screen.GetContents()
	at := func(x, y int) rune {
		r := cells[y*w+x].Runes
		if len(r) == 0 {
			return 0
		}
		return r[0]
	}
	if at(0, 0) != Corner || at(1, 0) != HorizEdge || at(0, 1) != VertEdge {
		t.Errorf("border not flushed")
	}
	if at(3, 2) != EggGlyph {
		t.Errorf("cell (3,2) = %q, want %q", at(3, 2), EggGlyph)
	}
}

func TestDraw(t *testing.T) {
	c, _ := newCanvas(t, nil)
	s, _ := newGame(t)
	f := world.NewFood(3, MinWidth, MinHeight, nil)

	if err := Draw(c, s, f, MinWidth, MinHeight); err != nil {
		t.Fatal(err)
	}
	for _, x := range []int{8, 9, 10, 11} {
		if c.Cell(x, 4) != SnakeGlyph {
			t.Errorf("no snake at (%d,4)", x)
		}
	}
	if s.Head() != (world.Position{X: 12, Y: 4}) {
		t.Errorf("head = %v, want (12,4)", s.Head())
	}
	eggs := 0
	for _, r := range c.buffer {
		if r == EggGlyph {
			eggs++
		}
	}
	if eggs == 0 {
		t.Error("no egg stamped")
	}
}

func TestAnimateQuit(t *testing.T) {
	for name, key := range map[string]func(tcell.SimulationScreen){
		"q":      func(s tcell.SimulationScreen) { s.InjectKey(tcell.KeyRune, 'q', tcell.ModNone) },
		"escape": func(s tcell.SimulationScreen) { s.InjectKey(tcell.KeyEscape, 0, tcell.ModNone) },
	} {
		t.Run(name, func(t *testing.T) {
			c, screen := newCanvas(t, nil)
			s, f := newGame(t)
			ticks := 0
			count := UpdateFunc(func(c *Canvas, s *world.Snake, f *world.Food, w, h int) error {
				ticks++
				return Draw(c, s, f, w, h)
			})

			key(screen.SimulationScreen)
			if err := animate(t, c, s, f, count); err != nil {
				t.Fatalf("Animate: %v", err)
			}
			if ticks == 0 {
				t.Error("no tick before quit")
			}
			if screen.finiCount() != 1 {
				t.Errorf("terminal restored %d times, want 1", screen.finiCount())
			}
			c.CleanUp()
			if screen.finiCount() != 1 {
				t.Errorf("CleanUp is not idempotent")
			}
		})
	}
}

func TestAnimateTurns(t *testing.T) {
	c, screen := newCanvas(t, nil)
	s, f := newGame(t)

	screen.InjectKey(tcell.KeyUp, 0, tcell.ModNone)
	screen.InjectKey(tcell.KeyDown, 0, tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, 'x', tcell.ModNone)
	screen.InjectKey(tcell.KeyLeft, 0, tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	if err := animate(t, c, s, f, UpdateFunc(Draw)); err != nil {
		t.Fatalf("Animate: %v", err)
	}
	if s.Direction() != world.Left {
		t.Errorf("direction = %v, want Left", s.Direction())
	}
	if s.Len() != 4 {
		t.Errorf("length = %d, want 4", s.Len())
	}
}

func TestAnimateResize(t *testing.T) {
	sink := &recordSink{}
	c, screen := newCanvas(t, sink)
	s, f := newGame(t)

	screen.SetSize(MinWidth+20, MinHeight+5)
	screen.PostEvent(tcell.NewEventResize(MinWidth+20, MinHeight+5))
	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	if err := animate(t, c, s, f, UpdateFunc(Draw)); err != nil {
		t.Fatalf("Animate: %v", err)
	}
	if !sink.has("resize event detected") {
		t.Errorf("no resize event in %q", sink.msgs)
	}
	if w, h := c.Size(); w != MinWidth || h != MinHeight {
		t.Errorf("grid resized to %dx%d", w, h)
	}
}

func TestAnimateResizeTooSmall(t *testing.T) {
	c, screen := newCanvas(t, nil)
	s, f := newGame(t)

	screen.SetSize(100, 30)
	screen.PostEvent(tcell.NewEventResize(100, 30))
	err := animate(t, c, s, f, UpdateFunc(Draw))
	if !errors.Is(err, ErrTerminalTooSmall) {
		t.Fatalf("Animate error = %v, want ErrTerminalTooSmall", err)
	}
	if screen.finiCount() != 1 {
		t.Errorf("terminal restored %d times, want 1", screen.finiCount())
	}
}

func TestAnimateUpdateError(t *testing.T) {
	c, screen := newCanvas(t, nil)
	s, f := newGame(t)
	boom := errors.New("boom")

	err := animate(t, c, s, f, UpdateFunc(func(*Canvas, *world.Snake, *world.Food, int, int) error {
		return boom
	}))
	if !errors.Is(err, boom) {
		t.Fatalf("Animate error = %v, want boom", err)
	}
	if screen.finiCount() != 1 {
		t.Errorf("terminal restored %d times, want 1", screen.finiCount())
	}
}

func TestAnimatePollError(t *testing.T) {
	c, screen := newCanvas(t, nil)
	s, f := newGame(t)
	gone := errors.New("tty gone")

	screen.PostEvent(tcell.NewEventError(gone))
	err := animate(t, c, s, f, UpdateFunc(Draw))
	if err == nil || !strings.Contains(err.Error(), "tty gone") {
		t.Fatalf("Animate error = %v, want tty gone", err)
	}
	if screen.finiCount() != 1 {
		t.Errorf("terminal restored %d times, want 1", screen.finiCount())
	}
}

func BenchmarkFrame(b *testing.B) {
	sim := tcell.NewSimulationScreen("UTF-8")
	if err := sim.Init(); err != nil {
		b.Fatal(err)
	}
	sim.SetSize(MinWidth, MinHeight)
	c, err := New(sim, nil)
	if err != nil {
		b.Fatal(err)
	}
	defer c.CleanUp()
	s, _ := world.NewSnake(16, 8, 4, false, nil)
	f := world.NewFood(254, MinWidth, MinHeight, nil)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Draw(c, s, f, MinWidth, MinHeight)
		c.flush()
	}
}
