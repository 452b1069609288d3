package canvas

import (
	"eggsnake/src/events"
	"eggsnake/src/world"
	"errors"
	"fmt"
	"github.com/gdamore/tcell/v2"
	"golang.org/x/term"
	"os"
	"sync"
	"time"
)

//grid and timing constants
const (
	MinWidth      = 160
	MinHeight     = 40
	FramesPerSec  = 90
	FrameInterval = time.Second / FramesPerSec
)

//glyphs
const (
	Blank      = ' '
	Corner     = '+'
	VertEdge   = '|'
	HorizEdge  = '~'
	EggGlyph   = '@'
	SnakeGlyph = 'o'
)

var (
	ErrTerminalTooSmall = errors.New("terminal size too small")
	ErrNotTerminal      = errors.New("not a terminal")
)

//Updater is called once per tick before the buffer is flushed
type Updater interface {
	Update(c *Canvas, s *world.Snake, f *world.Food, width int, height int) error
}

//UpdateFunc adapts a function to Updater
type UpdateFunc func(c *Canvas, s *world.Snake, f *world.Food, width int, height int) error

func (fn UpdateFunc) Update(c *Canvas, s *world.Snake, f *world.Food, width int, height int) error {
	return fn(c, s, f, width, height)
}

//Canvas owns the character buffer and the terminal screen
//the grid is MinWidth x MinHeight whatever the terminal size is
type Canvas struct {
	screen tcell.Screen
	sink   events.Sink
	buffer []rune
	width  int
	height int
	sleep  func(time.Duration)

	inputCh  chan tcell.Event
	stopCh   chan struct{}
	pollOnce sync.Once
	cleanup  sync.Once
}

//CheckTerminal fails unless f is an interactive terminal
func CheckTerminal(f *os.File) error {
	if !term.IsTerminal(int(f.Fd())) {
		return fmt.Errorf("%s: %w", f.Name(), ErrNotTerminal)
	}
	return nil
}

//New wraps an initialized screen (raw mode, alternate screen)
//the screen is finalized before ErrTerminalTooSmall is returned
func New(screen tcell.Screen, sink events.Sink) (*Canvas, error) {
	if sink == nil {
		sink = events.Nop{}
	}
	c := &Canvas{
		screen: screen,
		sink:   sink,
		width:  MinWidth,
		height: MinHeight,
		sleep:  time.Sleep,
	}
	if err := c.checkSize(); err != nil {
		c.CleanUp()
		return nil, err
	}
	screen.HideCursor()
	c.buffer = make([]rune, c.width*c.height)
	sink.Emit(fmt.Sprintf("(eggsnake) info: initializing canvas (width: %d, height: %d, fps: %d, frame: %v)",
		c.width, c.height, FramesPerSec, FrameInterval.Round(time.Millisecond)))
	return c, nil
}

//Size returns the grid dimensions
func (c *Canvas) Size() (int, int) {
	return c.width, c.height
}

//SetSleep replaces the frame sleep, used by tests
func (c *Canvas) SetSleep(fn func(time.Duration)) {
	c.sleep = fn
}

//Cell returns the glyph at x, y
func (c *Canvas) Cell(x int, y int) rune {
	return c.buffer[y*c.width+x]
}

//Stamp puts glyph at p, positions outside the grid are ignored
func (c *Canvas) Stamp(p world.Position, glyph rune) {
	if p.X < 0 || p.X >= c.width || p.Y < 0 || p.Y >= c.height {
		return
	}
	c.buffer[p.Y*c.width+p.X] = glyph
}

//RebuildBorder blanks the buffer and draws the box outline
func (c *Canvas) RebuildBorder() {
	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			vEdge := x == 0 || x == c.width-1
			hEdge := y == 0 || y == c.height-1
			g := Blank
			switch {
			case vEdge && hEdge:
				g = Corner
			case vEdge:
				g = VertEdge
			case hEdge:
				g = HorizEdge
			}
			c.buffer[y*c.width+x] = g
		}
	}
}

//Animate runs the tick loop until the quit key is pressed
//every exit path restores the terminal
func (c *Canvas) Animate(s *world.Snake, f *world.Food, u Updater) error {
	c.startPolling()
	defer c.CleanUp()
	for {
		if err := u.Update(c, s, f, c.width, c.height); err != nil {
			return fmt.Errorf("update: %w", err)
		}
		c.flush()
		c.sleep(FrameInterval)

		quit, err := c.poll(s)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}

//OnResize checks that the terminal still holds the grid
//the grid size never changes, only the border is rebuilt
func (c *Canvas) OnResize(w int, h int) error {
	if err := c.checkSize(); err != nil {
		c.CleanUp()
		return err
	}
	c.screen.Sync()
	c.RebuildBorder()
	c.sink.Emit(fmt.Sprintf("(eggsnake) info: resize event detected (width: %d, height: %d)", w, h))
	return nil
}

//CleanUp finalizes the screen: cursor shown, alternate screen left, raw mode off
//it can be called any number of times
func (c *Canvas) CleanUp() {
	c.cleanup.Do(func() {
		if c.stopCh != nil {
			close(c.stopCh)
		}
		c.screen.ShowCursor(0, 0)
		c.screen.Fini()
	})
}

func (c *Canvas) checkSize() error {
	w, h := c.screen.Size()
	if w < c.width || h < c.height {
		return fmt.Errorf("%w: %dx%d, need %dx%d", ErrTerminalTooSmall, w, h, c.width, c.height)
	}
	return nil
}

//flush writes the whole buffer and shows it once
func (c *Canvas) flush() {
	for y := 0; y < c.height; y++ {
		row := c.buffer[y*c.width : (y+1)*c.width]
		for x, r := range row {
			c.screen.SetContent(x, y, r, nil, tcell.StyleDefault)
		}
	}
	c.screen.Show()
}

//startPolling moves the blocking PollEvent to a goroutine
//so that poll can look at the input without waiting
func (c *Canvas) startPolling() {
	c.pollOnce.Do(func() {
		c.inputCh = make(chan tcell.Event, 64)
		c.stopCh = make(chan struct{})
		go func(screen tcell.Screen, out chan<- tcell.Event, stop <-chan struct{}) {
			for {
				ev := screen.PollEvent()
				if ev == nil {
					return
				}
				select {
				case out <- ev:
				case <-stop:
					return
				}
			}
		}(c.screen, c.inputCh, c.stopCh)
	})
}

//poll handles at most one pending event
func (c *Canvas) poll(s *world.Snake) (quit bool, err error) {
	var ev tcell.Event
	select {
	case ev = <-c.inputCh:
	default:
		return false, nil
	}

	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape:
			return true, nil
		case tcell.KeyRune:
			if ev.Rune() == 'q' {
				return true, nil
			}
		case tcell.KeyUp:
			s.Turn(world.Up)
		case tcell.KeyDown:
			s.Turn(world.Down)
		case tcell.KeyLeft:
			s.Turn(world.Left)
		case tcell.KeyRight:
			s.Turn(world.Right)
		}
	case *tcell.EventResize:
		w, h := ev.Size()
		return false, c.OnResize(w, h)
	case *tcell.EventError:
		return false, fmt.Errorf("poll: %w", ev)
	}
	return false, nil
}

//Draw is the per-tick update of the game: border, eggs, snake, then one step forward
func Draw(c *Canvas, s *world.Snake, f *world.Food, width int, height int) error {
	c.RebuildBorder()
	for _, e := range f.Eggs() {
		c.Stamp(e, EggGlyph)
	}
	for _, seg := range s.Segments() {
		c.Stamp(seg, SnakeGlyph)
	}
	return s.Forward(f, width, height)
}
