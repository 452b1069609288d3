package main

import (
	"context"
	"eggsnake/src/canvas"
	"eggsnake/src/config"
	"eggsnake/src/events"
	"eggsnake/src/sound"
	"eggsnake/src/view"
	"eggsnake/src/world"
	"fmt"
	"github.com/gdamore/tcell/v2"
	"github.com/integrii/flaggy"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
)

const version = "1.0"

func main() {
	o, mo, monitor := initOptions()

	var err error
	if monitor {
		err = runMonitor(mo)
	} else {
		err = runGame(o)
	}
	if err != nil {
		log.Printf("(eggsnake) error: %v", err)
		os.Exit(1)
	}
}

func initOptions() (o *config.Options, mo *config.MonitorOptions, monitor bool) {
	opts := config.DefaultOptions
	mopts := config.DefaultMonitorOptions
	o, mo = &opts, &mopts

	flaggy.SetName("eggsnake")
	flaggy.SetDescription("A snake game in the terminal")
	flaggy.SetVersion(version)
	flaggy.DefaultParser.ShowHelpOnUnexpected = true
	flaggy.Int(&o.Length, "s", "size", "Sets the snake's size (1-16)")
	flaggy.Int(&o.Eggs, "e", "eggs", "Sets the number of eggs in canvas (1-254)")
	flaggy.Bool(&o.Grow, "g", "grow", "Sets the snake's growth (currently has no effect)")
	flaggy.String(&o.Transport, "t", "transport", "Where LogEvent signals go ["+strings.Join(config.Transports, "|")+"]")
	flaggy.String(&o.LogFile, "l", "log", "File for the file transport and the diagnostics")
	flaggy.Bool(&o.Sound, "a", "sound", "Play a sound when an egg is eaten")

	mon := flaggy.NewSubcommand("monitor")
	mon.Description = "Shows the LogEvent signals of a running game"
	mon.Bool(&mo.Plain, "p", "plain", "Print the events line by line")
	mon.Int(&mo.History, "n", "history", "Number of events kept on screen")
	flaggy.AttachSubcommand(mon, 1)

	flaggy.Parse()

	if !config.ValidTransport(o.Transport) {
		flaggy.ShowHelpAndExit("unknown transport " + o.Transport)
	}
	if o.Transport == config.TransportFile && o.LogFile == "" {
		flaggy.ShowHelpAndExit("the file transport needs --log")
	}
	o.Normalize()
	return o, mo, mon.Used
}

//diagnostics opens the local diagnostic stream
func diagnostics(o *config.Options) (*log.Logger, io.Closer, error) {
	if o.LogFile == "" {
		return log.New(os.Stderr, "", log.LstdFlags), io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(o.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return log.New(f, "", log.LstdFlags), f, nil
}

//quiet discards the stderr diagnostics while the alternate screen is up
//diagnostics going to --log are kept, the returned func restores the output
func quiet(diag *log.Logger, o *config.Options) func() {
	if o.LogFile != "" {
		return func() {}
	}
	prev := diag.Writer()
	diag.SetOutput(io.Discard)
	return func() { diag.SetOutput(prev) }
}

//newTransport picks the LogEvent transport, an unreachable session bus is not fatal
func newTransport(o *config.Options, diag *log.Logger) (events.Transport, error) {
	switch o.Transport {
	case config.TransportFile:
		f, err := os.OpenFile(o.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		return events.NewLogTransport(f), nil
	case config.TransportDBus:
		t, err := events.NewDBusTransport()
		if err != nil {
			diag.Printf("(eggsnake) error: %v, events are not forwarded", err)
			return events.NopTransport{}, nil
		}
		return t, nil
	default:
		return events.NopTransport{}, nil
	}
}

func runGame(o *config.Options) error {
	if err := canvas.CheckTerminal(os.Stdout); err != nil {
		return err
	}

	diag, diagCloser, err := diagnostics(o)
	if err != nil {
		return err
	}
	defer diagCloser.Close()

	transport, err := newTransport(o, diag)
	if err != nil {
		return err
	}
	defer transport.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := events.NewBus(events.DefCapacity, diag)
	forwarded := make(chan struct{})
	fwd := events.NewForwarder(bus.Subscribe(), transport, diag)
	go func() {
		defer close(forwarded)
		_ = fwd.Run(ctx)
	}()
	//the bus is closed before the forwarder is waited for
	defer func() {
		bus.Close()
		<-forwarded
	}()

	bus.Emit("(eggsnake) info: initialized main thread (thread 1 - game loop)")
	bus.Emit("(eggsnake) info: initialized second thread (thread 2 - " + o.Transport + " forwarder)")

	if o.Sound {
		startSound(ctx, bus, diag)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}

	c, err := canvas.New(screen, bus)
	if err != nil {
		return fmt.Errorf("problem creating canvas: %w", err)
	}
	restore := quiet(diag, o)
	defer func() {
		c.CleanUp()
		restore()
	}()
	bus.Emit("(eggsnake) info: canvas created")

	width, height := c.Size()
	food := world.NewFood(o.Eggs, width, height, nil)
	snake, err := world.NewSnake(o.Length, config.DefStartX, config.DefStartY, o.Grow, bus)
	if err != nil {
		return err
	}
	bus.Emit("(eggsnake) info: snake created")

	c.RebuildBorder()
	return c.Animate(snake, food, canvas.UpdateFunc(canvas.Draw))
}

func startSound(ctx context.Context, bus *events.Bus, diag *log.Logger) {
	p, err := sound.NewPlayer()
	if err != nil {
		diag.Printf("(eggsnake) error: sound disabled: %v", err)
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer p.Close()
		if err := p.Run(ctx, sub); err != nil && ctx.Err() == nil {
			diag.Printf("(eggsnake) error: sound stopped: %v", err)
		}
	}()
}

func runMonitor(mo *config.MonitorOptions) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	l, err := events.NewDBusListener()
	if err != nil {
		return err
	}
	defer l.Close()

	feed := view.NewFeed(mo.History)
	var v view.Viewer
	if mo.Plain {
		v = view.NewConsoleOut(os.Stdout)
	} else {
		ui, err := view.NewConsoleUI()
		if err != nil {
			return err
		}
		v = ui
	}
	feed.RegisterViewer(v)

	pumped := make(chan struct{})
	go func() {
		defer close(pumped)
		feed.Pump(ctx, l.Listen(ctx))
	}()

	if err := v.Start(); err != nil {
		return err
	}
	if mo.Plain {
		<-ctx.Done()
	}
	stop()
	<-pumped
	return nil
}
