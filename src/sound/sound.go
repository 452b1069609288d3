package sound

import (
	"context"
	"eggsnake/src/events"
	"errors"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"strings"
	"time"
)

const (
	sampleRate = beep.SampleRate(44100)
	blipFreq   = 880
	blipLength = 50 * time.Millisecond
)

//Trigger marks the events that make a sound
const Trigger = "snake.grow"

//Player plays a short tone for every trigger event it receives from the bus
type Player struct {
	play func()
}

//NewPlayer opens the speaker
func NewPlayer() (*Player, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return nil, err
	}
	return &Player{play: blip}, nil
}

func blip() {
	sine, err := generators.SineTone(sampleRate, blipFreq)
	if err != nil {
		return
	}
	speaker.Play(beep.Take(sampleRate.N(blipLength), sine))
}

//Run listens until the bus is closed or ctx is done
//lagged notifications are ignored, a missed blip does not matter
func (p *Player) Run(ctx context.Context, sub *events.Subscription) error {
	for {
		msg, err := sub.Recv(ctx)
		var lagged *events.LaggedError
		switch {
		case err == nil:
			if strings.Contains(msg, Trigger) {
				p.play()
			}
		case errors.As(err, &lagged):
		case errors.Is(err, events.ErrClosed):
			return nil
		default:
			return err
		}
	}
}

//Close releases the speaker
func (p *Player) Close() {
	speaker.Close()
}
