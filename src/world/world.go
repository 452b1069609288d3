package world

import (
	"errors"
	"fmt"
)

//Position is a grid cell, 0-indexed from the top left corner
type Position struct {
	X int
	Y int
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

//Direction is the heading of the snake
type Direction int

const (
	Right Direction = iota
	Left
	Up
	Down
)

var directionNames = map[Direction]string{
	Right: "Right",
	Left:  "Left",
	Up:    "Up",
	Down:  "Down",
}

func (d Direction) String() string {
	if n, ok := directionNames[d]; ok {
		return n
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

//Valid reports whether d is one of the four headings
func (d Direction) Valid() bool {
	return d >= Right && d <= Down
}

//Opposite returns the direction the snake can never turn to in one step
func (d Direction) Opposite() Direction {
	switch d {
	case Right:
		return Left
	case Left:
		return Right
	case Up:
		return Down
	default:
		return Up
	}
}

//step moves p one cell towards d, wrapping around the width x height grid
func (d Direction) step(p Position, width int, height int) Position {
	switch d {
	case Right:
		if p.X < width-1 {
			p.X++
		} else {
			p.X = 0
		}
	case Left:
		if p.X > 0 {
			p.X--
		} else {
			p.X = width - 1
		}
	case Up:
		if p.Y > 0 {
			p.Y--
		} else {
			p.Y = height - 1
		}
	case Down:
		if p.Y < height-1 {
			p.Y++
		} else {
			p.Y = 0
		}
	}
	return p
}

var (
	ErrNoSegments = errors.New("snake has no body")
	ErrEggIndex   = errors.New("egg index out of range")
)

//Sink receives the human-readable event strings of the world
//events.Sink satisfies it
type Sink interface {
	Emit(msg string)
}

const eventPrefix = "(eggsnake) info: "

func emitf(s Sink, format string, args ...interface{}) {
	if s == nil {
		return
	}
	s.Emit(eventPrefix + fmt.Sprintf(format, args...))
}
