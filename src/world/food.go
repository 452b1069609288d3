package world

import (
	"fmt"
	"math/rand/v2"
)

//Food owns the eggs laid on the grid
//the number of eggs never changes, an eaten egg is moved somewhere else
type Food struct {
	width  int
	height int
	eggs   []Position
	rnd    Source
}

//Source picks random coordinates, *rand.Rand satisfies it
type Source interface {
	IntN(n int) int
}

//NewFood lays count eggs at random positions inside width x height
//eggs may overlap each other or the snake
//rnd can be nil, the global source is used then
func NewFood(count int, width int, height int, rnd Source) *Food {
	f := &Food{
		width:  width,
		height: height,
		eggs:   make([]Position, 0, count),
		rnd:    rnd,
	}
	for i := 0; i < count; i++ {
		f.eggs = append(f.eggs, f.randomPosition())
	}
	return f
}

//Eggs returns the egg positions, the slice must not be modified
func (f *Food) Eggs() []Position {
	return f.eggs
}

//Len returns the number of eggs
func (f *Food) Len() int {
	return len(f.eggs)
}

//Find returns the index of the first egg at p
func (f *Food) Find(p Position) (int, bool) {
	for i, e := range f.eggs {
		if e == p {
			return i, true
		}
	}
	return -1, false
}

//Replace moves the egg at idx to a new random position
func (f *Food) Replace(idx int) error {
	if idx < 0 || idx >= len(f.eggs) {
		return fmt.Errorf("replace egg %d of %d: %w", idx, len(f.eggs), ErrEggIndex)
	}
	f.eggs[idx] = f.randomPosition()
	return nil
}

func (f *Food) randomPosition() Position {
	if f.rnd == nil {
		return Position{X: rand.IntN(f.width), Y: rand.IntN(f.height)}
	}
	return Position{X: f.rnd.IntN(f.width), Y: f.rnd.IntN(f.height)}
}
