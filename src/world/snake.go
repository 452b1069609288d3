package world

import "fmt"

//GrowthPolicy decides whether the tail is kept after the head moved
type GrowthPolicy interface {
	KeepTail(ate bool) bool
}

//PopTail never keeps the tail, the snake length is constant
type PopTail struct{}

func (PopTail) KeepTail(bool) bool { return false }

//GrowOnEat keeps the tail on the tick an egg was eaten
type GrowOnEat struct{}

func (GrowOnEat) KeepTail(ate bool) bool { return ate }

//Snake is the ordered body of the snake
//segments[0] is the tail, the last segment is the head
type Snake struct {
	segments  []Position
	direction Direction
	grow      bool
	growth    GrowthPolicy
	sink      Sink
}

//NewSnake lays length segments along +x starting at startX, startY, heading Right
//grow is the configured growth flag, it is reported but does not change the
//growth policy, which is PopTail until SetGrowth is called
func NewSnake(length int, startX int, startY int, grow bool, sink Sink) (*Snake, error) {
	if length < 1 {
		return nil, fmt.Errorf("new snake of length %d: %w", length, ErrNoSegments)
	}
	s := &Snake{
		segments:  make([]Position, 0, length+1),
		direction: Right,
		grow:      grow,
		growth:    PopTail{},
		sink:      sink,
	}
	for i := 0; i < length; i++ {
		s.segments = append(s.segments, Position{X: startX + i, Y: startY})
	}
	emitf(sink, "initializing snake (length: %d, start_x: %d, start_y: %d)", length, startX, startY)
	return s, nil
}

//Segments returns the body from tail to head, the slice must not be modified
func (s *Snake) Segments() []Position {
	return s.segments
}

func (s *Snake) Len() int {
	return len(s.segments)
}

//Head returns the last segment
func (s *Snake) Head() Position {
	return s.segments[len(s.segments)-1]
}

func (s *Snake) Direction() Direction {
	return s.direction
}

//GrowEnabled reports the configured growth flag
func (s *Snake) GrowEnabled() bool {
	return s.grow
}

//SetGrowth replaces the growth policy
func (s *Snake) SetGrowth(p GrowthPolicy) {
	if p == nil {
		p = PopTail{}
	}
	s.growth = p
}

//Turn changes the heading unless d is the current heading, its opposite or not a heading at all
//reports whether the heading was changed
func (s *Snake) Turn(d Direction) bool {
	if !d.Valid() || d == s.direction || d == s.direction.Opposite() {
		return false
	}
	emitf(s.sink, "snake.turn.direction::%v", d)
	s.direction = d
	return true
}

//Forward moves the head one cell in the current direction with wraparound
//an egg at the new head position is eaten and replaced
func (s *Snake) Forward(food *Food, width int, height int) error {
	if len(s.segments) == 0 {
		return ErrNoSegments
	}
	next := s.direction.step(s.Head(), width, height)

	ate := false
	if food != nil {
		if idx, ok := food.Find(next); ok {
			if err := food.Replace(idx); err != nil {
				return err
			}
			ate = true
			emitf(s.sink, "snake.grow (x: %d, y: %d)", next.X, next.Y)
		}
	}

	s.segments = append(s.segments, next)
	if !s.growth.KeepTail(ate) {
		s.segments = s.segments[1:]
	}

	emitf(s.sink, "snake.forward (x: %d, y: %d)", next.X, next.Y)
	return nil
}
