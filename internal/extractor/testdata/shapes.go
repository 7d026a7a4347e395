package shapes

import "time"

// Entity is the root of everything stored.
//
//typelift:sealed
type Entity struct {
	ID      int
	Created time.Time
}

// Shape is a drawable entity.
type Shape struct {
	Entity
	Name string
}

type Circle struct {
	Shape
	Name   string
	Radius float64
	Tags   []string
}

type Square struct {
	*Shape
	Name         string
	Side, Border float64
	Parent       *Circle
	Children     []*Square `json:"children"`
	Meta         map[string]string
}

type (
	// Group collects shapes.
	Group struct {
		Members []Shape
	}

	Label string
)

type Drawer interface {
	Draw()
}
