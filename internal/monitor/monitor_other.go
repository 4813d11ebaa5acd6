//go:build !windows

// Package monitor describes display geometry and enumeration.
package monitor

import (
	"fmt"

	"github.com/go-vgo/robotgo"

	"github.com/frudas24/dynamouse/internal/geom"
)

// ListDisplays enumerates displays through robotgo. Displays are identified
// by their 1-based enumeration order since no stable OS name is exposed.
func ListDisplays() ([]Display, error) {
	n := robotgo.DisplaysNum()
	if n <= 0 {
		return nil, ErrUnsupported
	}
	list := make([]Display, 0, n)
	for i := 0; i < n; i++ {
		x, y, w, h := robotgo.GetDisplayBounds(i)
		list = append(list, Display{
			ID:      DisplayID(fmt.Sprintf("display-%d", i+1)),
			Name:    fmt.Sprintf("Display %d", i+1),
			Bounds:  geom.Rect{X: x, Y: y, W: w, H: h},
			Primary: i == 0,
		})
	}
	sortDisplays(list)
	return list, nil
}
