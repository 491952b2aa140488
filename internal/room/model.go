// Package room keeps the in-memory state of the room the player is in.
package room

import (
	"github.com/go-faster/errors"
)

// VoidHeight marks a tile that cannot be walked on.
const VoidHeight = -1

// ErrInvalidModel is returned for heightmaps whose size does not match.
var ErrInvalidModel = errors.New("room: invalid model")

// Model is a room heightmap.
type Model struct {
	SizeX, SizeY int
	DoorX, DoorY int

	// heights is row-major: heights[y*SizeX+x].
	heights []int
}

// NewModel builds a model from row-major heights.
func NewModel(sizeX, sizeY, doorX, doorY int, heights []int) (*Model, error) {
	if sizeX <= 0 || sizeY <= 0 {
		return nil, errors.Wrapf(ErrInvalidModel, "size %dx%d", sizeX, sizeY)
	}
	if len(heights) != sizeX*sizeY {
		return nil, errors.Wrapf(ErrInvalidModel, "%d heights for %dx%d", len(heights), sizeX, sizeY)
	}

	h := make([]int, len(heights))
	copy(h, heights)
	return &Model{
		SizeX:   sizeX,
		SizeY:   sizeY,
		DoorX:   doorX,
		DoorY:   doorY,
		heights: h,
	}, nil
}

// MaxX returns the largest valid x coordinate.
func (m *Model) MaxX() int { return m.SizeX - 1 }

// MaxY returns the largest valid y coordinate.
func (m *Model) MaxY() int { return m.SizeY - 1 }

// Height returns the height of a tile. ok is false outside the map.
func (m *Model) Height(x, y int) (height int, ok bool) {
	if x < 0 || y < 0 || x >= m.SizeX || y >= m.SizeY {
		return 0, false
	}
	return m.heights[y*m.SizeX+x], true
}

// IsWalkable reports whether the tile exists and is not void.
func (m *Model) IsWalkable(x, y int) bool {
	h, ok := m.Height(x, y)
	return ok && h != VoidHeight
}
