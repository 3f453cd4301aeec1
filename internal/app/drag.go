package app

import (
	"rail-labeler/internal/scene"
	"rail-labeler/pkg/geometry"
)

// DragState is the state of a mark relocation. It is either Idle or
// Dragging.
type DragState interface {
	isDragState()
}

// Idle means no mark is being relocated.
type Idle struct{}

// Dragging holds a mark removed on DRAG until it is put back on DROP.
type Dragging struct {
	TrackID int
	Side    scene.RailSide
	Index   int
	Mark    geometry.ImagePoint
	// PairIndex is the index of the removed opposite mark in side point
	// mode, or -1.
	PairIndex int
	PairMark  geometry.ImagePoint
}

func (Idle) isDragState()     {}
func (Dragging) isDragState() {}
