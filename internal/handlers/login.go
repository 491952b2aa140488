package handlers

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/omochice/bobba-client/internal/room"
	"github.com/omochice/bobba-client/pkg/protocol"
)

// LoginOK carries the logged-in user: id, name, look, motto.
type LoginOK struct {
	Game Game
}

func (h *LoginOK) Handle(_ context.Context, frame *protocol.Frame) error {
	id, err := frame.NextInt()
	if err != nil {
		return err
	}
	var name, look, motto string
	if err := readStrings(frame, &name, &look, &motto); err != nil {
		return err
	}
	h.Game.HandleUserData(id, name, look, motto)
	return nil
}

// RoomModelInfo announces the model of the room being entered.
type RoomModelInfo struct {
	Game Game
}

func (h *RoomModelInfo) Handle(_ context.Context, frame *protocol.Frame) error {
	modelID, err := frame.NextString()
	if err != nil {
		return err
	}
	roomID, err := frame.NextInt()
	if err != nil {
		return err
	}
	h.Game.HandleRoomModelInfo(modelID, roomID)
	return nil
}

// MapData carries the heightmap: sizeX, sizeY, doorX, doorY, then
// sizeX*sizeY row-major heights.
type MapData struct {
	Game Game
}

func (h *MapData) Handle(_ context.Context, frame *protocol.Frame) error {
	var sizeX, sizeY, doorX, doorY int
	if err := readInts(frame, &sizeX, &sizeY, &doorX, &doorY); err != nil {
		return err
	}
	if sizeX <= 0 || sizeY <= 0 || sizeX > frame.Remaining() || sizeY > frame.Remaining() || sizeX*sizeY > frame.Remaining() {
		return errors.Wrapf(room.ErrInvalidModel, "size %dx%d with %d heights", sizeX, sizeY, frame.Remaining())
	}

	heights := make([]int, sizeX*sizeY)
	for i := range heights {
		v, err := frame.NextInt()
		if err != nil {
			return err
		}
		heights[i] = v
	}

	model, err := room.NewModel(sizeX, sizeY, doorX, doorY, heights)
	if err != nil {
		return err
	}
	h.Game.HandleHeightMap(model)
	return nil
}
