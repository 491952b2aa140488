package handlers

import (
	"context"

	"github.com/omochice/bobba-client/internal/room"
	"github.com/omochice/bobba-client/pkg/protocol"
)

// Room handlers decode the whole payload before looking at the current
// room, so a malformed frame is reported even when no room is loaded.

// PlayersData lists avatars entering the room.
type PlayersData struct {
	Game Game
}

func (h *PlayersData) Handle(_ context.Context, frame *protocol.Frame) error {
	n, err := readCount(frame)
	if err != nil {
		return err
	}

	players := make([]room.User, 0, min(n, frame.Remaining()))
	for i := 0; i < n; i++ {
		var u room.User
		if u.ID, err = frame.NextInt(); err != nil {
			return err
		}
		if err := readStrings(frame, &u.Name, &u.Look, &u.Motto); err != nil {
			return err
		}
		if err := readInts(frame, &u.X, &u.Y, &u.Z, &u.Rotation); err != nil {
			return err
		}
		players = append(players, u)
	}

	r := h.Game.CurrentRoom()
	if r == nil {
		return nil
	}
	for _, u := range players {
		r.AddUser(u)
	}
	return nil
}

type playerStatus struct {
	id, x, y, z, rot int
	values           map[string]string
}

// PlayerStatus moves avatars and sets their status flags.
type PlayerStatus struct {
	Game Game
}

func (h *PlayerStatus) Handle(_ context.Context, frame *protocol.Frame) error {
	n, err := readCount(frame)
	if err != nil {
		return err
	}

	statuses := make([]playerStatus, 0, min(n, frame.Remaining()))
	for i := 0; i < n; i++ {
		var s playerStatus
		if err := readInts(frame, &s.id, &s.x, &s.y, &s.z, &s.rot); err != nil {
			return err
		}
		m, err := readCount(frame)
		if err != nil {
			return err
		}
		s.values = make(map[string]string, min(m, frame.Remaining()))
		for j := 0; j < m; j++ {
			var key, value string
			if err := readStrings(frame, &key, &value); err != nil {
				return err
			}
			s.values[key] = value
		}
		statuses = append(statuses, s)
	}

	r := h.Game.CurrentRoom()
	if r == nil {
		return nil
	}
	for _, s := range statuses {
		r.UpdateUserStatus(s.id, s.x, s.y, s.z, s.rot, s.values)
	}
	return nil
}

// PlayerRemove removes an avatar that left.
type PlayerRemove struct {
	Game Game
}

func (h *PlayerRemove) Handle(_ context.Context, frame *protocol.Frame) error {
	id, err := frame.NextInt()
	if err != nil {
		return err
	}
	if r := h.Game.CurrentRoom(); r != nil {
		r.RemoveUser(id)
	}
	return nil
}

// Chat is a line said by an avatar.
type Chat struct {
	Game Game
}

func (h *Chat) Handle(_ context.Context, frame *protocol.Frame) error {
	userID, err := frame.NextInt()
	if err != nil {
		return err
	}
	text, err := frame.NextString()
	if err != nil {
		return err
	}
	if r := h.Game.CurrentRoom(); r != nil {
		r.Chat(userID, text)
	}
	return nil
}

// PlayerWave is an avatar waving.
type PlayerWave struct {
	Game Game
}

func (h *PlayerWave) Handle(_ context.Context, frame *protocol.Frame) error {
	userID, err := frame.NextInt()
	if err != nil {
		return err
	}
	if r := h.Game.CurrentRoom(); r != nil {
		r.Wave(userID)
	}
	return nil
}

// RoomItemData lists floor items placed in the room.
type RoomItemData struct {
	Game Game
}

func (h *RoomItemData) Handle(_ context.Context, frame *protocol.Frame) error {
	n, err := readCount(frame)
	if err != nil {
		return err
	}

	items := make([]room.FloorItem, 0, min(n, frame.Remaining()))
	for i := 0; i < n; i++ {
		var item room.FloorItem
		if err := readInts(frame, &item.ID, &item.BaseID, &item.X, &item.Y, &item.Z, &item.Rotation, &item.State); err != nil {
			return err
		}
		items = append(items, item)
	}

	r := h.Game.CurrentRoom()
	if r == nil {
		return nil
	}
	for _, item := range items {
		r.AddFloorItem(item)
	}
	return nil
}

// ItemRemove removes a floor item. Unknown ids are ignored.
type ItemRemove struct {
	Game Game
}

func (h *ItemRemove) Handle(_ context.Context, frame *protocol.Frame) error {
	id, err := frame.NextInt()
	if err != nil {
		return err
	}
	if r := h.Game.CurrentRoom(); r != nil {
		r.RemoveFloorItem(id)
	}
	return nil
}

// ItemState changes the state of a floor item.
type ItemState struct {
	Game Game
}

func (h *ItemState) Handle(_ context.Context, frame *protocol.Frame) error {
	id, err := frame.NextInt()
	if err != nil {
		return err
	}
	state, err := frame.NextInt()
	if err != nil {
		return err
	}
	if r := h.Game.CurrentRoom(); r != nil {
		r.SetFloorItemState(id, state)
	}
	return nil
}
