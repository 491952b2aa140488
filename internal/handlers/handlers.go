// Package handlers decodes server messages and applies them to the game.
package handlers

import (
	"github.com/go-faster/errors"

	"github.com/omochice/bobba-client/internal/dispatch"
	"github.com/omochice/bobba-client/internal/room"
	"github.com/omochice/bobba-client/pkg/protocol"
)

// Game receives session-level events.
type Game interface {
	HandleUserData(id int, name, look, motto string)
	HandleRoomModelInfo(modelID string, roomID int)
	HandleHeightMap(model *room.Model)

	// CurrentRoom returns nil when the player is in no room.
	CurrentRoom() Room
}

// Room receives events scoped to the current room. *room.Room implements it.
type Room interface {
	AddUser(u room.User)
	UpdateUserStatus(id, x, y, z, rot int, status map[string]string) bool
	RemoveUser(id int) bool
	Chat(userID int, text string)
	Wave(userID int) bool
	AddFloorItem(item room.FloorItem)
	RemoveFloorItem(id int) bool
	SetFloorItemState(id, state int) bool
}

var _ Room = (*room.Room)(nil)

// ErrNegativeCount is returned when a list length is negative.
var ErrNegativeCount = errors.New("handlers: negative count")

// Entries returns one registry entry per server opcode, bound to game.
func Entries(game Game) []dispatch.Entry {
	return []dispatch.Entry{
		{Opcode: protocol.ServerLoginOK, Handler: &LoginOK{Game: game}},
		{Opcode: protocol.ServerRoomModelInfo, Handler: &RoomModelInfo{Game: game}},
		{Opcode: protocol.ServerMapData, Handler: &MapData{Game: game}},
		{Opcode: protocol.ServerPlayersData, Handler: &PlayersData{Game: game}},
		{Opcode: protocol.ServerPlayerStatus, Handler: &PlayerStatus{Game: game}},
		{Opcode: protocol.ServerPlayerRemove, Handler: &PlayerRemove{Game: game}},
		{Opcode: protocol.ServerChat, Handler: &Chat{Game: game}},
		{Opcode: protocol.ServerPlayerWave, Handler: &PlayerWave{Game: game}},
		{Opcode: protocol.ServerRoomItemData, Handler: &RoomItemData{Game: game}},
		{Opcode: protocol.ServerItemRemove, Handler: &ItemRemove{Game: game}},
		{Opcode: protocol.ServerItemState, Handler: &ItemState{Game: game}},
	}
}

// NewRegistry builds the registry of every handler in this package.
func NewRegistry(game Game) (*dispatch.Registry, error) {
	return dispatch.NewRegistry(Entries(game)...)
}

// readCount reads a list length.
func readCount(frame *protocol.Frame) (int, error) {
	n, err := frame.NextInt()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.Wrapf(ErrNegativeCount, "%d", n)
	}
	return n, nil
}

// readInts reads len(dst) ints in order.
func readInts(frame *protocol.Frame, dst ...*int) error {
	for _, p := range dst {
		v, err := frame.NextInt()
		if err != nil {
			return err
		}
		*p = v
	}
	return nil
}

// readStrings reads len(dst) strings in order.
func readStrings(frame *protocol.Frame, dst ...*string) error {
	for _, p := range dst {
		v, err := frame.NextString()
		if err != nil {
			return err
		}
		*p = v
	}
	return nil
}
