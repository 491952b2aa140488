package protocol

import "strconv"

// Opcode identifies a message type and its field layout.
// Server and client opcodes live in separate tables; the same numeric value
// may mean different things depending on direction.
type Opcode int32

// Server opcodes (server -> client).
const (
	ServerLoginOK       Opcode = 3
	ServerRoomModelInfo Opcode = 4
	ServerMapData       Opcode = 5
	ServerPlayersData   Opcode = 6
	ServerPlayerStatus  Opcode = 7
	ServerPlayerRemove  Opcode = 8
	ServerChat          Opcode = 9
	ServerPlayerWave    Opcode = 10
	ServerRoomItemData  Opcode = 11
	ServerItemRemove    Opcode = 12
	ServerItemState     Opcode = 13
)

// Client opcodes (client -> server).
const (
	ClientLogin                    Opcode = 1
	ClientRequestHeightMap         Opcode = 2
	ClientRequestRoomData          Opcode = 3
	ClientRequestMovement          Opcode = 7
	ClientRequestChat              Opcode = 9
	ClientRequestWave              Opcode = 10
	ClientRequestItemInteract      Opcode = 13
	ClientRequestNavigatorGoToRoom Opcode = 20
	ClientRequestInventoryItems    Opcode = 30
	ClientRequestCatalogueIndex    Opcode = 40
	ClientRequestCataloguePurchase Opcode = 41
)

// Version is bumped whenever either opcode table changes.
const Version = 1

var serverOpcodeNames = map[Opcode]string{
	ServerLoginOK:       "LOGIN_OK",
	ServerRoomModelInfo: "ROOM_MODEL_INFO",
	ServerMapData:       "MAP_DATA",
	ServerPlayersData:   "PLAYERS_DATA",
	ServerPlayerStatus:  "PLAYER_STATUS",
	ServerPlayerRemove:  "PLAYER_REMOVE",
	ServerChat:          "CHAT",
	ServerPlayerWave:    "PLAYER_WAVE",
	ServerRoomItemData:  "ROOM_ITEM_DATA",
	ServerItemRemove:    "ITEM_REMOVE",
	ServerItemState:     "ITEM_STATE",
}

var clientOpcodeNames = map[Opcode]string{
	ClientLogin:                    "LOGIN",
	ClientRequestHeightMap:         "REQUEST_HEIGHT_MAP",
	ClientRequestRoomData:          "REQUEST_ROOM_DATA",
	ClientRequestMovement:          "REQUEST_MOVEMENT",
	ClientRequestChat:              "REQUEST_CHAT",
	ClientRequestWave:              "REQUEST_WAVE",
	ClientRequestItemInteract:      "REQUEST_ITEM_INTERACT",
	ClientRequestNavigatorGoToRoom: "REQUEST_NAVIGATOR_GO_TO_ROOM",
	ClientRequestInventoryItems:    "REQUEST_INVENTORY_ITEMS",
	ClientRequestCatalogueIndex:    "REQUEST_CATALOGUE_INDEX",
	ClientRequestCataloguePurchase: "REQUEST_CATALOGUE_PURCHASE",
}

// String returns the decimal form of the opcode.
func (op Opcode) String() string {
	return strconv.Itoa(int(op))
}

// ServerName returns the name of op in the server table, or its number.
func (op Opcode) ServerName() string {
	if name, ok := serverOpcodeNames[op]; ok {
		return name
	}
	return op.String()
}

// ClientName returns the name of op in the client table, or its number.
func (op Opcode) ClientName() string {
	if name, ok := clientOpcodeNames[op]; ok {
		return name
	}
	return op.String()
}

// IsServerOpcode reports whether op is in the server table.
func IsServerOpcode(op Opcode) bool {
	_, ok := serverOpcodeNames[op]
	return ok
}

// IsClientOpcode reports whether op is in the client table.
func IsClientOpcode(op Opcode) bool {
	_, ok := clientOpcodeNames[op]
	return ok
}
