package protocol

// Login identifies the user to the server after the socket opens.
func Login(username, look string) *OutgoingMessage {
	return NewOutgoingMessage(ClientLogin).AppendString(username).AppendString(look)
}

// RequestHeightMap asks for the height map of the room being entered.
func RequestHeightMap() *OutgoingMessage {
	return NewOutgoingMessage(ClientRequestHeightMap)
}

// RequestRoomData asks for the users and items of the current room.
func RequestRoomData() *OutgoingMessage {
	return NewOutgoingMessage(ClientRequestRoomData)
}

// RequestMovement asks to walk to tile (x, y).
func RequestMovement(x, y int) *OutgoingMessage {
	return NewOutgoingMessage(ClientRequestMovement).AppendInt(x).AppendInt(y)
}

// RequestChat says text in the current room.
func RequestChat(text string) *OutgoingMessage {
	return NewOutgoingMessage(ClientRequestChat).AppendString(text)
}

// RequestWave waves in the current room.
func RequestWave() *OutgoingMessage {
	return NewOutgoingMessage(ClientRequestWave)
}

// RequestItemInteract toggles the state of a floor item.
func RequestItemInteract(itemID int) *OutgoingMessage {
	return NewOutgoingMessage(ClientRequestItemInteract).AppendInt(itemID)
}

// RequestNavigatorGoToRoom asks to enter roomID.
func RequestNavigatorGoToRoom(roomID int) *OutgoingMessage {
	return NewOutgoingMessage(ClientRequestNavigatorGoToRoom).AppendInt(roomID)
}

// RequestInventoryItems asks for the user's inventory.
func RequestInventoryItems() *OutgoingMessage {
	return NewOutgoingMessage(ClientRequestInventoryItems)
}

// RequestCatalogueIndex asks for the catalogue page index.
func RequestCatalogueIndex() *OutgoingMessage {
	return NewOutgoingMessage(ClientRequestCatalogueIndex)
}

// RequestCataloguePurchase buys one catalogue item.
func RequestCataloguePurchase(itemID int) *OutgoingMessage {
	return NewOutgoingMessage(ClientRequestCataloguePurchase).AppendInt(itemID)
}
