package room

import (
	"sort"
)

// MaxChatLog bounds the number of chat lines kept per room.
const MaxChatLog = 100

// User is an avatar present in the room.
type User struct {
	ID       int
	Name     string
	Look     string
	Motto    string
	X, Y, Z  int
	Rotation int
	Status   map[string]string
	Waves    int
}

// FloorItem is a furniture item placed on the floor.
type FloorItem struct {
	ID       int
	BaseID   int
	X, Y, Z  int
	Rotation int
	State    int
}

// ChatMessage is one line said in the room.
type ChatMessage struct {
	UserID int
	Name   string
	Text   string
}

// Room is the current room. It is not safe for concurrent use; the
// session goroutine is its only writer and reader.
type Room struct {
	Model *Model

	users    map[int]*User
	items    map[int]*FloorItem
	chat     []ChatMessage
	disposed bool
}

// New creates an empty room on model.
func New(model *Model) *Room {
	return &Room{
		Model: model,
		users: make(map[int]*User),
		items: make(map[int]*FloorItem),
	}
}

// AddUser adds u, replacing any user with the same id.
func (r *Room) AddUser(u User) {
	if u.Status == nil {
		u.Status = make(map[string]string)
	}
	r.users[u.ID] = &u
}

// UpdateUserStatus moves a user and replaces its status. Unknown users
// are ignored and false is returned.
func (r *Room) UpdateUserStatus(id, x, y, z, rot int, status map[string]string) bool {
	u, ok := r.users[id]
	if !ok {
		return false
	}
	u.X, u.Y, u.Z, u.Rotation = x, y, z, rot
	u.Status = make(map[string]string, len(status))
	for k, v := range status {
		u.Status[k] = v
	}
	return true
}

// RemoveUser removes a user. Removing an absent user is a no-op.
func (r *Room) RemoveUser(id int) bool {
	if _, ok := r.users[id]; !ok {
		return false
	}
	delete(r.users, id)
	return true
}

// User returns a copy of the user with id.
func (r *Room) User(id int) (User, bool) {
	u, ok := r.users[id]
	if !ok {
		return User{}, false
	}
	return *u, true
}

// Users returns the users sorted by id.
func (r *Room) Users() []User {
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AddFloorItem adds item, replacing any item with the same id.
func (r *Room) AddFloorItem(item FloorItem) {
	r.items[item.ID] = &item
}

// RemoveFloorItem removes an item. Removing an absent item is a no-op.
func (r *Room) RemoveFloorItem(id int) bool {
	if _, ok := r.items[id]; !ok {
		return false
	}
	delete(r.items, id)
	return true
}

// SetFloorItemState updates an item state. Unknown items are ignored.
func (r *Room) SetFloorItemState(id, state int) bool {
	item, ok := r.items[id]
	if !ok {
		return false
	}
	item.State = state
	return true
}

// FloorItem returns a copy of the item with id.
func (r *Room) FloorItem(id int) (FloorItem, bool) {
	item, ok := r.items[id]
	if !ok {
		return FloorItem{}, false
	}
	return *item, true
}

// FloorItems returns the items sorted by id.
func (r *Room) FloorItems() []FloorItem {
	out := make([]FloorItem, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Chat records a chat line. Lines from users not in the room are kept
// with an empty name.
func (r *Room) Chat(userID int, text string) {
	msg := ChatMessage{UserID: userID, Text: text}
	if u, ok := r.users[userID]; ok {
		msg.Name = u.Name
	}
	r.chat = append(r.chat, msg)
	if len(r.chat) > MaxChatLog {
		r.chat = r.chat[len(r.chat)-MaxChatLog:]
	}
}

// ChatLog returns the recorded chat lines, oldest first.
func (r *Room) ChatLog() []ChatMessage {
	out := make([]ChatMessage, len(r.chat))
	copy(out, r.chat)
	return out
}

// Wave records a wave by userID. Unknown users are ignored.
func (r *Room) Wave(userID int) bool {
	u, ok := r.users[userID]
	if !ok {
		return false
	}
	u.Waves++
	return true
}

// Dispose clears the room.
func (r *Room) Dispose() {
	r.users = make(map[int]*User)
	r.items = make(map[int]*FloorItem)
	r.chat = nil
	r.disposed = true
}

// Disposed reports whether Dispose was called.
func (r *Room) Disposed() bool {
	return r.disposed
}
