package users_test

import (
	"testing"

	"github.com/omochice/bobba-client/internal/users"
)

func TestManager(t *testing.T) {
	m := users.NewManager()

	if _, ok := m.Current(); ok {
		t.Fatal("Current() before login returned a user")
	}

	got := m.SetCurrentUser(7, "Bob", "hi", "hd-180-1")
	want := users.User{ID: 7, Name: "Bob", Motto: "hi", Look: "hd-180-1"}
	if got != want {
		t.Errorf("SetCurrentUser() = %+v, want %+v", got, want)
	}

	cur, ok := m.Current()
	if !ok || cur != want {
		t.Errorf("Current() = %+v, %v, want %+v, true", cur, ok, want)
	}

	m.Clear()
	if _, ok := m.Current(); ok {
		t.Error("Current() after Clear() returned a user")
	}
}
