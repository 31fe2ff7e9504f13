package chat

import "fmt"

// Scope selects who receives an outbound event. There is deliberately no
// zero-value default: an emission without a scope is dropped.
type Scope int

const (
	ScopeConnection Scope = iota + 1
	ScopeRoom
	ScopeAll
)

func (s Scope) String() string {
	switch s {
	case ScopeConnection:
		return "connection"
	case ScopeRoom:
		return "room"
	case ScopeAll:
		return "all"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// Target is the resolved audience of one emission.
type Target struct {
	Scope Scope
	Conn  ConnID
	Room  string
}

// ToConnection addresses a single connection.
func ToConnection(id ConnID) Target {
	return Target{Scope: ScopeConnection, Conn: id}
}

// ToRoom addresses every connection currently in room.
func ToRoom(room string) Target {
	return Target{Scope: ScopeRoom, Room: room}
}

// ToAll addresses every connection.
func ToAll() Target {
	return Target{Scope: ScopeAll}
}
