package chat

// Session is the per-connection state: the one room the connection is in
// and the name it last claimed.
type Session struct {
	id          ConnID
	currentRoom string
	username    string
	named       bool
}

func newSession(id ConnID, room string) *Session {
	return &Session{id: id, currentRoom: room}
}

func (s *Session) ID() ConnID {
	return s.id
}

// Room returns the room the connection currently occupies.
func (s *Session) Room() string {
	return s.currentRoom
}

// Username returns the claimed name, if any.
func (s *Session) Username() (string, bool) {
	return s.username, s.named
}

func (s *Session) claim(username string) {
	s.username = username
	s.named = true
}

// moveTo changes the current room and returns the one left. It refuses a
// move to the room already occupied.
func (s *Session) moveTo(room string) (string, bool) {
	if room == s.currentRoom {
		return "", false
	}
	from := s.currentRoom
	s.currentRoom = room
	return from, true
}
