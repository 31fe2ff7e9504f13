package chat

// Presence maps claimed usernames to the connection holding them. A later
// claim overwrites an earlier one; the earlier holder is not told. It is not
// safe for concurrent use.
type Presence struct {
	byName map[string]ConnID
	order  []string
}

func NewPresence() *Presence {
	return &Presence{byName: make(map[string]ConnID)}
}

// Claim points username at conn, replacing any previous holder.
func (p *Presence) Claim(username string, conn ConnID) {
	if _, ok := p.byName[username]; !ok {
		p.order = append(p.order, username)
	}
	p.byName[username] = conn
}

// ReleaseConn drops every name still held by conn. Names that were since
// claimed by another connection are left alone.
func (p *Presence) ReleaseConn(conn ConnID) {
	kept := p.order[:0]
	for _, name := range p.order {
		if p.byName[name] == conn {
			delete(p.byName, name)
			continue
		}
		kept = append(kept, name)
	}
	p.order = kept
}

// Lookup returns the connection holding username.
func (p *Presence) Lookup(username string) (ConnID, bool) {
	conn, ok := p.byName[username]
	return conn, ok
}

// Usernames returns the claimed names in first-claim order.
func (p *Presence) Usernames() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}
