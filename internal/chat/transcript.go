package chat

import "sync"

// Transcript is the append-only list of messages received on one
// connection, in arrival order.
type Transcript struct {
	mu   sync.RWMutex
	msgs []Message
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

func (t *Transcript) Append(m Message) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.msgs = append(t.msgs, m)
	return len(t.msgs)
}

func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Message, len(t.msgs))
	copy(out, t.msgs)
	return out
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.msgs)
}

// Streams splits incoming frames the way the username-only client shows
// them: chat on one list, joins and leaves on the other.
type Streams struct {
	Chat     *Transcript
	Presence *Transcript
}

func NewStreams() *Streams {
	return &Streams{
		Chat:     NewTranscript(),
		Presence: NewTranscript(),
	}
}

func (s *Streams) Route(m Message) {
	if m.Type.IsPresence() {
		s.Presence.Append(m)
		return
	}
	s.Chat.Append(m)
}
