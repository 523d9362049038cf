package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

type MessageType string

const (
	TypeJoin  MessageType = "JOIN"
	TypeLeave MessageType = "LEAVE"
	TypeChat  MessageType = "CHAT"
)

// MaxContentLength caps what a user may type into one chat message.
const MaxContentLength = 200

var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrInvalidMessage = errors.New("invalid message")
	ErrEmptyMessage   = errors.New("message is empty")
	ErrMessageTooLong = fmt.Errorf("message exceeds %d characters", MaxContentLength)
)

func (t MessageType) Valid() bool {
	switch t {
	case TypeJoin, TypeLeave, TypeChat:
		return true
	}
	return false
}

// IsPresence reports whether t announces a user entering or leaving.
func (t MessageType) IsPresence() bool {
	return t == TypeJoin || t == TypeLeave
}

// Message is one frame exchanged over the socket. Timestamp is
// milliseconds since the epoch, set by the sender and only displayed.
type Message struct {
	Username  string      `json:"username"`
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	Timestamp int64       `json:"timestamp,omitempty"`
}

// wireMessage accepts the older "user" field alongside "username".
type wireMessage struct {
	Username  string      `json:"username"`
	User      string      `json:"user"`
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	Timestamp int64       `json:"timestamp"`
}

func (m Message) Time() time.Time {
	if m.Timestamp == 0 {
		return time.Time{}
	}
	return time.UnixMilli(m.Timestamp)
}

func NewChatMessage(username, content string, now time.Time) Message {
	return Message{
		Username:  username,
		Type:      TypeChat,
		Content:   content,
		Timestamp: now.UnixMilli(),
	}
}

func Encode(m Message) ([]byte, error) {
	if !m.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidMessage, m.Type)
	}
	if m.Type == TypeChat && strings.TrimSpace(m.Content) == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, ErrEmptyMessage)
	}

	return json.Marshal(m)
}

func Decode(raw []byte) (Message, error) {
	var w wireMessage
	if err := json.Unmarshal(raw, &w); err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}
	if !w.Type.Valid() {
		return Message{}, fmt.Errorf("%w: unknown type %q", ErrMalformedFrame, w.Type)
	}

	username := w.Username
	if username == "" {
		username = w.User
	}

	return Message{
		Username:  username,
		Type:      w.Type,
		Content:   w.Content,
		Timestamp: w.Timestamp,
	}, nil
}

// ValidateInput checks a line typed by the user before it becomes a
// CHAT message.
func ValidateInput(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmptyMessage
	}
	if utf8.RuneCountInString(s) > MaxContentLength {
		return ErrMessageTooLong
	}
	return nil
}
