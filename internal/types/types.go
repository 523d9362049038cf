package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RoomID is a room identifier. Backends send it either as a JSON string
// or as a JSON number, so it decodes from both.
type RoomID string

func (id *RoomID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RoomID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("room id: %w", err)
	}
	*id = RoomID(n.String())
	return nil
}

func (id RoomID) String() string {
	return string(id)
}

type Session struct {
	UserId   int    `json:"user_id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Message string  `json:"message"`
	Data    Session `json:"data"`
}

type Room struct {
	RoomId      RoomID `json:"room_id"`
	RoomName    string `json:"room_name"`
	Admin       string `json:"admin,omitempty"`
	ActiveUsers int    `json:"active_users"`
}

type RoomDetail struct {
	Room
	Users []string `json:"users"`
}

type CreateRoomRequest struct {
	RoomName string `json:"room_name"`
}

// Envelope is the body shape shared by every REST response.
type Envelope[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
}
