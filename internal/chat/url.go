package chat

import (
	"fmt"
	"net/url"
	"path"
)

// RoomURL builds the room client's socket address from the REST base URL:
// ws(s)://<host>/<base path>/ws?room_id=<id>&token=<token>.
func RoomURL(apiBase, roomID, token string) (string, error) {
	u, err := url.Parse(apiBase)
	if err != nil {
		return "", fmt.Errorf("parse api url: %w", err)
	}
	if err := toWebSocketScheme(u); err != nil {
		return "", err
	}

	u.Path = path.Join("/", u.Path, "ws")
	u.RawPath = ""

	q := url.Values{}
	q.Set("room_id", roomID)
	q.Set("token", token)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// UsernameURL appends the username query parameter to the simple client's
// socket address, keeping any query it already carries.
func UsernameURL(wsBase, username string) (string, error) {
	u, err := url.Parse(wsBase)
	if err != nil {
		return "", fmt.Errorf("parse websocket url: %w", err)
	}
	if err := toWebSocketScheme(u); err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("username", username)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func toWebSocketScheme(u *url.URL) error {
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
