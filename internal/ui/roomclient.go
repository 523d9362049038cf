package ui

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/npezzotti/go-chatroom-client/internal/api"
	"github.com/npezzotti/go-chatroom-client/internal/chat"
	"github.com/npezzotti/go-chatroom-client/internal/session"
	"github.com/npezzotti/go-chatroom-client/internal/types"
	"go.uber.org/zap"
)

type AuthAPI interface {
	Login(ctx context.Context, creds types.Credentials) (types.AuthResponse, error)
	Signup(ctx context.Context, creds types.Credentials) (types.AuthResponse, error)
}

type RoomsAPI interface {
	ListRooms(ctx context.Context) ([]types.Room, error)
	CreateRoom(ctx context.Context, name string) (types.Room, error)
	DeleteRoom(ctx context.Context, id types.RoomID) error
	GetRoom(ctx context.Context, id types.RoomID) (types.RoomDetail, error)
}

type RoomClientAPI interface {
	AuthAPI
	RoomsAPI
}

// RoomClient holds what the pages of the room browser share.
type RoomClient struct {
	API     RoomClientAPI
	Session *session.Store
	Dialer  *chat.Dialer
	APIURL  string
	Term    *Prompter
	Notify  Notifier
	Log     *zap.Logger
	Now     func() time.Time
}

func (rc *RoomClient) now() time.Time {
	if rc.Now == nil {
		return time.Now()
	}
	return rc.Now()
}

func (rc *RoomClient) loggedIn() bool {
	_, ok := rc.Session.Current()
	return ok && !rc.Session.Expired(rc.now())
}

// requireLogin sends the user to the login page if there is no usable
// session and reports whether it did.
func (rc *RoomClient) requireLogin(nav Navigator) bool {
	if rc.loggedIn() {
		return false
	}
	if _, ok := rc.Session.Current(); ok {
		rc.Session.Logout()
		rc.Notify.Error("Your session has expired. Please log in again.")
	}
	nav.Navigate("/auth/login")
	return true
}

// report toasts err for the user. Errors without a server message are
// logged as well since the toast does not say what went wrong.
func (rc *RoomClient) report(action string, err error) {
	var apiErr *api.ApiError
	if !errors.As(err, &apiErr) {
		rc.Log.Error("There was a problem with the "+action+" request", zap.Error(err))
	}
	rc.Notify.Error(api.UserMessage(err))
}

func NewRoomRouter(rc *RoomClient) *Router {
	r := NewRouter(rc.Log)

	r.Handle("/", &HomePage{rc: rc, nav: r})
	r.Handle("/auth/login", NewLoginPage(rc, r))
	r.Handle("/auth/signup", NewSignupPage(rc, r))
	r.Handle("/rooms", &RoomListPage{rc: rc, nav: r})
	r.Handle("/rooms/{roomId}", &RoomPage{rc: rc, nav: r})
	r.NotFound(&NotFoundPage{term: rc.Term, nav: r})

	return r
}

type HomePage struct {
	rc  *RoomClient
	nav Navigator
}

func (p *HomePage) Show(ctx context.Context, _ *Request) error {
	p.rc.Term.Println("Welcome to Distributed Chat Room App")
	p.rc.Term.Println("Create rooms and join them to chat with people.")

	label := "Get Started"
	if p.rc.loggedIn() {
		label = "Go To Chat Room"
	}

	line, err := p.rc.Term.Ask(ctx, fmt.Sprintf("Press enter to %s ('quit' to exit): ", label))
	if err != nil {
		return endOfInput(err)
	}
	if cmd, _ := splitCommand(line); cmd == "quit" {
		return nil
	}

	if !p.rc.requireLogin(p.nav) {
		p.nav.Navigate("/rooms")
	}
	return nil
}

// AuthPage is the login form and the signup form; they differ only in
// the request they submit and where the switch link points.
type AuthPage struct {
	rc      *RoomClient
	nav     Navigator
	action  string
	title   string
	submit  func(ctx context.Context, creds types.Credentials) (types.AuthResponse, error)
	altCmd  string
	altPath string
	altHint string
}

func NewLoginPage(rc *RoomClient, nav Navigator) *AuthPage {
	return &AuthPage{
		rc:      rc,
		nav:     nav,
		action:  "login",
		title:   "Login",
		submit:  rc.API.Login,
		altCmd:  "/signup",
		altPath: "/auth/signup",
		altHint: "Don't have an account? Type /signup",
	}
}

func NewSignupPage(rc *RoomClient, nav Navigator) *AuthPage {
	return &AuthPage{
		rc:      rc,
		nav:     nav,
		action:  "signup",
		title:   "Signup",
		submit:  rc.API.Signup,
		altCmd:  "/login",
		altPath: "/auth/login",
		altHint: "Already have an account? Type /login",
	}
}

func (p *AuthPage) Show(ctx context.Context, _ *Request) error {
	for {
		p.rc.Term.Println(p.title)
		p.rc.Term.Println(p.altHint)

		username, err := p.rc.Term.Ask(ctx, "Username: ")
		if err != nil {
			return endOfInput(err)
		}
		switch strings.TrimSpace(username) {
		case p.altCmd:
			p.nav.Navigate(p.altPath)
			return nil
		case "/back":
			p.nav.Navigate("/")
			return nil
		}

		password, err := p.rc.Term.Ask(ctx, "Password: ")
		if err != nil {
			return endOfInput(err)
		}

		creds := types.Credentials{Username: strings.TrimSpace(username), Password: password}
		if creds.Username == "" || creds.Password == "" {
			p.rc.Notify.Error("Username and password are required.")
			continue
		}

		if p.authenticate(ctx, creds) {
			return nil
		}
	}
}

func (p *AuthPage) authenticate(ctx context.Context, creds types.Credentials) bool {
	resp, err := p.submit(ctx, creds)
	if err != nil {
		p.rc.report(p.action, err)
		return false
	}

	p.rc.Session.Login(resp)
	p.rc.Log.Info("authenticated", zap.String("username", resp.Data.Username), zap.String("action", p.action))
	p.rc.Notify.Success(resp.Message)
	p.nav.Navigate("/rooms")
	return true
}

type RoomListPage struct {
	rc    *RoomClient
	nav   Navigator
	rooms []types.Room
}

func (p *RoomListPage) Rooms() []types.Room {
	return slices.Clone(p.rooms)
}

func (p *RoomListPage) Show(ctx context.Context, _ *Request) error {
	if p.rc.requireLogin(p.nav) {
		return nil
	}

	p.rc.Term.Println("Loading...")
	p.fetchRooms(ctx)
	p.render()

	for {
		line, err := p.rc.Term.Ask(ctx, "rooms> ")
		if err != nil {
			return endOfInput(err)
		}

		cmd, arg := splitCommand(line)
		switch cmd {
		case "":
		case "help":
			p.help()
		case "list", "refresh":
			p.fetchRooms(ctx)
			p.render()
		case "create":
			if arg == "" {
				p.rc.Notify.Error("Room name is required.")
				continue
			}
			p.createRoom(ctx, arg)
			p.render()
		case "delete":
			p.deleteRoom(ctx, types.RoomID(arg))
			p.render()
		case "open", "join":
			if arg == "" {
				p.rc.Notify.Error("Room id is required.")
				continue
			}
			p.nav.Navigate("/rooms/" + url.PathEscape(arg))
			return nil
		case "back":
			p.nav.Navigate("/")
			return nil
		case "logout":
			p.rc.Session.Logout()
			p.rc.Notify.Success("Logged out.")
			p.nav.Navigate("/")
			return nil
		case "quit":
			return nil
		default:
			p.rc.Notify.Error(fmt.Sprintf("Unknown command %q. Type 'help' for commands.", cmd))
		}
	}
}

func (p *RoomListPage) fetchRooms(ctx context.Context) {
	rooms, err := p.rc.API.ListRooms(ctx)
	if err != nil {
		p.rc.report("list rooms", err)
		return
	}
	p.rooms = slices.Clone(rooms)
}

func (p *RoomListPage) createRoom(ctx context.Context, name string) {
	room, err := p.rc.API.CreateRoom(ctx, name)
	if err != nil {
		p.rc.report("create room", err)
		return
	}

	p.rooms = append(p.rooms, room)
	p.rc.Notify.Success("Room created successfully!")
}

func (p *RoomListPage) deleteRoom(ctx context.Context, id types.RoomID) {
	idx := slices.IndexFunc(p.rooms, func(r types.Room) bool { return r.RoomId == id })
	if idx < 0 {
		p.rc.Notify.Error(fmt.Sprintf("No room with id %q.", id))
		return
	}
	if p.rooms[idx].Admin != p.rc.Session.Username() {
		p.rc.Notify.Error("Only the room admin can delete this room.")
		return
	}

	if err := p.rc.API.DeleteRoom(ctx, id); err != nil {
		p.rc.report("delete room", err)
		return
	}

	p.rooms = slices.Delete(p.rooms, idx, idx+1)
	p.rc.Notify.Success("Room deleted successfully!")
}

func (p *RoomListPage) render() {
	p.rc.Term.Println("Available Chat Rooms")
	if len(p.rooms) == 0 {
		p.rc.Term.Println("  No rooms available.")
		return
	}

	me := p.rc.Session.Username()
	for _, r := range p.rooms {
		marker := " "
		if r.Admin != "" && r.Admin == me {
			marker = "*"
		}
		p.rc.Term.Printf(" %s [%s] %s (active users: %d)\n", marker, r.RoomId, r.RoomName, r.ActiveUsers)
	}
}

func (p *RoomListPage) help() {
	p.rc.Term.Println("Commands:")
	p.rc.Term.Println("  create <name>   create a room")
	p.rc.Term.Println("  delete <id>     delete a room you administer (marked *)")
	p.rc.Term.Println("  open <id>       join a room")
	p.rc.Term.Println("  refresh         reload the room list")
	p.rc.Term.Println("  back | logout | quit")
}

type RoomPage struct {
	rc         *RoomClient
	nav        Navigator
	detail     types.RoomDetail
	transcript *chat.Transcript
	conv       *conversation
}

func (p *RoomPage) Transcript() []chat.Message {
	if p.transcript == nil {
		return nil
	}
	return p.transcript.Messages()
}

func (p *RoomPage) Show(ctx context.Context, req *Request) error {
	if p.rc.requireLogin(p.nav) {
		return nil
	}

	id := types.RoomID(req.Param("roomId"))
	detail, err := p.rc.API.GetRoom(ctx, id)
	if err != nil {
		p.rc.report("get room", err)
		p.rc.Term.Println("No room details available.")
		p.nav.Navigate("/rooms")
		return nil
	}

	p.detail = detail
	p.transcript = chat.NewTranscript()
	p.conv = &conversation{
		term:     p.rc.Term,
		notify:   p.rc.Notify,
		log:      p.rc.Log.With(zap.String("room_id", detail.RoomId.String())),
		nav:      p.nav,
		now:      p.rc.now,
		username: p.rc.Session.Username(),
		backPath: "/rooms",
		receive:  p.receive,
	}
	p.renderHeader()

	wsURL, err := chat.RoomURL(p.rc.APIURL, detail.RoomId.String(), p.rc.Session.Token())
	if err != nil {
		return err
	}

	err = chat.WithConn(ctx, p.rc.Dialer, wsURL, func(c *chat.Conn) error {
		return p.conv.run(ctx, c)
	})
	return p.conv.finish(ctx, err)
}

func (p *RoomPage) receive(m chat.Message) {
	p.transcript.Append(m)
	p.rc.Term.Println(formatRoomMessage(m, p.conv.username))
}

func (p *RoomPage) renderHeader() {
	p.rc.Term.Println(p.detail.RoomName)
	p.rc.Term.Printf("Room ID: %s\n", p.detail.RoomId)
	p.rc.Term.Printf("Active Users: %d\n", p.detail.ActiveUsers)
	if len(p.detail.Users) > 0 {
		p.rc.Term.Printf("Users: %s\n", strings.Join(p.detail.Users, ", "))
	}
	p.rc.Term.Println("Type a message and press enter to send. /back returns to the room list.")
}

func formatRoomMessage(m chat.Message, me string) string {
	if m.Type.IsPresence() {
		return "  * " + presenceText(m)
	}
	if m.Username == me {
		return fmt.Sprintf("%s> %s: %s", formatTime(m), m.Username, m.Content)
	}
	return fmt.Sprintf("%s  %s: %s", formatTime(m), m.Username, m.Content)
}

type NotFoundPage struct {
	term *Prompter
	nav  Navigator
}

func (p *NotFoundPage) Show(_ context.Context, req *Request) error {
	p.term.Printf("404 | %s not found\n", req.Path)
	p.nav.Navigate("/")
	return nil
}
