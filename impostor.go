// Impostor game gateway
//
// Every player except one receives the same secret word; the odd one out has
// to bluff while the others work out who it is.
//
// Features:
// - One WebSocket per browser tab at /impostor/ws; the connection id is the
//   player's identity, so a reload is a new player
// - JSON commands with a request id, answered by an "ack" frame
// - Room pushes (room:update, game:secret, room:closed) on the same socket
// - 4-char room codes, QR code per room at /impostor/rooms/:code/qr
// - Per-connection command rate limiting
// - Disconnect is treated as leaving every room the connection was in

package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/Seednode/impostor/games/impostor"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
	"golang.org/x/time/rate"
)

const (
	cmdCreateRoom = "room:create"
	cmdJoinRoom   = "room:join"
	cmdStartRound = "game:start"
	cmdNewRound   = "game:newRound"
	cmdGetState   = "game:getState"

	sendBuffer   = 32
	maxFrameSize = 4096
)

var (
	errBadRequest     = &impostor.Error{Kind: "BadRequest", Class: impostor.ClassValidation, Message: "malformed command"}
	errUnknownCommand = &impostor.Error{Kind: "UnknownCommand", Class: impostor.ClassValidation, Message: "unknown command"}
	errRateLimited    = &impostor.Error{Kind: "RateLimited", Class: impostor.ClassCapacity, Message: "slow down"}
	errInternal       = errors.New("something went wrong")
)

// Messages coming from clients
type Command struct {
	Type string          `json:"type"`
	ID   int64           `json:"id"`
	Data json.RawMessage `json:"data,omitempty"`
}

type CommandData struct {
	RoomCode string `json:"roomCode"`
	Name     string `json:"name"`
}

// Ack answers exactly one Command.
type Ack struct {
	Type  string    `json:"type"` // "ack"
	ID    int64     `json:"id"`
	OK    bool      `json:"ok"`
	Data  any       `json:"data,omitempty"`
	Error *AckError `json:"error,omitempty"`
}

type AckError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// SessionMessage is sent immediately on connect so the client can tell
// whether it is the host of a room.
type SessionMessage struct {
	Type string      `json:"type"` // "session"
	Data SessionInfo `json:"data"`
}

type SessionInfo struct {
	ConnectionID string `json:"connectionId"`
}

// StateResult is the reply to game:getState.
type StateResult struct {
	Room   impostor.Snapshot   `json:"room"`
	Secret impostor.SecretView `json:"secret"`
}

func newAck(id int64, result any, err error) Ack {
	if err == nil {
		return Ack{Type: "ack", ID: id, OK: true, Data: result}
	}

	var e *impostor.Error
	if !errors.As(err, &e) {
		return Ack{Type: "ack", ID: id, Error: &AckError{Kind: "Internal", Message: errInternal.Error()}}
	}

	return Ack{Type: "ack", ID: id, Error: &AckError{Kind: e.Kind, Message: e.Message}}
}

type Client struct {
	id      string
	conn    *websocket.Conn
	send    chan any
	limiter *rate.Limiter

	// codes this connection created or joined; only touched by readPump
	rooms map[string]struct{}
}

// Gateway owns the live connections and feeds their commands to the engine.
type Gateway struct {
	cfg      *Config
	engine   *impostor.Engine
	rooms    *impostor.Registry
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*Client
}

func newGateway(cfg *Config, words []string) *Gateway {
	src := impostor.CryptoSource{}
	rooms := impostor.NewRegistry(impostor.NewCodeGenerator(src))

	gw := &Gateway{
		cfg:     cfg,
		rooms:   rooms,
		clients: make(map[string]*Client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(cfg, r)
			},
		},
	}
	gw.engine = impostor.NewEngine(rooms, words, src, gw, cfg.log.With().Str("component", "engine").Logger())

	return gw
}

func originAllowed(cfg *Config, r *http.Request) bool {
	if cfg.allowedOrigin == "*" {
		return true
	}

	origin := r.Header.Get("Origin")

	return origin == "" || strings.EqualFold(origin, cfg.allowedOrigin)
}

func (gw *Gateway) register(c *Client) {
	gw.mu.Lock()
	gw.clients[c.id] = c
	gw.mu.Unlock()
}

func (gw *Gateway) unregister(c *Client) {
	gw.mu.Lock()
	defer gw.mu.Unlock()

	if _, ok := gw.clients[c.id]; ok {
		delete(gw.clients, c.id)
		close(c.send)
	}
}

// deliver queues msg for connID without blocking. A client that cannot keep
// up is dropped.
func (gw *Gateway) deliver(connID string, msg any) {
	gw.mu.Lock()
	defer gw.mu.Unlock()

	c, ok := gw.clients[connID]
	if !ok {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(gw.clients, connID)
		close(c.send)
		gw.cfg.log.Warn().Str("conn", connID).Msg("send buffer full, dropping client")
	}
}

// Notify implements impostor.Notifier.
func (gw *Gateway) Notify(connID string, ev impostor.Event) {
	gw.deliver(connID, ev)
}

// dispatch runs one command. A panic is reported as an internal failure and
// never escapes to the connection.
func (gw *Gateway) dispatch(c *Client, cmd Command) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			gw.cfg.log.Error().Interface("panic", r).Str("conn", c.id).Str("type", cmd.Type).Msg("command failed")
			result, err = nil, errInternal
		}
	}()

	if !c.limiter.Allow() {
		return nil, errRateLimited
	}

	var data CommandData
	if len(cmd.Data) > 0 {
		if err := json.Unmarshal(cmd.Data, &data); err != nil {
			return nil, errBadRequest
		}
	}

	switch cmd.Type {
	case cmdCreateRoom:
		joined, err := gw.engine.CreateRoom(c.id, data.Name)
		if err != nil {
			return nil, err
		}
		c.rooms[joined.RoomCode] = struct{}{}
		logf(gw.cfg, "GAMES: %s created room %s", c.id, joined.RoomCode)

		return joined, nil

	case cmdJoinRoom:
		joined, err := gw.engine.Join(data.RoomCode, c.id, data.Name)
		if err != nil {
			return nil, err
		}
		c.rooms[joined.RoomCode] = struct{}{}

		return joined, nil

	case cmdStartRound:
		return struct{}{}, gw.engine.StartRound(data.RoomCode, c.id)

	case cmdNewRound:
		return struct{}{}, gw.engine.NewRound(data.RoomCode, c.id)

	case cmdGetState:
		snap, secret, err := gw.engine.State(data.RoomCode, c.id)
		if err != nil {
			return nil, err
		}

		return StateResult{Room: snap, Secret: secret}, nil
	}

	return nil, errUnknownCommand
}

func (gw *Gateway) readPump(c *Client) {
	defer func() {
		gw.unregister(c)
		for code := range c.rooms {
			gw.engine.Leave(code, c.id)
		}
		_ = c.conn.Close()

		logf(gw.cfg, "GAMES: %s disconnected", c.id)
	}()

	c.conn.SetReadLimit(maxFrameSize)

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var cmd Command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			gw.deliver(c.id, newAck(0, nil, errBadRequest))

			continue
		}

		result, err := gw.dispatch(c, cmd)
		if err != nil {
			gw.cfg.log.Debug().Str("conn", c.id).Str("type", cmd.Type).Err(err).Msg("command rejected")
		}

		gw.deliver(c.id, newAck(cmd.ID, result, err))
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func serveWS(cfg *Config, gw *Gateway) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := gw.upgrader.Upgrade(w, r, nil)
		if err != nil {
			cfg.log.Debug().Err(err).Str("remote", realIP(r)).Msg("upgrade failed")
			return
		}

		client := &Client{
			id:      uuid.NewString(),
			conn:    conn,
			send:    make(chan any, sendBuffer),
			limiter: rate.NewLimiter(rate.Limit(cfg.rateLimit), cfg.rateBurst),
			rooms:   make(map[string]struct{}),
		}

		gw.register(client)
		logf(cfg, "GAMES: %s connected from %s", client.id, realIP(r))

		gw.deliver(client.id, SessionMessage{
			Type: "session",
			Data: SessionInfo{ConnectionID: client.id},
		})

		go client.writePump()
		gw.readPump(client)
	}
}

// joinURL is where a scanned QR code should land: the separately hosted
// client when --client-url is set, otherwise this server's join page.
func joinURL(cfg *Config, r *http.Request, code string) string {
	if cfg.clientURL != "" {
		if u, err := url.Parse(cfg.clientURL); err == nil {
			q := u.Query()
			q.Set("room", code)
			u.RawQuery = q.Encode()

			return u.String()
		}
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	switch proto := strings.ToLower(r.Header.Get("X-Forwarded-Proto")); proto {
	case "http", "https":
		scheme = proto
	}

	return scheme + "://" + r.Host + cfg.prefix + "/impostor?room=" + code
}

// serveJoinPage answers the link encoded in a room's QR code.
func serveJoinPage(cfg *Config, gw *Gateway) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		code := impostor.NormalizeCode(r.URL.Query().Get("room"))
		if !impostor.ValidCode(code) {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, newPage("Room not found", "No such room."))

			return
		}

		if _, err := gw.rooms.Get(code); err != nil {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, newPage("Room not found", "Room "+code+" is closed or does not exist."))

			return
		}

		io.WriteString(w, newPage("Join "+code, "Join room "+code))
	}
}

// QR handler: generates a PNG QR code for joining a room using go-qrcode.
func serveQR(cfg *Config, gw *Gateway) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := impostor.NormalizeCode(ps.ByName("code"))
		if !impostor.ValidCode(code) {
			http.Error(w, "invalid room code", http.StatusBadRequest)
			return
		}

		if _, err := gw.rooms.Get(code); err != nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(joinURL(cfg, r, code), qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)
		corsHeaders(cfg, w)

		_, _ = w.Write(png)
	}
}

// registerImpostorGame sets up routes so that:
//   - $path?room=CODE        → join page a room's QR code points at
//   - $path/ws               → WebSocket for commands and pushes
//   - $path/rooms/:code/qr   → PNG QR code for joining that room
func registerImpostorGame(cfg *Config, path string, gw *Gateway, mux *httprouter.Router) {
	mux.GET(cfg.prefix+path, serveJoinPage(cfg, gw))

	mux.GET(cfg.prefix+path+"/ws", serveWS(cfg, gw))

	mux.GET(cfg.prefix+path+"/rooms/:code/qr", serveQR(cfg, gw))
}
