// Package server is the gateway between clients and the game core: it
// upgrades WebSocket connections, maps each one to a validated user
// identity and a session, routes inbound events into the cluster, and
// exposes read-only HTTP endpoints for match listings and history.
// Authentication is an external collaborator: identity arrives already
// validated.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jremy42/42-ft-transcendence/internal/cluster"
	"github.com/jremy42/42-ft-transcendence/internal/config"
	"github.com/jremy42/42-ft-transcendence/internal/game"
	"github.com/jremy42/42-ft-transcendence/internal/session"
	"github.com/jremy42/42-ft-transcendence/internal/storage"
)

// sessionBufferSize bounds how many events can queue for one connection
// before the oldest are dropped.
const sessionBufferSize = 256

// Server wires the gateway together.
type Server struct {
	cfg     config.Config
	logger  *log.Logger
	hub     *session.Hub
	cluster *cluster.Cluster
	store   *storage.Store

	upgrader websocket.Upgrader
	httpSrv  *http.Server
}

// New opens the store and builds the hub, cluster and HTTP server.
func New(cfg config.Config, logger *log.Logger) (*Server, error) {
	store, err := storage.Open(cfg.Server.DBPath)
	if err != nil {
		return nil, err
	}

	hub := session.NewHub()
	s := &Server{
		cfg:    cfg,
		logger: logger,
		hub:    hub,
		store:  store,
		cluster: cluster.New(cluster.Deps{
			Broadcast: hub,
			Logger:    logger,
			Saver:     store,
		}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect cross-origin in development.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	s.httpSrv = &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: s.routes(),
	}
	return s, nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /games/current", s.handleCurrentGames)
	mux.HandleFunc("GET /games/list/{page}", s.handleListGames)
	mux.HandleFunc("GET /games/user/{id}", s.handleUserGames)
	mux.HandleFunc("GET /games/wins/{id}", s.handleUserWins)
	mux.HandleFunc("GET /games/userstate/{id}", s.handleUserState)
	return mux
}

// ListenAndServe blocks serving HTTP and WebSocket traffic.
func (s *Server) ListenAndServe() error {
	s.logger.Info("listening", "addr", s.cfg.Server.Addr)
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections, halts every match loop and closes
// the store.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpSrv.Shutdown(ctx)
	s.cluster.Close()
	if cerr := s.store.Close(); err == nil {
		err = cerr
	}
	return err
}

// Cluster exposes the match registry (used by the CLI and tests).
func (s *Server) Cluster() *cluster.Cluster {
	return s.cluster
}

// handleWS upgrades a connection and binds it to the identity carried in
// the query string (validated upstream by the auth collaborator).
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil || userID <= 0 {
		http.Error(w, "missing or invalid userId", http.StatusBadRequest)
		return
	}
	username := r.URL.Query().Get("username")
	if username == "" {
		username = "anonymous"
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "err", err)
		return
	}

	handle := session.NewChannelHandle(session.ID(uuid.NewString()), sessionBufferSize)
	c := &client{
		srv:    s,
		user:   game.User{ID: userID, Username: username},
		conn:   conn,
		handle: handle,
	}
	s.hub.Register(handle)
	s.cluster.Connect(userID)
	s.logger.Info("session opened", "userId", userID, "username", username, "session", handle.ID())

	go c.writePump()
	go c.readPump()
}

// dispatch routes one inbound event. Recoverable failures are answered
// with an error event on the same session; nothing here may panic the
// gateway.
func (s *Server) dispatch(c *client, msg envelope) {
	switch msg.Event {
	case "game.create":
		var p createPayload
		if len(msg.Data) > 0 && json.Unmarshal(msg.Data, &p) != nil {
			c.handle.Send(errorEvent{Code: "InvalidInput", Message: "malformed options"})
			return
		}
		m := s.cluster.CreateMatch(true, p.Options)
		c.handle.Send(createdEvent{GameID: m.ID().String()})

	case "game.findOrCreate":
		var p createPayload
		if len(msg.Data) > 0 && json.Unmarshal(msg.Data, &p) != nil {
			c.handle.Send(errorEvent{Code: "InvalidInput", Message: "malformed options"})
			return
		}
		m := s.cluster.FindOrCreate(p.Options)
		c.handle.Send(createdEvent{GameID: m.ID().String()})

	case "game.join":
		var p joinPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			c.handle.Send(errorEvent{Code: "InvalidInput", Message: "malformed join"})
			return
		}
		id, err := uuid.Parse(p.GameID)
		if err != nil {
			c.handle.Send(errorEvent{Code: "InvalidInput", Message: "invalid game id"})
			return
		}
		snap, err := s.cluster.Join(id, c.user, c.handle.ID())
		switch {
		case errors.Is(err, cluster.ErrNotFound):
			c.handle.Send(errorEvent{Code: "NotFound", Message: "game not found"})
		case errors.Is(err, game.ErrAlreadyInMatch):
			c.handle.Send(errorEvent{Code: "AlreadyInMatch", Message: "already in this game"})
		case err == nil:
			c.handle.Send(joinedEvent{GameID: p.GameID, Snapshot: snap})
		}

	case "game.playerInput":
		var p inputPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			c.handle.Send(errorEvent{Code: "InvalidInput", Message: "malformed input"})
			return
		}
		id, err := uuid.Parse(p.GameID)
		if err != nil {
			return
		}
		if m := s.cluster.FindOne(id); m != nil {
			m.ApplyInput(c.user.ID, game.Input{Move: p.Move, Shoot: p.Shoot})
		}

	case "game.quit":
		var p quitPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return
		}
		if id, err := uuid.Parse(p.GameID); err == nil {
			s.cluster.Leave(id, c.user.ID)
		}

	default:
		c.handle.Send(errorEvent{Code: "InvalidInput", Message: "unknown event " + msg.Event})
	}
}

func (s *Server) handleCurrentGames(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.cluster.ListActive())
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.PathValue("page"))
	if err != nil || page < 0 {
		http.Error(w, "invalid page number", http.StatusBadRequest)
		return
	}
	games, err := s.store.RecentGames(page)
	if err != nil {
		s.logger.Error("history query failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, games)
}

func (s *Server) handleUserGames(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	games, err := s.store.GamesByUser(id)
	if err != nil {
		s.logger.Error("history query failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, games)
}

func (s *Server) handleUserWins(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	wins, err := s.store.WinsByUser(id)
	if err != nil {
		s.logger.Error("history query failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]int{"wins": wins})
}

func (s *Server) handleUserState(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.cluster.UserState(id))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
