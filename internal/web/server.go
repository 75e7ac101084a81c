package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/peterkuimelis/durak/internal/game"
	"github.com/peterkuimelis/durak/internal/net"
	"github.com/peterkuimelis/durak/internal/store"
)

//go:embed static
var staticFiles embed.FS

// Game is the session surface the bridge needs.
type Game interface {
	Attack(ctx context.Context, card game.Card) error
	Defend(ctx context.Context, card game.Card, slot int) error
	Pass(ctx context.Context) error
	View() net.TableView
	Store() *store.Store
}

// CardInfo is the JSON representation of a card for the /api/cards endpoint.
type CardInfo struct {
	ID    string `json:"id"`
	Suit  string `json:"suit"`
	Rank  string `json:"rank"`
	Value int    `json:"value"`
	Label string `json:"label"`
}

// ClientMessage is a browser command on /ws.
type ClientMessage struct {
	Type string `json:"type"` // "attack", "defend", "pass" or "state"
	Card string `json:"card,omitempty"`
	Slot int    `json:"slot,omitempty"`
}

// ServerMessage is pushed to the browser on /ws.
type ServerMessage struct {
	Type   string         `json:"type"` // "state", "result" or "notice"
	State  *net.TableView `json:"state,omitempty"`
	Error  string         `json:"error,omitempty"`
	Notice string         `json:"notice,omitempty"`
	Intent string         `json:"intent,omitempty"`
}

// Server is the durak web UI server.
type Server struct {
	game Game
	mux  *http.ServeMux
}

// NewServer creates a new web server for g.
func NewServer(g Game) *Server {
	s := &Server{
		game: g,
		mux:  http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	staticFS, _ := fs.Sub(staticFiles, "static")

	s.mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		f, err := staticFS.Open("index.html")
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer f.Close()
		io.Copy(w, f.(io.Reader))
	})
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.mux.HandleFunc("GET /api/cards", s.handleCards)
	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("POST /api/action", s.handleAction)

	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
}

// Handler exposes the routes, mainly for tests.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	var cards []CardInfo
	for _, c := range game.FullDeck() {
		cards = append(cards, CardInfo{
			ID:    c.ID(),
			Suit:  c.Suit.String(),
			Rank:  c.Rank.String(),
			Value: c.Rank.Value(),
			Label: c.String(),
		})
	}
	writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.game.View())
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var msg ClientMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeJSON(w, http.StatusBadRequest, ServerMessage{Type: "result", Error: "invalid request body"})
		return
	}
	if err := s.perform(r.Context(), msg); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, ServerMessage{Type: "result", Error: err.Error()})
		return
	}
	view := s.game.View()
	writeJSON(w, http.StatusOK, ServerMessage{Type: "result", State: &view})
}

var errUnknownCommand = errors.New("unknown command")

func (s *Server) perform(ctx context.Context, msg ClientMessage) error {
	switch msg.Type {
	case "attack":
		card, err := game.ParseAny(msg.Card)
		if err != nil {
			return err
		}
		return s.game.Attack(ctx, card)
	case "defend":
		card, err := game.ParseAny(msg.Card)
		if err != nil {
			return err
		}
		return s.game.Defend(ctx, card, msg.Slot)
	case "pass":
		return s.game.Pass(ctx)
	case "state":
		return nil
	default:
		return errUnknownCommand
	}
}

// handleWebSocket streams the table view on every store change and accepts
// commands from the browser.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Allow connections from any origin
	})
	if err != nil {
		log.Printf("WebSocket accept error: %v", err)
		return
	}
	defer wsConn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Store changes arrive in bursts; one pending signal is enough to
	// re-render.
	dirty := make(chan struct{}, 1)
	notices := make(chan ServerMessage, 16)
	unsubscribe := s.game.Store().Subscribe(func(c store.Change) {
		switch c.Kind {
		case store.ChangeNotice:
			select {
			case notices <- ServerMessage{Type: "notice", Notice: c.Notice}:
			default:
			}
		case store.ChangeIntent:
			select {
			case notices <- ServerMessage{Type: "notice", Intent: c.Intent.Kind.String()}:
			default:
			}
		}
		select {
		case dirty <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	replies := make(chan ServerMessage, 4)
	go func() {
		defer cancel()
		for {
			var msg ClientMessage
			if err := wsjson.Read(ctx, wsConn, &msg); err != nil {
				return
			}
			reply := ServerMessage{Type: "result"}
			if err := s.perform(ctx, msg); err != nil {
				reply.Error = err.Error()
			}
			select {
			case replies <- reply:
			case <-ctx.Done():
				return
			}
		}
	}()

	send := func(m ServerMessage) bool {
		if err := wsjson.Write(ctx, wsConn, m); err != nil {
			if ctx.Err() == nil {
				log.Printf("WebSocket write error: %v", err)
			}
			return false
		}
		return true
	}

	view := s.game.View()
	if !send(ServerMessage{Type: "state", State: &view}) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			wsConn.Close(websocket.StatusNormalClosure, "")
			return
		case m := <-notices:
			if !send(m) {
				return
			}
		case m := <-replies:
			if !send(m) {
				return
			}
		case <-dirty:
			view := s.game.View()
			if !send(ServerMessage{Type: "state", State: &view}) {
				return
			}
		}
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s.mux)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
