package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/peterkuimelis/durak/internal/game"
	"github.com/peterkuimelis/durak/internal/net"
	"github.com/peterkuimelis/durak/internal/store"
)

var errRefused = errors.New("card does not beat the attack")

// fakeGame accepts attacks and refuses defenses. Accepted attacks land in
// the store so subscribers see a change.
type fakeGame struct {
	mu    sync.Mutex
	st    *store.Store
	calls []string
}

func newFakeGame() *fakeGame {
	return &fakeGame{st: store.New()}
}

func (g *fakeGame) record(call string) {
	g.mu.Lock()
	g.calls = append(g.calls, call)
	g.mu.Unlock()
}

func (g *fakeGame) Attack(_ context.Context, card game.Card) error {
	g.record("attack " + card.ID())
	slot, _ := game.FirstEmptySlot(g.st.Slots())
	g.st.AddCardToSlot(card, slot)
	return nil
}

func (g *fakeGame) Defend(_ context.Context, card game.Card, slot int) error {
	g.record("defend " + card.ID())
	return errRefused
}

func (g *fakeGame) Pass(context.Context) error {
	g.record("pass")
	return nil
}

func (g *fakeGame) View() net.TableView {
	return net.BuildTableView(g.st, "alice", 0, nil)
}

func (g *fakeGame) Store() *store.Store { return g.st }

func (g *fakeGame) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

func newTestServer(t *testing.T) (*fakeGame, *httptest.Server) {
	t.Helper()
	g := newFakeGame()
	srv := httptest.NewServer(NewServer(g).Handler())
	t.Cleanup(srv.Close)
	return g, srv
}

func TestCards(t *testing.T) {
	_, srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/cards")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var cards []CardInfo
	if err := json.NewDecoder(resp.Body).Decode(&cards); err != nil {
		t.Fatal(err)
	}
	if len(cards) != game.DeckSize {
		t.Fatalf("Expected %d cards, got %d", game.DeckSize, len(cards))
	}
	if cards[0].ID != "Hearts-Six" || cards[0].Value != 6 || cards[0].Label != "6♥" {
		t.Errorf("Expected the six of hearts first, got %+v", cards[0])
	}
}

func TestState(t *testing.T) {
	g, srv := newTestServer(t)
	g.st.AddCardToHand(game.Card{Suit: game.Spades, Rank: game.Queen})

	resp, err := http.Get(srv.URL + "/api/state")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON, got %s", ct)
	}
	var tv net.TableView
	if err := json.NewDecoder(resp.Body).Decode(&tv); err != nil {
		t.Fatal(err)
	}
	if len(tv.Hand) != 1 || tv.Hand[0] != "Spades-Queen" {
		t.Errorf("Expected Spades-Queen in hand, got %v", tv.Hand)
	}
}

func postAction(t *testing.T, url, body string) (int, ServerMessage) {
	t.Helper()
	resp, err := http.Post(url+"/api/action", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var msg ServerMessage
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, msg
}

func TestAction(t *testing.T) {
	g, srv := newTestServer(t)

	code, msg := postAction(t, srv.URL, `{"type":"attack","card":"9d"}`)
	if code != http.StatusOK || msg.Error != "" {
		t.Fatalf("Expected the attack accepted, got %d %+v", code, msg)
	}
	if msg.State == nil || msg.State.Slots[0].Attack != "Diamonds-Nine" {
		t.Errorf("Expected the new state in the reply, got %+v", msg.State)
	}

	code, msg = postAction(t, srv.URL, `{"type":"defend","card":"Diamonds-Ten","slot":0}`)
	if code != http.StatusUnprocessableEntity || msg.Error != errRefused.Error() {
		t.Errorf("Expected the defense refused, got %d %+v", code, msg)
	}

	code, _ = postAction(t, srv.URL, `{"type":"attack","card":"nope"}`)
	if code != http.StatusUnprocessableEntity {
		t.Errorf("Expected a bad card refused, got %d", code)
	}
	code, _ = postAction(t, srv.URL, `{"type":"shuffle"}`)
	if code != http.StatusUnprocessableEntity {
		t.Errorf("Expected an unknown command refused, got %d", code)
	}
	code, _ = postAction(t, srv.URL, `{`)
	if code != http.StatusBadRequest {
		t.Errorf("Expected a malformed body rejected, got %d", code)
	}

	if calls := g.Calls(); len(calls) != 2 {
		t.Errorf("Expected 2 moves to reach the game, got %v", calls)
	}
}

func TestIndex(t *testing.T) {
	_, srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Errorf("Expected the index page, got %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	resp, err = http.Get(srv.URL + "/nowhere")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
}

func TestWebSocket(t *testing.T) {
	g, srv := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.CloseNow()

	var first ServerMessage
	if err := wsjson.Read(ctx, conn, &first); err != nil {
		t.Fatal(err)
	}
	if first.Type != "state" || first.State == nil {
		t.Fatalf("Expected the initial state, got %+v", first)
	}

	if err := wsjson.Write(ctx, conn, ClientMessage{Type: "attack", Card: "Jc"}); err != nil {
		t.Fatal(err)
	}

	// The reply and the state push may arrive in either order.
	var gotResult, gotState bool
	for !gotResult || !gotState {
		var msg ServerMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			t.Fatal(err)
		}
		switch msg.Type {
		case "result":
			if msg.Error != "" {
				t.Errorf("Expected the attack accepted, got %s", msg.Error)
			}
			gotResult = true
		case "state":
			if msg.State.Slots[0].Attack == "Clubs-Jack" {
				gotState = true
			}
		}
	}

	g.st.Notify("hello")
	for {
		var msg ServerMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			t.Fatal(err)
		}
		if msg.Type == "notice" {
			if msg.Notice != "hello" {
				t.Errorf("Expected the hello notice, got %+v", msg)
			}
			break
		}
	}
	conn.Close(websocket.StatusNormalClosure, "")
}
