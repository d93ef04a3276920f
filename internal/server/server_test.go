package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/cardbattle/battle-server-go/internal/auth"
	"github.com/cardbattle/battle-server-go/internal/card"
	"github.com/cardbattle/battle-server-go/internal/deck"
	"github.com/cardbattle/battle-server-go/internal/game"
	"github.com/cardbattle/battle-server-go/internal/game/item"
	"github.com/cardbattle/battle-server-go/internal/session"
)

type testEnv struct {
	client   *BattleClient
	hub      *Hub
	sessions *session.Validator
	ws       *httptest.Server
}

func newTestEnv(t *testing.T, throttle *Throttle, tweaks ...func(*game.Options)) *testEnv {
	t.Helper()
	logger := zaptest.NewLogger(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	catalog := card.Builtin()
	sessionMgr := session.NewManager(time.Minute, logger)
	validator := session.NewValidator(sessionMgr)
	decks := deck.NewService(deck.NewValidator(deck.DefaultRules(), catalog), deck.NewMemoryRepository(), logger)
	accounts := auth.NewManager(auth.NewMemoryStore(), bcrypt.MinCost, logger)

	hub := NewHub(logger)
	go hub.Run(ctx)

	opts := game.DefaultOptions()
	opts.StrictInvariants = true
	for _, tweak := range tweaks {
		tweak(&opts)
	}
	services := game.NewServices(opts, validator, catalog, decks, hub, logger)
	services.Shuffle = func([]int) {}

	srv := NewBattleServer(services, item.NewService(services), decks, accounts, sessionMgr, throttle, logger)

	lis := bufconn.Listen(1 << 20)
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(ChainUnaryInterceptors(
		RecoveryInterceptor(logger),
		LoggingInterceptor(logger),
		ThrottleInterceptor(throttle),
	)))
	RegisterBattleServer(grpcServer, srv)
	go grpcServer.Serve(lis)
	t.Cleanup(grpcServer.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ws := httptest.NewServer(hub.ServeWS(validator))
	t.Cleanup(ws.Close)

	return &testEnv{client: NewBattleClient(conn), hub: hub, sessions: validator, ws: ws}
}

func (e *testEnv) call(t *testing.T, method string, req map[string]any) map[string]any {
	t.Helper()
	resp, err := e.client.Call(context.Background(), method, req)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) mustSucceed(t *testing.T, method string, req map[string]any) map[string]any {
	t.Helper()
	resp := e.call(t, method, req)
	require.Equal(t, true, resp["success"], "%s failed: %v", method, resp)
	return resp
}

// signUp registers and logs in an account and stores its deck.
func (e *testEnv) signUp(t *testing.T, name string, deckCards []int) (string, int64) {
	t.Helper()
	e.mustSucceed(t, "Register", map[string]any{"username": name, "password": "secret-" + name})
	resp := e.mustSucceed(t, "Login", map[string]any{"username": name, "password": "secret-" + name})

	token := resp["session_token"].(string)
	id := int64(resp["account_id"].(float64))

	cards := make([]any, len(deckCards))
	for i, c := range deckCards {
		cards[i] = float64(c)
	}
	e.mustSucceed(t, "RegisterDeck", map[string]any{"session_token": token, "cards": cards})
	return token, id
}

func testDeck(opening ...int) []int {
	cards := append([]int(nil), opening...)
	for len(cards) < 40 {
		cards = append(cards, card.EnergyCardID)
	}
	return cards
}

func board(t *testing.T, resp map[string]any, player string) map[string]any {
	t.Helper()
	n, ok := resp["notice"].(map[string]any)
	require.True(t, ok, "response carries no notice: %v", resp)
	players, ok := n["players"].(map[string]any)
	require.True(t, ok)
	b, ok := players[player].(map[string]any)
	require.True(t, ok, "no board for %s: %v", player, players)
	return b
}

func readNotice(t *testing.T, conn *websocket.Conn, action string) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg struct {
			Type string         `json:"type"`
			Data map[string]any `json:"data"`
		}
		require.NoError(t, json.Unmarshal(raw, &msg))
		require.Equal(t, MessageTypeNotice, msg.Type)
		if msg.Data["action"] == action {
			return msg.Data
		}
	}
}

func TestBattleService_MatchFlow(t *testing.T) {
	env := newTestEnv(t, NewThrottle(0, 0))

	aliceToken, _ := env.signUp(t, "alice", testDeck(32, 8, 93, 93, 20))
	bobToken, bobID := env.signUp(t, "bob", testDeck(26, 19, 21, 93, 93))

	wsURL := "ws" + strings.TrimPrefix(env.ws.URL, "http") + "?session_token=" + bobToken
	bobConn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer bobConn.Close()
	require.Eventually(t, func() bool { return env.hub.Connected(bobID) == 1 }, 2*time.Second, 10*time.Millisecond)

	resp := env.mustSucceed(t, "StartMatch", map[string]any{"session_token": aliceToken, "opponent_id": float64(bobID)})
	roomID, _ := resp["room_id"].(string)
	assert.NotEmpty(t, roomID)
	turn := resp["notice"].(map[string]any)["turn"].(map[string]any)
	assert.Equal(t, "YOU", turn["active"])
	assert.Equal(t, float64(1), turn["round"])

	start := readNotice(t, bobConn, "MATCH_START")
	assert.Equal(t, "OPPONENT", start["turn"].(map[string]any)["active"])

	resp = env.mustSucceed(t, "DeployUnit", map[string]any{"session_token": aliceToken, "card_id": float64(32)})
	assert.Equal(t, map[string]any{"0": float64(10)}, board(t, resp, "YOU")["field_unit_health"])

	env.mustSucceed(t, "EndTurn", map[string]any{"session_token": aliceToken})
	env.mustSucceed(t, "DeployUnit", map[string]any{"session_token": bobToken, "card_id": "26"})
	env.mustSucceed(t, "EndTurn", map[string]any{"session_token": bobToken})

	resp = env.mustSucceed(t, "UseTargetDeathItem", map[string]any{
		"session_token": aliceToken,
		"item_card_id":  float64(8),
		"target_index":  float64(0),
	})
	assert.Equal(t, []any{float64(0)}, board(t, resp, "OPPONENT")["field_unit_death"])

	seen := readNotice(t, bobConn, "TARGET_DEATH")
	handUse := seen["hand_use"].(map[string]any)
	assert.Equal(t, "OPPONENT", handUse["player_index"])
	assert.Equal(t, float64(8), handUse["card_id"])
	mine := seen["players"].(map[string]any)["YOU"].(map[string]any)
	assert.Equal(t, []any{float64(0)}, mine["field_unit_death"])

	resp = env.mustSucceed(t, "GetReplay", map[string]any{"session_token": bobToken, "room_id": roomID})
	history := resp["notices"].([]any)
	require.Len(t, history, 6)
	assert.Equal(t, "MATCH_START", history[0].(map[string]any)["action"])
	assert.Equal(t, "TARGET_DEATH", history[5].(map[string]any)["action"])

	resp = env.call(t, "GetReplay", map[string]any{"session_token": bobToken, "room_id": "no-such-room"})
	assert.Equal(t, "REPLAY_NOT_FOUND", resp["error_code"])
}

func TestBattleService_FirstTurnDrawAndFieldEnergy(t *testing.T) {
	env := newTestEnv(t, NewThrottle(0, 0), func(o *game.Options) { o.FirstTurnDraw = true })

	aliceToken, _ := env.signUp(t, "alice", testDeck(32))
	bobToken, bobID := env.signUp(t, "bob", testDeck(26))

	resp := env.mustSucceed(t, "StartMatch", map[string]any{"session_token": aliceToken, "opponent_id": float64(bobID)})
	assert.Nil(t, resp["notice"].(map[string]any)["turn"])

	resp = env.mustSucceed(t, "CheckFirstTurnWinner", map[string]any{"session_token": aliceToken})
	assert.Equal(t, false, resp["decided"])

	resp = env.call(t, "DeployUnit", map[string]any{"session_token": aliceToken, "card_id": float64(32)})
	assert.Equal(t, "NOT_YOUR_TURN", resp["error_code"])

	resp = env.call(t, "SubmitFirstTurnChoice", map[string]any{"session_token": aliceToken, "gesture": "lizard"})
	assert.Equal(t, "MALFORMED_INPUT", resp["error_code"])

	resp = env.mustSucceed(t, "SubmitFirstTurnChoice", map[string]any{"session_token": aliceToken, "gesture": "paper"})
	assert.Equal(t, false, resp["decided"])
	assert.Nil(t, resp["notice"])

	resp = env.mustSucceed(t, "SubmitFirstTurnChoice", map[string]any{"session_token": bobToken, "gesture": "ROCK"})
	assert.Equal(t, true, resp["decided"])
	turn := resp["notice"].(map[string]any)["turn"].(map[string]any)
	assert.Equal(t, "OPPONENT", turn["active"])

	resp = env.mustSucceed(t, "CheckFirstTurnWinner", map[string]any{"session_token": aliceToken})
	assert.Equal(t, true, resp["decided"])
	assert.Equal(t, true, resp["am_i_first"])
	resp = env.mustSucceed(t, "CheckFirstTurnWinner", map[string]any{"session_token": bobToken})
	assert.Equal(t, false, resp["am_i_first"])

	resp = env.call(t, "SubmitFirstTurnChoice", map[string]any{"session_token": bobToken, "gesture": "scissors"})
	assert.Equal(t, "FIRST_TURN_DECIDED", resp["error_code"])

	env.mustSucceed(t, "DeployUnit", map[string]any{"session_token": aliceToken, "card_id": float64(32)})

	resp = env.call(t, "AttachFieldEnergy", map[string]any{
		"session_token": aliceToken,
		"unit_index":    float64(0),
		"race":          "UNDEAD",
		"quantity":      float64(1),
	})
	assert.Equal(t, "INSUFFICIENT_FIELD_ENERGY", resp["error_code"])

	resp = env.call(t, "AttachFieldEnergy", map[string]any{
		"session_token": aliceToken,
		"unit_index":    float64(0),
		"race":          "UNDEAD",
		"quantity":      "many",
	})
	assert.Equal(t, "MALFORMED_INPUT", resp["error_code"])
}

func TestBattleService_Rejections(t *testing.T) {
	env := newTestEnv(t, NewThrottle(0, 0))
	aliceToken, _ := env.signUp(t, "alice", testDeck(32, 8))
	_, bobID := env.signUp(t, "bob", testDeck(26))

	resp := env.call(t, "UseTargetDeathItem", map[string]any{"session_token": "nope", "item_card_id": 8, "target_index": 0})
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "INVALID_SESSION", resp["error_code"])

	resp = env.call(t, "UseTargetDeathItem", map[string]any{"session_token": "nope", "item_card_id": "eight", "target_index": 0})
	assert.Equal(t, "MALFORMED_INPUT", resp["error_code"], "malformed input is rejected before the session lookup")

	resp = env.call(t, "UseTargetDeathItem", map[string]any{"session_token": aliceToken, "item_card_id": 8, "target_index": 0})
	assert.Equal(t, "NO_ACTIVE_MATCH", resp["error_code"])

	env.mustSucceed(t, "StartMatch", map[string]any{"session_token": aliceToken, "opponent_id": float64(bobID)})
	resp = env.call(t, "StartMatch", map[string]any{"session_token": aliceToken, "opponent_id": float64(bobID)})
	assert.Equal(t, "ALREADY_IN_MATCH", resp["error_code"])

	resp = env.call(t, "UseTargetDeathItem", map[string]any{"session_token": aliceToken, "item_card_id": 8, "target_index": 0})
	assert.Equal(t, "INVALID_TARGET_INDEX", resp["error_code"])
	assert.Equal(t, "0", resp["metadata"].(map[string]any)["index"])

	resp = env.call(t, "Login", map[string]any{"username": "alice", "password": "wrong-password"})
	assert.Equal(t, "INVALID_CREDENTIALS", resp["error_code"])

	resp = env.call(t, "Register", map[string]any{"username": "alice", "password": "another-pass"})
	assert.Equal(t, "ACCOUNT_EXISTS", resp["error_code"])
}

func TestBattleService_RegisterDeckRejectsInvalidDeck(t *testing.T) {
	env := newTestEnv(t, NewThrottle(0, 0))
	env.mustSucceed(t, "Register", map[string]any{"username": "carol", "password": "secret-carol"})
	login := env.mustSucceed(t, "Login", map[string]any{"username": "carol", "password": "secret-carol"})

	resp := env.call(t, "RegisterDeck", map[string]any{"session_token": login["session_token"], "cards": []any{float64(31), float64(93)}})
	assert.Equal(t, "INVALID_DECK", resp["error_code"])
	assert.Contains(t, resp["error"], "deck has 2 cards; exactly 40 are required")
}

func TestBattleService_LogoutInvalidatesSession(t *testing.T) {
	env := newTestEnv(t, NewThrottle(0, 0))
	token, _ := env.signUp(t, "dave", testDeck())

	env.mustSucceed(t, "Logout", map[string]any{"session_token": token})
	assert.Equal(t, game.InvalidAccount, env.sessions.Validate(token))

	resp := env.call(t, "EndTurn", map[string]any{"session_token": token})
	assert.Equal(t, "INVALID_SESSION", resp["error_code"])
}

func TestWebSocket_RejectsInvalidSession(t *testing.T) {
	env := newTestEnv(t, NewThrottle(0, 0))
	wsURL := "ws" + strings.TrimPrefix(env.ws.URL, "http") + "?session_token=bogus"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}
