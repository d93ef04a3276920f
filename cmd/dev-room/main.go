// Command dev-room signs in two test accounts, registers starter decks, pairs them in a
// match and tails the notices both players receive. It is a development helper for client
// work against a local server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/cardbattle/battle-server-go/internal/battle"
	"github.com/cardbattle/battle-server-go/internal/card"
	"github.com/cardbattle/battle-server-go/internal/server"
)

var (
	grpcAddr = flag.String("grpc", "localhost:50051", "battle server gRPC address")
	wsAddr   = flag.String("ws", "ws://localhost:8080/ws", "battle server websocket URL")
	first    = flag.String("first", "devplayer1", "account that starts the match")
	second   = flag.String("second", "devplayer2", "second account")
	password = flag.String("password", "devpassword", "password for both accounts")
)

// starterDeck opens with two units, a removal item and energy.
func starterDeck() []any {
	cards := []int{32, 31, 26, 8, 33, 20, 25, 35}
	for len(cards) < 40 {
		cards = append(cards, card.EnergyCardID)
	}
	out := make([]any, len(cards))
	for i, c := range cards {
		out[i] = float64(c)
	}
	return out
}

type player struct {
	name      string
	token     string
	accountID int64
}

func main() {
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	conn, err := grpc.NewClient(*grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		logger.Fatal("failed to dial battle server", zap.Error(err))
	}
	defer conn.Close()
	client := server.NewBattleClient(conn)

	players := make([]*player, 0, 2)
	for _, name := range []string{*first, *second} {
		p, err := signIn(ctx, client, name, *password)
		if err != nil {
			logger.Fatal("failed to sign in", zap.String("username", name), zap.Error(err))
		}
		logger.Info("signed in", zap.String("username", p.name), zap.Int64("account_id", p.accountID))
		players = append(players, p)
	}

	for _, p := range players {
		go tail(ctx, p, logger)
	}
	time.Sleep(200 * time.Millisecond)

	resp, err := call(ctx, client, "StartMatch", map[string]any{
		"session_token": players[0].token,
		"opponent_id":   float64(players[1].accountID),
	})
	if err != nil {
		logger.Fatal("failed to start match", zap.Error(err))
	}
	logger.Info("match started",
		zap.Any("room_id", resp["room_id"]),
		zap.String("first_token", players[0].token),
		zap.String("second_token", players[1].token),
	)

	if err := drawFirstTurn(ctx, client, players, logger); err != nil {
		logger.Fatal("failed to decide first turn", zap.Error(err))
	}

	<-ctx.Done()
	logger.Info("dev room closed")
}

// drawFirstTurn plays rock-paper-scissors for both seats when the server asks for it.
func drawFirstTurn(ctx context.Context, client *server.BattleClient, players []*player, logger *zap.Logger) error {
	resp, err := call(ctx, client, "CheckFirstTurnWinner", map[string]any{"session_token": players[0].token})
	if err != nil {
		return err
	}
	if resp["decided"] == true {
		return nil
	}
	for _, p := range players {
		gesture := battle.RandomGesture().String()
		if _, err := call(ctx, client, "SubmitFirstTurnChoice", map[string]any{
			"session_token": p.token,
			"gesture":       gesture,
		}); err != nil {
			return err
		}
		logger.Info("gesture submitted", zap.String("username", p.name), zap.String("gesture", gesture))
	}
	for _, p := range players {
		resp, err := call(ctx, client, "CheckFirstTurnWinner", map[string]any{"session_token": p.token})
		if err != nil {
			return err
		}
		if resp["am_i_first"] == true {
			logger.Info("first turn decided", zap.String("username", p.name))
		}
	}
	return nil
}

func signIn(ctx context.Context, client *server.BattleClient, name, pw string) (*player, error) {
	creds := map[string]any{"username": name, "password": pw}
	resp, err := client.Call(ctx, "Register", creds)
	if err != nil {
		return nil, err
	}
	if resp["success"] != true && resp["error_code"] != "ACCOUNT_EXISTS" {
		return nil, fmt.Errorf("register: %v", resp["error"])
	}

	resp, err = call(ctx, client, "Login", creds)
	if err != nil {
		return nil, err
	}
	p := &player{
		name:      name,
		token:     resp["session_token"].(string),
		accountID: int64(resp["account_id"].(float64)),
	}

	if _, err := call(ctx, client, "RegisterDeck", map[string]any{"session_token": p.token, "cards": starterDeck()}); err != nil {
		return nil, err
	}
	return p, nil
}

func call(ctx context.Context, client *server.BattleClient, method string, req map[string]any) (map[string]any, error) {
	resp, err := client.Call(ctx, method, req)
	if err != nil {
		return nil, err
	}
	if resp["success"] != true {
		return nil, fmt.Errorf("%s: %v (%v)", method, resp["error"], resp["error_code"])
	}
	return resp, nil
}

// tail prints every notice pushed to the player until ctx is done.
func tail(ctx context.Context, p *player, logger *zap.Logger) {
	u, err := url.Parse(*wsAddr)
	if err != nil {
		logger.Error("bad websocket url", zap.Error(err))
		return
	}
	q := u.Query()
	q.Set("session_token", p.token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		logger.Error("websocket dial failed", zap.String("username", p.name), zap.Error(err))
		return
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg server.WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			logger.Warn("undecodable frame", zap.String("username", p.name), zap.Error(err))
			continue
		}
		logger.Info("notice", zap.String("username", p.name), zap.Any("data", msg.Data))
	}
}
