package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cardbattle/battle-server-go/internal/auth"
	"github.com/cardbattle/battle-server-go/internal/battle"
	"github.com/cardbattle/battle-server-go/internal/card"
	"github.com/cardbattle/battle-server-go/internal/deck"
	"github.com/cardbattle/battle-server-go/internal/game"
	"github.com/cardbattle/battle-server-go/internal/game/item"
	"github.com/cardbattle/battle-server-go/internal/game/notice"
	"github.com/cardbattle/battle-server-go/internal/game/protocol"
	"github.com/cardbattle/battle-server-go/internal/game/replay"
	"github.com/cardbattle/battle-server-go/internal/session"
)

const (
	fieldSessionToken       = "session_token"
	fieldUsername           = "username"
	fieldPassword           = "password"
	fieldCards              = "cards"
	fieldOpponentID         = "opponent_id"
	fieldCardID             = "card_id"
	fieldItemCardID         = "item_card_id"
	fieldTargetIndex        = "target_index"
	fieldTargetIndices      = "target_indices"
	fieldSacrificeUnitIndex = "sacrifice_unit_index"
	fieldUnitIndex          = "unit_index"
	fieldRace               = "race"
	fieldQuantity           = "quantity"
	fieldGesture            = "gesture"
	fieldRoomID             = "room_id"
)

// Error codes for failures outside the in-match taxonomy.
const (
	codeInvalidCredentials = "INVALID_CREDENTIALS"
	codeAccountExists      = "ACCOUNT_EXISTS"
	codeInvalidDeck        = "INVALID_DECK"
	codeDeckNotFound       = "DECK_NOT_FOUND"
	codeAlreadyInMatch     = "ALREADY_IN_MATCH"
	codeInvalidRequest     = "INVALID_REQUEST"
	codeReplayNotFound     = "REPLAY_NOT_FOUND"
)

type battleServer struct {
	services *game.Services
	items    *item.Service
	decks    *deck.Service
	accounts *auth.Manager
	sessions session.Manager
	throttle *Throttle
	logger   *zap.Logger
}

// NewBattleServer creates the gRPC handler set.
func NewBattleServer(
	services *game.Services,
	items *item.Service,
	decks *deck.Service,
	accounts *auth.Manager,
	sessions session.Manager,
	throttle *Throttle,
	logger *zap.Logger,
) BattleServer {
	return &battleServer{
		services: services,
		items:    items,
		decks:    decks,
		accounts: accounts,
		sessions: sessions,
		throttle: throttle,
		logger:   logger,
	}
}

// ==================== Accounts ====================

func (s *battleServer) Register(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	name, password := rawField(in, fieldUsername), rawField(in, fieldPassword)
	if name == "" || password == "" {
		return failure(codeInvalidRequest, "username and password are required", nil)
	}

	id, err := s.accounts.Register(ctx, name, password)
	if err != nil {
		s.logger.Warn("account registration failed", zap.String("username", name), zap.Error(err))
		return s.reject(err)
	}
	return success(map[string]any{"account_id": id})
}

func (s *battleServer) Login(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	name, password := rawField(in, fieldUsername), rawField(in, fieldPassword)
	if name == "" || password == "" {
		return failure(codeInvalidRequest, "username and password are required", nil)
	}

	acct, err := s.accounts.Authenticate(ctx, name, password)
	if err != nil {
		s.logger.Warn("login failed", zap.String("username", name), zap.Error(err))
		return s.reject(err)
	}

	host := extractHostFromContext(ctx)
	sess := s.sessions.CreateSession(uuid.NewString(), host)
	sess.SetUserID(strconv.FormatInt(acct.ID, 10))

	s.logger.Info("account logged in",
		zap.String("username", acct.Name),
		zap.Int64("account_id", acct.ID),
		zap.String("session_id", sess.ID),
		zap.String("host", host),
	)
	return success(map[string]any{"session_token": sess.ID, "account_id": acct.ID})
}

func (s *battleServer) Logout(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	token := rawField(in, fieldSessionToken)
	if _, err := s.services.Authenticate(token); err != nil {
		return s.reject(err)
	}
	s.sessions.RemoveSession(token)
	s.throttle.Forget(token)
	return success(nil)
}

// ==================== Match setup ====================

func (s *battleServer) RegisterDeck(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	accountID, err := s.services.Authenticate(rawField(in, fieldSessionToken))
	if err != nil {
		return s.reject(err)
	}
	cards, err := intList(in, fieldCards)
	if err != nil {
		return s.reject(err)
	}
	if err := s.decks.Register(ctx, accountID, cards); err != nil {
		return s.reject(err)
	}
	return success(map[string]any{"cards": int64(len(cards))})
}

func (s *battleServer) StartMatch(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	accountID, err := s.services.Authenticate(rawField(in, fieldSessionToken))
	if err != nil {
		return s.reject(err)
	}
	opponentID, err := intField(in, fieldOpponentID)
	if err != nil {
		return s.reject(err)
	}
	room, env, err := s.services.StartMatch(ctx, accountID, int64(opponentID))
	if err != nil {
		return s.reject(err)
	}
	return noticeResponse(env.Actor, map[string]any{"room_id": room.ID})
}

func (s *battleServer) SubmitFirstTurnChoice(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	gesture, err := battle.ParseGesture(rawField(in, fieldGesture))
	if err != nil {
		return s.reject(protocol.WithMetadata(protocol.CodeMalformedInput, "gesture must be rock, paper or scissors",
			map[string]string{"field": fieldGesture, "value": rawField(in, fieldGesture)}))
	}
	accountID, err := s.services.Authenticate(rawField(in, fieldSessionToken))
	if err != nil {
		return s.reject(err)
	}
	env, decided, err := s.services.ChooseFirstTurn(accountID, gesture)
	if err != nil {
		return s.reject(err)
	}
	if !decided {
		return success(map[string]any{"decided": false})
	}
	return noticeResponse(env.Actor, map[string]any{"decided": true})
}

func (s *battleServer) CheckFirstTurnWinner(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	accountID, err := s.services.Authenticate(rawField(in, fieldSessionToken))
	if err != nil {
		return s.reject(err)
	}
	decided, first, err := s.services.FirstTurn(accountID)
	if err != nil {
		return s.reject(err)
	}
	return success(map[string]any{"decided": decided, "am_i_first": first})
}

func (s *battleServer) EndTurn(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	accountID, err := s.services.Authenticate(rawField(in, fieldSessionToken))
	if err != nil {
		return s.reject(err)
	}
	return s.envelope(s.services.EndTurn(accountID))
}

func (s *battleServer) DeployUnit(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	cardID, err := intField(in, fieldCardID)
	if err != nil {
		return s.reject(err)
	}
	accountID, err := s.services.Authenticate(rawField(in, fieldSessionToken))
	if err != nil {
		return s.reject(err)
	}
	return s.envelope(s.services.DeployUnit(accountID, cardID))
}

func (s *battleServer) AttachEnergy(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	idx, err := intField(in, fieldUnitIndex)
	if err != nil {
		return s.reject(err)
	}
	race, err := card.ParseRace(rawField(in, fieldRace))
	if err != nil || race == card.RaceNone {
		return s.reject(protocol.WithMetadata(protocol.CodeMalformedInput, "race is not a unit race",
			map[string]string{"field": fieldRace, "value": rawField(in, fieldRace)}))
	}
	accountID, err := s.services.Authenticate(rawField(in, fieldSessionToken))
	if err != nil {
		return s.reject(err)
	}
	return s.envelope(s.services.AttachEnergy(accountID, idx, race))
}

func (s *battleServer) AttachFieldEnergy(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	idx, err := intField(in, fieldUnitIndex)
	if err != nil {
		return s.reject(err)
	}
	quantity, err := intField(in, fieldQuantity)
	if err != nil {
		return s.reject(err)
	}
	race, err := card.ParseRace(rawField(in, fieldRace))
	if err != nil || race == card.RaceNone {
		return s.reject(protocol.WithMetadata(protocol.CodeMalformedInput, "race is not a unit race",
			map[string]string{"field": fieldRace, "value": rawField(in, fieldRace)}))
	}
	accountID, err := s.services.Authenticate(rawField(in, fieldSessionToken))
	if err != nil {
		return s.reject(err)
	}
	return s.envelope(s.services.AttachFieldEnergy(accountID, idx, race, quantity))
}

// ==================== Items ====================

func (s *battleServer) UseTargetDeathItem(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := item.TargetDeathForm{
		SessionToken: rawField(in, fieldSessionToken),
		ItemCardID:   rawField(in, fieldItemCardID),
		TargetIndex:  rawField(in, fieldTargetIndex),
	}.Parse()
	if err != nil {
		return s.reject(err)
	}
	return s.envelope(s.items.UseTargetDeathItem(req))
}

func (s *battleServer) UseCatastrophicDamageItem(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := item.CatastrophicDamageForm{
		SessionToken: rawField(in, fieldSessionToken),
		ItemCardID:   rawField(in, fieldItemCardID),
	}.Parse()
	if err != nil {
		return s.reject(err)
	}
	return s.envelope(s.items.UseCatastrophicDamageItem(req))
}

func (s *battleServer) UseSacrificeMultiTargetItem(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := item.SacrificeMultiTargetForm{
		SessionToken:       rawField(in, fieldSessionToken),
		ItemCardID:         rawField(in, fieldItemCardID),
		SacrificeUnitIndex: rawField(in, fieldSacrificeUnitIndex),
		TargetIndices:      rawList(in, fieldTargetIndices),
	}.Parse()
	if err != nil {
		return s.reject(err)
	}
	return s.envelope(s.items.UseSacrificeMultiTargetItem(req))
}

func (s *battleServer) UseEnergyRemovalItem(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := item.EnergyRemovalForm{
		SessionToken: rawField(in, fieldSessionToken),
		ItemCardID:   rawField(in, fieldItemCardID),
		TargetIndex:  rawField(in, fieldTargetIndex),
	}.Parse()
	if err != nil {
		return s.reject(err)
	}
	return s.envelope(s.items.UseEnergyRemovalItem(req))
}

func (s *battleServer) UseFieldEnergyBoostItem(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := item.FieldEnergyBoostForm{
		SessionToken: rawField(in, fieldSessionToken),
		ItemCardID:   rawField(in, fieldItemCardID),
		TargetIndex:  rawField(in, fieldTargetIndex),
	}.Parse()
	if err != nil {
		return s.reject(err)
	}
	return s.envelope(s.items.UseFieldEnergyBoostItem(req))
}

// ==================== History ====================

func (s *battleServer) GetReplay(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	accountID, err := s.services.Authenticate(rawField(in, fieldSessionToken))
	if err != nil {
		return s.reject(err)
	}
	notices, err := s.services.Replay(accountID, rawField(in, fieldRoomID))
	if err != nil {
		return s.reject(err)
	}

	raw, err := json.Marshal(notices)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "marshal replay: %v", err)
	}
	var entries []any
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, status.Errorf(codes.Internal, "decode replay: %v", err)
	}
	return success(map[string]any{"notices": entries})
}

// ==================== Responses ====================

// envelope answers with the actor's half. The opponent's half went out through the notifier.
func (s *battleServer) envelope(env notice.Envelope, err error) (*structpb.Struct, error) {
	if err != nil {
		return s.reject(err)
	}
	return noticeResponse(env.Actor, nil)
}

// reject maps err to a failure payload. Invariant violations and unclassified errors are
// server faults and become gRPC status errors.
func (s *battleServer) reject(err error) (*structpb.Struct, error) {
	var pe *protocol.Error
	if errors.As(err, &pe) {
		if pe.Code.GRPCCode() == codes.Internal {
			return nil, status.Error(codes.Internal, pe.Message)
		}
		return failure(string(pe.Code), pe.Message, pe.Metadata)
	}

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return failure(codeInvalidCredentials, err.Error(), nil)
	case errors.Is(err, auth.ErrAccountExists):
		return failure(codeAccountExists, err.Error(), nil)
	case errors.Is(err, deck.ErrInvalidDeck):
		return failure(codeInvalidDeck, err.Error(), nil)
	case errors.Is(err, deck.ErrDeckNotFound):
		return failure(codeDeckNotFound, err.Error(), nil)
	case errors.Is(err, replay.ErrNotFound):
		return failure(codeReplayNotFound, err.Error(), nil)
	case errors.Is(err, battle.ErrAlreadyInMatch), errors.Is(err, battle.ErrSelfMatch):
		return failure(codeAlreadyInMatch, err.Error(), nil)
	case errors.Is(err, auth.ErrInvalidUsername), errors.Is(err, auth.ErrWeakPassword):
		return failure(codeInvalidRequest, err.Error(), nil)
	}

	s.logger.Error("unhandled error", zap.Error(err))
	return nil, status.Error(codes.Internal, "internal error")
}

func success(fields map[string]any) (*structpb.Struct, error) {
	out := map[string]any{"success": true}
	for k, v := range fields {
		out[k] = v
	}
	return structpb.NewStruct(out)
}

func failure(code, message string, metadata map[string]string) (*structpb.Struct, error) {
	out := map[string]any{"success": false, "error_code": code, "error": message}
	if len(metadata) > 0 {
		md := make(map[string]any, len(metadata))
		for k, v := range metadata {
			md[k] = v
		}
		out["metadata"] = md
	}
	return structpb.NewStruct(out)
}

func noticeResponse(n notice.Notice, extra map[string]any) (*structpb.Struct, error) {
	raw, err := json.Marshal(n)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "marshal notice: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, status.Errorf(codes.Internal, "decode notice: %v", err)
	}
	fields := map[string]any{"notice": payload}
	for k, v := range extra {
		fields[k] = v
	}
	return success(fields)
}

// ==================== Request fields ====================

// rawField returns a request field as text. Numbers are rendered without a fraction when
// they have none, so the parsers downstream see what the client sent.
func rawField(in *structpb.Struct, name string) string {
	return rawValue(in.GetFields()[name])
}

func rawValue(v *structpb.Value) string {
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return k.StringValue
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(k.NumberValue, 'f', -1, 64)
	case *structpb.Value_BoolValue:
		return strconv.FormatBool(k.BoolValue)
	default:
		return ""
	}
}

// rawList returns a list field as text. A string field is split on commas.
func rawList(in *structpb.Struct, name string) []string {
	v := in.GetFields()[name]
	if list := v.GetListValue(); list != nil {
		out := make([]string, 0, len(list.GetValues()))
		for _, elem := range list.GetValues() {
			out = append(out, rawValue(elem))
		}
		return out
	}
	s := strings.TrimSpace(rawValue(v))
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func intField(in *structpb.Struct, name string) (int, error) {
	raw := rawField(in, name)
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, protocol.WithMetadata(protocol.CodeMalformedInput, name+" is not an integer",
			map[string]string{"field": name, "value": raw})
	}
	return n, nil
}

func intList(in *structpb.Struct, name string) ([]int, error) {
	raws := rawList(in, name)
	out := make([]int, 0, len(raws))
	for _, raw := range raws {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, protocol.WithMetadata(protocol.CodeMalformedInput, name+" holds a non-integer",
				map[string]string{"field": name, "value": raw})
		}
		out = append(out, n)
	}
	return out, nil
}

func extractHostFromContext(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		if host, _, err := net.SplitHostPort(p.Addr.String()); err == nil {
			return host
		}
		return p.Addr.String()
	}
	return "unknown"
}
