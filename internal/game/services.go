// Package game wires the per-match state stores, the legitimacy guard and the notice
// composer into one Services value that is built once at startup and passed by pointer.
package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"go.uber.org/zap"

	"github.com/cardbattle/battle-server-go/internal/battle"
	"github.com/cardbattle/battle-server-go/internal/card"
	"github.com/cardbattle/battle-server-go/internal/game/character"
	"github.com/cardbattle/battle-server-go/internal/game/energy"
	"github.com/cardbattle/battle-server-go/internal/game/field"
	"github.com/cardbattle/battle-server-go/internal/game/notice"
	"github.com/cardbattle/battle-server-go/internal/game/protocol"
	"github.com/cardbattle/battle-server-go/internal/game/replay"
	"github.com/cardbattle/battle-server-go/internal/game/zone"
	"github.com/cardbattle/battle-server-go/internal/session"
)

// InvalidAccount is returned by session lookups that fail.
const InvalidAccount = session.InvalidAccount

// SessionValidator resolves a session token to an account id, or InvalidAccount.
type SessionValidator interface {
	Validate(token string) int64
}

// DeckSource returns the registered deck of an account.
type DeckSource interface {
	ActiveDeck(ctx context.Context, accountID int64) ([]int, error)
}

// Options are the rule parameters of a match.
type Options struct {
	UnlockRound         int
	StartingHandSize    int
	MainCharacterHealth int
	FieldCapacity       int
	StrictInvariants    bool
	// FirstTurnDraw makes each match open with a rock-paper-scissors draw for the first
	// turn. Without it the account that starts the match acts first.
	FirstTurnDraw bool
}

// DefaultOptions returns the standard rule parameters.
func DefaultOptions() Options {
	return Options{
		UnlockRound:         4,
		StartingHandSize:    5,
		MainCharacterHealth: 100,
		FieldCapacity:       field.DefaultCapacity,
	}
}

// Services holds every collaborator of the action pipeline.
type Services struct {
	Logger   *zap.Logger
	Options  Options
	Sessions SessionValidator
	Catalog  card.Catalog
	Decks    DeckSource

	Directory  *battle.Directory
	Hand       *zone.Store
	Tomb       *zone.Store
	Deck       *zone.Store
	LostZone   *zone.Store
	Field      *field.Store
	Targets    *field.TargetValidator
	Energy     *energy.Pool
	Characters *character.Store

	Guard    *protocol.Guard
	Composer *notice.Composer
	Notifier notice.Notifier
	Replays  *replay.Recorder

	// Shuffle orders a deck at match start.
	Shuffle func(cards []int)
}

// NewServices builds the container with empty stores.
func NewServices(opts Options, sessions SessionValidator, catalog card.Catalog, decks DeckSource, notifier notice.Notifier, logger *zap.Logger) *Services {
	if notifier == nil {
		notifier = notice.Nop
	}
	hand := zone.NewStore(zone.Hand)
	fields := field.NewStore(opts.FieldCapacity)
	directory := battle.NewDirectory(logger)
	if opts.FirstTurnDraw {
		directory.EnableFirstTurnDraw(battle.RandomGesture)
	}
	return &Services{
		Logger:     logger,
		Options:    opts,
		Sessions:   sessions,
		Catalog:    catalog,
		Decks:      decks,
		Directory:  directory,
		Hand:       hand,
		Tomb:       zone.NewStore(zone.Tomb),
		Deck:       zone.NewStore(zone.Deck),
		LostZone:   zone.NewStore(zone.LostZone),
		Field:      fields,
		Targets:    field.NewTargetValidator(fields),
		Energy:     energy.NewPool(),
		Characters: character.NewStore(),
		Guard:      protocol.NewGuard(hand, catalog, opts.UnlockRound),
		Composer:   notice.NewComposer(),
		Notifier:   notifier,
		Replays:    replay.NewRecorder("", logger),
		Shuffle: func(cards []int) {
			rand.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
		},
	}
}

// Authenticate resolves a session token. Lookup failures are InvalidSession.
func (s *Services) Authenticate(token string) (int64, error) {
	accountID := s.Sessions.Validate(token)
	if accountID == InvalidAccount {
		return InvalidAccount, protocol.New(protocol.CodeInvalidSession, "session not found")
	}
	return accountID, nil
}

// Match returns the account's room and opponent.
func (s *Services) Match(accountID int64) (*battle.Room, int64, error) {
	room, ok := s.Directory.RoomOf(accountID)
	if !ok {
		return nil, 0, protocol.New(protocol.CodeNoActiveMatch, "account is not in a match")
	}
	opponentID, _ := room.OpponentOf(accountID)
	return room, opponentID, nil
}

// Invariant reports state that the legitimacy checks should have made impossible. It logs
// at Error and panics when strict invariants are on.
func (s *Services) Invariant(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	s.Logger.Error("invariant violation", zap.String("detail", msg))
	if s.Options.StrictInvariants {
		panic("invariant violation: " + msg)
	}
	return protocol.New(protocol.CodeInvariantViolation, msg)
}

// Reject logs a rejected action. Integrity violations are flagged for audit.
func (s *Services) Reject(accountID int64, action string, err error) error {
	code := protocol.CodeOf(err)
	fields := []zap.Field{
		zap.Int64("account_id", accountID),
		zap.String("action", action),
		zap.String("code", string(code)),
		zap.Error(err),
	}
	if code.Integrity() {
		s.Logger.Warn("integrity violation", append(fields, zap.Bool("audit", true))...)
	} else {
		s.Logger.Debug("action rejected", fields...)
	}
	return err
}

// Publish composes a delta and delivers both notices.
func (s *Services) Publish(actorID, opponentID int64, d *notice.Delta) notice.Envelope {
	env := s.Composer.Compose(actorID, opponentID, d)
	if room, ok := s.Directory.RoomOf(actorID); ok {
		s.Replays.Record(room.ID, env)
	}
	notice.Deliver(s.Notifier, env)
	return env
}

// Bury moves a removed unit's card to its owner's tomb.
func (s *Services) Bury(ownerID int64, cardID int) {
	s.Tomb.Add(ownerID, cardID)
}

// StartMatch pairs two accounts with registered decks. first acts first in round 1 unless
// the first-turn draw is enabled, in which case nobody acts until ChooseFirstTurn settles it.
func (s *Services) StartMatch(ctx context.Context, first, second int64) (*battle.Room, notice.Envelope, error) {
	decks := make(map[int64][]int, 2)
	for _, acct := range []int64{first, second} {
		cards, err := s.Decks.ActiveDeck(ctx, acct)
		if err != nil {
			return nil, notice.Envelope{}, fmt.Errorf("load deck of account %d: %w", acct, err)
		}
		decks[acct] = slices.Clone(cards)
	}

	room, err := s.Directory.CreateRoom(first, second)
	if err != nil {
		return nil, notice.Envelope{}, err
	}
	s.Replays.StartRecording(room.ID, room.Players)

	for acct, cards := range decks {
		s.resetAccount(acct)
		s.Shuffle(cards)
		s.Deck.Replace(acct, cards)
		s.Hand.AddAll(acct, s.Deck.DrawTop(acct, s.Options.StartingHandSize))
		s.Characters.Spawn(acct, s.Options.MainCharacterHealth)
	}

	s.Logger.Info("match started",
		zap.String("room_id", room.ID),
		zap.Int64("first", first),
		zap.Int64("second", second),
	)

	d := notice.NewDelta("MATCH_START").
		MainCharacter(notice.Actor, s.Characters.Health(first), character.Alive.String()).
		MainCharacter(notice.Opponent, s.Characters.Health(second), character.Alive.String())
	if _, decided := room.FirstPlayer(); decided {
		d.Turn(notice.Actor, room.Round())
	}
	return room, s.Publish(first, second, d), nil
}

// ChooseFirstTurn records the account's rock-paper-scissors gesture. When it completes the
// draw, both players are told who acts first and decided is true.
func (s *Services) ChooseFirstTurn(accountID int64, g battle.Gesture) (env notice.Envelope, decided bool, err error) {
	room, opponentID, err := s.Match(accountID)
	if err != nil {
		return notice.Envelope{}, false, s.Reject(accountID, "FIRST_TURN", err)
	}

	err = room.Serialize(func() error {
		first, ok, err := room.SubmitGesture(accountID, g)
		switch {
		case errors.Is(err, battle.ErrFirstTurnDecided):
			return protocol.New(protocol.CodeFirstTurnDecided, "first turn already decided")
		case errors.Is(err, battle.ErrInvalidGesture):
			return protocol.New(protocol.CodeMalformedInput, "gesture must be rock, paper or scissors")
		case err != nil:
			return s.Invariant("submit gesture of account %d: %v", accountID, err)
		}
		if !ok {
			return nil
		}

		active := notice.Opponent
		if first == accountID {
			active = notice.Actor
		}
		decided = true
		env = s.Publish(accountID, opponentID, notice.NewDelta("FIRST_TURN").Turn(active, room.Round()))
		s.Logger.Info("first turn decided", zap.String("room_id", room.ID), zap.Int64("first", first))
		return nil
	})
	if err != nil {
		return notice.Envelope{}, false, s.Reject(accountID, "FIRST_TURN", err)
	}
	return env, decided, nil
}

// FirstTurn reports whether the first turn of the account's match is decided and, if so,
// whether the account acts first.
func (s *Services) FirstTurn(accountID int64) (decided, first bool, err error) {
	room, _, err := s.Match(accountID)
	if err != nil {
		return false, false, s.Reject(accountID, "FIRST_TURN", err)
	}
	who, decided := room.FirstPlayer()
	return decided, decided && who == accountID, nil
}

// EndTurn passes the turn to the opponent.
func (s *Services) EndTurn(accountID int64) (notice.Envelope, error) {
	room, opponentID, err := s.Match(accountID)
	if err != nil {
		return notice.Envelope{}, s.Reject(accountID, "END_TURN", err)
	}

	var env notice.Envelope
	err = room.Serialize(func() error {
		_, round, err := room.EndTurn(accountID)
		if err != nil {
			return err
		}
		env = s.Publish(accountID, opponentID, notice.NewDelta("TURN_END").Turn(notice.Opponent, round))
		return nil
	})
	if err != nil {
		return notice.Envelope{}, s.Reject(accountID, "END_TURN", err)
	}
	return env, nil
}

// DeployUnit plays a unit card from hand onto the lowest free slot.
func (s *Services) DeployUnit(accountID int64, cardID int) (notice.Envelope, error) {
	room, opponentID, err := s.Match(accountID)
	if err != nil {
		return notice.Envelope{}, s.Reject(accountID, "DEPLOY_UNIT", err)
	}

	var env notice.Envelope
	err = room.Serialize(func() error {
		if err := s.Guard.CheckTurn(room, accountID); err != nil {
			return err
		}
		if err := s.Guard.CheckPossession(accountID, cardID); err != nil {
			return err
		}
		def, ok := s.Catalog.Card(cardID)
		if !ok || def.Kind != card.KindUnit {
			return protocol.New(protocol.CodeWrongCardCategory, "card is not a unit")
		}
		if err := s.Guard.CheckUsability(room, def); err != nil {
			return err
		}
		if len(s.Field.Occupied(accountID)) >= s.Field.Capacity() {
			return protocol.New(protocol.CodeFieldFull, "no free field slot")
		}

		if !s.Hand.Remove(accountID, cardID) {
			return s.Invariant("unit %d left the hand of account %d", cardID, accountID)
		}
		idx, err := s.Field.Deploy(accountID, field.NewUnit(def))
		if err != nil {
			return s.Invariant("deploy unit %d: %v", cardID, err)
		}
		env = s.Publish(accountID, opponentID, notice.NewDelta("DEPLOY_UNIT").
			HandUse(cardID).
			UnitHealth(notice.Actor, idx, def.Health))
		return nil
	})
	if err != nil {
		return notice.Envelope{}, s.Reject(accountID, "DEPLOY_UNIT", err)
	}
	return env, nil
}

// AttachEnergy spends a basic energy card from hand to attach one energy of race to one of
// the account's own units.
func (s *Services) AttachEnergy(accountID int64, unitIdx int, race card.Race) (notice.Envelope, error) {
	room, opponentID, err := s.Match(accountID)
	if err != nil {
		return notice.Envelope{}, s.Reject(accountID, "ATTACH_ENERGY", err)
	}

	var env notice.Envelope
	err = room.Serialize(func() error {
		if err := s.Guard.CheckTurn(room, accountID); err != nil {
			return err
		}
		if err := s.Guard.CheckPossession(accountID, card.EnergyCardID); err != nil {
			return err
		}
		if err := s.Targets.ValidateTarget(accountID, unitIdx, "own unit"); err != nil {
			return err
		}

		if !s.Hand.Remove(accountID, card.EnergyCardID) {
			return s.Invariant("energy card left the hand of account %d", accountID)
		}
		s.Tomb.Add(accountID, card.EnergyCardID)
		if !s.Field.AttachEnergy(accountID, unitIdx, race, 1) {
			return s.Invariant("unit at slot %d vanished before energy attach", unitIdx)
		}
		attached, _ := s.Field.AttachedEnergy(accountID, unitIdx)
		env = s.Publish(accountID, opponentID, notice.NewDelta("ATTACH_ENERGY").
			HandUse(card.EnergyCardID).
			UnitEnergy(notice.Actor, unitIdx, attached.ByName()))
		return nil
	})
	if err != nil {
		return notice.Envelope{}, s.Reject(accountID, "ATTACH_ENERGY", err)
	}
	return env, nil
}

// AttachFieldEnergy spends banked field energy to attach amount energy of race to one of
// the account's own units.
func (s *Services) AttachFieldEnergy(accountID int64, unitIdx int, race card.Race, amount int) (notice.Envelope, error) {
	room, opponentID, err := s.Match(accountID)
	if err != nil {
		return notice.Envelope{}, s.Reject(accountID, "ATTACH_FIELD_ENERGY", err)
	}

	var env notice.Envelope
	err = room.Serialize(func() error {
		if err := s.Guard.CheckTurn(room, accountID); err != nil {
			return err
		}
		if amount <= 0 {
			return protocol.New(protocol.CodeMalformedInput, "quantity must be positive")
		}
		if err := s.Targets.ValidateTarget(accountID, unitIdx, "own unit"); err != nil {
			return err
		}
		if banked := s.Energy.Count(accountID); banked < amount {
			return protocol.Newf(protocol.CodeInsufficientFieldEnergy, "need %d field energy, have %d", amount, banked)
		}

		if !s.Energy.Spend(accountID, amount) {
			return s.Invariant("field energy of account %d dropped below %d", accountID, amount)
		}
		if !s.Field.AttachEnergy(accountID, unitIdx, race, amount) {
			return s.Invariant("unit at slot %d vanished before energy attach", unitIdx)
		}
		attached, _ := s.Field.AttachedEnergy(accountID, unitIdx)
		env = s.Publish(accountID, opponentID, notice.NewDelta("ATTACH_FIELD_ENERGY").
			UnitEnergy(notice.Actor, unitIdx, attached.ByName()).
			FieldEnergy(notice.Actor, s.Energy.Count(accountID)))
		return nil
	})
	if err != nil {
		return notice.Envelope{}, s.Reject(accountID, "ATTACH_FIELD_ENERGY", err)
	}
	return env, nil
}

// Shutdown ends every live match without a winner so their journals are finished.
func (s *Services) Shutdown() {
	for _, room := range s.Directory.Rooms() {
		_ = room.Serialize(func() error {
			s.EndMatch(room, 0)
			return nil
		})
	}
}

// EndMatch closes the room. Board state stays readable until either account starts a new
// match.
func (s *Services) EndMatch(room *battle.Room, winner int64) {
	s.Directory.CloseRoom(room.ID, winner)
	if err := s.Replays.Finish(room.ID); err != nil {
		s.Logger.Warn("replay not saved", zap.String("room_id", room.ID), zap.Error(err))
	}
}

// Replay returns the notices the account received in a room, in order. Rooms the account
// did not play in read as missing.
func (s *Services) Replay(accountID int64, roomID string) ([]notice.Notice, error) {
	r, err := s.Replays.Replay(roomID)
	if err != nil {
		return nil, err
	}
	if !r.Has(accountID) {
		return nil, replay.ErrNotFound
	}
	return r.View(accountID), nil
}

func (s *Services) resetAccount(accountID int64) {
	s.Hand.Clear(accountID)
	s.Tomb.Clear(accountID)
	s.Deck.Clear(accountID)
	s.LostZone.Clear(accountID)
	s.Field.Clear(accountID)
	s.Energy.Clear(accountID)
	s.Characters.Clear(accountID)
}
