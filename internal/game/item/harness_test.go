package item

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cardbattle/battle-server-go/internal/card"
	"github.com/cardbattle/battle-server-go/internal/deck"
	"github.com/cardbattle/battle-server-go/internal/game"
	"github.com/cardbattle/battle-server-go/internal/game/field"
	"github.com/cardbattle/battle-server-go/internal/game/notice"
)

const (
	alice int64 = 1
	bob   int64 = 2
	carol int64 = 3

	aliceToken = "alice-token"
	bobToken   = "bob-token"
	carolToken = "carol-token"
)

type staticSessions map[string]int64

func (s staticSessions) Validate(token string) int64 {
	if id, ok := s[token]; ok {
		return id
	}
	return game.InvalidAccount
}

type delivery struct {
	accountID int64
	notice    notice.Notice
}

type recorder struct {
	mu  sync.Mutex
	got []delivery
}

func (r *recorder) Deliver(accountID int64, n notice.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, delivery{accountID: accountID, notice: n})
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = nil
}

func (r *recorder) deliveries() []delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]delivery(nil), r.got...)
}

type harness struct {
	t       *testing.T
	ctx     context.Context
	catalog *card.StaticCatalog
	decks   *deck.Service
	svc     *game.Services
	items   *Service
	notes   *recorder
}

func energyDeck(extra ...int) []int {
	cards := append([]int(nil), extra...)
	for len(cards) < 40 {
		cards = append(cards, card.EnergyCardID)
	}
	return cards
}

// newHarness starts a match between alice (acting first) and bob. Decks are not shuffled,
// so the opening hands are the first cards of each deck.
func newHarness(t *testing.T, aliceDeck, bobDeck []int) *harness {
	t.Helper()
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	catalog := card.Builtin()
	catalog.Put(card.Definition{ID: 45, Name: "Triple Offering", Kind: card.KindItem, Grade: card.GradeHero, Item: &card.ItemEffectSummary{
		Archetype:            card.ArchetypeSacrificeTargets,
		AlternativeDamage:    card.NoEffect,
		FieldUnitDamage:      card.NoEffect,
		MainCharacterDamage:  card.NoEffect,
		DeckMillCount:        card.NoEffect,
		TargetCount:          3,
		SacrificeEligible:    []int{19},
		EnergyRemoval:        card.NoEffect,
		HealthPerFieldEnergy: card.NoEffect,
	}})

	decks := deck.NewService(deck.NewValidator(deck.DefaultRules(), catalog), deck.NewMemoryRepository(), logger)
	require.NoError(t, decks.Register(ctx, alice, aliceDeck))
	require.NoError(t, decks.Register(ctx, bob, bobDeck))

	opts := game.DefaultOptions()
	opts.StrictInvariants = true
	notes := &recorder{}
	sessions := staticSessions{aliceToken: alice, bobToken: bob, carolToken: carol}

	svc := game.NewServices(opts, sessions, catalog, decks, notes, logger)
	svc.Shuffle = func([]int) {}

	_, _, err := svc.StartMatch(ctx, alice, bob)
	require.NoError(t, err)
	notes.reset()

	return &harness{
		t:       t,
		ctx:     ctx,
		catalog: catalog,
		decks:   decks,
		svc:     svc,
		items:   NewService(svc),
		notes:   notes,
	}
}

func newDefaultHarness(t *testing.T) *harness {
	return newHarness(t, energyDeck(), energyDeck())
}

func (h *harness) give(accountID int64, cardIDs ...int) {
	h.svc.Hand.AddAll(accountID, cardIDs)
}

// field deploys units in slot order starting from the lowest free slot.
func (h *harness) field(accountID int64, cardIDs ...int) {
	h.t.Helper()
	for _, id := range cardIDs {
		def, ok := h.catalog.Card(id)
		require.True(h.t, ok, "card %d", id)
		_, err := h.svc.Field.Deploy(accountID, field.NewUnit(def))
		require.NoError(h.t, err)
	}
}

// toRound ends turns until the match reaches round n with alice to act.
func (h *harness) toRound(n int) {
	h.t.Helper()
	room, ok := h.svc.Directory.RoomOf(alice)
	require.True(h.t, ok)
	for room.Round() < n {
		_, err := h.svc.EndTurn(alice)
		require.NoError(h.t, err)
		_, err = h.svc.EndTurn(bob)
		require.NoError(h.t, err)
	}
	h.notes.reset()
}
