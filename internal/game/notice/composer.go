package notice

// Notifier pushes a notice to a connected account. Delivery is fire-and-forget.
type Notifier interface {
	Deliver(accountID int64, n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(accountID int64, n Notice)

// Deliver calls f.
func (f NotifierFunc) Deliver(accountID int64, n Notice) {
	f(accountID, n)
}

// Nop drops every notice.
var Nop Notifier = NotifierFunc(func(int64, Notice) {})

// Composer turns a delta into the two recipients' notices.
type Composer struct{}

// NewComposer creates a composer.
func NewComposer() *Composer {
	return &Composer{}
}

// Compose builds the envelope. In the actor's notice the actor is YOU; in the opponent's
// notice the same changes are labelled the other way round.
func (c *Composer) Compose(actorID, opponentID int64, d *Delta) Envelope {
	return Envelope{
		ActorID:    actorID,
		OpponentID: opponentID,
		Actor:      c.view(d, Actor),
		Opponent:   c.view(d, Opponent),
	}
}

func (c *Composer) view(d *Delta, recipient Side) Notice {
	label := func(s Side) PlayerIndex {
		if s == recipient {
			return You
		}
		return OpponentIndex
	}

	n := Notice{Action: d.action}
	if d.used {
		n.HandUse = &HandUse{PlayerIndex: label(Actor), CardID: d.usedCardID}
	}
	if d.turn != nil {
		n.Turn = &TurnChange{Active: label(d.turn.active), Round: d.turn.round}
	}
	for _, side := range []Side{Actor, Opponent} {
		b := d.boards[side]
		if b == nil || b.empty() {
			continue
		}
		if n.Players == nil {
			n.Players = make(map[PlayerIndex]*BoardChange, 2)
		}
		n.Players[label(side)] = b.clone()
	}
	return n
}

// Deliver sends both halves of the envelope.
func Deliver(n Notifier, env Envelope) {
	if n == nil {
		return
	}
	n.Deliver(env.ActorID, env.Actor)
	n.Deliver(env.OpponentID, env.Opponent)
}
