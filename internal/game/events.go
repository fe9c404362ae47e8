package game

import (
	"sync"
	"time"

	"github.com/feltkit/holdem/internal/deck"
	"github.com/feltkit/holdem/internal/evaluator"
)

// EventType identifies a game event kind.
type EventType string

const (
	EventHandStarted         EventType = "hand_started"
	EventCommunityCardsDealt EventType = "community_cards_dealt"
	EventPlayerActed         EventType = "player_acted"
	EventRoundCompleted      EventType = "round_completed"
	EventPotDistributed      EventType = "pot_distributed"
	EventPlayerEliminated    EventType = "player_eliminated"
	EventHandFinished        EventType = "hand_finished"
)

// Event is a game domain event. The event set is closed: every variant is
// one of the typed structs below.
type Event interface {
	EventType() EventType
	OccurredAt() time.Time
}

type eventStamp struct {
	at time.Time
}

func (e eventStamp) OccurredAt() time.Time { return e.at }

func stamp() eventStamp { return eventStamp{at: time.Now()} }

// HandStartedEvent is published when a new hand begins.
type HandStartedEvent struct {
	eventStamp
	HandID     string
	HandNumber int
	Button     int
	SmallBlind int
	BigBlind   int
	Seats      []int
}

func (HandStartedEvent) EventType() EventType { return EventHandStarted }

// CommunityCardsDealtEvent is published for each board tranche.
type CommunityCardsDealtEvent struct {
	eventStamp
	HandID string
	Street Street
	Cards  []deck.Card // the new tranche
	Board  []deck.Card // the full board so far
}

func (CommunityCardsDealtEvent) EventType() EventType { return EventCommunityCardsDealt }

// PlayerActedEvent is published after every accepted action.
type PlayerActedEvent struct {
	eventStamp
	HandID   string
	Seat     int
	Name     string
	Action   Action
	Amount   int
	PotTotal int
}

func (PlayerActedEvent) EventType() EventType { return EventPlayerActed }

// RoundCompletedEvent is published when a betting round closes.
type RoundCompletedEvent struct {
	eventStamp
	HandID   string
	Street   Street
	PotTotal int
}

func (RoundCompletedEvent) EventType() EventType { return EventRoundCompleted }

// PotDistributedEvent is published per pot at distribution.
type PotDistributedEvent struct {
	eventStamp
	HandID  string
	Pot     string
	Amount  int
	Payouts map[int]int
}

func (PotDistributedEvent) EventType() EventType { return EventPotDistributed }

// PlayerEliminatedEvent is published when a seat busts to zero chips.
type PlayerEliminatedEvent struct {
	eventStamp
	HandID string
	Seat   int
	ID     string
	Name   string
}

func (PlayerEliminatedEvent) EventType() EventType { return EventPlayerEliminated }

// WinnerInfo summarises one winner's take for a finished hand.
type WinnerInfo struct {
	Seat    int
	ID      string
	Name    string
	Amount  int
	Ranking *evaluator.HandRanking // nil when the hand ended by folds
}

// HandFinishedEvent is published once per hand, after all pots are paid.
// The tournament layer consumes exactly this.
type HandFinishedEvent struct {
	eventStamp
	HandID     string
	HandNumber int
	Winners    []WinnerInfo
	Eliminated []string // player IDs
}

func (HandFinishedEvent) EventType() EventType { return EventHandFinished }

// Subscriber receives game events.
type Subscriber interface {
	OnEvent(Event)
}

// Bus delivers events to subscribers. Delivery is best-effort: a panicking
// subscriber is isolated and the core never depends on a listener's return
// value.
type Bus struct {
	mu          sync.Mutex
	subscribers []Subscriber
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a subscriber for all future events.
func (b *Bus) Subscribe(s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, s)
}

// Unsubscribe removes a subscriber.
func (b *Bus) Unsubscribe(s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subscribers {
		if sub == s {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			return
		}
	}
}

// Publish delivers the event to every subscriber.
func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	subs := make([]Subscriber, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.Unlock()

	for _, s := range subs {
		deliver(s, event)
	}
}

func deliver(s Subscriber, event Event) {
	defer func() {
		_ = recover() // a broken listener must not take down the table
	}()
	s.OnEvent(event)
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc func(Event)

// OnEvent calls the function.
func (f SubscriberFunc) OnEvent(e Event) { f(e) }
