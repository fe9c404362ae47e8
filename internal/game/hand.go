package game

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/feltkit/holdem/internal/deck"
	"github.com/feltkit/holdem/internal/evaluator"
)

// HandState drives a single hand from blinds to distribution. It owns the
// betting round, the pot ledger and the deck; player records are shared
// with the table and mutated through actions only.
type HandState struct {
	ID         string
	HandNumber int
	Players    []*Player
	Button     int
	Street     Street
	Board      []deck.Card
	Ledger     *Ledger
	Betting    *BettingRound
	// ActivePlayer is the seat due to act, -1 when nobody can.
	ActivePlayer int
	Deck         *deck.Deck

	eval          *evaluator.Evaluator
	bus           *Bus
	logger        *log.Logger
	smallBlind    int
	bigBlind      int
	startingTotal int
	complete      bool
	Result        *HandResult
}

// HandResult records the outcome of a completed hand.
type HandResult struct {
	HandID     string
	HandNumber int
	Payouts    map[int]int
	Winners    []WinnerInfo
	Eliminated []string
	ByFold     bool
}

// ProcessAction validates and applies one player action. Acting out of
// turn, an illegal action, or a bad amount fails with a ValidationError
// and mutates nothing. A legal action may close the betting round and
// cascade the hand forward, possibly all the way to distribution.
func (h *HandState) ProcessAction(seat int, action Action, amount int) error {
	if h.complete {
		return validationErrorf("hand %s is complete", h.ID)
	}
	if seat != h.ActivePlayer {
		return validationErrorf("seat %d acted out of turn (seat %d to act)", seat, h.ActivePlayer)
	}
	p := h.Players[seat]
	if !p.CanAct() {
		return validationErrorf("seat %d cannot act", seat)
	}

	moved, err := h.applyAction(p, action, amount)
	if err != nil {
		return err
	}

	h.Betting.MarkActed(seat)
	if h.Street == Preflop && seat == bigBlindSeat(h.Players, h.Button) {
		h.Betting.BBActed = true
	}

	h.logger.Debug("player acted", "hand", h.ID, "seat", seat, "action", action.String(), "amount", moved)
	h.publish(PlayerActedEvent{
		eventStamp: stamp(),
		HandID:     h.ID,
		Seat:       seat,
		Name:       p.Name,
		Action:     action,
		Amount:     moved,
		PotTotal:   h.Pot(),
	})

	if h.inHandCount() <= 1 {
		return h.advanceStreet()
	}

	h.ActivePlayer = h.nextActivePlayer(seat + 1)
	if h.ActivePlayer == -1 || h.Betting.IsComplete(h.Players, h.Street, h.Button) {
		return h.advanceStreet()
	}
	return nil
}

// applyAction checks legality and mutates the player/betting state,
// returning the chips moved by the action. All validation happens before
// any mutation.
func (h *HandState) applyAction(p *Player, action Action, amount int) (int, error) {
	br := h.Betting
	switch action {
	case Fold:
		p.Folded = true
		h.Ledger.MarkFolded(p.Seat)
		return 0, nil

	case Check:
		if p.Bet != br.CurrentBet {
			return 0, validationErrorf("cannot check, must call %d", br.CurrentBet-p.Bet)
		}
		return 0, nil

	case Call:
		toCall := br.CurrentBet - p.Bet
		if toCall <= 0 {
			return 0, validationErrorf("nothing to call, check instead")
		}
		pay := min(toCall, p.Chips)
		p.Chips -= pay
		p.Bet += pay
		p.TotalBet += pay
		if p.Chips == 0 {
			// A short call is an implicit all-in.
			p.AllIn = true
		}
		return pay, nil

	case Bet:
		if br.CurrentBet != 0 {
			return 0, validationErrorf("cannot bet into a %d bet, raise instead", br.CurrentBet)
		}
		if amount < br.BigBlind {
			return 0, validationErrorf("bet %d below minimum %d", amount, br.BigBlind)
		}
		if amount > p.Chips {
			return 0, validationErrorf("bet %d exceeds stack %d", amount, p.Chips)
		}
		p.Chips -= amount
		p.Bet = amount
		p.TotalBet += amount
		if p.Chips == 0 {
			p.AllIn = true
		}
		br.CurrentBet = amount
		br.MinRaise = amount
		br.LastRaiser = p.Seat
		h.resetActedExcept(p.Seat)
		return amount, nil

	case Raise:
		if br.CurrentBet == 0 {
			return 0, validationErrorf("nothing to raise, bet instead")
		}
		total := p.Chips + p.Bet
		if amount > total {
			return 0, validationErrorf("raise to %d exceeds stack %d", amount, total)
		}
		if amount <= br.CurrentBet {
			return 0, validationErrorf("raise to %d must exceed current bet %d", amount, br.CurrentBet)
		}
		minTo := br.CurrentBet + br.MinRaise
		if amount < minTo && amount < total {
			// Below the minimum is only legal as an all-in.
			return 0, validationErrorf("raise to %d below minimum %d", amount, minTo)
		}
		delta := amount - p.Bet
		p.Chips -= delta
		p.Bet = amount
		p.TotalBet += delta
		if p.Chips == 0 {
			p.AllIn = true
		}
		br.MinRaise = amount - br.CurrentBet
		br.CurrentBet = amount
		br.LastRaiser = p.Seat
		h.resetActedExcept(p.Seat)
		return delta, nil

	case AllIn:
		pay := p.Chips
		p.Chips = 0
		p.Bet += pay
		p.TotalBet += pay
		p.AllIn = true
		if p.Bet > br.CurrentBet {
			// The all-in acts as a raise; everyone gets to respond.
			br.MinRaise = p.Bet - br.CurrentBet
			br.CurrentBet = p.Bet
			br.LastRaiser = p.Seat
			h.resetActedExcept(p.Seat)
		}
		return pay, nil

	default:
		return 0, validationErrorf("unknown action %d", action)
	}
}

// ForceFold folds the seat immediately, regardless of turn order. Used for
// timeouts and disconnects; the forced fold is funneled through the same
// completion checks as a voluntary action.
func (h *HandState) ForceFold(seat int) error {
	if h.complete || seat < 0 || seat >= len(h.Players) {
		return nil
	}
	p := h.Players[seat]
	if !p.InHand() {
		return nil
	}

	p.Folded = true
	h.Ledger.MarkFolded(seat)
	h.Betting.MarkActed(seat)
	if h.Street == Preflop && seat == bigBlindSeat(h.Players, h.Button) {
		h.Betting.BBActed = true
	}
	if h.Betting.LastRaiser == seat {
		h.Betting.LastRaiser = -1
	}

	h.publish(PlayerActedEvent{
		eventStamp: stamp(),
		HandID:     h.ID,
		Seat:       seat,
		Name:       p.Name,
		Action:     Fold,
		PotTotal:   h.Pot(),
	})

	if h.inHandCount() <= 1 {
		return h.advanceStreet()
	}
	if seat == h.ActivePlayer {
		h.ActivePlayer = h.nextActivePlayer(seat + 1)
	}
	if h.ActivePlayer == -1 || h.Betting.IsComplete(h.Players, h.Street, h.Button) {
		return h.advanceStreet()
	}
	return nil
}

// ValidActions returns the legal actions for the seat currently due to act.
func (h *HandState) ValidActions() []Action {
	if h.complete || h.ActivePlayer < 0 {
		return nil
	}
	return h.Betting.ValidActions(h.Players[h.ActivePlayer])
}

// Pot returns the total chips at stake, including bets not yet collected
// into the ledger.
func (h *HandState) Pot() int {
	total := h.Ledger.Total()
	for _, p := range h.Players {
		total += p.Bet
	}
	return total
}

// IsComplete returns true once every pot has been distributed.
func (h *HandState) IsComplete() bool {
	return h.complete
}

func (h *HandState) inHandCount() int {
	n := 0
	for _, p := range h.Players {
		if p.InHand() {
			n++
		}
	}
	return n
}

func (h *HandState) nextActivePlayer(from int) int {
	n := len(h.Players)
	for i := 0; i < n; i++ {
		seat := (from + i) % n
		if h.Players[seat].CanAct() {
			return seat
		}
	}
	return -1
}

func (h *HandState) resetActedExcept(seat int) {
	for i := range h.Betting.ActedThisRound {
		h.Betting.ActedThisRound[i] = false
	}
	h.Betting.ActedThisRound[seat] = true
}

// collectRound posts every seat's round bet into the ledger and resolves
// all-in ceilings, smallest first so side pots materialize in level order.
func (h *HandState) collectRound() error {
	for _, p := range h.Players {
		if p.Bet == 0 {
			continue
		}
		if _, err := h.Ledger.PostContribution(p.Seat, p.Bet, h.Street); err != nil {
			return fmt.Errorf("post seat %d: %w", p.Seat, err)
		}
		p.Bet = 0
	}

	allIn := make([]*Player, 0, len(h.Players))
	for _, p := range h.Players {
		if p.AllIn && p.TotalBet > 0 {
			allIn = append(allIn, p)
		}
	}
	sort.Slice(allIn, func(i, j int) bool {
		if allIn[i].TotalBet != allIn[j].TotalBet {
			return allIn[i].TotalBet < allIn[j].TotalBet
		}
		return allIn[i].Seat < allIn[j].Seat
	})
	for _, p := range allIn {
		if err := h.Ledger.ResolveAllIn(p.Seat, p.TotalBet); err != nil {
			return fmt.Errorf("resolve all-in seat %d: %w", p.Seat, err)
		}
	}
	return nil
}

// advanceStreet closes the current betting round: contributions are
// collected, then either the hand finishes (one player left, or showdown
// reached) or the next community tranche is dealt and betting restarts.
func (h *HandState) advanceStreet() error {
	if err := h.collectRound(); err != nil {
		return err
	}
	if err := h.Ledger.CheckInvariants(); err != nil {
		return err
	}

	h.publish(RoundCompletedEvent{
		eventStamp: stamp(),
		HandID:     h.ID,
		Street:     h.Street,
		PotTotal:   h.Ledger.Total(),
	})

	if h.inHandCount() <= 1 {
		return h.finishByFold()
	}

	switch h.Street {
	case Preflop:
		h.Street = Flop
		if err := h.dealBoard(3); err != nil {
			return err
		}
	case Flop:
		h.Street = Turn
		if err := h.dealBoard(1); err != nil {
			return err
		}
	case Turn:
		h.Street = River
		if err := h.dealBoard(1); err != nil {
			return err
		}
	case River:
		h.Street = Showdown
		return h.showdown()
	case Showdown:
		return nil
	}

	h.Betting.ResetForNewRound(len(h.Players))
	h.ActivePlayer = h.nextActivePlayer(smallBlindSeat(h.Players, h.Button))
	if h.ActivePlayer == -1 || h.Betting.IsComplete(h.Players, h.Street, h.Button) {
		// Nobody left can bet: run out the rest of the board.
		return h.advanceStreet()
	}
	return nil
}

// dealBoard burns one card and deals a tranche of n community cards.
func (h *HandState) dealBoard(n int) error {
	if err := h.Deck.Burn(); err != nil {
		return err
	}
	cards, err := h.Deck.Deal(n)
	if err != nil {
		return err
	}
	h.Board = append(h.Board, cards...)
	h.logger.Debug("community cards dealt", "hand", h.ID, "street", h.Street.String(), "cards", fmt.Sprint(cards))
	h.publish(CommunityCardsDealtEvent{
		eventStamp: stamp(),
		HandID:     h.ID,
		Street:     h.Street,
		Cards:      cards,
		Board:      append([]deck.Card(nil), h.Board...),
	})
	return nil
}

// showdown evaluates every remaining hand (concurrently; evaluation is
// pure) and distributes each pot to its best eligible hands.
func (h *HandState) showdown() error {
	contenders := make([]*Player, 0, len(h.Players))
	for _, p := range h.Players {
		if p.InHand() {
			contenders = append(contenders, p)
		}
	}

	rankings := make([]*evaluator.HandRanking, len(h.Players))
	g := new(errgroup.Group)
	for _, p := range contenders {
		g.Go(func() error {
			hr, err := h.eval.Evaluate(p.HoleCards, h.Board)
			if err != nil {
				return fmt.Errorf("seat %d: %w", p.Seat, err)
			}
			rankings[p.Seat] = &hr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("evaluate showdown: %w", err)
	}

	rankedSeats := make([]int, 0, len(contenders))
	rankValue := make(map[int]int, len(contenders))
	for _, p := range contenders {
		rankedSeats = append(rankedSeats, p.Seat)
		rankValue[p.Seat] = rankings[p.Seat].Tiebreak
	}
	sort.Slice(rankedSeats, func(i, j int) bool {
		return rankValue[rankedSeats[i]] > rankValue[rankedSeats[j]]
	})

	return h.finish(rankedSeats, rankValue, rankings, false)
}

// finishByFold pays everything to the last player standing.
func (h *HandState) finishByFold() error {
	var lone *Player
	for _, p := range h.Players {
		if p.InHand() {
			lone = p
			break
		}
	}
	if lone == nil {
		return integrityErrorf("hand %s: no players left in hand", h.ID)
	}
	return h.finish([]int{lone.Seat}, map[int]int{lone.Seat: 1}, nil, true)
}

func (h *HandState) finish(rankedSeats []int, rankValue map[int]int, rankings []*evaluator.HandRanking, byFold bool) error {
	payouts, err := h.Ledger.DistributeAll(rankedSeats, rankValue)
	if err != nil {
		return err
	}

	for _, pot := range h.Ledger.Pots() {
		if len(pot.Payouts) == 0 {
			continue
		}
		h.publish(PotDistributedEvent{
			eventStamp: stamp(),
			HandID:     h.ID,
			Pot:        pot.ID(),
			Amount:     pot.Amount,
			Payouts:    pot.Payouts,
		})
	}

	winners := make([]WinnerInfo, 0, len(payouts))
	seats := make([]int, 0, len(payouts))
	for seat := range payouts {
		seats = append(seats, seat)
	}
	sort.Ints(seats)
	for _, seat := range seats {
		p := h.Players[seat]
		p.Chips += payouts[seat]
		w := WinnerInfo{Seat: seat, ID: p.ID, Name: p.Name, Amount: payouts[seat]}
		if rankings != nil && rankings[seat] != nil {
			w.Ranking = rankings[seat]
		}
		winners = append(winners, w)
	}

	if err := h.CheckChipConservation(); err != nil {
		return err
	}

	var eliminated []string
	for _, p := range h.Players {
		if p.Chips == 0 {
			eliminated = append(eliminated, p.ID)
			h.publish(PlayerEliminatedEvent{
				eventStamp: stamp(),
				HandID:     h.ID,
				Seat:       p.Seat,
				ID:         p.ID,
				Name:       p.Name,
			})
		}
	}

	h.complete = true
	h.Street = Showdown
	h.Result = &HandResult{
		HandID:     h.ID,
		HandNumber: h.HandNumber,
		Payouts:    payouts,
		Winners:    winners,
		Eliminated: eliminated,
		ByFold:     byFold,
	}
	h.logger.Info("hand finished", "hand", h.ID, "byFold", byFold, "payouts", fmt.Sprint(payouts))
	h.publish(HandFinishedEvent{
		eventStamp: stamp(),
		HandID:     h.ID,
		HandNumber: h.HandNumber,
		Winners:    winners,
		Eliminated: eliminated,
	})
	return nil
}

// CheckChipConservation verifies that chips are neither created nor
// destroyed: stacks plus uncollected bets plus undistributed pots always
// equal the chips the hand started with.
func (h *HandState) CheckChipConservation() error {
	total := h.Ledger.Total()
	for _, p := range h.Players {
		total += p.Chips + p.Bet
	}
	if total != h.startingTotal {
		return integrityErrorf("chip conservation violated: have %d, started with %d", total, h.startingTotal)
	}
	return nil
}

func (h *HandState) publish(event Event) {
	if h.bus != nil {
		h.bus.Publish(event)
	}
}

func (h *HandState) postBlinds() {
	sb := h.Players[smallBlindSeat(h.Players, h.Button)]
	bb := h.Players[bigBlindSeat(h.Players, h.Button)]

	post := func(p *Player, amount int) {
		pay := min(amount, p.Chips)
		p.Chips -= pay
		p.Bet = pay
		p.TotalBet = pay
		if p.Chips == 0 {
			p.AllIn = true
		}
	}
	post(sb, h.smallBlind)
	post(bb, h.bigBlind)

	h.Betting.CurrentBet = h.bigBlind
}

func (h *HandState) dealHoleCards() error {
	for _, p := range h.Players {
		cards, err := h.Deck.Deal(2)
		if err != nil {
			return fmt.Errorf("deal hole cards seat %d: %w", p.Seat, err)
		}
		p.HoleCards = cards
	}
	return nil
}
