package negotiation

import (
	"context"
	"fmt"
	"time"
)

// Session outcomes.
const (
	EndAccept    = "accept"     // a party accepted the opponent's last offer
	EndDeadline  = "deadline"   // progress reached 1 with no agreement
	EndMaxRounds = "max_rounds" // round cap hit with no agreement
	EndCancelled = "cancelled"  // context cancelled
)

// Turn describes one action taken during a session, for observers.
type Turn struct {
	Round  int
	Actor  string
	Action Action
}

// Result is the outcome of a completed session.
type Result struct {
	Agreement Bid // nil when no agreement was reached
	Rounds    int
	EndedBy   string
	UtilityA  float64
	UtilityB  float64
}

// Engine runs a bilateral alternating-offers session to completion. Party A
// opens. Events are strictly sequenced: an offer is delivered to the
// receiving party before that party's next turn, so opponent models are
// always up to date when consulted.
type Engine struct {
	A, B               Party
	IDA, IDB           string
	ProfileA, ProfileB *Profile
	Progress           *Progress
	MaxRounds          int               // 0 means no round cap
	Parameters         map[string]string // passed to both parties in Settings
	Observer           func(Turn)        // optional, called after every action
	Clock              func() time.Time  // optional, defaults to time.Now
}

// Run plays the session until agreement, deadline, round cap, or context
// cancellation. Both parties receive Finished exactly once before Run
// returns. The only error conditions are context cancellation and a party
// violating the protocol by answering YourTurn with nothing.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	clock := e.Clock
	if clock == nil {
		clock = time.Now
	}
	if e.IDA == "" {
		e.IDA = "A"
	}
	if e.IDB == "" {
		e.IDB = "B"
	}

	e.A.Notify(Settings{PartyID: e.IDA, Profile: e.ProfileA, Progress: e.Progress, Parameters: e.Parameters})
	e.B.Notify(Settings{PartyID: e.IDB, Profile: e.ProfileB, Progress: e.Progress, Parameters: e.Parameters})

	type seat struct {
		party    Party
		opponent Party
		id       string
	}
	seats := []seat{
		{e.A, e.B, e.IDA},
		{e.B, e.A, e.IDB},
	}

	for round := 1; ; round++ {
		for _, s := range seats {
			select {
			case <-ctx.Done():
				res := e.finish(nil, round-1, EndCancelled)
				return res, ctx.Err()
			default:
			}

			if e.Progress.Get(clock()) >= 1 {
				return e.finish(nil, round-1, EndDeadline), nil
			}

			act := s.party.Notify(YourTurn{})
			if act == nil {
				e.finish(nil, round-1, EndCancelled)
				return nil, fmt.Errorf("party %s returned no action", s.id)
			}

			if e.Observer != nil {
				e.Observer(Turn{Round: round, Actor: s.id, Action: act})
			}

			switch a := act.(type) {
			case Accept:
				return e.finish(a.Bid, round, EndAccept), nil
			case Offer:
				s.opponent.Notify(OpponentOffer{Bid: a.Bid})
			}
		}

		if e.MaxRounds > 0 && round >= e.MaxRounds {
			return e.finish(nil, round, EndMaxRounds), nil
		}
	}
}

// finish delivers Finished to both parties and assembles the result.
func (e *Engine) finish(agreement Bid, rounds int, endedBy string) *Result {
	e.A.Notify(Finished{Agreement: agreement})
	e.B.Notify(Finished{Agreement: agreement})

	res := &Result{Agreement: agreement, Rounds: rounds, EndedBy: endedBy}
	if agreement != nil {
		res.UtilityA = e.ProfileA.Utility(agreement)
		res.UtilityB = e.ProfileB.Utility(agreement)
	}
	return res
}
