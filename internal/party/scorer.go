package party

import (
	"math/rand"
	"time"

	"github.com/AndreiDascalu/ANL2024/pkg/negotiation"
)

// ScorerParty offers the best bid of a bounded random sample ranked by the
// blended score (own utility, time pressure, predicted opponent utility)
// instead of picking among filtered candidates at random. Same acceptance
// rule as the adaptive agent.
type ScorerParty struct {
	params Params
	rng    *rand.Rand

	partyID      string
	profile      *negotiation.Profile
	progress     *negotiation.Progress
	lastReceived negotiation.Bid
	opponent     *OpponentModel
}

// NewScorerParty creates a ScorerParty with default parameters. Seed 0 is
// time-seeded.
func NewScorerParty(seed int64) *ScorerParty {
	return &ScorerParty{params: DefaultParams(), rng: newRng(seed)}
}

func (p *ScorerParty) Name() string { return "scorer" }

func (p *ScorerParty) Notify(inform negotiation.Inform) negotiation.Action {
	switch ev := inform.(type) {
	case negotiation.Settings:
		p.partyID = ev.PartyID
		p.profile = ev.Profile
		p.progress = ev.Progress
	case negotiation.OpponentOffer:
		if p.opponent == nil {
			p.opponent = NewOpponentModel(p.profile.Domain)
		}
		p.opponent.Update(ev.Bid)
		p.lastReceived = ev.Bid
	case negotiation.YourTurn:
		progress := p.progress.Get(time.Now())
		bid := p.findBid(progress)
		if acceptNextOrTime(p.profile, bid, p.lastReceived, progress, p.params.AcceptThreshold) {
			return negotiation.Accept{Actor: p.partyID, Bid: p.lastReceived}
		}
		return negotiation.Offer{Actor: p.partyID, Bid: bid}
	}
	return nil
}

// findBid returns the highest-scoring bid of a fresh sample.
func (p *ScorerParty) findBid(progress float64) negotiation.Bid {
	sample := p.profile.Domain.SampleBids(p.rng, p.params.SampleSize)
	var est OpponentEstimator
	if p.opponent != nil {
		est = p.opponent
	}
	var (
		best      negotiation.Bid
		bestScore = -1.0
	)
	for _, bid := range sample {
		if score := scoreBid(p.profile, est, p.params, bid, progress); score > bestScore {
			best, bestScore = bid, score
		}
	}
	return best
}
