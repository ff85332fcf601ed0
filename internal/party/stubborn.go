package party

import (
	"math/rand"
	"time"

	"github.com/AndreiDascalu/ANL2024/pkg/negotiation"
)

// stubbornSampleSize bounds the one-off search for the party's anchor bid.
const stubbornSampleSize = 2000

// StubbornParty anchors on (nearly) its best bid and repeats it every turn,
// accepting only an offer at least as good or a last-moment compromise.
// Stress-test opponent for deadline behavior.
type StubbornParty struct {
	rng         *rand.Rand
	acceptAfter float64

	partyID      string
	profile      *negotiation.Profile
	progress     *negotiation.Progress
	lastReceived negotiation.Bid
	anchor       negotiation.Bid
}

// NewStubbornParty creates a StubbornParty. Seed 0 is time-seeded.
func NewStubbornParty(seed int64) *StubbornParty {
	return &StubbornParty{rng: newRng(seed), acceptAfter: 0.98}
}

func (p *StubbornParty) Name() string { return "stubborn" }

func (p *StubbornParty) Notify(inform negotiation.Inform) negotiation.Action {
	switch ev := inform.(type) {
	case negotiation.Settings:
		p.partyID = ev.PartyID
		p.profile = ev.Profile
		p.progress = ev.Progress
		p.anchor = p.bestSampled()
	case negotiation.OpponentOffer:
		p.lastReceived = ev.Bid
	case negotiation.YourTurn:
		if p.lastReceived != nil {
			goodEnough := p.profile.Utility(p.lastReceived) >= p.profile.Utility(p.anchor)
			if goodEnough || p.progress.Get(time.Now()) > p.acceptAfter {
				return negotiation.Accept{Actor: p.partyID, Bid: p.lastReceived}
			}
		}
		return negotiation.Offer{Actor: p.partyID, Bid: p.anchor}
	}
	return nil
}

// bestSampled returns the highest own-utility bid of a bounded sample.
func (p *StubbornParty) bestSampled() negotiation.Bid {
	var (
		best     negotiation.Bid
		bestUtil = -1.0
	)
	for _, bid := range p.profile.Domain.SampleBids(p.rng, stubbornSampleSize) {
		if u := p.profile.Utility(bid); u > bestUtil {
			best, bestUtil = bid, u
		}
	}
	return best
}
