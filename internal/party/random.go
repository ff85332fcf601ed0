package party

import (
	"math/rand"
	"time"

	"github.com/AndreiDascalu/ANL2024/pkg/negotiation"
)

// RandomParty offers uniformly random bids and accepts only once the
// deadline is imminent. Baseline opponent for the arena.
type RandomParty struct {
	rng         *rand.Rand
	acceptAfter float64

	partyID      string
	profile      *negotiation.Profile
	progress     *negotiation.Progress
	lastReceived negotiation.Bid
}

// NewRandomParty creates a RandomParty. Seed 0 is time-seeded.
func NewRandomParty(seed int64) *RandomParty {
	return &RandomParty{rng: newRng(seed), acceptAfter: 0.95}
}

func (p *RandomParty) Name() string { return "random" }

func (p *RandomParty) Notify(inform negotiation.Inform) negotiation.Action {
	switch ev := inform.(type) {
	case negotiation.Settings:
		p.partyID = ev.PartyID
		p.profile = ev.Profile
		p.progress = ev.Progress
	case negotiation.OpponentOffer:
		p.lastReceived = ev.Bid
	case negotiation.YourTurn:
		if p.lastReceived != nil && p.progress.Get(time.Now()) > p.acceptAfter {
			return negotiation.Accept{Actor: p.partyID, Bid: p.lastReceived}
		}
		return negotiation.Offer{Actor: p.partyID, Bid: p.profile.Domain.RandomBid(p.rng)}
	}
	return nil
}
