package party

import (
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AndreiDascalu/ANL2024/internal/party/neural"
	"github.com/AndreiDascalu/ANL2024/pkg/negotiation"
)

// Params tunes the adaptive agent's decision core. Start from
// DefaultParams; the zero value is not useful.
type Params struct {
	SampleSize       int     // bids drawn per candidate search
	ConcessionMargin float64 // allowed utility slack below the opponent's last offer
	Alpha            float64 // self-interest weight in bid scoring
	Eps              float64 // time-pressure shape; smaller concedes later and harder
	AcceptThreshold  float64 // progress beyond which whatever is on the table is accepted
}

// DefaultParams returns the agent's stock tuning. The concession margin of
// 0.9 on a [0,1] utility scale makes the search filter nearly a no-op;
// tighten it per session through this struct rather than editing the code.
func DefaultParams() Params {
	return Params{
		SampleSize:       500,
		ConcessionMargin: 0.9,
		Alpha:            0.95,
		Eps:              0.1,
		AcceptThreshold:  0.95,
	}
}

// Agent is the adaptive negotiating party: it models opponent preferences
// from offer frequencies, searches a bounded random sample of the bid space
// for its next offer, and accepts when the opponent's last offer beats its
// own upcoming bid or the deadline looms.
type Agent struct {
	params Params
	rng    *rand.Rand

	partyID    string
	profile    *negotiation.Profile
	progress   *negotiation.Progress
	storageDir string
	modelPath  string

	lastReceived negotiation.Bid
	opponent     OpponentEstimator
}

// NewAgent creates an adaptive agent with default parameters.
func NewAgent(seed int64) *Agent {
	return NewAgentWithParams(DefaultParams(), seed)
}

// NewAgentWithParams creates an adaptive agent with explicit tuning.
func NewAgentWithParams(p Params, seed int64) *Agent {
	return &Agent{params: p, rng: newRng(seed)}
}

func (a *Agent) Name() string { return "adaptive" }

// Notify handles one protocol event. Only YourTurn yields an action.
func (a *Agent) Notify(inform negotiation.Inform) negotiation.Action {
	switch ev := inform.(type) {
	case negotiation.Settings:
		a.partyID = ev.PartyID
		a.profile = ev.Profile
		a.progress = ev.Progress
		a.storageDir = ev.Parameters["storage_dir"]
		a.modelPath = ev.Parameters["model_path"]
		if a.modelPath == "" {
			a.modelPath = NeuralModelPath
		}
	case negotiation.OpponentOffer:
		// The model absorbs the bid before it becomes the baseline for
		// the next search or acceptance check.
		if a.opponent == nil {
			a.opponent = a.newEstimator()
		}
		a.opponent.Update(ev.Bid)
		a.lastReceived = ev.Bid
	case negotiation.YourTurn:
		return a.decide()
	case negotiation.Finished:
		a.saveData()
	}
	return nil
}

// decide picks the upcoming bid and chooses between accepting the
// opponent's last offer and counter-offering.
func (a *Agent) decide() negotiation.Action {
	bid := a.FindBid()
	progress := a.progress.Get(time.Now())
	if a.shouldAccept(bid, a.lastReceived, progress) {
		return negotiation.Accept{Actor: a.partyID, Bid: a.lastReceived}
	}
	return negotiation.Offer{Actor: a.partyID, Bid: bid}
}

// FindBid produces the next bid to offer. With no opponent offer yet there
// is no concession baseline, so it draws uniformly from the whole space.
// Otherwise it samples up to SampleSize distinct bids, keeps those whose
// utility stays within ConcessionMargin of the opponent's last offer, and
// picks one of the survivors at random; an empty survivor set falls back to
// an unfiltered uniform draw. Always returns a valid bid.
func (a *Agent) FindBid() negotiation.Bid {
	domain := a.profile.Domain
	if a.lastReceived == nil {
		return domain.RandomBid(a.rng)
	}

	previousOfferUtility := a.profile.Utility(a.lastReceived)
	sample := domain.SampleBids(a.rng, a.params.SampleSize)
	candidates := a.filterCandidates(sample, previousOfferUtility)
	if len(candidates) == 0 {
		return domain.RandomBid(a.rng)
	}
	return candidates[a.rng.Intn(len(candidates))]
}

// filterCandidates keeps sampled bids with utility above the concession
// threshold previousOfferUtility - ConcessionMargin.
func (a *Agent) filterCandidates(sample []negotiation.Bid, previousOfferUtility float64) []negotiation.Bid {
	threshold := previousOfferUtility - a.params.ConcessionMargin
	var candidates []negotiation.Bid
	for _, bid := range sample {
		if a.profile.Utility(bid) > threshold {
			candidates = append(candidates, bid)
		}
	}
	return candidates
}

// shouldAccept combines two independent acceptance conditions: the
// opponent's last offer already beats the upcoming bid, or progress has
// passed the acceptance threshold (strictly). With no received bid there is
// nothing to accept.
func (a *Agent) shouldAccept(upcoming, received negotiation.Bid, progress float64) bool {
	return acceptNextOrTime(a.profile, upcoming, received, progress, a.params.AcceptThreshold)
}

// acceptNextOrTime is the shared accept rule, also used by the scorer
// strategy.
func acceptNextOrTime(profile *negotiation.Profile, upcoming, received negotiation.Bid, progress, threshold float64) bool {
	if received == nil {
		return false
	}
	return profile.Utility(received) > profile.Utility(upcoming) || progress > threshold
}

// newEstimator builds the opponent estimator on the first observed offer:
// the frequency model, wrapped by the ONNX estimator when a model path is
// configured and loads.
func (a *Agent) newEstimator() OpponentEstimator {
	freq := NewOpponentModel(a.profile.Domain)
	if a.modelPath == "" {
		return freq
	}
	est, err := neural.NewEstimator(a.modelPath, a.profile.Domain, freq)
	if err != nil {
		log.Warn().Err(err).Str("path", a.modelPath).Msg("Neural opponent model unavailable, using frequency model")
		return freq
	}
	return est
}

// saveData writes the end-of-session note to the configured storage dir.
// Best effort: storage problems never affect the negotiation outcome.
func (a *Agent) saveData() {
	if a.storageDir == "" {
		return
	}
	path := filepath.Join(a.storageDir, "data.md")
	if err := os.WriteFile(path, []byte("Data for learning (see README.md)\n"), 0644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to write session data")
	}
}
