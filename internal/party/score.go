package party

import (
	"math"

	"github.com/AndreiDascalu/ANL2024/pkg/negotiation"
)

// TimePressure is the Boulware concession curve 1 - progress^(1/eps). It
// stays near 1 for most of the session and collapses sharply approaching
// the deadline; shrinking eps pushes the collapse later and makes it
// steeper.
func TimePressure(progress, eps float64) float64 {
	return 1 - math.Pow(progress, 1/eps)
}

// ScoreBid ranks a bid by blending own utility with the opponent's
// predicted utility. Self-interest dominates while time pressure is high;
// as it falls off near the deadline the opponent's predicted utility gains
// weight, nudging selection toward mutually acceptable outcomes.
func (a *Agent) ScoreBid(bid negotiation.Bid, progress float64) float64 {
	return scoreBid(a.profile, a.opponent, a.params, bid, progress)
}

func scoreBid(profile *negotiation.Profile, opponent OpponentEstimator, params Params, bid negotiation.Bid, progress float64) float64 {
	pressure := TimePressure(progress, params.Eps)
	score := params.Alpha * pressure * profile.Utility(bid)
	if opponent != nil {
		score += (1 - params.Alpha*pressure) * opponent.PredictedUtility(bid)
	}
	return score
}
