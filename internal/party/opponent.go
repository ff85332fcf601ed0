package party

import "github.com/AndreiDascalu/ANL2024/pkg/negotiation"

// OpponentEstimator predicts the opponent's relative utility for candidate
// bids from the stream of its observed offers.
type OpponentEstimator interface {
	Update(bid negotiation.Bid)
	PredictedUtility(bid negotiation.Bid) float64
}

// OpponentModel is a frequency-based estimator: values the opponent offers
// more often are assumed more preferred. It treats every issue as equally
// important and never sees the opponent's true utility function.
type OpponentModel struct {
	domain *negotiation.Domain
	counts map[string]map[string]int // issue -> value -> observations
	totals map[string]int            // issue -> total observations
}

// NewOpponentModel creates an empty model over the domain.
func NewOpponentModel(domain *negotiation.Domain) *OpponentModel {
	counts := make(map[string]map[string]int, len(domain.Issues))
	for _, iss := range domain.Issues {
		counts[iss.Name] = make(map[string]int, len(iss.Values))
	}
	return &OpponentModel{
		domain: domain,
		counts: counts,
		totals: make(map[string]int, len(domain.Issues)),
	}
}

// Update records one observed opponent bid. Counts only ever grow.
func (m *OpponentModel) Update(bid negotiation.Bid) {
	for issue, value := range bid {
		m.counts[issue][value]++
		m.totals[issue]++
	}
}

// PredictedUtility estimates the opponent's utility for a bid in [0,1]: the
// per-issue observation frequency of the bid's value, averaged across
// issues. Issues with no observations yet contribute the uniform default
// 1/|values|, so querying an empty model is safe.
func (m *OpponentModel) PredictedUtility(bid negotiation.Bid) float64 {
	if len(m.domain.Issues) == 0 {
		return 0
	}
	sum := 0.0
	for _, iss := range m.domain.Issues {
		total := m.totals[iss.Name]
		if total == 0 {
			sum += 1 / float64(len(iss.Values))
			continue
		}
		sum += float64(m.counts[iss.Name][bid[iss.Name]]) / float64(total)
	}
	return sum / float64(len(m.domain.Issues))
}

// Count returns the observation count for an issue/value pair.
func (m *OpponentModel) Count(issue, value string) int {
	return m.counts[issue][value]
}
