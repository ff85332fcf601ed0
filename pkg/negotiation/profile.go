package negotiation

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// weightTolerance is the allowed deviation of the issue weight sum from 1.
const weightTolerance = 1e-6

// Profile is a linear-additive utility space over a domain: each issue has a
// weight and each value of the issue has a utility in [0,1]. The utility of
// a bid is the weighted sum of its value utilities, which lands in [0,1]
// when the weights sum to 1.
type Profile struct {
	Name    string
	Domain  *Domain
	Weights map[string]float64
	Values  map[string]map[string]float64
}

// NewProfile validates weights and value utilities against the domain.
func NewProfile(name string, domain *Domain, weights map[string]float64, values map[string]map[string]float64) (*Profile, error) {
	sum := 0.0
	for _, iss := range domain.Issues {
		w, ok := weights[iss.Name]
		if !ok {
			return nil, fmt.Errorf("profile %q: missing weight for issue %q", name, iss.Name)
		}
		if w < 0 {
			return nil, fmt.Errorf("profile %q: negative weight for issue %q", name, iss.Name)
		}
		sum += w

		vu, ok := values[iss.Name]
		if !ok {
			return nil, fmt.Errorf("profile %q: missing value utilities for issue %q", name, iss.Name)
		}
		for _, v := range iss.Values {
			u, ok := vu[v]
			if !ok {
				return nil, fmt.Errorf("profile %q: issue %q: missing utility for value %q", name, iss.Name, v)
			}
			if u < 0 || u > 1 {
				return nil, fmt.Errorf("profile %q: issue %q: utility %v for value %q out of [0,1]", name, iss.Name, u, v)
			}
		}
	}
	if math.Abs(sum-1) > weightTolerance {
		return nil, fmt.Errorf("profile %q: issue weights sum to %v, want 1", name, sum)
	}
	return &Profile{Name: name, Domain: domain, Weights: weights, Values: values}, nil
}

// Utility returns the bid's utility in [0,1]. The bid must be a complete
// assignment over the profile's domain.
func (p *Profile) Utility(b Bid) float64 {
	u := 0.0
	for _, iss := range p.Domain.Issues {
		u += p.Weights[iss.Name] * p.Values[iss.Name][b[iss.Name]]
	}
	return u
}

// profileJSON is the on-disk representation of a profile.
type profileJSON struct {
	Name    string                        `json:"name"`
	Domain  string                        `json:"domain"`
	Issues  []Issue                       `json:"issues"`
	Weights map[string]float64            `json:"weights"`
	Values  map[string]map[string]float64 `json:"values"`
}

// MarshalJSON encodes the profile together with its domain.
func (p *Profile) MarshalJSON() ([]byte, error) {
	return json.Marshal(profileJSON{
		Name:    p.Name,
		Domain:  p.Domain.Name,
		Issues:  p.Domain.Issues,
		Weights: p.Weights,
		Values:  p.Values,
	})
}

// UnmarshalJSON decodes and validates a profile, rebuilding its domain.
func (p *Profile) UnmarshalJSON(data []byte) error {
	var pj profileJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return err
	}
	domain, err := NewDomain(pj.Domain, pj.Issues)
	if err != nil {
		return err
	}
	parsed, err := NewProfile(pj.Name, domain, pj.Weights, pj.Values)
	if err != nil {
		return err
	}
	*p = *parsed
	return nil
}

// LoadProfile reads and validates a profile from a JSON file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return &p, nil
}
