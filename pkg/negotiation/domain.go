// Package negotiation implements the data model and protocol types for
// bilateral alternating-offers negotiation: issues, domains, bids,
// linear-additive utility profiles, deadline progress, and the session
// engine that alternates turns between two parties.
package negotiation

import (
	"fmt"
	"math/big"
	"math/rand"
)

// Issue is a negotiable attribute with a finite set of possible values.
type Issue struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Domain is an ordered, immutable set of issues. The full bid space is the
// cross-product of all issue value sets; it may be far too large to
// materialize, so bids are addressed by index instead.
type Domain struct {
	Name   string
	Issues []Issue

	size *big.Int
}

// NewDomain validates the issues and returns a Domain.
func NewDomain(name string, issues []Issue) (*Domain, error) {
	if len(issues) == 0 {
		return nil, fmt.Errorf("domain %q: no issues", name)
	}
	seen := make(map[string]bool, len(issues))
	size := big.NewInt(1)
	for _, iss := range issues {
		if iss.Name == "" {
			return nil, fmt.Errorf("domain %q: issue with empty name", name)
		}
		if seen[iss.Name] {
			return nil, fmt.Errorf("domain %q: duplicate issue %q", name, iss.Name)
		}
		seen[iss.Name] = true
		if len(iss.Values) == 0 {
			return nil, fmt.Errorf("domain %q: issue %q has no values", name, iss.Name)
		}
		size.Mul(size, big.NewInt(int64(len(iss.Values))))
	}
	return &Domain{Name: name, Issues: issues, size: size}, nil
}

// Size returns the number of bids in the full bid space.
func (d *Domain) Size() *big.Int {
	return new(big.Int).Set(d.size)
}

// ValuesOf returns the value set of the named issue, or nil if unknown.
func (d *Domain) ValuesOf(issue string) []string {
	for _, iss := range d.Issues {
		if iss.Name == issue {
			return iss.Values
		}
	}
	return nil
}

// BidAt decodes the bid at the given index in the bid space using
// mixed-radix positional decoding: the last issue varies fastest.
// The index must be in [0, Size).
func (d *Domain) BidAt(index *big.Int) Bid {
	bid := make(Bid, len(d.Issues))
	rem := new(big.Int).Set(index)
	radix := new(big.Int)
	digit := new(big.Int)
	for i := len(d.Issues) - 1; i >= 0; i-- {
		iss := d.Issues[i]
		radix.SetInt64(int64(len(iss.Values)))
		rem.QuoRem(rem, radix, digit)
		bid[iss.Name] = iss.Values[digit.Int64()]
	}
	return bid
}

// RandomBid returns a uniformly random bid from the entire bid space.
func (d *Domain) RandomBid(rng *rand.Rand) Bid {
	return d.BidAt(new(big.Int).Rand(rng, d.size))
}

// SampleBids draws up to k distinct bids uniformly from the bid space
// without replacement. If the space holds at most k bids, every bid is
// returned (in shuffled order).
func (d *Domain) SampleBids(rng *rand.Rand, k int) []Bid {
	if k <= 0 {
		return nil
	}

	// Small spaces: enumerate, shuffle, truncate. The 4x slack keeps
	// rejection sampling away from the regime where it degrades.
	limit := big.NewInt(int64(4 * k))
	if d.size.Cmp(limit) <= 0 {
		n := int(d.size.Int64())
		perm := rng.Perm(n)
		if k > n {
			k = n
		}
		bids := make([]Bid, 0, k)
		for _, p := range perm[:k] {
			bids = append(bids, d.BidAt(big.NewInt(int64(p))))
		}
		return bids
	}

	seen := make(map[string]bool, k)
	bids := make([]Bid, 0, k)
	idx := new(big.Int)
	for len(bids) < k {
		idx.Rand(rng, d.size)
		key := idx.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		bids = append(bids, d.BidAt(idx))
	}
	return bids
}
