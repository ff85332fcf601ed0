package negotiation

import (
	"sort"
	"strings"
)

// Bid assigns exactly one value to every issue of a domain. A nil Bid means
// "no bid". Bids are treated as immutable once constructed.
type Bid map[string]string

// Equal reports structural equality: the same value for every issue.
func (b Bid) Equal(other Bid) bool {
	if len(b) != len(other) {
		return false
	}
	for issue, value := range b {
		if other[issue] != value {
			return false
		}
	}
	return true
}

// Complete reports whether the bid assigns a valid value to every issue of
// the domain, and nothing else.
func (b Bid) Complete(d *Domain) bool {
	if len(b) != len(d.Issues) {
		return false
	}
	for _, iss := range d.Issues {
		v, ok := b[iss.Name]
		if !ok {
			return false
		}
		valid := false
		for _, allowed := range iss.Values {
			if allowed == v {
				valid = true
				break
			}
		}
		if !valid {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the bid.
func (b Bid) Clone() Bid {
	if b == nil {
		return nil
	}
	c := make(Bid, len(b))
	for k, v := range b {
		c[k] = v
	}
	return c
}

// String renders the bid with issues in sorted order, e.g.
// "drinks=beer, food=pizza".
func (b Bid) String() string {
	if b == nil {
		return "<none>"
	}
	issues := make([]string, 0, len(b))
	for issue := range b {
		issues = append(issues, issue)
	}
	sort.Strings(issues)

	var sb strings.Builder
	for i, issue := range issues {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(issue)
		sb.WriteByte('=')
		sb.WriteString(b[issue])
	}
	return sb.String()
}
