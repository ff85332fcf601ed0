// Package neural provides an optional learned opponent-utility estimator
// backed by an ONNX model run with gonnx. When no model is configured or
// inference fails, callers fall back to the frequency model.
package neural

import "github.com/AndreiDascalu/ANL2024/pkg/negotiation"

// VectorSize returns the one-hot encoding width for a domain: the sum of
// all issue value-set sizes.
func VectorSize(d *negotiation.Domain) int {
	size := 0
	for _, iss := range d.Issues {
		size += len(iss.Values)
	}
	return size
}

// EncodeBid one-hot encodes a bid: one block per issue in domain order,
// with a single 1 at the position of the bid's value within the issue's
// value set. Unknown values leave their block all-zero.
func EncodeBid(d *negotiation.Domain, b negotiation.Bid) []float32 {
	vec := make([]float32, VectorSize(d))
	offset := 0
	for _, iss := range d.Issues {
		value := b[iss.Name]
		for i, v := range iss.Values {
			if v == value {
				vec[offset+i] = 1
				break
			}
		}
		offset += len(iss.Values)
	}
	return vec
}
