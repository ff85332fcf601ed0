// Package party implements the negotiating parties: the adaptive
// frequency-modeling agent plus the baseline strategies it is matched
// against in the arena.
package party

import "github.com/AndreiDascalu/ANL2024/pkg/negotiation"

// NeuralModelPath is the path to an optional ONNX opponent-utility model.
// Set this at startup (e.g. from an environment variable); when empty the
// adaptive agent uses the frequency model alone.
var NeuralModelPath string

// ForStrategy returns the party implementation for a strategy name. Seed 0
// gives non-deterministic behavior; any other seed is reproducible.
// Unknown names fall back to the adaptive agent.
func ForStrategy(name string, seed int64) negotiation.Party {
	switch name {
	case "random":
		return NewRandomParty(seed)
	case "scorer":
		return NewScorerParty(seed)
	case "stubborn":
		return NewStubbornParty(seed)
	default:
		return NewAgent(seed)
	}
}

// Names lists the known strategy names.
func Names() []string {
	return []string{"adaptive", "random", "scorer", "stubborn"}
}
