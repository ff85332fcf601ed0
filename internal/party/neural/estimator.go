package neural

import (
	"fmt"
	"log"
	"sync"

	gonnx "github.com/advancedclimatesystems/gonnx"
	"gorgonia.org/tensor"

	"github.com/AndreiDascalu/ANL2024/pkg/negotiation"
)

// Model input/output names expected of the ONNX graph.
const (
	inputName  = "bid"
	outputName = "utility"
)

// Fallback answers predicted-utility queries when inference cannot, and
// keeps absorbing observed offers so the fallback stays warm.
type Fallback interface {
	Update(bid negotiation.Bid)
	PredictedUtility(bid negotiation.Bid) float64
}

// Estimator predicts opponent utility with an ONNX model over one-hot
// encoded bids. Observed offers are forwarded to the fallback; any load or
// inference problem degrades to the fallback's answer, never to an error.
type Estimator struct {
	mu       sync.Mutex
	model    *gonnx.Model
	domain   *negotiation.Domain
	fallback Fallback
}

// NewEstimator loads the ONNX model at path.
func NewEstimator(path string, domain *negotiation.Domain, fallback Fallback) (*Estimator, error) {
	model, err := gonnx.NewModelFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load opponent model %s: %w", path, err)
	}
	return &Estimator{model: model, domain: domain, fallback: fallback}, nil
}

// Update forwards the observed bid to the fallback model.
func (e *Estimator) Update(bid negotiation.Bid) {
	e.fallback.Update(bid)
}

// PredictedUtility runs the model on the encoded bid, clamped to [0,1].
func (e *Estimator) PredictedUtility(bid negotiation.Bid) float64 {
	in := tensor.New(
		tensor.WithShape(1, VectorSize(e.domain)),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(EncodeBid(e.domain, bid)),
	)

	e.mu.Lock()
	outputs, err := e.model.Run(gonnx.Tensors{inputName: in})
	e.mu.Unlock()
	if err != nil {
		log.Printf("party/neural: inference error: %v", err)
		return e.fallback.PredictedUtility(bid)
	}

	out, ok := outputs[outputName]
	if !ok {
		log.Printf("party/neural: output %q not found", outputName)
		return e.fallback.PredictedUtility(bid)
	}

	switch d := out.Data().(type) {
	case []float32:
		if len(d) > 0 {
			return clamp01(float64(d[0]))
		}
	case float32:
		return clamp01(float64(d))
	case []float64:
		if len(d) > 0 {
			return clamp01(d[0])
		}
	case float64:
		return clamp01(d)
	default:
		log.Printf("party/neural: unexpected output type %T", d)
	}
	return e.fallback.PredictedUtility(bid)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
