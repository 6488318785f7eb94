package signal

import (
	"math/rand"

	"github.com/banshee-data/intersect.report/internal/network"
)

// Traffic-state buckets keyed on the EW/NS pressure ratio and combined
// magnitude. Each bucket carries a pair of baseline scores that the
// predictor perturbs and slowly adapts.
const (
	bucketLow          = "low-traffic"
	bucketBalanced     = "balanced"
	bucketBusyBalanced = "busy-balanced"
	bucketNSHeavy      = "ns-heavy"
	bucketNSSurge      = "ns-surge"
	bucketEWHeavy      = "ew-heavy"
	bucketEWSurge      = "ew-surge"
)

// baselineScores maps each bucket to its [NS, EW] starting scores.
var baselineScores = map[string][2]float64{
	bucketLow:          {0.5, 0.5},
	bucketBalanced:     {1.0, 1.0},
	bucketBusyBalanced: {1.6, 1.6},
	bucketNSHeavy:      {1.8, 0.9},
	bucketNSSurge:      {2.6, 0.7},
	bucketEWHeavy:      {0.9, 1.8},
	bucketEWSurge:      {0.7, 2.6},
}

// PredictorConfig holds the predictor tunables.
type PredictorConfig struct {
	LearningRate     float64 // blend rate of scores toward observed pressure
	ExplorationNoise float64 // amplitude of the bounded random perturbation
	PressureBonus    float64 // pressure-proportional score bonus factor
}

// Predictor proposes a phase preference from axis pressures. It is a
// deterministic heuristic lookup with bounded perturbation, not a learned
// policy: per-bucket scores drift toward observed pressure with a fixed
// blend rate, and a seeded noise source adds bounded exploration.
type Predictor struct {
	cfg    PredictorConfig
	rng    *rand.Rand
	scores map[string][2]float64
}

// NewPredictor returns a predictor drawing exploration noise from rng.
func NewPredictor(cfg PredictorConfig, rng *rand.Rand) *Predictor {
	return &Predictor{
		cfg:    cfg,
		rng:    rng,
		scores: make(map[string][2]float64),
	}
}

// bucketFor classifies the pressure pair. Small offsets keep the ratio
// finite when one axis is empty.
func bucketFor(pressNS, pressEW float64) string {
	sum := pressNS + pressEW
	if sum < 1 {
		return bucketLow
	}
	ratio := (pressEW + 0.1) / (pressNS + 0.1)
	switch {
	case ratio >= 3:
		return bucketEWSurge
	case ratio >= 1.5:
		return bucketEWHeavy
	case ratio <= 1.0/3:
		return bucketNSSurge
	case ratio <= 1.0/1.5:
		return bucketNSHeavy
	case sum >= 6:
		return bucketBusyBalanced
	default:
		return bucketBalanced
	}
}

// Recommend scores both phases for the observed pressures and returns the
// Q-value pair plus the recommended action. Equal scores recommend HOLD.
func (p *Predictor) Recommend(pressNS, pressEW float64) (qNS, qEW float64, action network.Action) {
	bucket := bucketFor(pressNS, pressEW)
	scores, ok := p.scores[bucket]
	if !ok {
		scores = baselineScores[bucket]
	}

	qNS = scores[0] + p.cfg.PressureBonus*pressNS + p.noise()
	qEW = scores[1] + p.cfg.PressureBonus*pressEW + p.noise()

	// Incremental blend toward the observed pressure. Not gradient-based:
	// a fixed-rate move of the bucket baseline.
	scores[0] += p.cfg.LearningRate * (pressNS - scores[0])
	scores[1] += p.cfg.LearningRate * (pressEW - scores[1])
	p.scores[bucket] = scores

	switch {
	case qNS > qEW:
		action = network.ActionNS
	case qEW > qNS:
		action = network.ActionEW
	default:
		action = network.ActionHold
	}
	return qNS, qEW, action
}

// noise returns a bounded exploration term in [-amplitude, +amplitude].
func (p *Predictor) noise() float64 {
	if p.cfg.ExplorationNoise <= 0 || p.rng == nil {
		return 0
	}
	return p.cfg.ExplorationNoise * (p.rng.Float64()*2 - 1)
}
