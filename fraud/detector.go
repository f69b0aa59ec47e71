package fraud

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"frauddetect/ml"
)

// ModelSource yields the active model snapshot.
type ModelSource interface {
	Current() (*ml.LoadedModel, error)
}

// Metrics receives one observation per prediction.
type Metrics interface {
	ObservePrediction(verdict string, probability float64, cached bool, duration time.Duration)
}

// Prediction is the outcome of one Predict call.
type Prediction struct {
	Record          Record        `json:"record"`
	Probability     float64       `json:"probability"`
	Threshold       float64       `json:"threshold"`
	Verdict         Verdict       `json:"verdict"`
	ModelVersion    string        `json:"model_version"`
	ModelGeneration uint64        `json:"model_generation"`
	Cached          bool          `json:"cached"`
	Duration        time.Duration `json:"duration_ns"`
}

type cacheKey struct {
	generation uint64
	record     Record
}

// Detector scores transactions against the active model. Scores are a pure
// function of (model generation, record), so they are memoized in an LRU.
type Detector struct {
	models  ModelSource
	cache   *lru.Cache[cacheKey, float64]
	logger  *zap.Logger
	metrics Metrics
}

// NewDetector builds a detector. cacheSize 0 disables the score cache;
// logger and metrics may be nil.
func NewDetector(models ModelSource, cacheSize int, logger *zap.Logger, metrics Metrics) (*Detector, error) {
	if models == nil {
		return nil, errors.New("model source is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Detector{models: models, logger: logger, metrics: metrics}
	if cacheSize > 0 {
		cache, err := lru.New[cacheKey, float64](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create score cache: %w", err)
		}
		d.cache = cache
	}
	return d, nil
}

// Predict validates tx, derives the balance deltas, scores the record and
// compares the probability with threshold.
func (d *Detector) Predict(ctx context.Context, tx Transaction, threshold float64) (*Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	record := NewRecord(tx)
	model, err := d.models.Current()
	if err != nil {
		return nil, err
	}

	probability, cached, err := d.score(model, record)
	if err != nil {
		d.logger.Error("scoring failed",
			zap.String("type", string(record.Type)),
			zap.Uint64("model_generation", model.Generation),
			zap.Error(err),
		)
		return nil, err
	}

	verdict := Decide(probability, threshold)
	prediction := &Prediction{
		Record:          record,
		Probability:     probability,
		Threshold:       threshold,
		Verdict:         verdict,
		ModelVersion:    model.Classifier.Info().Version,
		ModelGeneration: model.Generation,
		Cached:          cached,
		Duration:        time.Since(start),
	}

	d.logger.Info("prediction",
		zap.String("type", string(record.Type)),
		zap.Float64("amount", record.Amount),
		zap.Float64("probability", probability),
		zap.Float64("threshold", threshold),
		zap.String("verdict", string(verdict)),
		zap.Bool("cached", cached),
		zap.Duration("duration", prediction.Duration),
	)
	if d.metrics != nil {
		d.metrics.ObservePrediction(string(verdict), probability, cached, prediction.Duration)
	}
	return prediction, nil
}

func (d *Detector) score(model *ml.LoadedModel, record Record) (float64, bool, error) {
	key := cacheKey{generation: model.Generation, record: record}
	if d.cache != nil {
		if p, ok := d.cache.Get(key); ok {
			return p, true, nil
		}
	}

	features, err := model.Encoder.Encode(record.Row())
	if err != nil {
		return 0, false, fmt.Errorf("encode record: %w", err)
	}
	p, err := model.Classifier.PredictProba(features)
	if err != nil {
		return 0, false, fmt.Errorf("predict: %w", err)
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, false, fmt.Errorf("model returned probability %v outside [0, 1]", p)
	}

	if d.cache != nil {
		d.cache.Add(key, p)
	}
	return p, false, nil
}
