package cluster

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ppiankov/segmenta/internal/model"
	"github.com/ppiankov/segmenta/internal/worker"
)

// ConfigError reports an invalid candidate-k range. It is fatal but
// caller-correctable; no computation starts with a bad range.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string { return "cluster config: " + e.msg }

// ErrNoViable is returned when every candidate cluster count failed to
// produce a scoreable fit.
var ErrNoViable = errors.New("no viable segmentation: every candidate cluster count failed")

// Candidate pairs a fitted clustering with its quality score.
type Candidate struct {
	Fit   Fit
	Score model.CandidateScore
}

// Selection is the outcome of a candidate sweep: every candidate's
// score (for operator inspection and override) plus the automatic pick.
type Selection struct {
	Candidates []Candidate
	Chosen     int // index into Candidates
}

// Scores returns the per-candidate score table in ascending k order.
func (s Selection) Scores() []model.CandidateScore {
	scores := make([]model.CandidateScore, len(s.Candidates))
	for i, c := range s.Candidates {
		scores[i] = c.Score
	}
	return scores
}

// Best returns the chosen candidate.
func (s Selection) Best() Candidate {
	return s.Candidates[s.Chosen]
}

// Selector sweeps a range of candidate cluster counts.
type Selector struct {
	cfg     model.ClusterConfig
	workers int
}

// NewSelector creates a selector. workers bounds the parallel fits.
func NewSelector(cfg model.ClusterConfig, workers int) *Selector {
	if workers <= 0 {
		workers = 1
	}
	return &Selector{cfg: cfg, workers: workers}
}

// Select fits every k in [KMin, KMax], scores each fit, and picks the
// candidate with the highest defined silhouette. The pick is advisory:
// the full score table is part of the result so an operator can
// override it. Per-candidate problems are recorded in the table, not
// escalated, unless no candidate is usable at all.
func (s *Selector) Select(points []model.FeatureVector) (Selection, error) {
	if err := s.validate(len(points)); err != nil {
		return Selection{}, err
	}

	pool := worker.NewPool(s.workers)
	pool.Start()

	for k := s.cfg.KMin; k <= s.cfg.KMax; k++ {
		pool.Submit(&fitJob{
			points: points,
			k:      k,
			cfg:    s.cfg,
		})
	}

	results := pool.Wait()

	candidates := make([]Candidate, 0, len(results))
	for _, r := range results {
		candidates = append(candidates, r.(*fitResult).candidate)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Fit.K < candidates[j].Fit.K
	})

	chosen := -1
	for i, c := range candidates {
		if !c.Score.Valid {
			continue
		}
		if chosen < 0 || c.Score.Silhouette > candidates[chosen].Score.Silhouette {
			chosen = i
		}
	}
	if chosen < 0 {
		return Selection{Candidates: candidates}, ErrNoViable
	}

	return Selection{Candidates: candidates, Chosen: chosen}, nil
}

func (s *Selector) validate(population int) error {
	if population == 0 {
		return &ConfigError{msg: "empty feature matrix"}
	}
	if s.cfg.KMin < 2 {
		return &ConfigError{msg: fmt.Sprintf("k_min must be at least 2, got %d", s.cfg.KMin)}
	}
	if s.cfg.KMax < s.cfg.KMin {
		return &ConfigError{msg: fmt.Sprintf("k_max %d below k_min %d", s.cfg.KMax, s.cfg.KMin)}
	}
	if s.cfg.KMax >= population {
		return &ConfigError{msg: fmt.Sprintf("k_max %d must be below the population size %d", s.cfg.KMax, population)}
	}
	return nil
}

// fitJob evaluates a single candidate cluster count. Each candidate
// derives its own seed from the run seed and k, so the result is
// independent of worker scheduling.
type fitJob struct {
	points []model.FeatureVector
	k      int
	cfg    model.ClusterConfig
}

type fitResult struct {
	candidate Candidate
}

func (r *fitResult) GetError() error { return nil }

func (j *fitJob) Execute(_ context.Context) worker.Result {
	seed := j.cfg.Seed + int64(j.k)*10007

	fit := FitKMeans(j.points, j.k, j.cfg.Restarts, j.cfg.MaxIterations, j.cfg.Tolerance, seed)

	score := model.CandidateScore{
		K:        j.k,
		WSS:      fit.WSS,
		NonEmpty: fit.NonEmpty,
	}

	sil, ok := Silhouette(j.points, fit)
	score.Silhouette = sil
	score.Valid = ok

	switch {
	case !ok:
		score.Note = fmt.Sprintf("silhouette undefined: %d non-empty clusters", fit.NonEmpty)
	case fit.NonEmpty < fit.K:
		score.Note = fmt.Sprintf("low quality: collapsed to %d of %d clusters", fit.NonEmpty, fit.K)
	}

	return &fitResult{candidate: Candidate{Fit: fit, Score: score}}
}
