// Package models holds the six fixed scoring formulas and the registry that
// dispatches to them. None of them is a trained model: the names follow the
// algorithms they are meant to illustrate, the behavior is plain arithmetic
// and the constants below must not change.
package models

import (
	"errors"
	"fmt"
	"math"

	"github.com/raysh454/phishlens/internal/features"
)

// Algorithm is the closed set of scorer names.
type Algorithm string

const (
	KNN          Algorithm = "knn"
	NaiveBayes   Algorithm = "naive-bayes"
	AdaBoost     Algorithm = "adaboost"
	SGD          Algorithm = "sgd"
	RandomForest Algorithm = "random-forest"
	DecisionTree Algorithm = "decision-tree"
)

// Fallback is used whenever a caller names an algorithm we do not know.
const Fallback = RandomForest

var ErrUnknownAlgorithm = errors.New("unknown algorithm")

var ordered = []Algorithm{KNN, NaiveBayes, AdaBoost, SGD, RandomForest, DecisionTree}

// Algorithms returns every known algorithm in catalog order.
func Algorithms() []Algorithm {
	return append([]Algorithm(nil), ordered...)
}

// ParseAlgorithm is an exact, case-sensitive lookup.
func ParseAlgorithm(name string) (Algorithm, bool) {
	a := Algorithm(name)
	return a, a.Valid()
}

// Resolve maps name to an Algorithm, falling back to random-forest.
func Resolve(name string) Algorithm {
	if a, ok := ParseAlgorithm(name); ok {
		return a
	}
	return Fallback
}

func (a Algorithm) Valid() bool {
	switch a {
	case KNN, NaiveBayes, AdaBoost, SGD, RandomForest, DecisionTree:
		return true
	}
	return false
}

func (a Algorithm) String() string { return string(a) }

// Verdict is a scorer's output. Confidence is the raw formula value and is
// not inverted when IsPhishing is false.
type Verdict struct {
	IsPhishing bool    `json:"isPhishing"`
	Confidence float64 `json:"confidence"`
}

// Scorer is a pure function of the normalized vector.
type Scorer func(v features.Vector) Verdict

// Registry maps each Algorithm to its Scorer. It is read-only once built.
type Registry struct {
	scorers map[Algorithm]Scorer
}

// NewRegistry builds a registry holding the six formulas.
func NewRegistry() *Registry {
	return &Registry{scorers: map[Algorithm]Scorer{
		KNN:          scoreKNN,
		NaiveBayes:   scoreNaiveBayes,
		AdaBoost:     scoreAdaBoost,
		SGD:          scoreSGD,
		RandomForest: scoreRandomForest,
		DecisionTree: scoreDecisionTree,
	}}
}

// Default is the process-wide registry.
var Default = NewRegistry()

// Scorer returns the scorer for a.
func (r *Registry) Scorer(a Algorithm) (Scorer, bool) {
	s, ok := r.scorers[a]
	return s, ok
}

// Score runs the scorer for a over v.
func (r *Registry) Score(a Algorithm, v features.Vector) (Verdict, error) {
	s, ok := r.scorers[a]
	if !ok {
		return Verdict{}, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, string(a))
	}
	return s(v), nil
}

func scoreKNN(v features.Vector) Verdict {
	score := v[1]*0.2 + v[2]*0.3 + v[4]*0.15 +
		v[6]*0.15 + v[9]*0.2
	return Verdict{IsPhishing: score > 0.5, Confidence: score}
}

func scoreNaiveBayes(v features.Vector) Verdict {
	score := v[0]*0.1 + v[1]*0.2 + v[2]*0.3 +
		v[4]*0.15 + v[5]*0.1 + v[8]*0.15
	return Verdict{IsPhishing: score > 0.45, Confidence: score}
}

func scoreAdaBoost(v features.Vector) Verdict {
	c1 := v[2] * 0.4
	c2 := v[1]*0.3 + v[9]*0.3
	c3 := v[4]*0.2 + v[6]*0.2 + v[0]*0.1
	score := (c1 + c2 + c3) / 3
	return Verdict{IsPhishing: score > 0.48, Confidence: score}
}

var sgdWeights = features.Vector{0.1, 0.2, 0.35, 0.05, 0.15, 0.1, 0.15, 0.05, 0.1, 0.25}

func scoreSGD(v features.Vector) Verdict {
	score := 0.0
	for i := range v {
		score += v[i] * sgdWeights[i]
	}
	confidence := 1 / (1 + math.Exp(-score+0.5))
	return Verdict{IsPhishing: confidence > 0.5, Confidence: confidence}
}

func scoreRandomForest(v features.Vector) Verdict {
	tree1 := pick(v[2] > 0.5 && v[4] > 0.5, 0.8, 0.2)
	tree2 := pick(v[1] > 0.5 && v[9] > 0.5, 0.7, 0.3)
	tree3 := pick(v[0] > 0.6 || v[5] > 0.5, 0.6, 0.4)
	tree4 := pick(v[6] > 0.5 && v[8] > 0.5, 0.75, 0.25)

	score := (tree1 + tree2 + tree3 + tree4) / 4
	return Verdict{IsPhishing: score > 0.55, Confidence: score}
}

func scoreDecisionTree(v features.Vector) Verdict {
	switch {
	case v[2] > 0.5:
		switch {
		case v[1] > 0.5:
			return Verdict{IsPhishing: true, Confidence: 0.85}
		case v[4] > 0.5:
			return Verdict{IsPhishing: true, Confidence: 0.75}
		default:
			return Verdict{IsPhishing: true, Confidence: 0.6}
		}
	case v[0] > 0.7 && v[5] > 0.5:
		return Verdict{IsPhishing: true, Confidence: 0.65}
	case v[9] > 0.6:
		return Verdict{IsPhishing: true, Confidence: 0.7}
	}
	return Verdict{IsPhishing: false, Confidence: 0.8}
}

func pick(cond bool, yes, no float64) float64 {
	if cond {
		return yes
	}
	return no
}
