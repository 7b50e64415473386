package aco

import (
	"errors"
	"fmt"
	"math"
)

// Default colony parameters.
const (
	DefaultAlpha             = 1.0
	DefaultBeta              = 0.0001
	DefaultEvaporationFactor = 0.5
	DefaultQ                 = 0.0006
	DefaultPheromone         = 1.0
	DefaultIterations        = 150
	DefaultAnts              = 50
	DefaultMaxPathLength     = 15
)

var (
	// ErrBadEvaporation indicates an evaporation factor outside [0,1].
	ErrBadEvaporation = errors.New("aco: evaporation factor must be within [0,1]")

	// ErrNegativeQ indicates a negative reinforcement constant.
	ErrNegativeQ = errors.New("aco: Q must be non-negative")

	// ErrNegativePheromone indicates a negative default pheromone level.
	ErrNegativePheromone = errors.New("aco: default pheromone must be non-negative")

	// ErrNegativeCount indicates a negative iteration, ant or path length count.
	ErrNegativeCount = errors.New("aco: counts must be non-negative")

	// ErrBadExponent indicates a NaN or infinite alpha or beta.
	ErrBadExponent = errors.New("aco: alpha and beta must be finite")
)

// Config holds the colony parameters. It is passed by value into New.
type Config struct {
	Alpha             float64 `json:"alpha"`             // pheromone influence exponent
	Beta              float64 `json:"beta"`              // inverse-distance influence exponent
	EvaporationFactor float64 `json:"evaporationFactor"` // share of pheromone lost per iteration
	Q                 float64 `json:"q"`                 // reinforcement constant
	DefaultPheromone  float64 `json:"defaultPheromone"`
	Iterations        int     `json:"iterations"`
	Ants              int     `json:"ants"` // ants per iteration
	MaxPathLength     int     `json:"maxPathLength"`
}

// DefaultConfig returns the standard colony parameters.
func DefaultConfig() Config {
	return Config{
		Alpha:             DefaultAlpha,
		Beta:              DefaultBeta,
		EvaporationFactor: DefaultEvaporationFactor,
		Q:                 DefaultQ,
		DefaultPheromone:  DefaultPheromone,
		Iterations:        DefaultIterations,
		Ants:              DefaultAnts,
		MaxPathLength:     DefaultMaxPathLength,
	}
}

// Validate checks the ranges that keep pheromone levels non-negative.
func (c Config) Validate() error {
	if math.IsNaN(c.Alpha) || math.IsInf(c.Alpha, 0) || math.IsNaN(c.Beta) || math.IsInf(c.Beta, 0) {
		return fmt.Errorf("%w: alpha=%v beta=%v", ErrBadExponent, c.Alpha, c.Beta)
	}
	if !(c.EvaporationFactor >= 0 && c.EvaporationFactor <= 1) {
		return fmt.Errorf("%w: %v", ErrBadEvaporation, c.EvaporationFactor)
	}
	if !(c.Q >= 0) {
		return fmt.Errorf("%w: %v", ErrNegativeQ, c.Q)
	}
	if !(c.DefaultPheromone >= 0) {
		return fmt.Errorf("%w: %v", ErrNegativePheromone, c.DefaultPheromone)
	}
	if c.Iterations < 0 || c.Ants < 0 || c.MaxPathLength < 0 {
		return fmt.Errorf("%w: iterations=%d ants=%d maxPathLength=%d",
			ErrNegativeCount, c.Iterations, c.Ants, c.MaxPathLength)
	}
	return nil
}
