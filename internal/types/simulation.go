package types

import (
	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-ledger/pkg/errors"
)

// SimulationMode selects how the per-trade stake is sized.
type SimulationMode string

const (
	// SimulationCompound sizes each trade off the current balance.
	SimulationCompound SimulationMode = "compound"
	// SimulationSimple always sizes off the initial balance.
	SimulationSimple SimulationMode = "simple"
)

// SimulationParams are the inputs of a balance projection.
type SimulationParams struct {
	Mode           SimulationMode `yaml:"mode" json:"mode" validate:"required,oneof=compound simple"`
	InitialBalance float64        `yaml:"initial_balance" json:"initial_balance" validate:"gt=0"`
	RiskPercent    float64        `yaml:"risk_percent" json:"risk_percent" validate:"gt=0,lte=100"`
	Leverage       float64        `yaml:"leverage" json:"leverage" validate:"gt=0"`
}

// Validate checks the simulation preconditions.
func (p SimulationParams) Validate() error {
	validate := validator.New()
	if err := validate.Struct(p); err != nil {
		return errors.Wrap(errors.ErrCodeSimulationPrecondition, "invalid simulation parameters", err)
	}

	return nil
}

// SimulationResult is the trajectory of a balance projection.
type SimulationResult struct {
	Params SimulationParams `yaml:"params" json:"params"`
	// History holds growth percentages; History[0] is the 0.0 seed.
	History      []float64 `yaml:"history" json:"history"`
	MinPercent   float64   `yaml:"min_percent" json:"min_percent"`
	MaxPercent   float64   `yaml:"max_percent" json:"max_percent"`
	FinalPercent float64   `yaml:"final_percent" json:"final_percent"`
	FinalBalance float64   `yaml:"final_balance" json:"final_balance"`
}

// Multiplier returns how many times the initial balance was grown.
func (r SimulationResult) Multiplier() float64 {
	if r.Params.InitialBalance <= 0 {
		return 0
	}

	return r.FinalBalance / r.Params.InitialBalance
}
