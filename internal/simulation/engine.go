// Package simulation projects an account balance over the closed trades of a ledger.
package simulation

import (
	"github.com/rxtech-lab/argo-ledger/internal/logger"
	"github.com/rxtech-lab/argo-ledger/internal/stats"
	"github.com/rxtech-lab/argo-ledger/internal/types"
	"go.uber.org/zap"
)

// Reference parameters used for the cached compound and simple projections.
const (
	ReferenceInitialBalance = 1000.0
	ReferenceRiskPercent    = 3.0
	ReferenceLeverage       = 35.0
)

// Engine runs balance projections. It holds no state between calls.
type Engine struct {
	logger *logger.Logger
}

// NewEngine creates a simulation engine.
func NewEngine(log *logger.Logger) *Engine {
	return &Engine{
		logger: log,
	}
}

// ReferenceParams returns the reference parameters for mode.
func ReferenceParams(mode types.SimulationMode) types.SimulationParams {
	return types.SimulationParams{
		Mode:           mode,
		InitialBalance: ReferenceInitialBalance,
		RiskPercent:    ReferenceRiskPercent,
		Leverage:       ReferenceLeverage,
	}
}

// Simulate replays the closed trades in chronological order.
//
// Per trade, the stake is RiskPercent of the current balance (compound) or of
// the initial balance (simple). The stake times Leverage is the position, and the
// position moves by the trade's net percentage. History[0] is always 0.0 and every
// later entry is the growth of the balance over the initial balance, in percent.
func (e *Engine) Simulate(trades []types.TradeRecord, params types.SimulationParams) (types.SimulationResult, error) {
	if err := params.Validate(); err != nil {
		return types.SimulationResult{}, err
	}

	ordered := stats.Chronological(trades)

	history := make([]float64, 1, len(ordered)+1)
	history[0] = 0.0

	balance := params.InitialBalance
	for _, trade := range ordered {
		var tradeCapital float64
		if params.Mode == types.SimulationCompound {
			tradeCapital = balance * params.RiskPercent / 100
		} else {
			tradeCapital = params.InitialBalance * params.RiskPercent / 100
		}

		positionSize := tradeCapital * params.Leverage
		profitOrLoss := positionSize * trade.PnLValue() / 100
		balance += profitOrLoss

		history = append(history, (balance/params.InitialBalance-1)*100)
	}

	result := types.SimulationResult{
		Params:       params,
		History:      history,
		MinPercent:   history[0],
		MaxPercent:   history[0],
		FinalPercent: history[len(history)-1],
		FinalBalance: balance,
	}

	for _, growth := range history[1:] {
		result.MinPercent = min(result.MinPercent, growth)
		result.MaxPercent = max(result.MaxPercent, growth)
	}

	e.logger.Debug("Simulation finished",
		zap.String("mode", string(params.Mode)),
		zap.Int("trades", len(ordered)),
		zap.Float64("final_balance", balance),
	)

	return result, nil
}
