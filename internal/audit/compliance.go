package audit

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/config"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/models"
)

// Evaluator runs the compliance rules over a transaction-shaped payload.
// It is a pure function over its configured thresholds: no storage, no side
// effects, and it never fails. A malformed or missing field means the rule
// does not apply, not that evaluation errored.
type Evaluator struct {
	maxPriceChangePercent float64
	highAmountThreshold   float64
}

// NewEvaluator creates an Evaluator with the configured thresholds.
func NewEvaluator(cfg config.ComplianceConfig) *Evaluator {
	return &Evaluator{
		maxPriceChangePercent: cfg.MaxPriceChangePercent,
		highAmountThreshold:   cfg.HighAmountThreshold,
	}
}

// Evaluate inspects an action together with its before/after state and an
// optional amount, and returns the advisory flags it raises. The checks run
// in a fixed order: price anomaly, high amount, delete operation.
func (e *Evaluator) Evaluate(action string, before, after map[string]interface{}, amount interface{}) []models.ComplianceFlag {
	var flags []models.ComplianceFlag
	action = strings.ToUpper(action)

	if action == "UPDATE" {
		oldPrice, oldOK := toFloat(before["price"])
		newPrice, newOK := toFloat(after["price"])
		if oldOK && newOK && oldPrice > 0 {
			changePercent := math.Abs((newPrice-oldPrice)/oldPrice) * 100
			if changePercent > e.maxPriceChangePercent {
				flags = append(flags, models.ComplianceFlag{
					Kind:   models.FlagPriceAnomaly,
					Detail: fmt.Sprintf("%.1f%% change (max allowed: %.0f%%)", changePercent, e.maxPriceChangePercent),
				})
			}
		}
	}

	if amt, ok := toFloat(amount); ok && amt > e.highAmountThreshold {
		flags = append(flags, models.ComplianceFlag{
			Kind:   models.FlagHighAmount,
			Detail: fmt.Sprintf("$%.2f exceeds approval threshold of $%.2f", amt, e.highAmountThreshold),
		})
	}

	// Every delete is reviewable, regardless of state.
	if action == "DELETE" {
		flags = append(flags, models.ComplianceFlag{
			Kind:   models.FlagDeleteOperation,
			Detail: "All delete operations flagged for manual review",
		})
	}

	return flags
}

// toFloat coerces the numeric representations that survive JSON decoding and
// handler payload maps. Anything else simply fails the coercion.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
