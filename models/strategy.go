package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Strategy is a missing-value handling strategy.
type Strategy int

const (
	StrategyDropRow Strategy = iota
	StrategyFillMean
	StrategyFillMedian
	StrategyFillMode
	StrategyForwardFill
)

var strategyNames = map[string]Strategy{
	"drop-row":     StrategyDropRow,
	"drop":         StrategyDropRow,
	"fill-mean":    StrategyFillMean,
	"mean":         StrategyFillMean,
	"fill-median":  StrategyFillMedian,
	"median":       StrategyFillMedian,
	"fill-mode":    StrategyFillMode,
	"mode":         StrategyFillMode,
	"forward-fill": StrategyForwardFill,
	"ffill":        StrategyForwardFill,
}

func (s Strategy) String() string {
	switch s {
	case StrategyDropRow:
		return "drop-row"
	case StrategyFillMean:
		return "fill-mean"
	case StrategyFillMedian:
		return "fill-median"
	case StrategyFillMode:
		return "fill-mode"
	case StrategyForwardFill:
		return "forward-fill"
	}
	return "Strategy(" + strconv.Itoa(int(s)) + ")"
}

// ParseStrategy resolves a strategy by name or alias.
func ParseStrategy(name string) (Strategy, error) {
	s, ok := strategyNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, &ValidationError{Field: "missing_strategy", Message: fmt.Sprintf("unknown strategy %q", name)}
	}
	return s, nil
}
