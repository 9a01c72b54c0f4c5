package restaurant

import (
	"fmt"
	"strings"
)

// Strategy selects the order in which restaurants serving an item are ranked
// during fulfillment. The set is closed: resolving an unknown name fails with
// *StrategyNotFoundError instead of falling through to a default.
type Strategy int

const (
	// StrategyPriceAscending ranks restaurants by the matched item's price,
	// cheapest first.
	StrategyPriceAscending Strategy = iota
	// StrategyRatingDescending ranks restaurants by their rating, best first.
	StrategyRatingDescending
)

// String returns the wire name of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyPriceAscending:
		return "price"
	case StrategyRatingDescending:
		return "rating"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// StrategyNotFoundError indicates an unrecognized strategy name.
type StrategyNotFoundError struct {
	Name string
}

func (e *StrategyNotFoundError) Error() string {
	return fmt.Sprintf("no restaurant selection strategy found for: %s", e.Name)
}

// ResolveStrategy maps a strategy name to a Strategy. Matching is
// case-insensitive.
func ResolveStrategy(name string) (Strategy, error) {
	switch strings.ToLower(name) {
	case "price":
		return StrategyPriceAscending, nil
	case "rating":
		return StrategyRatingDescending, nil
	default:
		return 0, &StrategyNotFoundError{Name: name}
	}
}
