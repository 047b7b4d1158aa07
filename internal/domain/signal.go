package domain

import "strings"

// Direction indicates which way a trade profits.
type Direction string

const (
	Long             Direction = "LONG"
	Short            Direction = "SHORT"
	UnknownDirection Direction = "UNKNOWN"
)

// Signal holds the structured trade parameters extracted from a raw message.
// TP1 and TP2 are zero when the source message named no such target.
type Signal struct {
	IsSignal     bool
	Symbol       string
	CurrentPrice float64 // market price quoted in the message, if any
	EntryPrice   float64
	StopLoss     float64
	TP1          float64
	TP2          float64
}

// Direction derives the trade direction from entry vs. stop-loss placement.
// A stop below the entry only makes sense for a long, and vice versa.
func (s *Signal) Direction() Direction {
	return DeriveDirection(s.EntryPrice, s.StopLoss)
}

// DeriveDirection returns Long when the entry sits above the stop-loss,
// Short when below, and UnknownDirection when they coincide. A trade with
// UnknownDirection can never satisfy entry or exit conditions.
func DeriveDirection(entryPrice, stopLoss float64) Direction {
	switch {
	case entryPrice > stopLoss:
		return Long
	case entryPrice < stopLoss:
		return Short
	default:
		return UnknownDirection
	}
}

// NormalizeSymbol canonicalizes an instrument identifier so that registry
// lookups are case-insensitive.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
