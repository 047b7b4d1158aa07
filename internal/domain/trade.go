package domain

import (
	"math"
	"time"
)

// TradeStatus represents where a trade sits in its lifecycle.
type TradeStatus string

const (
	StatusPendingEntry    TradeStatus = "pending_entry"
	StatusActive          TradeStatus = "active"
	StatusClosedStopLoss  TradeStatus = "closed_sl"
	StatusClosedTP1       TradeStatus = "closed_tp1"
	StatusClosedTP2       TradeStatus = "closed_tp2"
	StatusClosedBreakeven TradeStatus = "closed_breakeven"
)

// IsTerminal reports whether the status is one of the closed states.
func (s TradeStatus) IsTerminal() bool {
	switch s {
	case StatusClosedStopLoss, StatusClosedTP1, StatusClosedTP2, StatusClosedBreakeven:
		return true
	}
	return false
}

// TradeEvent identifies a lifecycle transition worth announcing.
type TradeEvent string

const (
	EventNone        TradeEvent = ""
	EventExecuted    TradeEvent = "EXECUTED"
	EventStopLoss    TradeEvent = "SL"
	EventTakeProfit1 TradeEvent = "TP1"
	EventTakeProfit2 TradeEvent = "TP2"
	EventBreakeven   TradeEvent = "BREAKEVEN"
)

// Trade is one accepted signal under live monitoring.
//
// The price parameters and direction are fixed at creation. The mutable
// fields are advanced exclusively by the lifecycle engine's monitoring
// cycle, under the engine's registry lock.
type Trade struct {
	// OriginMessageID is the ID of the signal announcement in the target
	// channel; all lifecycle replies are threaded under it.
	OriginMessageID int
	TargetID        string // notification channel the announcement went to
	Symbol          string // case-normalized instrument identifier

	EntryPrice float64
	StopLoss   float64
	TP1        float64 // 0 = not configured
	TP2        float64 // 0 = not configured
	Direction  Direction

	Status             TradeStatus
	TP1Hit             bool    // latched once true; disables the stop-loss
	ExecutedEntryPrice float64 // set once, on the transition to active
	EntryConfirmations int     // consecutive confirming samples so far
	AwaitingPullback   bool    // set once at creation, cleared at most once

	CreatedAt time.Time
}

// NewTrade builds a pending trade from an extracted signal. currentPrice is
// the market price sampled at admission time; when it already lies beyond
// the stated entry in the trade's favor, the trade must wait for a pullback
// into the entry zone instead of filling immediately at a worse level. Pass
// 0 when no price sample was available.
func NewTrade(originMessageID int, targetID string, sig *Signal, currentPrice float64) *Trade {
	dir := sig.Direction()
	awaitingPullback := false
	if currentPrice > 0 {
		switch dir {
		case Long:
			awaitingPullback = currentPrice > sig.EntryPrice
		case Short:
			awaitingPullback = currentPrice < sig.EntryPrice
		}
	}
	return &Trade{
		OriginMessageID:  originMessageID,
		TargetID:         targetID,
		Symbol:           NormalizeSymbol(sig.Symbol),
		EntryPrice:       sig.EntryPrice,
		StopLoss:         sig.StopLoss,
		TP1:              sig.TP1,
		TP2:              sig.TP2,
		Direction:        dir,
		Status:           StatusPendingEntry,
		AwaitingPullback: awaitingPullback,
		CreatedAt:        time.Now().UTC(),
	}
}

// ApplyEntryTick advances the entry phase with one price sample.
//
// A sample within the tolerance band around the stated entry counts as
// confirming; any other sample resets the consecutive count to zero, so a
// single noisy tick can neither trigger nor keep alive an entry. Once
// confirmTicks consecutive confirming samples have been seen the trade
// becomes active at the triggering price and EventExecuted is returned.
func (t *Trade) ApplyEntryTick(price, tolerance float64, confirmTicks int) TradeEvent {
	if t.Status != StatusPendingEntry {
		return EventNone
	}

	confirming := false
	switch t.Direction {
	case Long:
		if t.AwaitingPullback {
			// Market ran past the entry before admission; wait for the
			// retracement back down into the entry zone.
			if price <= t.EntryPrice+tolerance {
				t.AwaitingPullback = false
				confirming = true
			}
		} else {
			confirming = price >= t.EntryPrice-tolerance
		}
	case Short:
		if t.AwaitingPullback {
			if price >= t.EntryPrice-tolerance {
				t.AwaitingPullback = false
				confirming = true
			}
		} else {
			confirming = price <= t.EntryPrice+tolerance
		}
	default:
		// UnknownDirection never confirms.
		return EventNone
	}

	if !confirming {
		t.EntryConfirmations = 0
		return EventNone
	}

	t.EntryConfirmations++
	if t.EntryConfirmations < confirmTicks {
		return EventNone
	}

	t.ExecutedEntryPrice = price
	t.Status = StatusActive
	return EventExecuted
}

// ApplyExitTick advances the exit phase with one price sample. At most one
// exit condition fires per sample, checked in strict priority order:
//
//  1. stop-loss, only while TP1 has not been hit;
//  2. TP2, when configured (terminal);
//  3. TP1, when configured and not yet hit — terminal only if TP2 is not
//     configured, otherwise the trade stays active with the stop-loss
//     replaced by the breakeven guard;
//  4. breakeven at the original entry, reachable only after TP1 with TP2
//     still outstanding.
func (t *Trade) ApplyExitTick(price float64) TradeEvent {
	if t.Status != StatusActive {
		return EventNone
	}

	var long bool
	switch t.Direction {
	case Long:
		long = true
	case Short:
		long = false
	default:
		return EventNone
	}

	if !t.TP1Hit && (long && price <= t.StopLoss || !long && price >= t.StopLoss) {
		t.Status = StatusClosedStopLoss
		return EventStopLoss
	}

	if t.TP2 != 0 && (long && price >= t.TP2 || !long && price <= t.TP2) {
		t.Status = StatusClosedTP2
		return EventTakeProfit2
	}

	if t.TP1 != 0 && !t.TP1Hit && (long && price >= t.TP1 || !long && price <= t.TP1) {
		t.TP1Hit = true
		if t.TP2 == 0 {
			// TP1 is the final target; nothing left to monitor.
			t.Status = StatusClosedTP1
		}
		return EventTakeProfit1
	}

	if t.TP2 != 0 && t.TP1Hit && (long && price <= t.EntryPrice || !long && price >= t.EntryPrice) {
		t.Status = StatusClosedBreakeven
		return EventBreakeven
	}

	return EventNone
}

// SignedPips converts the excursion from the trade's entry to price into
// whole pips, favorable excursion positive. The executed entry price is used
// as the reference once the trade has filled; before that the stated entry
// serves.
func (t *Trade) SignedPips(price, pipValue float64) int {
	ref := t.EntryPrice
	if t.ExecutedEntryPrice != 0 {
		ref = t.ExecutedEntryPrice
	}
	diff := price - ref
	if t.Direction == Short {
		diff = -diff
	}
	return PriceDiffToPips(diff, pipValue)
}

// PriceDiffToPips converts a raw price difference into whole pips for the
// given pip value, rounding to the nearest pip.
func PriceDiffToPips(diff, pipValue float64) int {
	if pipValue == 0 {
		return 0
	}
	return int(math.Round(diff / pipValue))
}
