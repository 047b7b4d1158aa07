package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveDirection(t *testing.T) {
	tests := []struct {
		name     string
		entry    float64
		stopLoss float64
		want     Direction
	}{
		{name: "Entry above stop is long", entry: 1930.0, stopLoss: 1925.0, want: Long},
		{name: "Entry below stop is short", entry: 1930.0, stopLoss: 1935.0, want: Short},
		{name: "Entry equal to stop is unknown", entry: 1930.0, stopLoss: 1930.0, want: UnknownDirection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveDirection(tt.entry, tt.stopLoss))
		})
	}
}

func TestNormalizeSymbol(t *testing.T) {
	assert.Equal(t, "XAUUSD", NormalizeSymbol("  xauUsd "))
	assert.Equal(t, "BTCUSDT", NormalizeSymbol("BTCUSDT"))
}

func TestNewTrade_PullbackInference(t *testing.T) {
	longSig := &Signal{IsSignal: true, Symbol: "XAUUSD", EntryPrice: 1930.0, StopLoss: 1925.0}
	shortSig := &Signal{IsSignal: true, Symbol: "XAUUSD", EntryPrice: 1930.0, StopLoss: 1935.0}

	tests := []struct {
		name         string
		sig          *Signal
		currentPrice float64
		wantPullback bool
	}{
		{name: "Long with market beyond entry waits for pullback", sig: longSig, currentPrice: 1932.0, wantPullback: true},
		{name: "Long with market at entry fills normally", sig: longSig, currentPrice: 1930.0, wantPullback: false},
		{name: "Long with market below entry fills normally", sig: longSig, currentPrice: 1928.0, wantPullback: false},
		{name: "Short with market below entry waits for pullback", sig: shortSig, currentPrice: 1928.0, wantPullback: true},
		{name: "Short with market above entry fills normally", sig: shortSig, currentPrice: 1932.0, wantPullback: false},
		{name: "No price sample means no pullback inference", sig: longSig, currentPrice: 0, wantPullback: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trade := NewTrade(42, "@target", tt.sig, tt.currentPrice)
			assert.Equal(t, tt.wantPullback, trade.AwaitingPullback)
			assert.Equal(t, StatusPendingEntry, trade.Status)
			assert.Equal(t, 42, trade.OriginMessageID)
			assert.Equal(t, "@target", trade.TargetID)
		})
	}
}

func TestApplyEntryTick(t *testing.T) {
	const tolerance = 0.5 // 5 pips at 0.1 pip value

	longSig := &Signal{IsSignal: true, Symbol: "XAUUSD", EntryPrice: 1930.0, StopLoss: 1925.0}
	shortSig := &Signal{IsSignal: true, Symbol: "XAUUSD", EntryPrice: 1930.0, StopLoss: 1935.0}

	tests := []struct {
		name         string
		sig          *Signal
		currentPrice float64 // admission-time sample, drives pullback mode
		confirmTicks int
		prices       []float64
		wantEvents   []TradeEvent
		wantStatus   TradeStatus
	}{
		{
			name:         "Long executes after consecutive confirmations",
			sig:          longSig,
			confirmTicks: 3,
			prices:       []float64{1930.1, 1929.8, 1930.3},
			wantEvents:   []TradeEvent{EventNone, EventNone, EventExecuted},
			wantStatus:   StatusActive,
		},
		{
			name:         "Non-confirming sample resets the count",
			sig:          longSig,
			confirmTicks: 3,
			prices:       []float64{1930.0, 1930.0, 1928.0, 1930.0, 1930.0, 1930.0},
			wantEvents:   []TradeEvent{EventNone, EventNone, EventNone, EventNone, EventNone, EventExecuted},
			wantStatus:   StatusActive,
		},
		{
			name:         "Long below the tolerance band never confirms",
			sig:          longSig,
			confirmTicks: 2,
			prices:       []float64{1929.0, 1929.4, 1928.8},
			wantEvents:   []TradeEvent{EventNone, EventNone, EventNone},
			wantStatus:   StatusPendingEntry,
		},
		{
			name:         "Pullback blocks confirmation until the retrace",
			sig:          longSig,
			currentPrice: 1933.0,
			confirmTicks: 2,
			prices:       []float64{1932.0, 1931.0, 1930.4, 1930.2},
			wantEvents:   []TradeEvent{EventNone, EventNone, EventNone, EventExecuted},
			wantStatus:   StatusActive,
		},
		{
			name:         "Pullback retrace counts as the first confirmation",
			sig:          longSig,
			currentPrice: 1933.0,
			confirmTicks: 1,
			prices:       []float64{1930.5},
			wantEvents:   []TradeEvent{EventExecuted},
			wantStatus:   StatusActive,
		},
		{
			name:         "Short confirms at or below entry plus tolerance",
			sig:          shortSig,
			confirmTicks: 2,
			prices:       []float64{1930.4, 1929.5},
			wantEvents:   []TradeEvent{EventNone, EventExecuted},
			wantStatus:   StatusActive,
		},
		{
			name:         "Short pullback waits for the rally back up",
			sig:          shortSig,
			currentPrice: 1927.0,
			confirmTicks: 1,
			prices:       []float64{1928.0, 1929.5},
			wantEvents:   []TradeEvent{EventNone, EventExecuted},
			wantStatus:   StatusActive,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trade := NewTrade(1, "@target", tt.sig, tt.currentPrice)
			require.Len(t, tt.wantEvents, len(tt.prices))
			for i, price := range tt.prices {
				event := trade.ApplyEntryTick(price, tolerance, tt.confirmTicks)
				assert.Equal(t, tt.wantEvents[i], event, "sample %d at %v", i, price)
			}
			assert.Equal(t, tt.wantStatus, trade.Status)
			if tt.wantStatus == StatusActive {
				assert.Equal(t, tt.prices[len(tt.prices)-1], trade.ExecutedEntryPrice)
			}
		})
	}
}

func TestApplyEntryTick_UnknownDirectionNeverConfirms(t *testing.T) {
	sig := &Signal{IsSignal: true, Symbol: "XAUUSD", EntryPrice: 1930.0, StopLoss: 1930.0}
	trade := NewTrade(1, "@target", sig, 0)
	for i := 0; i < 10; i++ {
		assert.Equal(t, EventNone, trade.ApplyEntryTick(1930.0, 0.5, 1))
	}
	assert.Equal(t, StatusPendingEntry, trade.Status)
}

func TestApplyEntryTick_IgnoredOnceActive(t *testing.T) {
	sig := &Signal{IsSignal: true, Symbol: "XAUUSD", EntryPrice: 1930.0, StopLoss: 1925.0}
	trade := NewTrade(1, "@target", sig, 0)
	require.Equal(t, EventExecuted, trade.ApplyEntryTick(1930.0, 0.5, 1))
	assert.Equal(t, EventNone, trade.ApplyEntryTick(1930.0, 0.5, 1))
}

// activeTrade builds an already-executed trade with the given levels; the
// direction follows from entry vs. stop-loss placement.
func activeTrade(entry, sl, tp1, tp2, executed float64) *Trade {
	sig := &Signal{IsSignal: true, Symbol: "XAUUSD", EntryPrice: entry, StopLoss: sl, TP1: tp1, TP2: tp2}
	trade := NewTrade(1, "@target", sig, 0)
	trade.Status = StatusActive
	trade.ExecutedEntryPrice = executed
	return trade
}

func TestApplyExitTick(t *testing.T) {
	tests := []struct {
		name       string
		trade      *Trade
		prices     []float64
		wantEvents []TradeEvent
		wantStatus TradeStatus
	}{
		{
			name:       "Long stop-loss closes the trade",
			trade:      activeTrade(1930, 1925, 1940, 1950, 1930),
			prices:     []float64{1928, 1925},
			wantEvents: []TradeEvent{EventNone, EventStopLoss},
			wantStatus: StatusClosedStopLoss,
		},
		{
			name:       "Long TP2 closes the trade",
			trade:      activeTrade(1930, 1925, 1940, 1950, 1930),
			prices:     []float64{1951},
			wantEvents: []TradeEvent{EventTakeProfit2},
			wantStatus: StatusClosedTP2,
		},
		{
			name:       "TP2 outranks TP1 when one sample clears both",
			trade:      activeTrade(1930, 1925, 1940, 1950, 1930),
			prices:     []float64{1955},
			wantEvents: []TradeEvent{EventTakeProfit2},
			wantStatus: StatusClosedTP2,
		},
		{
			name:       "TP1 with TP2 outstanding keeps the trade active",
			trade:      activeTrade(1930, 1925, 1940, 1950, 1930),
			prices:     []float64{1941},
			wantEvents: []TradeEvent{EventTakeProfit1},
			wantStatus: StatusActive,
		},
		{
			name:       "TP1 as the final target closes the trade",
			trade:      activeTrade(1930, 1925, 1940, 0, 1930),
			prices:     []float64{1941},
			wantEvents: []TradeEvent{EventTakeProfit1},
			wantStatus: StatusClosedTP1,
		},
		{
			name:       "Breakeven after TP1 instead of the stop-loss",
			trade:      activeTrade(1930, 1925, 1940, 1950, 1930),
			prices:     []float64{1941, 1929},
			wantEvents: []TradeEvent{EventTakeProfit1, EventBreakeven},
			wantStatus: StatusClosedBreakeven,
		},
		{
			name:       "Stop-loss level no longer closes once TP1 is hit",
			trade:      activeTrade(1930, 1925, 1940, 1950, 1930),
			prices:     []float64{1941, 1924},
			wantEvents: []TradeEvent{EventTakeProfit1, EventBreakeven},
			wantStatus: StatusClosedBreakeven,
		},
		{
			name:       "Short stop-loss closes the trade",
			trade:      activeTrade(1930, 1935, 1920, 1910, 1930),
			prices:     []float64{1936},
			wantEvents: []TradeEvent{EventStopLoss},
			wantStatus: StatusClosedStopLoss,
		},
		{
			name:       "Short breakeven after TP1",
			trade:      activeTrade(1930, 1935, 1920, 1910, 1930),
			prices:     []float64{1919, 1931},
			wantEvents: []TradeEvent{EventTakeProfit1, EventBreakeven},
			wantStatus: StatusClosedBreakeven,
		},
		{
			name:       "TP1 fires at most once",
			trade:      activeTrade(1930, 1925, 1940, 1950, 1930),
			prices:     []float64{1941, 1942, 1943},
			wantEvents: []TradeEvent{EventTakeProfit1, EventNone, EventNone},
			wantStatus: StatusActive,
		},
		{
			name:       "No target configured leaves the trade running",
			trade:      activeTrade(1930, 1925, 0, 0, 1930),
			prices:     []float64{1960},
			wantEvents: []TradeEvent{EventNone},
			wantStatus: StatusActive,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Len(t, tt.wantEvents, len(tt.prices))
			for i, price := range tt.prices {
				event := tt.trade.ApplyExitTick(price)
				assert.Equal(t, tt.wantEvents[i], event, "sample %d at %v", i, price)
			}
			assert.Equal(t, tt.wantStatus, tt.trade.Status)
		})
	}
}

func TestApplyExitTick_IgnoredWhilePending(t *testing.T) {
	sig := &Signal{IsSignal: true, Symbol: "XAUUSD", EntryPrice: 1930.0, StopLoss: 1925.0}
	trade := NewTrade(1, "@target", sig, 0)
	assert.Equal(t, EventNone, trade.ApplyExitTick(1900.0))
	assert.Equal(t, StatusPendingEntry, trade.Status)
}

func TestSignedPips(t *testing.T) {
	tests := []struct {
		name     string
		trade    *Trade
		price    float64
		pipValue float64
		want     int
	}{
		{
			name:     "Long excursion from the executed entry",
			trade:    activeTrade(1930.0, 1925.0, 1940.0, 0, 1930.5),
			price:    1935.5,
			pipValue: 0.1,
			want:     50,
		},
		{
			name:     "Long adverse excursion is negative",
			trade:    activeTrade(1930.0, 1925.0, 1940.0, 0, 1930.5),
			price:    1928.5,
			pipValue: 0.1,
			want:     -20,
		},
		{
			name:     "Short favorable excursion is positive",
			trade:    activeTrade(1930.0, 1935.0, 1920.0, 0, 1930.0),
			price:    1925.0,
			pipValue: 0.1,
			want:     50,
		},
		{
			name:     "Stated entry serves before execution",
			trade:    NewTrade(1, "@target", &Signal{Symbol: "EURUSD", EntryPrice: 1.1000, StopLoss: 1.0950}, 0),
			price:    1.1012,
			pipValue: 0.0001,
			want:     12,
		},
		{
			name:     "Zero pip value yields zero pips",
			trade:    activeTrade(1930.0, 1925.0, 0, 0, 1930.0),
			price:    1940.0,
			pipValue: 0,
			want:     0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.trade.SignedPips(tt.price, tt.pipValue))
		})
	}
}

func TestPriceDiffToPips_Rounding(t *testing.T) {
	assert.Equal(t, 50, PriceDiffToPips(5.0, 0.1))
	assert.Equal(t, 50, PriceDiffToPips(4.96, 0.1))
	assert.Equal(t, 49, PriceDiffToPips(4.94, 0.1))
	assert.Equal(t, -50, PriceDiffToPips(-5.0, 0.1))
	assert.Equal(t, 0, PriceDiffToPips(0.004, 0.1))
}

func TestTradeStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusPendingEntry.IsTerminal())
	assert.False(t, StatusActive.IsTerminal())
	assert.True(t, StatusClosedStopLoss.IsTerminal())
	assert.True(t, StatusClosedTP1.IsTerminal())
	assert.True(t, StatusClosedTP2.IsTerminal())
	assert.True(t, StatusClosedBreakeven.IsTerminal())
}
