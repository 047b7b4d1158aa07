package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"signalSentry/internal/domain"
)

func TestSignal(t *testing.T) {
	t.Run("Full long signal", func(t *testing.T) {
		sig := &domain.Signal{
			IsSignal:     true,
			Symbol:       "xauusd",
			CurrentPrice: 1931.2,
			EntryPrice:   1930.0,
			StopLoss:     1925.0,
			TP1:          1940.0,
			TP2:          1950.0,
		}
		out := Signal(sig)
		assert.Contains(t, out, "BUY (LONG)")
		assert.Contains(t, out, "XAUUSD")
		assert.Contains(t, out, "Current Price:** `$1931.2`")
		assert.Contains(t, out, "Entry Price:** `$1930`")
		assert.Contains(t, out, "Stop Loss (SL):** `$1925`")
		assert.Contains(t, out, "Take Profit 1 (TP1):** `$1940`")
		assert.Contains(t, out, "Take Profit 2 (TP2):** `$1950`")
	})

	t.Run("Short without targets omits TP lines", func(t *testing.T) {
		sig := &domain.Signal{
			IsSignal:   true,
			Symbol:     "EURUSD",
			EntryPrice: 1.1000,
			StopLoss:   1.1050,
		}
		out := Signal(sig)
		assert.Contains(t, out, "SELL (SHORT)")
		assert.NotContains(t, out, "Take Profit")
		assert.NotContains(t, out, "Current Price")
	})

	t.Run("Current price equal to entry is not repeated", func(t *testing.T) {
		sig := &domain.Signal{
			IsSignal:     true,
			Symbol:       "XAUUSD",
			CurrentPrice: 1930.0,
			EntryPrice:   1930.0,
			StopLoss:     1925.0,
		}
		assert.NotContains(t, Signal(sig), "Current Price")
	})
}

func TestLifecycleEvent(t *testing.T) {
	tests := []struct {
		name  string
		event domain.TradeEvent
		pips  int
		want  []string
	}{
		{name: "Executed", event: domain.EventExecuted, want: []string{"TRADE EXECUTED", "XAUUSD", "$1930.5"}},
		{name: "Stop loss with negative pips", event: domain.EventStopLoss, pips: -52, want: []string{"STOP LOSS HIT", "-52 pips"}},
		{name: "TP1 with positive pips", event: domain.EventTakeProfit1, pips: 100, want: []string{"TP1 REACHED", "+100 pips", "breakeven"}},
		{name: "TP2", event: domain.EventTakeProfit2, pips: 200, want: []string{"TP2 REACHED", "+200 pips"}},
		{name: "Breakeven", event: domain.EventBreakeven, want: []string{"CLOSED AT BREAKEVEN", "after TP1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := LifecycleEvent(tt.event, "XAUUSD", 1930.5, tt.pips)
			for _, fragment := range tt.want {
				assert.Contains(t, out, fragment)
			}
		})
	}
}

func TestCancellation(t *testing.T) {
	out := Cancellation("XAUUSD")
	assert.Contains(t, out, "SIGNAL CANCELLED")
	assert.Contains(t, out, "XAUUSD")
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		price float64
		want  string
	}{
		{price: 1930.5, want: "1930.5"},
		{price: 1930.0, want: "1930"},
		{price: 0.0731, want: "0.0731"},
		{price: 1.10005, want: "1.10005"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatPrice(tt.price))
	}
}
