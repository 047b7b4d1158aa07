// Package render maps domain events to the Markdown messages posted to the
// notification channel. All functions are pure.
package render

import (
	"fmt"
	"strings"

	"signalSentry/internal/domain"
)

// Signal renders the announcement for a freshly admitted signal.
func Signal(sig *domain.Signal) string {
	var b strings.Builder

	direction := "UNKNOWN"
	switch sig.Direction() {
	case domain.Long:
		direction = "BUY (LONG)"
	case domain.Short:
		direction = "SELL (SHORT)"
	}

	b.WriteString("🚨 **NEW TRADING SIGNAL** 🚨\n\n")
	b.WriteString(fmt.Sprintf("📊 **DIRECTION:** `%s`\n", direction))
	b.WriteString(fmt.Sprintf("📈 **Asset:** `%s`\n", domain.NormalizeSymbol(sig.Symbol)))

	// Quote the message's own market price only when it differs from the
	// stated entry.
	if sig.CurrentPrice != 0 && sig.CurrentPrice != sig.EntryPrice {
		b.WriteString(fmt.Sprintf("💵 **Current Price:** `$%s`\n", formatPrice(sig.CurrentPrice)))
	}

	b.WriteString(fmt.Sprintf("✅ **Entry Price:** `$%s`\n", formatPrice(sig.EntryPrice)))
	b.WriteString(fmt.Sprintf("❌ **Stop Loss (SL):** `$%s`\n", formatPrice(sig.StopLoss)))

	if sig.TP1 != 0 {
		b.WriteString(fmt.Sprintf("🎯 **Take Profit 1 (TP1):** `$%s`\n", formatPrice(sig.TP1)))
	}
	if sig.TP2 != 0 {
		b.WriteString(fmt.Sprintf("🎯 **Take Profit 2 (TP2):** `$%s`\n", formatPrice(sig.TP2)))
	}

	return b.String()
}

// LifecycleEvent renders a trade transition as a reply message. pips is the
// signed favorable excursion from the entry.
func LifecycleEvent(event domain.TradeEvent, symbol string, price float64, pips int) string {
	switch event {
	case domain.EventExecuted:
		return fmt.Sprintf("✅ **TRADE EXECUTED** — `%s`\nEntered at `$%s`", symbol, formatPrice(price))
	case domain.EventStopLoss:
		return fmt.Sprintf("🛑 **STOP LOSS HIT** — `%s`\nClosed at `$%s` (%s)", symbol, formatPrice(price), formatPips(pips))
	case domain.EventTakeProfit1:
		return fmt.Sprintf("🎯 **TP1 REACHED** — `%s`\nPrice `$%s` (%s)\nStop moved to breakeven.", symbol, formatPrice(price), formatPips(pips))
	case domain.EventTakeProfit2:
		return fmt.Sprintf("🏆 **TP2 REACHED** — `%s`\nClosed at `$%s` (%s)", symbol, formatPrice(price), formatPips(pips))
	case domain.EventBreakeven:
		return fmt.Sprintf("⚖️ **CLOSED AT BREAKEVEN** — `%s`\nExited at `$%s` after TP1.", symbol, formatPrice(price))
	default:
		return fmt.Sprintf("`%s` update at `$%s`", symbol, formatPrice(price))
	}
}

// Cancellation renders the notice threaded to a pending trade that was
// superseded by a newer signal for the same symbol.
func Cancellation(symbol string) string {
	return fmt.Sprintf("❌ **SIGNAL CANCELLED** — `%s`\nSuperseded by a newer signal before entry.", symbol)
}

// formatPrice trims trailing zeros so 1930.50 renders as 1930.5 and
// 0.07310 keeps its precision.
func formatPrice(price float64) string {
	s := strings.TrimRight(fmt.Sprintf("%.5f", price), "0")
	return strings.TrimSuffix(s, ".")
}

func formatPips(pips int) string {
	if pips >= 0 {
		return fmt.Sprintf("+%d pips", pips)
	}
	return fmt.Sprintf("%d pips", pips)
}
