// Package engine owns the registry of live trades and advances each trade's
// state machine against periodically sampled market prices.
package engine

import (
	"context"
	"fmt"
	"sync"

	"signalSentry/internal/domain"
	"signalSentry/internal/ports"
	"signalSentry/internal/render"
)

// Config holds the engine's tuning parameters.
type Config struct {
	EntryTolerancePips float64
	EntryConfirmTicks  int
	ExitConfirmTicks   int // reserved; exits fire on the first qualifying sample
	PipValues          map[string]float64
	DefaultPipValue    float64
}

// ConflictResolution is the outcome of checking a new signal's symbol
// against the registry.
type ConflictResolution int

const (
	// NoConflict means the symbol is free and the new trade may register.
	NoConflict ConflictResolution = iota
	// SupersededPending means an existing pending trade was removed to make
	// way for the new signal; the caller owes it a cancellation notice.
	SupersededPending
	// RejectedActive means an executed trade holds the symbol; the new
	// signal must be dropped. Committed capital is never preempted.
	RejectedActive
)

// Engine is the trade lifecycle engine. A single instance is shared by all
// admission pipelines so that the one-trade-per-symbol invariant holds
// globally. The registry mutex covers exactly one registry operation at a
// time and is never held across a price fetch or a notification send.
type Engine struct {
	cfg      Config
	logger   ports.Logger
	prices   ports.PriceSource
	notifier ports.Notifier

	mu     sync.Mutex
	trades map[string]*domain.Trade // symbol -> non-terminal trade
}

// notification is a lifecycle transition captured during a monitoring pass,
// delivered after the registry lock is released.
type notification struct {
	targetID string
	rootID   int
	event    domain.TradeEvent
	symbol   string
	price    float64
	pips     int
}

// New creates the engine.
func New(cfg Config, logger ports.Logger, prices ports.PriceSource, notifier ports.Notifier) (*Engine, error) {
	if logger == nil || prices == nil || notifier == nil {
		return nil, fmt.Errorf("missing required dependencies for engine")
	}
	if cfg.EntryConfirmTicks <= 0 {
		return nil, fmt.Errorf("EntryConfirmTicks must be positive")
	}
	if cfg.EntryTolerancePips < 0 {
		return nil, fmt.Errorf("EntryTolerancePips cannot be negative")
	}
	if cfg.DefaultPipValue <= 0 {
		return nil, fmt.Errorf("DefaultPipValue must be positive")
	}
	return &Engine{
		cfg:      cfg,
		logger:   logger,
		prices:   prices,
		notifier: notifier,
		trades:   make(map[string]*domain.Trade),
	}, nil
}

// PipValue returns the configured pip value for symbol, falling back to the
// default for symbols absent from the table.
func (e *Engine) PipValue(symbol string) float64 {
	if v, ok := e.cfg.PipValues[domain.NormalizeSymbol(symbol)]; ok && v > 0 {
		return v
	}
	return e.cfg.DefaultPipValue
}

func (e *Engine) entryTolerance(symbol string) float64 {
	return e.cfg.EntryTolerancePips * e.PipValue(symbol)
}

// TryRegister inserts a pending trade into the registry. It fails with
// ports.ErrSymbolOccupied when a non-terminal trade already holds the
// symbol, which closes the race between a conflict check and a concurrent
// registration for the same symbol.
func (e *Engine) TryRegister(t *domain.Trade) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if existing, ok := e.trades[t.Symbol]; ok && !existing.Status.IsTerminal() {
		return fmt.Errorf("cannot register trade for %s: %w", t.Symbol, ports.ErrSymbolOccupied)
	}
	e.trades[t.Symbol] = t
	return nil
}

// ResolveConflict arbitrates a new signal against any existing trade for
// symbol. A pending trade is removed from the registry and returned so the
// caller can announce its cancellation; an active trade is left untouched
// and the new signal must be rejected.
func (e *Engine) ResolveConflict(symbol string) (ConflictResolution, *domain.Trade) {
	symbol = domain.NormalizeSymbol(symbol)
	e.mu.Lock()
	defer e.mu.Unlock()

	existing, ok := e.trades[symbol]
	if !ok {
		return NoConflict, nil
	}
	if existing.Status == domain.StatusPendingEntry {
		delete(e.trades, symbol)
		return SupersededPending, existing
	}
	return RejectedActive, existing
}

// TradeCount returns the number of non-terminal trades currently monitored.
func (e *Engine) TradeCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.trades)
}

// monitoredSymbols snapshots the registry keys for one cycle.
func (e *Engine) monitoredSymbols() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	symbols := make([]string, 0, len(e.trades))
	for s := range e.trades {
		symbols = append(symbols, s)
	}
	return symbols
}

// RunCycle performs one monitoring pass: sample a price per distinct symbol,
// advance each trade's state machine, drop trades that reached a terminal
// status, and announce every transition.
//
// Price fetches for different symbols run concurrently; one slow feed call
// does not delay the others. Transitions are applied under the registry
// lock, notifications go out after it is released.
func (e *Engine) RunCycle(ctx context.Context) {
	symbols := e.monitoredSymbols()
	if len(symbols) == 0 {
		return
	}
	e.logger.Debug(ctx, "Monitoring cycle started", map[string]interface{}{"symbols": len(symbols)})

	prices := e.samplePrices(ctx, symbols)

	e.mu.Lock()
	notifications := make([]notification, 0, len(prices))
	for symbol, price := range prices {
		trade, ok := e.trades[symbol]
		if !ok {
			// Superseded while the price was in flight.
			continue
		}

		var event domain.TradeEvent
		switch trade.Status {
		case domain.StatusPendingEntry:
			event = trade.ApplyEntryTick(price, e.entryTolerance(symbol), e.cfg.EntryConfirmTicks)
		case domain.StatusActive:
			event = trade.ApplyExitTick(price)
		}

		if event != domain.EventNone {
			notifications = append(notifications, notification{
				targetID: trade.TargetID,
				rootID:   trade.OriginMessageID,
				event:    event,
				symbol:   symbol,
				price:    price,
				pips:     trade.SignedPips(price, e.PipValue(symbol)),
			})
		}
		if trade.Status.IsTerminal() {
			delete(e.trades, symbol)
		}
	}
	e.mu.Unlock()

	for _, n := range notifications {
		e.announce(ctx, n)
	}
}

// samplePrices fetches the current price for every symbol concurrently.
// Symbols whose feed call fails are left out of the result; the affected
// trade is simply skipped for this cycle.
func (e *Engine) samplePrices(ctx context.Context, symbols []string) map[string]float64 {
	type sample struct {
		symbol string
		price  float64
		err    error
	}

	results := make(chan sample, len(symbols))
	var wg sync.WaitGroup
	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			price, err := e.prices.GetPrice(ctx, symbol)
			results <- sample{symbol: symbol, price: price, err: err}
		}(symbol)
	}
	wg.Wait()
	close(results)

	prices := make(map[string]float64, len(symbols))
	for s := range results {
		if s.err != nil {
			e.logger.Warn(ctx, "Price unavailable, skipping trade this cycle", map[string]interface{}{
				"symbol": s.symbol,
				"error":  s.err.Error(),
			})
			continue
		}
		prices[s.symbol] = s.price
	}
	return prices
}

// announce sends one lifecycle notification as a threaded reply under the
// trade's origin message. Delivery is at-most-once: a failure is logged and
// the state transition stands.
func (e *Engine) announce(ctx context.Context, n notification) {
	text := render.LifecycleEvent(n.event, n.symbol, n.price, n.pips)
	if err := e.notifier.SendReply(ctx, n.targetID, n.rootID, text); err != nil {
		e.logger.Error(ctx, err, "Failed to deliver lifecycle notification", map[string]interface{}{
			"symbol": n.symbol,
			"event":  string(n.event),
		})
		return
	}
	e.logger.Info(ctx, "Lifecycle notification sent", map[string]interface{}{
		"symbol": n.symbol,
		"event":  string(n.event),
		"price":  n.price,
		"pips":   n.pips,
	})
}
