// Package admission filters, extracts, and arbitrates inbound messages for
// one processing unit, registering accepted trades with the lifecycle
// engine.
package admission

import (
	"context"
	"errors"
	"fmt"

	"signalSentry/internal/domain"
	"signalSentry/internal/engine"
	"signalSentry/internal/ports"
	"signalSentry/internal/render"
)

// Unit identifies one source/storage/target pairing.
type Unit struct {
	SourceID  string // channel polled for raw signal messages
	StorageID string // key under which processed message IDs persist
	TargetID  string // channel receiving announcements and replies
}

// Pipeline processes new messages for a single unit. The in-memory
// processed set is touched only from the unit's own admission cycle, which
// the orchestrator never runs concurrently with itself, so it needs no
// lock; the shared trade registry is serialized inside the engine.
type Pipeline struct {
	unit       Unit
	fetchLimit int

	source    ports.MessageSource
	extractor ports.SignalExtractor
	prices    ports.PriceSource
	notifier  ports.Notifier
	repo      ports.ProcessedIDRepository
	engine    *engine.Engine
	logger    ports.Logger

	processed map[int]struct{}
}

// New creates a pipeline for one unit.
func New(unit Unit, fetchLimit int, source ports.MessageSource, extractor ports.SignalExtractor,
	prices ports.PriceSource, notifier ports.Notifier, repo ports.ProcessedIDRepository,
	eng *engine.Engine, logger ports.Logger) (*Pipeline, error) {

	if source == nil || extractor == nil || prices == nil || notifier == nil || repo == nil || eng == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for admission pipeline")
	}
	if unit.SourceID == "" || unit.StorageID == "" || unit.TargetID == "" {
		return nil, fmt.Errorf("unit requires source, storage and target identifiers")
	}
	if fetchLimit <= 0 {
		return nil, fmt.Errorf("fetchLimit must be positive")
	}
	return &Pipeline{
		unit:       unit,
		fetchLimit: fetchLimit,
		source:     source,
		extractor:  extractor,
		prices:     prices,
		notifier:   notifier,
		repo:       repo,
		engine:     eng,
		logger:     logger,
		processed:  make(map[int]struct{}),
	}, nil
}

// Unit returns the unit this pipeline serves.
func (p *Pipeline) Unit() Unit {
	return p.unit
}

// LoadState seeds the in-memory processed set from persisted storage. A
// load failure is not fatal: the pipeline starts with an empty set and may
// reprocess old messages, the accepted restart tradeoff.
func (p *Pipeline) LoadState(ctx context.Context) {
	ids, err := p.repo.LoadProcessedIDs(ctx, p.unit.StorageID)
	if err != nil {
		p.logger.Warn(ctx, "Failed to load processed IDs, starting with empty set", map[string]interface{}{
			"storageID": p.unit.StorageID,
			"error":     err.Error(),
		})
		return
	}
	p.processed = ids
	p.logger.Info(ctx, "Processed IDs loaded", map[string]interface{}{
		"storageID": p.unit.StorageID,
		"count":     len(ids),
	})
}

// RunCycle performs one admission pass: fetch recent messages, drop the
// already-processed ones, and handle the remainder oldest-first so that
// admission order matches chronological arrival.
func (p *Pipeline) RunCycle(ctx context.Context) {
	messages, err := p.source.FetchRecentMessages(ctx, p.unit.SourceID, p.fetchLimit)
	if err != nil {
		p.logger.Error(ctx, err, "Failed to fetch messages", map[string]interface{}{"sourceID": p.unit.SourceID})
		return
	}

	fresh := make([]ports.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Text == "" {
			continue
		}
		if _, seen := p.processed[msg.ID]; seen {
			continue
		}
		fresh = append(fresh, msg)
	}
	if len(fresh) == 0 {
		return
	}

	// The source returns newest-first; walk backwards.
	for i := len(fresh) - 1; i >= 0; i-- {
		p.handleMessage(ctx, fresh[i])
	}
}

// handleMessage runs the admission logic for one candidate message. The
// message is marked processed on every branch, so a failure never causes a
// second trade attempt for the same message within this process.
func (p *Pipeline) handleMessage(ctx context.Context, msg ports.Message) {
	defer p.markProcessed(ctx, msg.ID)

	sig, err := p.extractor.ExtractSignal(ctx, msg.Text)
	if err != nil {
		p.logger.Warn(ctx, "Signal extraction failed", map[string]interface{}{
			"sourceID":  p.unit.SourceID,
			"messageID": msg.ID,
			"error":     err.Error(),
		})
		return
	}
	if !sig.IsSignal {
		p.logger.Debug(ctx, "Message is not a signal", map[string]interface{}{
			"sourceID":  p.unit.SourceID,
			"messageID": msg.ID,
		})
		return
	}

	symbol := domain.NormalizeSymbol(sig.Symbol)
	p.logger.Info(ctx, "Signal detected", map[string]interface{}{
		"sourceID":  p.unit.SourceID,
		"messageID": msg.ID,
		"symbol":    symbol,
	})

	resolution, existing := p.engine.ResolveConflict(symbol)
	switch resolution {
	case engine.RejectedActive:
		// An executed trade is never preempted by a newer signal.
		p.logger.Info(ctx, "Signal rejected, symbol has an active trade", map[string]interface{}{
			"symbol":    symbol,
			"messageID": msg.ID,
		})
		return
	case engine.SupersededPending:
		p.logger.Info(ctx, "Superseding stale pending trade", map[string]interface{}{
			"symbol":         symbol,
			"supersededRoot": existing.OriginMessageID,
			"newMessageID":   msg.ID,
		})
		if err := p.notifier.SendReply(ctx, existing.TargetID, existing.OriginMessageID, render.Cancellation(symbol)); err != nil {
			p.logger.Error(ctx, err, "Failed to announce superseded trade", map[string]interface{}{"symbol": symbol})
		}
	}

	p.admit(ctx, sig, symbol)
}

// admit announces the signal, samples the market, and registers the new
// trade. The announcement's message ID becomes the thread root for every
// later lifecycle reply.
func (p *Pipeline) admit(ctx context.Context, sig *domain.Signal, symbol string) {
	rootID, err := p.notifier.SendMessage(ctx, p.unit.TargetID, render.Signal(sig))
	if err != nil {
		p.logger.Error(ctx, err, "Failed to announce signal, trade not registered", map[string]interface{}{"symbol": symbol})
		return
	}

	currentPrice, err := p.prices.GetPrice(ctx, symbol)
	if err != nil {
		if !errors.Is(err, ports.ErrPriceUnavailable) {
			p.logger.Warn(ctx, "Price sample failed at admission", map[string]interface{}{
				"symbol": symbol,
				"error":  err.Error(),
			})
		}
		currentPrice = 0 // no pullback inference without a sample
	}

	trade := domain.NewTrade(rootID, p.unit.TargetID, sig, currentPrice)
	if err := p.engine.TryRegister(trade); err != nil {
		// Lost the race to a concurrent admission for the same symbol.
		p.logger.Warn(ctx, "Trade registration rejected", map[string]interface{}{
			"symbol": symbol,
			"error":  err.Error(),
		})
		return
	}

	p.logger.Info(ctx, "Trade registered", map[string]interface{}{
		"symbol":           symbol,
		"direction":        string(trade.Direction),
		"entry":            trade.EntryPrice,
		"stopLoss":         trade.StopLoss,
		"awaitingPullback": trade.AwaitingPullback,
		"rootMessageID":    rootID,
	})
}

// markProcessed records a handled message in memory and persists it. A
// persistence failure is logged only; the in-memory set still guards
// against reprocessing until the process restarts.
func (p *Pipeline) markProcessed(ctx context.Context, messageID int) {
	p.processed[messageID] = struct{}{}
	if err := p.repo.AppendProcessedID(ctx, p.unit.StorageID, messageID); err != nil {
		p.logger.Error(ctx, err, "Failed to persist processed message ID", map[string]interface{}{
			"storageID": p.unit.StorageID,
			"messageID": messageID,
		})
	}
}
