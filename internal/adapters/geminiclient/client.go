// Package geminiclient adapts the Gemini generateContent API to the
// ports.SignalExtractor contract, forcing structured JSON output through a
// response schema.
package geminiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"signalSentry/internal/domain"
	"signalSentry/internal/ports"
)

const (
	baseURL        = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.5-flash"
	requestTimeout = 60 * time.Second
)

// prompt mirrors the extraction criteria: a valid signal must state a
// symbol, an entry price, and a stop-loss; targets are optional; ads and
// general analysis are not signals.
const promptFormat = `Analyze the following financial message. Your task is to extract trading parameters and determine if it is a valid, actionable trading signal. ` +
	`Criteria for a valid signal: Must clearly state a 'symbol', 'entry_price', and 'sl' (stop-loss). 'tp1' and 'tp2' are optional. ` +
	`If it is a valid signal, set 'is_signal' to true and fill all required fields. If 'entry_price' is a range, choose the value that has the most distance from the stop-loss. ` +
	`If any required field is clearly missing (e.g., no stop-loss), or if the message is an ad/general analysis, set 'is_signal' to false. ` +
	`Message: %q`

// Client implements ports.SignalExtractor.
type Client struct {
	http   *resty.Client
	logger ports.Logger
	model  string
}

// Config holds configuration for the Gemini adapter.
type Config struct {
	APIKey string
	Model  string
	Logger ports.Logger
}

// New creates the Gemini client.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Gemini client")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required for Gemini client: %w", ports.ErrConfigurationError)
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(requestTimeout).
		SetHeader("x-goog-api-key", cfg.APIKey)

	return &Client{
		http:   http,
		logger: cfg.Logger,
		model:  model,
	}, nil
}

// signalSchema forces the model to answer with exactly the fields the
// pipeline consumes.
var signalSchema = map[string]interface{}{
	"type": "OBJECT",
	"properties": map[string]interface{}{
		"is_signal": map[string]interface{}{
			"type":        "BOOLEAN",
			"description": "True if the message is a valid trading signal, False otherwise.",
		},
		"symbol": map[string]interface{}{
			"type":        "STRING",
			"description": "The asset's trading symbol (e.g., 'BTCUSDT', 'ETH').",
		},
		"current_price": map[string]interface{}{
			"type":        "NUMBER",
			"description": "The current market price mentioned in the message.",
		},
		"entry_price": map[string]interface{}{
			"type":        "NUMBER",
			"description": "The entry price, or the point in the entry range farthest from the stop-loss.",
		},
		"tp1": map[string]interface{}{
			"type":        "NUMBER",
			"description": "Take Profit 1 price, or omitted if not specified.",
		},
		"tp2": map[string]interface{}{
			"type":        "NUMBER",
			"description": "Take Profit 2 price, or omitted if not specified.",
		},
		"sl": map[string]interface{}{
			"type":        "NUMBER",
			"description": "The Stop Loss price.",
		},
	},
	"required": []string{"is_signal", "symbol", "entry_price", "sl"},
}

// --- wire types ---

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string                 `json:"responseMimeType"`
	ResponseSchema   map[string]interface{} `json:"responseSchema"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// signalPayload is the model's structured answer.
type signalPayload struct {
	IsSignal     bool    `json:"is_signal"`
	Symbol       string  `json:"symbol"`
	CurrentPrice float64 `json:"current_price"`
	EntryPrice   float64 `json:"entry_price"`
	TP1          float64 `json:"tp1"`
	TP2          float64 `json:"tp2"`
	SL           float64 `json:"sl"`
}

// ExtractSignal sends the message text to Gemini and decodes the structured
// verdict. A readable-but-not-a-signal message yields IsSignal=false, not
// an error.
func (c *Client) ExtractSignal(ctx context.Context, text string) (*domain.Signal, error) {
	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: fmt.Sprintf(promptFormat, text)}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   signalSchema,
		},
	}

	var out generateResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post(fmt.Sprintf("/models/%s:generateContent", c.model))
	if err != nil {
		return nil, fmt.Errorf("generateContent request failed: %w: %w", ports.ErrExtractionFailed, err)
	}
	if resp.IsError() {
		detail := ""
		if out.Error != nil {
			detail = out.Error.Message
		}
		return nil, fmt.Errorf("generateContent rejected (status %d): %s: %w", resp.StatusCode(), detail, ports.ErrExtractionFailed)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("generateContent returned no candidates: %w", ports.ErrMalformedResponse)
	}

	raw := out.Candidates[0].Content.Parts[0].Text
	var payload signalPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		c.logger.Warn(ctx, "Extractor returned malformed JSON", map[string]interface{}{"raw": truncate(raw, 100)})
		return nil, fmt.Errorf("could not decode extractor output: %w: %w", ports.ErrMalformedResponse, err)
	}

	return &domain.Signal{
		IsSignal:     payload.IsSignal,
		Symbol:       payload.Symbol,
		CurrentPrice: payload.CurrentPrice,
		EntryPrice:   payload.EntryPrice,
		StopLoss:     payload.SL,
		TP1:          payload.TP1,
		TP2:          payload.TP2,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
