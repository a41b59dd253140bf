// Package httpapi is the request layer over the engine: it translates JSON
// requests into typed engine calls and engine failure kinds into distinct
// HTTP signals. It owns no domain logic; validation beyond shape belongs to
// the engine itself.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"

	"github.com/plagtech/spraay-x402-gateway"
	"github.com/plagtech/spraay-x402-gateway/compose"
	"github.com/plagtech/spraay-x402-gateway/quote"
)

// Handler serves the engine's four operations over JSON.
type Handler struct {
	registry *spraay.Registry
	router   *quote.Router
	composer *compose.Composer
	log      *slog.Logger
}

// NewHandler wires the engine components into a request handler.
// A nil logger falls back to slog.Default().
func NewHandler(registry *spraay.Registry, router *quote.Router, composer *compose.Composer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{registry: registry, router: router, composer: composer, log: logger}
}

// Routes returns the handler's route table with request-id and access logging
// applied.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/quote", h.handleQuote)
	mux.HandleFunc("POST /v1/compose", h.handleCompose)
	mux.HandleFunc("GET /v1/tokens/{token}", h.handleResolveToken)
	return h.withAccessLog(mux)
}

type quoteRequest struct {
	TokenIn  string `json:"tokenIn"`
	TokenOut string `json:"tokenOut"`
	Amount   string `json:"amount"`
}

type quoteResponse struct {
	AmountOut          string   `json:"amountOut"`
	AmountOutFormatted string   `json:"amountOutFormatted"`
	Route              []string `json:"route"`
	FeeTiers           []uint32 `json:"feeTiers"`
	GasEstimate        uint64   `json:"gasEstimate"`
	MultiHop           bool     `json:"multiHop"`
}

func (h *Handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "MALFORMED_REQUEST", "request body is not valid JSON")
		return
	}

	tokenIn, err := h.registry.Resolve(req.TokenIn)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	tokenOut, err := h.registry.Resolve(req.TokenOut)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	amountIn, err := spraay.ToBaseUnits(req.Amount, tokenIn.Decimals)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	result, err := h.router.Quote(r.Context(), spraay.QuoteRequest{
		TokenIn:  tokenIn,
		TokenOut: tokenOut,
		AmountIn: amountIn,
	})
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	route := make([]string, len(result.Route))
	for i, hop := range result.Route {
		route[i] = hop.Hex()
	}
	writeJSON(w, http.StatusOK, quoteResponse{
		AmountOut:          result.AmountOut.String(),
		AmountOutFormatted: spraay.FormatBaseUnits(result.AmountOut, tokenOut.Decimals),
		Route:              route,
		FeeTiers:           result.FeeTiers,
		GasEstimate:        result.GasEstimate,
		MultiHop:           result.MultiHop,
	})
}

type composeRequest struct {
	Token      string                  `json:"token"`
	Recipients []spraay.RecipientEntry `json:"recipients"`
	Memo       string                  `json:"memo,omitempty"`
	AgentID    uint64                  `json:"agentId,omitempty"`
	Version    string                  `json:"version,omitempty"`
}

type callResponse struct {
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value,omitempty"`
}

type composeResponse struct {
	Calls   []callResponse      `json:"calls"`
	Summary spraay.BatchSummary `json:"summary"`
}

func (h *Handler) handleCompose(w http.ResponseWriter, r *http.Request) {
	var req composeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "MALFORMED_REQUEST", "request body is not valid JSON")
		return
	}

	token, err := h.registry.Resolve(req.Token)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	batch, err := h.composer.Compose(spraay.BatchIntent{
		Token:      token,
		Recipients: req.Recipients,
		Memo:       req.Memo,
		AgentID:    req.AgentID,
		Version:    spraay.ContractVersion(req.Version),
	})
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	calls := make([]callResponse, len(batch.Calls))
	for i, call := range batch.Calls {
		calls[i] = callResponse{To: call.To.Hex(), Data: hexutil.Encode(call.Data)}
		if call.Value != nil {
			calls[i].Value = call.Value.String()
		}
	}
	writeJSON(w, http.StatusOK, composeResponse{Calls: calls, Summary: batch.Summary})
}

func (h *Handler) handleResolveToken(w http.ResponseWriter, r *http.Request) {
	desc, err := h.registry.Resolve(r.PathValue("token"))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, desc)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeEngineError maps each engine failure kind to a distinguishable
// client-facing signal. Errors without an engine code never reach clients
// with their raw message.
func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	code, ok := spraay.CodeForError(err)
	if !ok {
		h.log.Error("unclassified engine error", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	status := http.StatusBadRequest
	switch code {
	case spraay.ErrCodeUnresolvableToken, spraay.ErrCodeNoLiquidity:
		status = http.StatusNotFound
	case spraay.ErrCodeQuoteProviderUnavailable:
		status = http.StatusBadGateway
	}

	var engineErr *spraay.EngineError
	message := err.Error()
	if errors.As(err, &engineErr) {
		message = engineErr.Message
	}
	writeJSONError(w, status, string(code), message)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

// statusRecorder captures the response status for access logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(recorder, r)

		h.log.Info("request",
			"id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration", time.Since(start))
	})
}
