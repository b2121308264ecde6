package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fastprodman/rfidledger/internal/intents"
	"github.com/fastprodman/rfidledger/internal/repos/cards"
	"github.com/fastprodman/rfidledger/internal/repos/products"
	"github.com/fastprodman/rfidledger/internal/repos/transactions"
)

const maxBodyBytes = 1 << 16

// Submitter accepts intents for asynchronous execution.
type Submitter interface {
	Submit(ctx context.Context, in intents.Intent) error
	Pending() []intents.Intent
}

// Reader serves the read-only ledger views.
type Reader interface {
	GetCard(ctx context.Context, uid string) (cards.Card, error)
	RecentTransactions(ctx context.Context) ([]transactions.Record, error)
	CardTransactions(ctx context.Context, uid string) ([]transactions.Record, error)
	Stats(ctx context.Context) (transactions.Stats, error)
	Products(ctx context.Context) ([]products.Product, error)
}

// Deps is everything the router needs.
type Deps struct {
	Engine   Submitter
	Ledger   Reader
	Observer http.Handler
	// Health reports whether backing services are reachable. Nil means
	// always healthy.
	Health func(ctx context.Context) error
}

// HandlerProvider exposes the HTTP handlers.
type HandlerProvider struct {
	engine Submitter
	ledger Reader
	health func(ctx context.Context) error
}

func NewHandler(d Deps) *HandlerProvider {
	return &HandlerProvider{engine: d.Engine, ledger: d.Ledger, health: d.Health}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type intentRequest struct {
	UID    string          `json:"uid"`
	Amount json.RawMessage `json:"amount"`
}

type ackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// decodeIntent reads {uid, amount}. amount must be a positive JSON integer;
// numeric strings are rejected.
func decodeIntent(r io.Reader, kind intents.Kind) (intents.Intent, error) {
	var req intentRequest

	err := json.NewDecoder(r).Decode(&req)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return intents.Intent{}, errors.New("empty body")
		}

		return intents.Intent{}, errors.New("invalid JSON")
	}

	uid := strings.TrimSpace(req.UID)
	if uid == "" {
		return intents.Intent{}, errors.New("uid required")
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		return intents.Intent{}, err
	}

	return intents.Intent{UID: uid, Kind: kind, Amount: amount}, nil
}

func parseAmount(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, errors.New("amount required")
	}

	var v any

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	err := dec.Decode(&v)
	if err != nil {
		return 0, errors.New("invalid amount")
	}

	n, ok := v.(json.Number)
	if !ok {
		return 0, errors.New("amount must be a number")
	}

	amount, err := n.Int64()
	if err != nil {
		return 0, errors.New("amount must be an integer")
	}

	if amount <= 0 {
		return 0, errors.New("amount must be > 0")
	}

	return amount, nil
}

func (h *HandlerProvider) submit(kind intents.Kind, ack string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		defer r.Body.Close()

		in, err := decodeIntent(r.Body, kind)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		err = h.engine.Submit(r.Context(), in)
		if err != nil {
			if errors.Is(err, intents.ErrInvalidIntent) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}

			slog.Error("submit intent", "uid", in.UID, "kind", kind, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")

			return
		}

		writeJSON(w, http.StatusAccepted, ackResponse{Success: true, Message: ack})
	}
}

// TopUpHandler handles POST /topup
func (h *HandlerProvider) TopUpHandler() http.HandlerFunc {
	return h.submit(intents.KindTopUp, "Top-up queued for execution")
}

// PayHandler handles POST /pay
func (h *HandlerProvider) PayHandler() http.HandlerFunc {
	return h.submit(intents.KindPay, "Payment queued for execution")
}

// TransactionsHandler handles GET /api/transactions
func (h *HandlerProvider) TransactionsHandler(w http.ResponseWriter, r *http.Request) {
	recs, err := h.ledger.RecentTransactions(r.Context())
	if err != nil {
		slog.Error("list transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")

		return
	}

	writeJSON(w, http.StatusOK, recs)
}

// ProductsHandler handles GET /api/products
func (h *HandlerProvider) ProductsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := h.ledger.Products(r.Context())
	if err != nil {
		slog.Error("list products", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")

		return
	}

	writeJSON(w, http.StatusOK, list)
}

type statsResponse struct {
	TotalRevenue      int64 `json:"totalRevenue"`
	TotalTransactions int64 `json:"totalTransactions"`
}

// StatsHandler handles GET /api/stats
func (h *HandlerProvider) StatsHandler(w http.ResponseWriter, r *http.Request) {
	st, err := h.ledger.Stats(r.Context())
	if err != nil {
		slog.Error("stats", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")

		return
	}

	writeJSON(w, http.StatusOK, statsResponse{TotalRevenue: st.Revenue, TotalTransactions: st.Count})
}

type cardResponse struct {
	UID          string                `json:"uid"`
	Balance      int64                 `json:"balance"`
	UpdatedAt    time.Time             `json:"updated_at"`
	Transactions []transactions.Record `json:"transactions"`
}

// CardHandler handles GET /api/cards/{uid}
func (h *HandlerProvider) CardHandler(w http.ResponseWriter, r *http.Request) {
	uid := strings.TrimSpace(chi.URLParam(r, "uid"))
	if uid == "" {
		writeError(w, http.StatusBadRequest, "uid required")
		return
	}

	card, err := h.ledger.GetCard(r.Context(), uid)
	if err != nil {
		if errors.Is(err, cards.ErrCardNotFound) {
			writeError(w, http.StatusNotFound, "card not found")
			return
		}

		slog.Error("get card", "uid", uid, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")

		return
	}

	recs, err := h.ledger.CardTransactions(r.Context(), uid)
	if err != nil {
		slog.Error("card transactions", "uid", uid, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")

		return
	}

	writeJSON(w, http.StatusOK, cardResponse{
		UID:          card.UID,
		Balance:      card.Balance,
		UpdatedAt:    card.UpdatedAt,
		Transactions: recs,
	})
}

type pendingIntent struct {
	UID    string `json:"uid"`
	Type   string `json:"type"`
	Amount int64  `json:"amount"`
}

// PendingHandler handles GET /api/pending
func (h *HandlerProvider) PendingHandler(w http.ResponseWriter, _ *http.Request) {
	snap := h.engine.Pending()

	out := make([]pendingIntent, 0, len(snap))
	for _, in := range snap {
		out = append(out, pendingIntent{UID: in.UID, Type: string(in.Kind), Amount: in.Amount})
	}

	writeJSON(w, http.StatusOK, out)
}

// HealthHandler handles GET /healthz
func (h *HandlerProvider) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		err := h.health(r.Context())
		if err != nil {
			slog.Warn("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})

			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
