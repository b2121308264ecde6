package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastprodman/rfidledger/internal/intents"
	"github.com/fastprodman/rfidledger/internal/repos/cards"
	"github.com/fastprodman/rfidledger/internal/repos/products"
	"github.com/fastprodman/rfidledger/internal/repos/transactions"
)

type fakeEngine struct {
	mu        sync.Mutex
	submitted []intents.Intent
	err       error
}

func (e *fakeEngine) Submit(_ context.Context, in intents.Intent) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.err != nil {
		return e.err
	}

	e.submitted = append(e.submitted, in)

	return nil
}

func (e *fakeEngine) Pending() []intents.Intent {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]intents.Intent(nil), e.submitted...)
}

type fakeReader struct {
	cards map[string]cards.Card
	recs  []transactions.Record
	stats transactions.Stats
	err   error
}

func (f *fakeReader) GetCard(_ context.Context, uid string) (cards.Card, error) {
	if f.err != nil {
		return cards.Card{}, f.err
	}

	c, ok := f.cards[uid]
	if !ok {
		return cards.Card{}, cards.ErrCardNotFound
	}

	return c, nil
}

func (f *fakeReader) RecentTransactions(context.Context) ([]transactions.Record, error) {
	return f.recs, f.err
}

func (f *fakeReader) CardTransactions(_ context.Context, uid string) ([]transactions.Record, error) {
	out := []transactions.Record{}
	for _, r := range f.recs {
		if r.UID == uid {
			out = append(out, r)
		}
	}

	return out, f.err
}

func (f *fakeReader) Stats(context.Context) (transactions.Stats, error) {
	return f.stats, f.err
}

func (f *fakeReader) Products(context.Context) ([]products.Product, error) {
	return []products.Product{{ID: 1, Name: "Coffee", Price: 3}}, f.err
}

func newTestRouter(eng *fakeEngine, rd *fakeReader) http.Handler {
	return NewRouter(Deps{Engine: eng, Ledger: rd})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestSubmitAccepted(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{}
	h := newTestRouter(eng, &fakeReader{})

	rec := do(t, h, http.MethodPost, "/topup", `{"uid":"card1","amount":10}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Top-up queued for execution"}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/pay", `{"uid":"card1","amount":4}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Payment queued for execution"}`, rec.Body.String())

	assert.Equal(t, []intents.Intent{
		{UID: "card1", Kind: intents.KindTopUp, Amount: 10},
		{UID: "card1", Kind: intents.KindPay, Amount: 4},
	}, eng.Pending())
}

func TestSubmitRejectsBadInput(t *testing.T) {
	t.Parallel()

	bodies := map[string]string{
		"empty body":      ``,
		"not json":        `{uid`,
		"missing uid":     `{"amount":10}`,
		"blank uid":       `{"uid":"  ","amount":10}`,
		"missing amount":  `{"uid":"card1"}`,
		"null amount":     `{"uid":"card1","amount":null}`,
		"string amount":   `{"uid":"card1","amount":"10"}`,
		"zero amount":     `{"uid":"card1","amount":0}`,
		"negative amount": `{"uid":"card1","amount":-5}`,
		"fractional":      `{"uid":"card1","amount":2.5}`,
		"numeric uid":     `{"uid":7,"amount":1}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			eng := &fakeEngine{}
			rec := do(t, newTestRouter(eng, &fakeReader{}), http.MethodPost, "/topup", body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
			assert.Empty(t, eng.Pending())
		})
	}
}

func TestSubmitEngineFailure(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{err: errors.New("boom")}
	rec := do(t, newTestRouter(eng, &fakeReader{}), http.MethodPost, "/pay", `{"uid":"card1","amount":1}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestTransactionsAndStats(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rd := &fakeReader{
		recs: []transactions.Record{
			{ID: 2, UID: "card1", Kind: "PAY", Amount: 5, Status: transactions.StatusCompleted, CreatedAt: now},
		},
		stats: transactions.Stats{Revenue: 5, Count: 2},
	}
	h := newTestRouter(&fakeEngine{}, rd)

	rec := do(t, h, http.MethodGet, "/api/transactions", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "PAY", got[0]["type"])
	assert.Equal(t, "COMPLETED", got[0]["status"])

	rec = do(t, h, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"totalRevenue":5,"totalTransactions":2}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"name":"Coffee","price":3}]`, rec.Body.String())
}

func TestCardLookup(t *testing.T) {
	t.Parallel()

	rd := &fakeReader{cards: map[string]cards.Card{"card1": {UID: "card1", Balance: 95}}}
	h := newTestRouter(&fakeEngine{}, rd)

	rec := do(t, h, http.MethodGet, "/api/cards/card1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got cardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "card1", got.UID)
	assert.Equal(t, int64(95), got.Balance)
	assert.NotNil(t, got.Transactions)

	rec = do(t, h, http.MethodGet, "/api/cards/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReadFailureIs500(t *testing.T) {
	t.Parallel()

	h := newTestRouter(&fakeEngine{}, &fakeReader{err: errors.New("db down")})

	for _, path := range []string{"/api/transactions", "/api/stats", "/api/products", "/api/cards/x"} {
		rec := do(t, h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code, path)
	}
}

func TestPendingListsQueuedIntents(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{submitted: []intents.Intent{{UID: "card1", Kind: intents.KindPay, Amount: 3}}}
	rec := do(t, newTestRouter(eng, &fakeReader{}), http.MethodGet, "/api/pending", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"uid":"card1","type":"PAY","amount":3}]`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	t.Parallel()

	rec := do(t, newTestRouter(&fakeEngine{}, &fakeReader{}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	h := NewRouter(Deps{
		Engine: &fakeEngine{},
		Ledger: &fakeReader{},
		Health: func(context.Context) error { return errors.New("db unreachable") },
	})
	rec = do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	h := newTestRouter(&fakeEngine{}, &fakeReader{})
	_ = do(t, h, http.MethodGet, "/api/stats", "")

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rfid_http_requests_total")
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodOptions, "/topup", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := httptest.NewRecorder()
	newTestRouter(&fakeEngine{}, &fakeReader{}).ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
