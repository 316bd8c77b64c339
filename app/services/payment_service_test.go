package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aniicone/cafe-api/pkg/apperr"
	"github.com/aniicone/cafe-api/pkg/cache"
)

// fakeCashfree records create requests and serves canned order documents.
type fakeCashfree struct {
	mu       sync.Mutex
	created  []map[string]interface{}
	headers  http.Header
	failWith int
}

func (f *fakeCashfree) requests() ([]map[string]interface{}, http.Header) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]interface{}(nil), f.created...), f.headers
}

func (f *fakeCashfree) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/pg/orders", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		raw, _ := io.ReadAll(r.Body)
		body := map[string]interface{}{}
		assert.NoError(t, json.Unmarshal(raw, &body))

		f.mu.Lock()
		f.created = append(f.created, body)
		f.headers = r.Header.Clone()
		fail := f.failWith
		f.mu.Unlock()

		if fail != 0 {
			w.WriteHeader(fail)
			_, _ = w.Write([]byte(`{"message":"order_amount : invalid value"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"payment_session_id": fmt.Sprintf("session_%v", body["order_id"])})
	})
	mux.HandleFunc("/pg/orders/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/pg/orders/"):]
		if id == "missing" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"order not found"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"order_id":     id,
			"order_status": "PAID",
			"order_amount": 99.5,
			"order_meta":   map[string]interface{}{"return_url": "https://shop.test/ret"},
		})
	})
	return mux
}

func newPaymentFixture(t *testing.T) (*PaymentService, *fakeCashfree) {
	t.Helper()
	fake := &fakeCashfree{}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	gw := NewCashfreeGateway(srv.URL+"/pg", "cid", "csecret")
	svc := NewPaymentService(gw, NewPaymentCache(cache.NewMemory(), 0), "INR")
	svc.now = func() time.Time { return time.UnixMilli(1_700_000_000_123) }
	svc.rand = func(int) int { return 7 }
	return svc, fake
}

func TestCashfreeBaseURL(t *testing.T) {
	assert.Equal(t, "https://sandbox.cashfree.com/pg", CashfreeBaseURL(true))
	assert.Equal(t, "https://api.cashfree.com/pg", CashfreeBaseURL(false))
}

func TestInitiatePayment(t *testing.T) {
	svc, fake := newPaymentFixture(t)

	res, err := svc.Initiate(context.Background(), InitiatePaymentInput{
		Amount:      "50",
		RedirectURL: "https://shop.test/return",
		Items:       json.RawMessage(`[{"name":"Latte","price":25,"quantity":2}]`),
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "order_1700000000123_7", res.OrderID)
	assert.Equal(t, "session_order_1700000000123_7", res.PaymentSessionID)

	created, headers := fake.requests()
	require.Len(t, created, 1)
	body := created[0]
	assert.Equal(t, "50.00", body["order_amount"])
	assert.Equal(t, "INR", body["order_currency"])
	assert.Equal(t, "Cafe order payment", body["order_note"])
	meta := body["order_meta"].(map[string]interface{})
	assert.Equal(t, "https://shop.test/return?order_id=order_1700000000123_7", meta["return_url"])
	customer := body["customer_details"].(map[string]interface{})
	assert.Regexp(t, `^cust_\d+$`, customer["customer_id"])
	assert.Equal(t, "Cafe Customer", customer["customer_name"])

	assert.Equal(t, "cid", headers.Get("x-client-id"))
	assert.Equal(t, "csecret", headers.Get("x-client-secret"))
	assert.Equal(t, "2022-09-01", headers.Get("x-api-version"))
}

func TestInitiatePaymentValidation(t *testing.T) {
	svc, fake := newPaymentFixture(t)
	ctx := context.Background()

	cases := []InitiatePaymentInput{
		{RedirectURL: "https://x.test"},
		{Amount: 0.0, RedirectURL: "https://x.test"},
		{Amount: "abc", RedirectURL: "https://x.test"},
		{Amount: -5.0, RedirectURL: "https://x.test"},
		{Amount: 10.0},
	}
	for _, in := range cases {
		_, err := svc.Initiate(ctx, in)
		e, ok := apperr.As(err)
		require.True(t, ok)
		assert.Equal(t, apperr.PaymentInitFailed, e.Code)
		assert.Equal(t, http.StatusBadRequest, e.Status)
	}
	created, _ := fake.requests()
	assert.Empty(t, created, "gateway must not be called for invalid input")
}

func TestInitiatePaymentGatewayFailure(t *testing.T) {
	svc, fake := newPaymentFixture(t)
	fake.mu.Lock()
	fake.failWith = http.StatusBadRequest
	fake.mu.Unlock()

	_, err := svc.Initiate(context.Background(), InitiatePaymentInput{Amount: 10.0, RedirectURL: "https://x.test", MerchantTransactionID: "txn_1"})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.PaymentInitFailed, e.Code)
	assert.Equal(t, http.StatusInternalServerError, e.Status)
	assert.Equal(t, "order_amount : invalid value", e.Message)

	// The snapshot was stored before the gateway call.
	_, found, err := svc.cache.Get(context.Background(), "txn_1")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestPaymentStatusMergesSnapshot(t *testing.T) {
	svc, _ := newPaymentFixture(t)
	ctx := context.Background()

	_, err := svc.Initiate(ctx, InitiatePaymentInput{
		Amount:                12.5,
		RedirectURL:           "https://x.test",
		MerchantTransactionID: "txn_42",
		Items:                 json.RawMessage(`[{"name":"Tea","price":12.5,"quantity":1}]`),
	})
	require.NoError(t, err)

	res, err := svc.Status(ctx, "txn_42")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "PAID", res.OrderStatus)
	assert.Equal(t, 12.5, res.PaymentDetails["order_amount"])

	out, err := json.Marshal(res.PaymentDetails["order_meta"])
	require.NoError(t, err)
	assert.JSONEq(t, `{"return_url":"https://shop.test/ret","items":[{"name":"Tea","price":12.5,"quantity":1}]}`, string(out))
}

func TestPaymentStatusUnknownID(t *testing.T) {
	svc, _ := newPaymentFixture(t)

	res, err := svc.Status(context.Background(), "never_seen")
	require.NoError(t, err)
	assert.Equal(t, 99.5, res.PaymentDetails["order_amount"])

	out, err := json.Marshal(res.PaymentDetails["order_meta"])
	require.NoError(t, err)
	assert.JSONEq(t, `{"return_url":"https://shop.test/ret","items":[]}`, string(out))
}

func TestPaymentStatusGatewayFailure(t *testing.T) {
	svc, _ := newPaymentFixture(t)

	_, err := svc.Status(context.Background(), "missing")
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.PaymentStatusFailed, e.Code)
	assert.Equal(t, http.StatusInternalServerError, e.Status)
	assert.Equal(t, "order not found", e.Message)
}

func TestParseAmount(t *testing.T) {
	for in, want := range map[interface{}]bool{
		50.0: true, "12.34": true, " 7 ": true, json.Number("3"): true,
		0.0: false, "": false, "NaN": false, "Inf": false, true: false, nil: false,
	} {
		_, ok := parseAmount(in)
		assert.Equal(t, want, ok, "%v", in)
	}
}
