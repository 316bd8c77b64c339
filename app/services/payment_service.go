package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aniicone/cafe-api/pkg/apperr"
	"github.com/aniicone/cafe-api/pkg/logger"
	"github.com/aniicone/cafe-api/pkg/metrics"
)

var emptyItems = json.RawMessage(`[]`)

// InitiatePaymentInput is the initiate-payment body. Amount may arrive as
// a JSON number or a numeric string.
type InitiatePaymentInput struct {
	Amount                interface{}     `json:"amount"`
	RedirectURL           string          `json:"redirectUrl"`
	MerchantTransactionID string          `json:"merchantTransactionId"`
	Items                 json.RawMessage `json:"items"`
}

type InitiatePaymentResult struct {
	Success          bool   `json:"success"`
	OrderID          string `json:"orderId"`
	PaymentSessionID string `json:"paymentSessionId"`
}

type PaymentStatusResult struct {
	Success        bool                   `json:"success"`
	OrderStatus    interface{}            `json:"orderStatus"`
	PaymentDetails map[string]interface{} `json:"paymentDetails"`
}

// PaymentService bridges checkout to the payment gateway.
type PaymentService struct {
	gateway  PaymentGateway
	cache    *PaymentCache
	currency string
	now      func() time.Time
	rand     func(n int) int
}

func NewPaymentService(gateway PaymentGateway, cache *PaymentCache, currency string) *PaymentService {
	return &PaymentService{
		gateway:  gateway,
		cache:    cache,
		currency: currency,
		now:      time.Now,
		rand:     rand.Intn,
	}
}

// Initiate opens a gateway session. The item snapshot is cached before
// the gateway is called so a status query can always find it.
func (s *PaymentService) Initiate(ctx context.Context, in InitiatePaymentInput) (*InitiatePaymentResult, error) {
	amount, ok := parseAmount(in.Amount)
	if !ok || strings.TrimSpace(in.RedirectURL) == "" {
		return nil, apperr.NewPaymentInit(http.StatusBadRequest, "Missing required parameters")
	}

	txnID := in.MerchantTransactionID
	if txnID == "" {
		txnID = fmt.Sprintf("order_%d_%d", s.now().UnixMilli(), s.rand(1000))
	}

	items := in.Items
	if len(items) == 0 || string(items) == "null" {
		items = emptyItems
	}
	if err := s.cache.Put(ctx, txnID, PaymentSnapshot{Items: items, Amount: amount}); err != nil {
		return nil, fmt.Errorf("payments: cache snapshot: %w", err)
	}

	sessionID, err := s.gateway.CreateOrder(ctx, GatewayOrderRequest{
		OrderID:   txnID,
		Amount:    amount,
		Currency:  s.currency,
		ReturnURL: in.RedirectURL,
	})
	if err != nil {
		metrics.PaymentSessions.WithLabelValues("failure").Inc()
		logger.WithCtx(ctx).Error("payments: session creation failed", "order_id", txnID, "error", err)
		return nil, apperr.NewPaymentInit(http.StatusInternalServerError, gatewayMessage(err, "Payment initialization failed")).Wrap(err)
	}

	metrics.PaymentSessions.WithLabelValues("success").Inc()
	logger.WithCtx(ctx).Info("payments: session created", "order_id", txnID)
	return &InitiatePaymentResult{Success: true, OrderID: txnID, PaymentSessionID: sessionID}, nil
}

// Status merges the gateway's order document with the cached snapshot.
// An id this process never saw still answers, with empty items.
func (s *PaymentService) Status(ctx context.Context, orderID string) (*PaymentStatusResult, error) {
	doc, err := s.gateway.FetchOrder(ctx, orderID)
	if err != nil {
		logger.WithCtx(ctx).Error("payments: status fetch failed", "order_id", orderID, "error", err)
		return nil, apperr.NewPaymentStatus(gatewayMessage(err, "Failed to fetch payment status")).Wrap(err)
	}

	snap, found, err := s.cache.Get(ctx, orderID)
	if err != nil {
		logger.WithCtx(ctx).Warn("payments: snapshot lookup failed", "order_id", orderID, "error", err)
		found = false
	}

	items := emptyItems
	if found && len(snap.Items) > 0 {
		items = snap.Items
	}

	meta := map[string]interface{}{}
	if existing, ok := doc["order_meta"].(map[string]interface{}); ok {
		for k, v := range existing {
			meta[k] = v
		}
	}
	meta["items"] = items
	doc["order_meta"] = meta

	if found && snap.Amount != 0 {
		doc["order_amount"] = snap.Amount
	}

	return &PaymentStatusResult{Success: true, OrderStatus: doc["order_status"], PaymentDetails: doc}, nil
}

// parseAmount accepts a positive JSON number or numeric string.
func parseAmount(v interface{}) (float64, bool) {
	var f float64
	switch a := v.(type) {
	case float64:
		f = a
	case json.Number:
		n, err := a.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	return f, f > 0 && !math.IsInf(f, 0)
}

func gatewayMessage(err error, fallback string) string {
	var ge *GatewayError
	if errors.As(err, &ge) && ge.Message != "" {
		return ge.Message
	}
	return fallback
}
