package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	cfhttp "github.com/aniicone/cafe-api/pkg/http"
	"github.com/aniicone/cafe-api/pkg/metrics"
)

const (
	CashfreeSandboxURL    = "https://sandbox.cashfree.com/pg"
	CashfreeProductionURL = "https://api.cashfree.com/pg"
	cashfreeAPIVersion    = "2022-09-01"
	gatewayTimeout        = 30 * time.Second
)

// GatewayOrderRequest describes a payment session to open.
type GatewayOrderRequest struct {
	OrderID   string
	Amount    float64
	Currency  string
	ReturnURL string
}

// PaymentGateway opens payment sessions and reports their state.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req GatewayOrderRequest) (sessionID string, err error)
	FetchOrder(ctx context.Context, orderID string) (map[string]interface{}, error)
}

// GatewayError carries the gateway's own failure message.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway: status %d: %s", e.StatusCode, e.Message)
}

// CashfreeGateway talks to the Cashfree PG orders API.
type CashfreeGateway struct {
	baseURL      string
	clientID     string
	clientSecret string
	now          func() time.Time
}

// CashfreeBaseURL picks the API host for the configured environment.
func CashfreeBaseURL(sandbox bool) string {
	if sandbox {
		return CashfreeSandboxURL
	}
	return CashfreeProductionURL
}

func NewCashfreeGateway(baseURL, clientID, clientSecret string) *CashfreeGateway {
	return &CashfreeGateway{
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		now:          time.Now,
	}
}

func (g *CashfreeGateway) headers() map[string]string {
	return map[string]string{
		"x-client-id":     g.clientID,
		"x-client-secret": g.clientSecret,
		"x-api-version":   cashfreeAPIVersion,
	}
}

// CreateOrder is sent exactly once; the gateway call is not idempotent.
func (g *CashfreeGateway) CreateOrder(ctx context.Context, req GatewayOrderRequest) (string, error) {
	defer metrics.ObserveGateway("create_order", time.Now())

	body := map[string]interface{}{
		"order_id":       req.OrderID,
		"order_amount":   strconv.FormatFloat(req.Amount, 'f', 2, 64),
		"order_currency": req.Currency,
		"customer_details": map[string]string{
			"customer_id":    fmt.Sprintf("cust_%d", g.now().UnixMilli()),
			"customer_name":  "Cafe Customer",
			"customer_email": "customer@example.com",
			"customer_phone": "9999999999",
		},
		"order_meta": map[string]string{
			"return_url": req.ReturnURL + "?order_id=" + req.OrderID,
		},
		"order_note": "Cafe order payment",
	}

	resp, err := cfhttp.Post(g.baseURL + "/orders").
		WithContext(ctx).
		Headers(g.headers()).
		Body(body).
		Timeout(gatewayTimeout).
		Send()
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", gatewayError(resp)
	}

	var out struct {
		PaymentSessionID string `json:"payment_session_id"`
	}
	if err := resp.JSON(&out); err != nil {
		return "", err
	}
	return out.PaymentSessionID, nil
}

func (g *CashfreeGateway) FetchOrder(ctx context.Context, orderID string) (map[string]interface{}, error) {
	defer metrics.ObserveGateway("fetch_order", time.Now())

	resp, err := cfhttp.Get(g.baseURL + "/orders/" + url.PathEscape(orderID)).
		WithContext(ctx).
		Headers(g.headers()).
		Timeout(gatewayTimeout).
		Send()
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, gatewayError(resp)
	}

	doc := map[string]interface{}{}
	if err := resp.JSON(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func gatewayError(resp *cfhttp.Response) error {
	var body struct {
		Message string `json:"message"`
	}
	_ = resp.JSON(&body)
	return &GatewayError{StatusCode: resp.StatusCode, Message: body.Message}
}
