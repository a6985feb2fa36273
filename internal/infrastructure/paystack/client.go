// Package paystack is a minimal client for the Paystack transaction API:
// initialize a transaction and verify it after the customer is redirected
// back. Initialize takes whole currency units and sends Paystack the subunit
// (kobo); Verify reports the charged amount in kobo, unconverted.
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Zhima-Mochi/minishop-chatbot/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/observability"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/observability/logctx"
)

const (
	peerName           = "paystack"
	endpointInitialize = "transaction.initialize"
	endpointVerify     = "transaction.verify"
	maxBodyBytes       = 1 << 20
)

type Config struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	tracer     observability.Tracer
	log        observability.Logger
	extCounter observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHist    observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func New(cfg Config, tel observability.Observability) *Client {
	if tel == nil {
		tel = observability.Nop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	metrics := tel.Metrics()
	return &Client{
		baseURL:    cfg.BaseURL,
		secretKey:  cfg.SecretKey,
		httpClient: &http.Client{Timeout: timeout},
		tracer:     tel.Tracer(),
		log:        tel.Logger().With(observability.F("component", "paystack_client")),
		extCounter: metrics.Counter(observability.MExternalRequests),
		extHist:    metrics.Histogram(observability.MExternalRequestDuration),
	}
}

type envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func (e *envelope[T]) result() (bool, string) { return e.Status, e.Message }

type response interface {
	result() (bool, string)
}

type initializeRequest struct {
	Email       string `json:"email"`
	Amount      int64  `json:"amount"`
	Reference   string `json:"reference"`
	CallbackURL string `json:"callback_url,omitempty"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
}

func (c *Client) Initialize(ctx context.Context, req payment.InitializeRequest) (payment.Transaction, error) {
	body := initializeRequest{
		Email:       req.Email,
		Amount:      payment.ToSubunits(req.Amount),
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
	}
	var out envelope[initializeData]
	if err := c.call(ctx, endpointInitialize, http.MethodPost, "/transaction/initialize", body, &out); err != nil {
		return payment.Transaction{}, err
	}
	if out.Data.AuthorizationURL == "" {
		return payment.Transaction{}, fmt.Errorf("%w: %s: missing authorization_url", payment.ErrGateway, endpointInitialize)
	}
	ref := out.Data.Reference
	if ref == "" {
		ref = req.Reference
	}
	return payment.Transaction{
		AuthorizationURL: out.Data.AuthorizationURL,
		Reference:        ref,
	}, nil
}

func (c *Client) Verify(ctx context.Context, reference string) (payment.Verification, error) {
	if reference == "" {
		return payment.Verification{}, fmt.Errorf("%w: %s: reference is required", payment.ErrGateway, endpointVerify)
	}
	var out envelope[verifyData]
	path := "/transaction/verify/" + url.PathEscape(reference)
	if err := c.call(ctx, endpointVerify, http.MethodGet, path, nil, &out); err != nil {
		return payment.Verification{}, err
	}
	if out.Data.Status == "" {
		return payment.Verification{}, fmt.Errorf("%w: %s: missing transaction status", payment.ErrGateway, endpointVerify)
	}
	ref := out.Data.Reference
	if ref == "" {
		ref = reference
	}
	return payment.Verification{
		Reference:      ref,
		Status:         payment.Status(out.Data.Status),
		AmountSubunits: out.Data.Amount,
	}, nil
}

// call performs one request and decodes the Paystack envelope into out.
// Every failure is wrapped with payment.ErrGateway.
func (c *Client) call(ctx context.Context, endpoint, method, path string, in any, out response) (err error) {
	ctx, span := c.tracer.Start(ctx, "Paystack."+endpoint,
		attribute.String("peer.service", peerName),
		attribute.String("http.method", method),
	)
	start := time.Now()
	outcome := "success"
	defer func() {
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, endpoint)
			logctx.FromOr(ctx, c.log).Warn("external_request_failed",
				observability.F("peer", peerName),
				observability.F("endpoint", endpoint),
				observability.F("error", err),
			)
		}
		span.End()
		c.extCounter.Add(1,
			observability.L("peer", peerName),
			observability.L("endpoint", endpoint),
			observability.L("outcome", outcome),
		)
		c.extHist.Observe(time.Since(start).Seconds(),
			observability.L("peer", peerName),
			observability.L("endpoint", endpoint),
		)
	}()

	if err := c.do(ctx, method, path, in, out); err != nil {
		return fmt.Errorf("%w: %s: %w", payment.ErrGateway, endpoint, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in any, out response) error {
	var reader io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var failure envelope[json.RawMessage]
		if json.Unmarshal(b, &failure) == nil && failure.Message != "" {
			return fmt.Errorf("status %d: %s", resp.StatusCode, failure.Message)
		}
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if ok, msg := out.result(); !ok {
		return fmt.Errorf("rejected: %s", msg)
	}
	return nil
}
