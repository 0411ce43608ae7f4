package adapter

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/go-entitlement-keeper/internal/logger"
	"github.com/MKhiriev/go-entitlement-keeper/models"
)

// HTTPClientConfig configures the HTTP authority client.
type HTTPClientConfig struct {
	BaseURL      string
	SigningKey   string
	Timeout      time.Duration
	PollInterval time.Duration
}

// httpAuthority is the production [Authority] implementation over the
// marketplace's HTTP API. It doubles as the [Connectivity] probe: the result
// of the most recent request decides Online.
type httpAuthority struct {
	client       *resty.Client
	signingKey   []byte
	pollInterval time.Duration
	logger       *logger.Logger

	online atomic.Bool
}

// NewHTTPAuthority constructs the HTTP authority client. The client starts
// in the online state; the first failed request flips it.
func NewHTTPAuthority(cfg HTTPClientConfig, log *logger.Logger) *httpAuthority {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout)

	a := &httpAuthority{
		client:       cli,
		signingKey:   []byte(cfg.SigningKey),
		pollInterval: cfg.PollInterval,
		logger:       log,
	}
	a.online.Store(true)
	return a
}

// Online implements [Connectivity].
func (a *httpAuthority) Online() bool {
	return a.online.Load()
}

// note records the outcome of a request for the connectivity probe.
func (a *httpAuthority) note(err error) {
	a.online.Store(err == nil)
}

type streamResponse struct {
	Envelopes  []string `json:"envelopes"`
	NextCursor int64    `json:"next_cursor"`
}

type promotedResponse struct {
	ProductIDs []string `json:"product_ids"`
	NextCursor int64    `json:"next_cursor"`
}

type entitlementsResponse struct {
	Envelopes []string `json:"envelopes"`
}

type versionResponse struct {
	Envelope string `json:"envelope"`
}

type purchaseRequest struct {
	ProductID string `json:"product_id"`
}

type purchaseResponse struct {
	State    string `json:"state"`
	Envelope string `json:"envelope,omitempty"`
}

// Transactions implements [Authority]. It long-polls the transaction stream
// endpoint and feeds decoded envelopes into the returned channel until ctx
// is cancelled. Poll failures only pause the loop; the stream itself never
// dies.
func (a *httpAuthority) Transactions(ctx context.Context) <-chan models.SignedTransaction {
	out := make(chan models.SignedTransaction)

	go func() {
		defer close(out)
		var cursor int64

		for {
			var body streamResponse
			resp, err := a.client.R().
				SetContext(ctx).
				SetQueryParam("cursor", fmt.Sprintf("%d", cursor)).
				SetResult(&body).
				Get("/api/transactions")
			if err = a.checkResponse(resp, err); err != nil {
				if ctx.Err() != nil {
					return
				}
				a.logger.Warn().Err(err).Msg("transaction stream poll failed")
				if !sleepCtx(ctx, a.pollInterval) {
					return
				}
				continue
			}

			cursor = body.NextCursor
			for _, raw := range body.Envelopes {
				select {
				case out <- DecodeEnvelope(raw, a.signingKey):
				case <-ctx.Done():
					return
				}
			}

			if len(body.Envelopes) == 0 && !sleepCtx(ctx, a.pollInterval) {
				return
			}
		}
	}()

	return out
}

// PromotedPurchases implements [Authority] with the same long-poll shape as
// Transactions.
func (a *httpAuthority) PromotedPurchases(ctx context.Context) <-chan models.PromotedPurchase {
	out := make(chan models.PromotedPurchase)

	go func() {
		defer close(out)
		var cursor int64

		for {
			var body promotedResponse
			resp, err := a.client.R().
				SetContext(ctx).
				SetQueryParam("cursor", fmt.Sprintf("%d", cursor)).
				SetResult(&body).
				Get("/api/promoted")
			if err = a.checkResponse(resp, err); err != nil {
				if ctx.Err() != nil {
					return
				}
				a.logger.Warn().Err(err).Msg("promoted stream poll failed")
				if !sleepCtx(ctx, a.pollInterval) {
					return
				}
				continue
			}

			cursor = body.NextCursor
			for _, id := range body.ProductIDs {
				select {
				case out <- models.PromotedPurchase{ProductID: id}:
				case <-ctx.Done():
					return
				}
			}

			if len(body.ProductIDs) == 0 && !sleepCtx(ctx, a.pollInterval) {
				return
			}
		}
	}()

	return out
}

// CurrentEntitlements implements [Authority].
func (a *httpAuthority) CurrentEntitlements(ctx context.Context) ([]models.SignedTransaction, error) {
	var body entitlementsResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetResult(&body).
		Get("/api/entitlements")
	if err = a.checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("fetch current entitlements: %w", err)
	}

	envelopes := make([]models.SignedTransaction, 0, len(body.Envelopes))
	for _, raw := range body.Envelopes {
		envelopes = append(envelopes, DecodeEnvelope(raw, a.signingKey))
	}
	return envelopes, nil
}

// OriginalPurchaseVersion implements [Authority].
func (a *httpAuthority) OriginalPurchaseVersion(ctx context.Context) (string, models.VerificationOutcome, error) {
	var body versionResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetResult(&body).
		Get("/api/original-version")
	if err = a.checkResponse(resp, err); err != nil {
		return "", models.VerificationUnverified, fmt.Errorf("fetch original purchase version: %w", err)
	}

	version, outcome := decodeVersionEnvelope(body.Envelope, a.signingKey)
	return version, outcome, nil
}

// Purchase implements [Authority].
func (a *httpAuthority) Purchase(ctx context.Context, productID string) (models.PurchaseResult, error) {
	var body purchaseResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(purchaseRequest{ProductID: productID}).
		SetResult(&body).
		Post("/api/purchase")
	if err = a.checkResponse(resp, err); err != nil {
		return models.PurchaseResult{}, fmt.Errorf("purchase %s: %w", productID, err)
	}

	result := models.PurchaseResult{State: models.PurchaseState(body.State)}
	if result.State == models.PurchaseSuccess {
		result.Transaction = DecodeEnvelope(body.Envelope, a.signingKey)
	}
	return result, nil
}

// Finish implements [Authority].
func (a *httpAuthority) Finish(ctx context.Context, transactionID string) error {
	resp, err := a.client.R().
		SetContext(ctx).
		Post("/api/transactions/" + transactionID + "/finish")
	if err = a.checkResponse(resp, err); err != nil {
		return fmt.Errorf("finish transaction %s: %w", transactionID, err)
	}
	return nil
}

// checkResponse folds transport and status errors into the adapter's error
// taxonomy and updates the connectivity probe. Transport failures map to
// ErrNotConnected; non-2xx statuses are ErrUnexpectedStatus but still count
// as connected.
func (a *httpAuthority) checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		a.note(err)
		return fmt.Errorf("%w: %w", ErrNotConnected, err)
	}
	a.note(nil)

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode())
	}
	return nil
}

// sleepCtx pauses for d, returning false when ctx was cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
