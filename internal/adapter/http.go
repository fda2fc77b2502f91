package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/MKhiriev/go-sync-core/internal/config"
	"github.com/MKhiriev/go-sync-core/internal/logger"
	"github.com/MKhiriev/go-sync-core/internal/utils"
	"github.com/MKhiriev/go-sync-core/models"
	"github.com/go-resty/resty/v2"
)

// HashHeader carries the HMAC-SHA256 of the request body when a hash key is
// configured.
const HashHeader = "HashSHA256"

type httpServerAdapter struct {
	client *utils.HTTPClient
	hasher *utils.Hasher

	mu    sync.RWMutex
	token string

	logger *logger.Logger
}

// NewHTTPServerAdapter constructs an HTTP/REST implementation of [ServerAdapter].
// It normalises and validates the base URL from adapterCfg.HTTPAddress,
// configures the underlying HTTP client with the resolved base URL, request
// timeout and retry policy, and prepares the HMAC hasher used for transport
// integrity hashes.
//
// Returns an error if adapterCfg.HTTPAddress is empty or cannot be parsed as a
// valid URL.
func NewHTTPServerAdapter(adapterCfg config.ClientAdapter, appCfg config.ClientApp, logger *logger.Logger) (ServerAdapter, error) {
	baseURL, err := normalizeBaseURL(adapterCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	client := utils.NewHTTPClient().WithRetries(adapterCfg.RetryCount, adapterCfg.RetryWait)
	client.
		SetBaseURL(baseURL).
		SetTimeout(adapterCfg.RequestTimeout)

	return &httpServerAdapter{
		client: client,
		hasher: utils.NewHasher(appCfg.HashKey),
		logger: logger,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SetToken implements [ServerAdapter].
func (h *httpServerAdapter) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

// Token implements [ServerAdapter].
func (h *httpServerAdapter) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// Register implements [ServerAdapter]. It POSTs the request to
// POST /sync/signup. The token is taken from the JSON answer, falling back to
// the Authorization response header.
func (h *httpServerAdapter) Register(ctx context.Context, req models.RegisterRequest) (models.RegisterResponse, error) {
	resp, err := h.jsonRequest(ctx, req).Post("/sync/signup")
	if err != nil {
		return models.RegisterResponse{}, fmt.Errorf("register request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.RegisterResponse{}, err
	}

	var result models.RegisterResponse
	if err = decodeBody(resp, &result); err != nil {
		return models.RegisterResponse{}, err
	}

	raw := result.Token
	if raw == "" {
		if raw, err = utils.ParseBearerToken(resp.Header().Get("Authorization")); err != nil {
			return models.RegisterResponse{}, fmt.Errorf("%w: no token in signup response", ErrInvalidResponse)
		}
	}

	token, err := utils.ParseUnverifiedToken(raw)
	if err != nil {
		return models.RegisterResponse{}, fmt.Errorf("%w: register parse token: %w", ErrInvalidResponse, err)
	}

	h.SetToken(raw)
	return models.RegisterResponse{Token: raw, UserID: token.UserID}, nil
}

// Push implements [ServerAdapter]. It PATCHes the batch to
// PATCH /sync/{feature}.
func (h *httpServerAdapter) Push(ctx context.Context, feature models.Feature, records []models.SyncableRecord, expected models.Cursor) (models.Cursor, error) {
	log := logger.FromContext(ctx)

	if records == nil {
		records = []models.SyncableRecord{}
	}

	resp, err := h.jsonRequest(ctx, models.PushRequest{ModifiedSince: expected, Updates: records}).
		SetPathParam("feature", string(feature)).
		Patch("/sync/{feature}")
	if err != nil {
		return "", fmt.Errorf("push request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		log.Debug().
			Str("func", "httpServerAdapter.Push").
			Str("feature", string(feature)).
			Int("status", resp.StatusCode()).
			Msg("push rejected")
		return "", err
	}

	var result models.PushResponse
	if err = decodeBody(resp, &result); err != nil {
		return "", err
	}
	if result.LastModified == "" {
		return "", fmt.Errorf("%w: push response has no last_modified", ErrInvalidResponse)
	}

	log.Debug().
		Str("func", "httpServerAdapter.Push").
		Str("feature", string(feature)).
		Int("count", len(records)).
		Str("cursor", string(result.LastModified)).
		Msg("push accepted")

	return result.LastModified, nil
}

// pullEnvelope keeps entries raw so one undecodable entry does not fail the
// whole batch.
type pullEnvelope struct {
	Entries      []json.RawMessage `json:"entries"`
	LastModified models.Cursor     `json:"last_modified"`
}

// Pull implements [ServerAdapter]. It GETs GET /sync/{feature}?since=cursor.
// Entries that are not even records (no id, not an object) come back as
// undecodable placeholders, and payload problems stay on the record; the
// feature adapter reports both as malformed.
func (h *httpServerAdapter) Pull(ctx context.Context, feature models.Feature, since models.Cursor) ([]models.SyncableRecord, models.Cursor, error) {
	log := logger.FromContext(ctx)

	if since == "" {
		since = models.ZeroCursor
	}

	resp, err := h.authedRequest(ctx).
		SetPathParam("feature", string(feature)).
		SetQueryParam("since", string(since)).
		Get("/sync/{feature}")
	if err != nil {
		return nil, "", fmt.Errorf("pull request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, "", err
	}

	var envelope pullEnvelope
	if err = decodeBody(resp, &envelope); err != nil {
		return nil, "", err
	}

	records := make([]models.SyncableRecord, 0, len(envelope.Entries))
	for i, raw := range envelope.Entries {
		rec, err := models.DecodeRecord(feature, raw)
		if err != nil {
			log.Warn().Err(err).
				Str("func", "httpServerAdapter.Pull").
				Str("feature", string(feature)).
				Int("index", i).
				Msg("undecodable entry")
			rec = models.NewUndecodableRecord(feature, raw, err)
		}
		records = append(records, rec)
	}

	cursor := envelope.LastModified
	if cursor == "" {
		cursor = since
	}

	log.Debug().
		Str("func", "httpServerAdapter.Pull").
		Str("feature", string(feature)).
		Int("count", len(records)).
		Str("cursor", string(cursor)).
		Msg("pull completed")

	return records, cursor, nil
}

// decodeBody decodes a JSON answer regardless of the Content-Type the server
// set. An empty body leaves v untouched.
func decodeBody(resp *resty.Response, v any) error {
	body := resp.Body()
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: decode %s response: %w", ErrInvalidResponse, resp.Request.Method, err)
	}
	return nil
}

func (h *httpServerAdapter) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}

// jsonRequest encodes body once so the integrity hash covers the exact bytes
// that are sent.
func (h *httpServerAdapter) jsonRequest(ctx context.Context, body any) *resty.Request {
	req := h.authedRequest(ctx).SetHeader("Content-Type", "application/json")

	payload, err := json.Marshal(body)
	if err != nil {
		// resty reports the marshal error itself on send
		return req.SetBody(body)
	}

	if sum := h.hasher.SumHex(payload); sum != "" {
		req.SetHeader(HashHeader, sum)
	}
	return req.SetBody(payload)
}
