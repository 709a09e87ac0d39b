package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lupasearch/catalog-export/models"
	"github.com/sony/gobreaker"
)

const (
	EventProductAttributes = "actionLupaSearchAddProductAttributes"
	EventVariantAttributes = "actionLupaSearchAddVariantAttributes"
)

// maxReplyBytes caps how much of a listener reply is read.
const maxReplyBytes = 8 << 20

type webhookPayload struct {
	Event          string            `json:"event"`
	EntityIDs      []models.EntityID `json:"entity_ids"`
	CombinationIDs []models.EntityID `json:"combination_ids,omitempty"`
	ShopID         int64             `json:"shop_id"`
	LanguageID     int64             `json:"language_id"`
}

// Webhook is a listener living in another process. It POSTs the request as
// JSON and reads back an object keyed by entity id; for variants the reply
// is {"products": {...}, "combinations": {...}}. Anything else in the reply
// is ignored. Five consecutive failures open a circuit breaker.
type Webhook struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewWebhook(url string, timeout time.Duration) *Webhook {
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "webhook " + url,
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

func (w *Webhook) Augment(ctx context.Context, req Request) (Contribution, error) {
	reply, err := w.call(ctx, webhookPayload{
		Event:      EventProductAttributes,
		EntityIDs:  req.EntityIDs,
		ShopID:     req.ShopID,
		LanguageID: req.LanguageID,
	})
	if err != nil {
		return nil, err
	}
	return decodeContribution(reply), nil
}

func (w *Webhook) AugmentVariants(ctx context.Context, req VariantRequest) (VariantContribution, error) {
	reply, err := w.call(ctx, webhookPayload{
		Event:          EventVariantAttributes,
		EntityIDs:      req.ProductIDs,
		CombinationIDs: req.CombinationIDs,
		ShopID:         req.ShopID,
		LanguageID:     req.LanguageID,
	})
	if err != nil {
		return VariantContribution{}, err
	}
	obj, _ := reply.(map[string]any)
	return VariantContribution{
		Products:     decodeContribution(obj["products"]),
		Combinations: decodeContribution(obj["combinations"]),
	}, nil
}

func (w *Webhook) call(ctx context.Context, payload webhookPayload) (any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode webhook payload: %w", err)
	}
	return w.breaker.Execute(func() (interface{}, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := w.client.Do(httpReq)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("webhook replied %s", resp.Status)
		}

		var reply any
		dec := json.NewDecoder(io.LimitReader(resp.Body, maxReplyBytes))
		dec.UseNumber()
		if err := dec.Decode(&reply); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil
			}
			return nil, fmt.Errorf("decode webhook reply: %w", err)
		}
		return reply, nil
	})
}

// decodeContribution keeps only entries whose key parses as an id and whose
// value is an object.
func decodeContribution(v any) Contribution {
	out := make(Contribution)
	obj, ok := v.(map[string]any)
	if !ok {
		return out
	}
	for key, raw := range obj {
		id, err := models.ParseEntityID(key)
		if err != nil {
			continue
		}
		fields, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		out[id] = models.Fields(fields)
	}
	return out
}
