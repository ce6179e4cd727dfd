// Package client provides the HTTP client for the GoHighLevel API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"dealdesk_backend/internal/crm"
	"dealdesk_backend/platform/config"
	"dealdesk_backend/platform/logger"
	"dealdesk_backend/platform/metrics"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// apiVersion is the Version header GoHighLevel requires on every call.
const apiVersion = "2021-07-28"

const pageLimit = 100

// Client is the HTTP client for the GoHighLevel API. Every call goes through
// a token-bucket limiter (GHL enforces a burst quota per location) and a
// circuit breaker so a broken upstream fails fast instead of queueing.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	locationID string
	pipelineID string
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	met        *metrics.Metrics
	log        *logger.Logger
}

// New creates a GoHighLevel API client.
func New(cfg config.CRMConfig, met *metrics.Metrics, log *logger.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "ghl",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("crm circuit breaker state change", "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    cfg.GetGHLBaseURL(),
		apiKey:     cfg.GetGHLAPIKey(),
		locationID: cfg.GetGHLLocationID(),
		pipelineID: cfg.GetGHLPipelineID(),
		limiter:    rate.NewLimiter(rate.Limit(cfg.GetGHLRequestsPerSecond()), cfg.GetGHLBurst()),
		breaker:    breaker,
		met:        met,
		log:        log,
	}
}

// ListOpportunities fetches every opportunity in the configured pipeline,
// following pagination until the API reports no next page.
func (c *Client) ListOpportunities(ctx context.Context) ([]crm.RawOpportunity, error) {
	var all []crm.RawOpportunity
	page := 1

	for {
		params := url.Values{}
		params.Set("location_id", c.locationID)
		params.Set("pipeline_id", c.pipelineID)
		params.Set("limit", fmt.Sprintf("%d", pageLimit))
		params.Set("page", fmt.Sprintf("%d", page))

		var envelope crm.RawOpportunityList
		err := c.doRequest(ctx, "list_opportunities", http.MethodGet,
			fmt.Sprintf("%s/opportunities/search?%s", c.baseURL, params.Encode()), nil, &envelope)
		if err != nil {
			return nil, err
		}

		all = append(all, envelope.Opportunities...)
		// A next page that does not advance would loop forever on a
		// misbehaving upstream.
		next := envelope.Meta.NextPage
		if next <= page || len(envelope.Opportunities) == 0 {
			return all, nil
		}
		page = next
	}
}

// GetContact fetches a single contact by id.
func (c *Client) GetContact(ctx context.Context, contactID string) (crm.RawContact, error) {
	var envelope struct {
		Contact crm.RawContact `json:"contact"`
	}
	err := c.doRequest(ctx, "get_contact", http.MethodGet,
		fmt.Sprintf("%s/contacts/%s", c.baseURL, url.PathEscape(contactID)), nil, &envelope)
	if err != nil {
		return crm.RawContact{}, err
	}
	return envelope.Contact, nil
}

// CreateAssociation creates a buyer-property relation under the given label
// and returns the new relation id.
func (c *Client) CreateAssociation(ctx context.Context, fromID, toID, label string) (string, error) {
	body := map[string]string{
		"locationId":      c.locationID,
		"firstRecordId":   fromID,
		"secondRecordId":  toID,
		"associationType": label,
	}

	var created struct {
		Association crm.RawAssociation `json:"association"`
	}
	err := c.doRequest(ctx, "create_association", http.MethodPost,
		fmt.Sprintf("%s/associations/relations", c.baseURL), body, &created)
	if err != nil {
		return "", err
	}
	if created.Association.ID == "" {
		return "", fmt.Errorf("create association: empty relation id in response")
	}
	return created.Association.ID, nil
}

// DeleteAssociation removes a relation record by id. A 404 is treated as
// already deleted.
func (c *Client) DeleteAssociation(ctx context.Context, relationID string) error {
	return c.doRequest(ctx, "delete_association", http.MethodDelete,
		fmt.Sprintf("%s/associations/relations/%s", c.baseURL, url.PathEscape(relationID)), nil, nil)
}

// UpdateOpportunityStage moves the opportunity's own stage marker. The
// association is the source of truth for the board; this keeps the CRM's
// native pipeline view in step with it.
func (c *Client) UpdateOpportunityStage(ctx context.Context, opportunityID, stage string) error {
	body := map[string]string{"pipelineStageId": stage}
	return c.doRequest(ctx, "update_opportunity_stage", http.MethodPut,
		fmt.Sprintf("%s/opportunities/%s", c.baseURL, url.PathEscape(opportunityID)), body, nil)
}

// Ping verifies the API key against the location endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.doRequest(ctx, "ping", http.MethodGet,
		fmt.Sprintf("%s/locations/%s", c.baseURL, url.PathEscape(c.locationID)), nil, nil)
}

func (c *Client) doRequest(ctx context.Context, operation, method, reqURL string, body, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.send(ctx, operation, method, reqURL, body, out)
	})
	if err != nil {
		c.met.CRMCalls.WithLabelValues(operation, "error").Inc()
		c.log.CRMError(operation, err)
		return err
	}

	c.met.CRMCalls.WithLabelValues(operation, "ok").Inc()
	return nil
}

func (c *Client) send(ctx context.Context, operation, method, reqURL string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Version", apiVersion)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// Success - continue to decode
	case resp.StatusCode == http.StatusNotFound && method == http.MethodDelete:
		// Relation already gone; the desired end state holds.
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("unauthorized: invalid API key")
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("rate limited by upstream: %s", operation)
	default:
		return fmt.Errorf("upstream error: %s status %d", operation, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
