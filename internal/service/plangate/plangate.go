// Package plangate consults the external subscription service that decides
// whether a store owner's plan still allows creating a given resource kind.
// The check is a plain yes/no gate; plan logic itself lives elsewhere.
package plangate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Resource kinds the gate is consulted for.
const (
	KindProduct = "product"
	KindUser    = "user"
)

// Gate answers whether ownerID may create another resource of the given kind.
type Gate interface {
	Allowed(ctx context.Context, kind, ownerID string) (bool, error)
}

// AllowAll is the fallback gate used when no plan service is configured.
type AllowAll struct{}

func (AllowAll) Allowed(context.Context, string, string) (bool, error) { return true, nil }

// HTTPGate asks the plan service over HTTP and memoizes decisions for a short
// TTL so bursts of mutations do not hammer the collaborator.
type HTTPGate struct {
	baseURL string
	client  *http.Client
	cache   *gocache.Cache
	logger  *log.Logger
}

func NewHTTPGate(baseURL string, ttl time.Duration, logger *log.Logger) *HTTPGate {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &HTTPGate{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		cache:   gocache.New(ttl, time.Minute),
		logger:  logger,
	}
}

type gateResponse struct {
	Allowed bool `json:"allowed"`
}

func (g *HTTPGate) Allowed(ctx context.Context, kind, ownerID string) (bool, error) {
	key := kind + ":" + ownerID
	if v, ok := g.cache.Get(key); ok {
		allowed, _ := v.(bool)
		return allowed, nil
	}

	u := fmt.Sprintf("%s/limits/%s?owner=%s", g.baseURL, url.PathEscape(kind), url.QueryEscape(ownerID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("plan gate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.logger.Printf("plan gate: unexpected status %d for %s", resp.StatusCode, key)
		return false, fmt.Errorf("plan gate status %d", resp.StatusCode)
	}

	var out gateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("plan gate decode: %w", err)
	}

	g.cache.SetDefault(key, out.Allowed)
	return out.Allowed, nil
}
