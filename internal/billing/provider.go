// Package billing isolates the subscription vendor behind a narrow interface
// so the exam/activity core never touches the vendor SDK shape directly.
package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	TierFree    = "free"
	TierPremium = "premium"
)

type Status struct {
	Tier      string     `json:"tier"`
	Active    bool       `json:"active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type Offering struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	PriceCents int    `json:"price_cents"`
	Period     string `json:"period"` // monthly|yearly|lifetime
}

// Provider is the swappable billing boundary.
type Provider interface {
	GetOfferings(ctx context.Context) ([]Offering, error)
	Purchase(ctx context.Context, userID, offeringID string) (Status, error)
	Restore(ctx context.Context, userID string) (Status, error)
	GetStatus(ctx context.Context, userID string) (Status, error)
}

// HTTPProvider talks to a hosted billing backend over REST.
type HTTPProvider struct {
	client *resty.Client
}

func NewHTTPProvider(baseURL, apiKey string) *HTTPProvider {
	c := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetTimeout(10 * time.Second)
	return &HTTPProvider{client: c}
}

func (p *HTTPProvider) GetOfferings(ctx context.Context) ([]Offering, error) {
	var out struct {
		Offerings []Offering `json:"offerings"`
	}
	resp, err := p.client.R().SetContext(ctx).SetResult(&out).Get("/v1/offerings")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("billing: offerings: %s", resp.Status())
	}
	return out.Offerings, nil
}

func (p *HTTPProvider) Purchase(ctx context.Context, userID, offeringID string) (Status, error) {
	return p.postStatus(ctx, fmt.Sprintf("/v1/subscribers/%s/purchase", userID),
		map[string]string{"offering_id": offeringID})
}

func (p *HTTPProvider) Restore(ctx context.Context, userID string) (Status, error) {
	return p.postStatus(ctx, fmt.Sprintf("/v1/subscribers/%s/restore", userID), nil)
}

func (p *HTTPProvider) GetStatus(ctx context.Context, userID string) (Status, error) {
	var st Status
	resp, err := p.client.R().SetContext(ctx).SetResult(&st).
		Get(fmt.Sprintf("/v1/subscribers/%s", userID))
	if err != nil {
		return Status{}, err
	}
	if resp.StatusCode() == 404 {
		return Status{Tier: TierFree}, nil
	}
	if resp.IsError() {
		return Status{}, fmt.Errorf("billing: status: %s", resp.Status())
	}
	return st, nil
}

func (p *HTTPProvider) postStatus(ctx context.Context, path string, body any) (Status, error) {
	var st Status
	req := p.client.R().SetContext(ctx).SetResult(&st)
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Post(path)
	if err != nil {
		return Status{}, err
	}
	if resp.IsError() {
		return Status{}, fmt.Errorf("billing: %s: %s", path, resp.Status())
	}
	return st, nil
}

// StaticProvider grants a fixed tier to everyone. Used offline and in tests.
type StaticProvider struct {
	Tier string
}

func (s StaticProvider) GetOfferings(context.Context) ([]Offering, error) {
	return []Offering{
		{ID: "premium_monthly", Title: "Premium Monthly", PriceCents: 999, Period: "monthly"},
		{ID: "premium_yearly", Title: "Premium Yearly", PriceCents: 5999, Period: "yearly"},
	}, nil
}

func (s StaticProvider) Purchase(context.Context, string, string) (Status, error) {
	return Status{Tier: TierPremium, Active: true}, nil
}

func (s StaticProvider) Restore(context.Context, string) (Status, error) {
	return s.status(), nil
}

func (s StaticProvider) GetStatus(context.Context, string) (Status, error) {
	return s.status(), nil
}

func (s StaticProvider) status() Status {
	return Status{Tier: s.Tier, Active: s.Tier == TierPremium}
}
