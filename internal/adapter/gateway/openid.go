package gateway

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"sso-hub/internal/domain"
	"sso-hub/internal/infrastructure/openid"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxResponseBytes caps provider response bodies.
const maxResponseBytes = 1 << 20

// OpenIDGateway talks to the OpenID 2.0 identity provider.
// Implements domain.AssertionVerifier.
type OpenIDGateway struct {
	baseURL    string
	discovery  bool
	timeout    time.Duration
	httpClient *http.Client

	mu       sync.RWMutex
	endpoint string
}

// GatewayConfig configures the identity provider gateway.
type GatewayConfig struct {
	// BaseURL is the provider root, e.g. https://login.ubuntu.com.
	BaseURL string
	// Discovery enables Yadis/XRDS discovery of the OP endpoint. When false
	// the endpoint is BaseURL + "/+openid".
	Discovery bool
	// Timeout bounds every provider round-trip.
	Timeout time.Duration
}

// NewOpenIDGateway creates a new gateway with tuned, traced HTTP transport.
func NewOpenIDGateway(cfg GatewayConfig) *OpenIDGateway {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}

	return &OpenIDGateway{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		discovery: cfg.Discovery,
		timeout:   cfg.Timeout,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(transport),
			// Verification responses are never redirects.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// ResolveEndpoint returns the provider's OpenID endpoint, discovering it on
// first use when discovery is enabled. A successful discovery is cached.
func (g *OpenIDGateway) ResolveEndpoint(ctx context.Context) (string, error) {
	if !g.discovery {
		return g.baseURL + "/+openid", nil
	}

	g.mu.RLock()
	endpoint := g.endpoint
	g.mu.RUnlock()
	if endpoint != "" {
		return endpoint, nil
	}

	endpoint, err := g.discover(ctx)
	if err != nil {
		return "", err
	}

	g.mu.Lock()
	g.endpoint = endpoint
	g.mu.Unlock()
	return endpoint, nil
}

// xrdsDocument is the subset of a Yadis XRDS document used for discovery.
type xrdsDocument struct {
	XRD struct {
		Services []struct {
			Priority int      `xml:"priority,attr"`
			Types    []string `xml:"Type"`
			URIs     []string `xml:"URI"`
		} `xml:"Service"`
	} `xml:"XRD"`
}

func (g *OpenIDGateway) discover(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrDiscoveryFailed, err)
	}
	req.Header.Set("Accept", "application/xrds+xml")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrDiscoveryFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: provider returned status %d", domain.ErrDiscoveryFailed, resp.StatusCode)
	}

	var doc xrdsDocument
	if err := xml.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&doc); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrDiscoveryFailed, err)
	}

	best, bestPriority := "", -1
	for _, svc := range doc.XRD.Services {
		if !containsType(svc.Types, openid.ServerServiceType) || len(svc.URIs) == 0 {
			continue
		}
		if bestPriority == -1 || svc.Priority < bestPriority {
			best, bestPriority = strings.TrimSpace(svc.URIs[0]), svc.Priority
		}
	}

	if u, err := url.Parse(best); best == "" || err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: no OpenID 2.0 server endpoint advertised", domain.ErrDiscoveryFailed)
	}
	return best, nil
}

func containsType(types []string, want string) bool {
	for _, t := range types {
		if strings.TrimSpace(t) == want {
			return true
		}
	}
	return false
}

// CheckAuthentication re-issues the assertion to the provider as a direct
// verification request. It returns true only on an explicit is_valid:true.
func (g *OpenIDGateway) CheckAuthentication(ctx context.Context, params url.Values) (bool, error) {
	endpoint, err := g.ResolveEndpoint(ctx)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	body := openid.CheckAuthenticationParams(params).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("%w: %w", domain.ErrVerificationFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %w", domain.ErrVerificationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("%w: provider returned status %d", domain.ErrVerificationFailed, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return false, fmt.Errorf("%w: %w", domain.ErrVerificationFailed, err)
	}

	kv, err := openid.ParseKeyValue(string(raw))
	if err != nil {
		return false, fmt.Errorf("%w: %w", domain.ErrVerificationFailed, err)
	}

	return openid.IsValid(kv), nil
}

var _ domain.AssertionVerifier = (*OpenIDGateway)(nil)
