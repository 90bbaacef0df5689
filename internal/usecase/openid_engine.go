package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"sso-hub/internal/domain"
	"sso-hub/internal/infrastructure/metrics"
	"sso-hub/internal/infrastructure/openid"
)

// callbackPath is where the provider returns the browser.
const callbackPath = "/callback"

// stateParam carries the flow nonce through the provider inside return_to.
const stateParam = "state"

// ProtocolEngine is the OpenID 2.0 relying party: it builds the provider
// redirect and turns callbacks into a VerificationResult.
type ProtocolEngine struct {
	verifier domain.AssertionVerifier
	tokens   domain.TokenSource
	team     string
	flowTTL  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewProtocolEngine creates a new ProtocolEngine.
func NewProtocolEngine(v domain.AssertionVerifier, t domain.TokenSource, team string, flowTTL time.Duration, l *slog.Logger) *ProtocolEngine {
	return &ProtocolEngine{verifier: v, tokens: t, team: team, flowTTL: flowTTL, logger: l, now: time.Now}
}

// InitiateLogin builds the provider redirect for origin and the PendingFlow
// that must be stored before the browser is sent away.
func (e *ProtocolEngine) InitiateLogin(ctx context.Context, origin, nextURL string) (string, *domain.PendingFlow, error) {
	origin = strings.TrimRight(origin, "/")

	endpoint, err := e.verifier.ResolveEndpoint(ctx)
	if err != nil {
		return "", nil, err
	}

	key, err := e.tokens.NewToken()
	if err != nil {
		return "", nil, err
	}
	nonce, err := e.tokens.NewToken()
	if err != nil {
		return "", nil, err
	}

	returnTo := origin + callbackPath + "?" + url.Values{stateParam: {nonce}}.Encode()
	redirectURL, err := openid.BuildAuthURL(endpoint, openid.AuthRequest{
		ReturnTo: returnTo,
		Realm:    origin,
		Team:     e.team,
	})
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", domain.ErrDiscoveryFailed, err)
	}

	now := e.now()
	flow := &domain.PendingFlow{
		Key:        key,
		StateNonce: nonce,
		NextURL:    SanitizeNextURL(nextURL),
		ReturnTo:   returnTo,
		CreatedAt:  now,
		ExpiresAt:  now.Add(e.flowTTL),
	}
	return redirectURL, flow, nil
}

// HandleCallback validates a provider callback against its flow and confirms
// it with the provider. It never returns transport errors: every failure is a
// rejection whose Detail is meant for server logs only.
func (e *ProtocolEngine) HandleCallback(ctx context.Context, params url.Values, flow *domain.PendingFlow) domain.VerificationResult {
	if mode := openid.Mode(params); mode != openid.ModeIDRes {
		return domain.Rejected(domain.RejectCancelled, fmt.Sprintf("provider returned mode %q", mode))
	}

	// Local checks run first so forged or replayed callbacks cost no round-trip.
	if subtle.ConstantTimeCompare([]byte(params.Get(stateParam)), []byte(flow.StateNonce)) != 1 {
		return domain.Rejected(domain.RejectMalformed, "state does not match pending flow")
	}

	assertion, err := openid.ParseAssertion(params)
	if err != nil {
		return domain.Rejected(domain.RejectMalformed, err.Error())
	}

	if !openid.MatchReturnTo(flow.ReturnTo, assertion.ReturnTo) {
		return domain.Rejected(domain.RejectMalformed, "openid.return_to does not match pending flow")
	}

	e.logger.DebugContext(ctx, "verifying assertion with provider", "identity", assertion.Identity)
	start := time.Now()
	valid, err := e.verifier.CheckAuthentication(ctx, params)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		metrics.RecordProviderVerify(metrics.OutcomeError, elapsed)
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.Rejected(domain.RejectVerificationFailed, "provider verification timed out")
		}
		return domain.Rejected(domain.RejectVerificationFailed, err.Error())
	}
	if !valid {
		metrics.RecordProviderVerify(metrics.ResultRejected, elapsed)
		return domain.Rejected(domain.RejectVerificationFailed, "provider did not affirm assertion")
	}
	metrics.RecordProviderVerify(metrics.ResultAllowed, elapsed)

	return domain.Verified(domain.Identity{
		IdentityURL: assertion.Identity,
		Email:       assertion.Email,
		Teams:       assertion.Teams,
	})
}
