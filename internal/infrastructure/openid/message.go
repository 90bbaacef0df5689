// Package openid encodes and decodes OpenID 2.0 relying-party messages: the
// checkid_setup redirect, positive assertions with Simple Registration and
// Launchpad teams extensions, and direct-verification key-value responses.
package openid

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Protocol constants.
const (
	NamespaceOpenID2  = "http://specs.openid.net/auth/2.0"
	NamespaceSReg     = "http://openid.net/extensions/sreg/1.1"
	NamespaceTeams    = "http://ns.launchpad.net/2007/openid-teams"
	IdentifierSelect  = "http://specs.openid.net/auth/2.0/identifier_select"
	ServerServiceType = "http://specs.openid.net/auth/2.0/server"

	ModeCheckIDSetup        = "checkid_setup"
	ModeIDRes               = "id_res"
	ModeCheckAuthentication = "check_authentication"

	defaultSRegAlias  = "sreg"
	defaultTeamsAlias = "lp"
)

// ErrMalformed reports a message that does not follow the protocol.
var ErrMalformed = errors.New("malformed openid message")

// AuthRequest describes the checkid_setup redirect.
type AuthRequest struct {
	ReturnTo string
	Realm    string
	Team     string
}

// BuildAuthURL returns the provider URL the browser is redirected to.
// Query parameters already present on endpoint are preserved.
func BuildAuthURL(endpoint string, req AuthRequest) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid provider endpoint %q", endpoint)
	}

	q := u.Query()
	q.Set("openid.ns", NamespaceOpenID2)
	q.Set("openid.mode", ModeCheckIDSetup)
	q.Set("openid.identity", IdentifierSelect)
	q.Set("openid.claimed_id", IdentifierSelect)
	q.Set("openid.return_to", req.ReturnTo)
	q.Set("openid.realm", req.Realm)
	q.Set("openid.ns."+defaultSRegAlias, NamespaceSReg)
	q.Set("openid."+defaultSRegAlias+".required", "email")
	q.Set("openid.ns."+defaultTeamsAlias, NamespaceTeams)
	q.Set("openid."+defaultTeamsAlias+".query_membership", req.Team)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Assertion is a parsed positive assertion.
type Assertion struct {
	Mode      string
	Identity  string
	ClaimedID string
	ReturnTo  string
	Email     string
	Teams     []string
}

// Mode returns the openid.mode of a callback.
func Mode(params url.Values) string {
	return params.Get("openid.mode")
}

// ParseAssertion extracts identity and extension data from a positive
// assertion. Only fields listed in openid.signed are trusted: identity and
// return_to must be signed, and an extension field is read only when both it
// and its openid.ns.<alias> declaration are signed.
func ParseAssertion(params url.Values) (*Assertion, error) {
	if ns := params.Get("openid.ns"); ns != "" && ns != NamespaceOpenID2 {
		return nil, fmt.Errorf("%w: unsupported namespace %q", ErrMalformed, ns)
	}

	mode := params.Get("openid.mode")
	if mode != ModeIDRes {
		return nil, fmt.Errorf("%w: mode %q is not a positive assertion", ErrMalformed, mode)
	}

	signed := SignedFields(params)

	identity := strings.TrimSpace(params.Get("openid.identity"))
	if identity == "" {
		return nil, fmt.Errorf("%w: missing openid.identity", ErrMalformed)
	}
	if identity == IdentifierSelect {
		return nil, fmt.Errorf("%w: provider did not select an identity", ErrMalformed)
	}
	if u, err := url.Parse(identity); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: openid.identity is not an absolute URL", ErrMalformed)
	}
	if !signed.Has("identity") {
		return nil, fmt.Errorf("%w: openid.identity is not signed", ErrMalformed)
	}

	returnTo := params.Get("openid.return_to")
	if returnTo == "" {
		return nil, fmt.Errorf("%w: missing openid.return_to", ErrMalformed)
	}
	if !signed.Has("return_to") {
		return nil, fmt.Errorf("%w: openid.return_to is not signed", ErrMalformed)
	}

	email, err := signedExtensionField(params, signed, NamespaceSReg, "email")
	if err != nil {
		return nil, err
	}
	teams, err := signedExtensionField(params, signed, NamespaceTeams, "is_member")
	if err != nil {
		return nil, err
	}

	return &Assertion{
		Mode:      mode,
		Identity:  identity,
		ClaimedID: params.Get("openid.claimed_id"),
		ReturnTo:  returnTo,
		Email:     strings.TrimSpace(email),
		Teams:     SplitTeams(teams),
	}, nil
}

// Signed is the ordered list of field names from openid.signed, without the
// "openid." prefix.
type Signed []string

// SignedFields parses openid.signed.
func SignedFields(params url.Values) Signed {
	var out Signed
	for field := range strings.SplitSeq(params.Get("openid.signed"), ",") {
		if field = strings.TrimSpace(field); field != "" {
			out = append(out, field)
		}
	}
	return out
}

// Has reports whether field is covered by the signature.
func (s Signed) Has(field string) bool {
	return slices.Contains(s, field)
}

// signedExtensionField returns openid.<alias>.<field> for the extension bound
// to namespace. An extension without a signed declaration, or an absent
// value, yields "". A value that is present but not signed is rejected.
func signedExtensionField(params url.Values, signed Signed, namespace, field string) (string, error) {
	alias, declared := extensionAlias(params, signed, namespace)
	if !declared {
		return "", nil
	}

	key := alias + "." + field
	if !params.Has("openid." + key) {
		return "", nil
	}
	if !signed.Has(key) {
		return "", fmt.Errorf("%w: openid.%s is not signed", ErrMalformed, key)
	}
	return params.Get("openid." + key), nil
}

// extensionAlias returns the first alias, in openid.signed order, whose signed
// openid.ns.<alias> declaration names namespace. Unsigned declarations are
// ignored.
func extensionAlias(params url.Values, signed Signed, namespace string) (string, bool) {
	for _, field := range signed {
		alias, ok := strings.CutPrefix(field, "ns.")
		if !ok || alias == "" {
			continue
		}
		if params.Get("openid.ns."+alias) == namespace {
			return alias, true
		}
	}
	return "", false
}

// SplitTeams splits a comma-delimited membership claim into a set.
func SplitTeams(claim string) []string {
	teams := []string{}
	seen := make(map[string]struct{})
	for part := range strings.SplitSeq(claim, ",") {
		team := strings.TrimSpace(part)
		if team == "" {
			continue
		}
		if _, dup := seen[team]; dup {
			continue
		}
		seen[team] = struct{}{}
		teams = append(teams, team)
	}
	return teams
}

// MatchReturnTo reports whether an assertion's return_to matches the one the
// relying party sent: same scheme, host and path, and every query parameter of
// expected present with the same value.
func MatchReturnTo(expected, got string) bool {
	want, err := url.Parse(expected)
	if err != nil {
		return false
	}
	have, err := url.Parse(got)
	if err != nil {
		return false
	}
	if !strings.EqualFold(want.Scheme, have.Scheme) ||
		!strings.EqualFold(want.Host, have.Host) ||
		want.EscapedPath() != have.EscapedPath() {
		return false
	}

	haveQuery := have.Query()
	for key, values := range want.Query() {
		if haveQuery.Get(key) != values[0] {
			return false
		}
	}
	return true
}

// CheckAuthenticationParams copies the openid.* fields of an assertion and
// rewrites the mode for direct verification.
func CheckAuthenticationParams(params url.Values) url.Values {
	out := url.Values{}
	for key, values := range params {
		if !strings.HasPrefix(key, "openid.") || len(values) == 0 {
			continue
		}
		out.Set(key, values[0])
	}
	out.Set("openid.mode", ModeCheckAuthentication)
	return out
}

// ParseKeyValue decodes a key-value form response ("key:value" per line).
func ParseKeyValue(body string) (map[string]string, error) {
	out := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("%w: key-value line without separator", ErrMalformed)
		}
		out[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return out, nil
}

// IsValid reports whether a check_authentication response affirms the assertion.
func IsValid(response map[string]string) bool {
	if ns, ok := response["ns"]; ok && ns != NamespaceOpenID2 {
		return false
	}
	return response["is_valid"] == "true"
}
