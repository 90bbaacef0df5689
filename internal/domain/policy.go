package domain

// Decision is the result of an authorization check.
type Decision int

const (
	Denied Decision = iota
	Allowed
)

func (d Decision) String() string {
	if d == Allowed {
		return "allowed"
	}
	return "denied"
}

// TeamPolicy admits identities that belong to RequiredTeam.
type TeamPolicy struct {
	RequiredTeam string
}

// Evaluate returns Allowed iff the required team is among the identity's teams.
// An empty RequiredTeam never matches.
func (p TeamPolicy) Evaluate(identity Identity) Decision {
	if p.RequiredTeam == "" || !identity.HasTeam(p.RequiredTeam) {
		return Denied
	}
	return Allowed
}
