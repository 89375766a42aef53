package domain

// UserID is the identity resolved from the caller's access token. It is
// issued by the external identity provider, so it is an opaque string.
type UserID string

// String returns the raw identifier.
func (u UserID) String() string { return string(u) }

// Plan is the billing plan carried in the identity token.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// ParsePlan maps a token claim to a Plan; unknown values fall back to free.
func ParsePlan(s string) Plan {
	if Plan(s) == PlanPro {
		return PlanPro
	}
	return PlanFree
}
