package app

// Policy is the configuration port used by the application.
// Implemented by internal/policy.Policy.
type Policy interface {
	Title() string
	Teams() []string
	CanonicalTeam(team string) (string, bool)
	ReadRange() string
	ValueColumn() string
	AuditTab() string
	OverviewConcurrency() int
	ValidateActor(email string) (string, error)
	IsToolEnabled(name string) bool
}
