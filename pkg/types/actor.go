package types

// Actor is the acting user on a write path. Clearance and organization are
// compared against target-entity metadata by the validation policy.
type Actor struct {
	ID             string `json:"id"`
	Clearance      int    `json:"clearance_level"`
	OrganizationID string `json:"organization_id"`
}
