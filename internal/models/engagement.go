// Package models defines the engagement type enumeration for Innovation Hub sessions.
package models

// EngagementType classifies the nature of a customer session.
type EngagementType string

const (
	EngagementBusinessEnvisioning EngagementType = "BUSINESS_ENVISIONING"
	EngagementSolutionEnvisioning EngagementType = "SOLUTION_ENVISIONING"
	EngagementADS                 EngagementType = "ADS"
	EngagementRapidPrototype      EngagementType = "RAPID_PROTOTYPE"
	EngagementHackathon           EngagementType = "HACKATHON"
	EngagementConsult             EngagementType = "CONSULT"
)

// DefaultEngagementType is used whenever inference from conversation text fails.
const DefaultEngagementType = EngagementSolutionEnvisioning

// AllEngagementTypes lists every valid engagement type. Order matters for
// substring matching during inference: longer names come first so that
// "SOLUTION_ENVISIONING" is not shadowed by a shorter type name.
var AllEngagementTypes = []EngagementType{
	EngagementBusinessEnvisioning,
	EngagementSolutionEnvisioning,
	EngagementRapidPrototype,
	EngagementHackathon,
	EngagementConsult,
	EngagementADS,
}

// IsValid reports whether t is one of the defined engagement types.
func (t EngagementType) IsValid() bool {
	for _, v := range AllEngagementTypes {
		if t == v {
			return true
		}
	}
	return false
}
