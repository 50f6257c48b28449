// Package audit defines the append-only event records emitted by every
// mutating operation of the engine, for external audit and indexing.
// Events are never revised after emission.
package audit

import (
	"time"

	id "fides/pkg/domain"
)

// Category classifies audit events by their primary purpose, enabling
// different retention policies and routing downstream.
type Category string

const (
	// CategoryCompliance covers events with governance significance that
	// external auditors replay: registrations, vouch history, proposal
	// lifecycle. These require long retention.
	CategoryCompliance Category = "compliance"

	// CategorySecurity covers capability changes and rejected escalations.
	CategorySecurity Category = "security"

	// CategoryOperations covers routine recomputation events that may be
	// sampled.
	CategoryOperations Category = "operations"
)

// Action names a mutating operation outcome.
type Action string

const (
	ActionUserRegistered       Action = "user_registered"
	ActionUserVerified         Action = "user_verified"
	ActionSkillAdded           Action = "skill_added"
	ActionCountryMultiplierSet Action = "country_multiplier_set"
	ActionVouchIssued          Action = "vouch_issued"
	ActionVouchInvalidated     Action = "vouch_invalidated"
	ActionReputationUpdated    Action = "reputation_updated"
	ActionRoleGranted          Action = "role_granted"
	ActionRoleRevoked          Action = "role_revoked"
	ActionCircleCreated        Action = "circle_created"
	ActionMemberAdmitted       Action = "member_admitted"
	ActionMemberRemoved        Action = "member_removed"
	ActionProposalCreated      Action = "proposal_created"
	ActionVoteCast             Action = "vote_cast"
	ActionProposalExecuted     Action = "proposal_executed"
)

// actionCategories maps each action to its category and is the single source
// of truth for routing.
var actionCategories = map[Action]Category{
	ActionUserRegistered:   CategoryCompliance,
	ActionUserVerified:     CategoryCompliance,
	ActionVouchIssued:      CategoryCompliance,
	ActionVouchInvalidated: CategoryCompliance,
	ActionProposalCreated:  CategoryCompliance,
	ActionVoteCast:         CategoryCompliance,
	ActionProposalExecuted: CategoryCompliance,

	ActionRoleGranted:          CategorySecurity,
	ActionRoleRevoked:          CategorySecurity,
	ActionCountryMultiplierSet: CategorySecurity,
	ActionCircleCreated:        CategorySecurity,
	ActionMemberAdmitted:       CategorySecurity,
	ActionMemberRemoved:        CategorySecurity,

	ActionSkillAdded:        CategoryOperations,
	ActionReputationUpdated: CategoryOperations,
}

// CategoryOf returns the routing category for an action, defaulting to
// operations for unknown actions.
func CategoryOf(a Action) Category {
	if c, ok := actionCategories[a]; ok {
		return c
	}
	return CategoryOperations
}

// Event is a single audit record. Keep it transport-agnostic so sinks can
// fan out (memory, Kafka).
type Event struct {
	Category  Category  `json:"category"`
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	// Actor is the principal that performed the operation; nil for
	// permissionless triggers such as proposal execution.
	Actor id.UserID `json:"actor,omitempty"`
	// Subject identifies the affected entity (user, vouch, proposal id).
	Subject string `json:"subject"`
	// Decision and Reason capture the outcome where an operation can
	// branch (e.g. proposal passed / rejected).
	Decision string `json:"decision,omitempty"`
	Reason   string `json:"reason,omitempty"`
	// RequestID is the correlation id from the request context.
	RequestID string `json:"request_id,omitempty"`
}
