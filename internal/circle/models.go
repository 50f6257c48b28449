package circle

import (
	"time"

	id "fides/pkg/domain"
)

// Circle is a reputation-gated membership group.
type Circle struct {
	ID                    id.CircleID `json:"id"`
	Name                  string      `json:"name"`
	MinReputationToJoin   int         `json:"min_reputation_to_join"`
	MinReputationToCreate int         `json:"min_reputation_to_create"`
	OpenJoin              bool        `json:"open_join"`
	CreatedAt             time.Time   `json:"created_at"`
}
