package graph

import (
	"context"

	"fides/internal/vouch"
)

const projectVouchCypher = `
MERGE (g:User {id: $giverId})
MERGE (r:User {id: $receiverId})
MERGE (g)-[v:VOUCHES_FOR {vouchId: $vouchId}]->(r)
SET v.skillId = $skillId,
    v.confidence = $confidence,
    v.issuedAt = $issuedAt,
    v.valid = $valid
`

// Projector mirrors ledger writes into the graph.
type Projector struct {
	client Client
}

func NewProjector(client Client) *Projector {
	return &Projector{client: client}
}

// Project upserts the giver and receiver nodes and the vouch edge between
// them. Called on both issuance and invalidation so the edge's valid flag
// tracks the ledger.
func (p *Projector) Project(ctx context.Context, v vouch.Vouch) error {
	return p.client.ExecuteWrite(ctx, projectVouchCypher, map[string]any{
		"vouchId":    v.ID.String(),
		"giverId":    v.Giver.String(),
		"receiverId": v.Receiver.String(),
		"skillId":    v.SkillID.String(),
		"confidence": int(v.Confidence),
		"issuedAt":   v.IssuedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		"valid":      v.Valid,
	})
}
