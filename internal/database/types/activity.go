package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/robalyx/verdict/internal/database/types/enum"
)

// ActivityLog is an append-only audit entry.
// EventID is unique so consumers replaying a side effect write it once.
type ActivityLog struct {
	ID           int64             `bun:",pk,autoincrement"                  json:"id"`
	EventID      uuid.UUID         `bun:",notnull,unique,type:uuid"          json:"eventId"`
	ActorID      uuid.UUID         `bun:",notnull,type:uuid"                 json:"actorId"`
	RequestID    uuid.UUID         `bun:",notnull,type:uuid"                 json:"requestId"`
	JudgmentID   uuid.UUID         `bun:",notnull,type:uuid"                 json:"judgmentId"`
	ActivityType enum.ActivityType `bun:",notnull,type:text"                 json:"activityType"`
	Details      map[string]any    `bun:",type:jsonb"                        json:"details,omitempty"`
	CreatedAt    time.Time         `bun:",notnull,default:current_timestamp" json:"createdAt"`
}
