package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/robalyx/verdict/internal/database/types/enum"
)

// DefaultCurrency is the currency of every judge earning.
const DefaultCurrency = "USD"

// Earning is the monetary amount owed to a judge for one judgment.
// JudgmentID holds a placeholder until the judgment row exists.
type Earning struct {
	ID           uuid.UUID         `bun:",pk,type:uuid"                      json:"id"`
	JudgeID      uuid.UUID         `bun:",notnull,type:uuid"                 json:"judgeId"`
	JudgmentID   uuid.UUID         `bun:",notnull,type:uuid"                 json:"judgmentId"`
	RequestID    uuid.UUID         `bun:",notnull,type:uuid"                 json:"requestId"`
	Amount       int64             `bun:",notnull"                           json:"amount"`
	Currency     string            `bun:",notnull"                           json:"currency"`
	PayoutStatus enum.PayoutStatus `bun:",notnull,type:text"                 json:"payoutStatus"`
	RequestType  enum.Tier         `bun:",notnull,type:text"                 json:"requestType"`
	Notes        string            `bun:",notnull,default:''"                json:"notes,omitempty"`
	CreatedAt    time.Time         `bun:",notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt    time.Time         `bun:",notnull,default:current_timestamp" json:"updatedAt"`
}
