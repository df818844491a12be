package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/robalyx/verdict/internal/database/types/enum"
)

// Credit ledger sources.
const (
	CreditSourceRequest  = "request"
	CreditSourceJudgment = "judgment"
	CreditSourceManual   = "manual"
)

// CreditTransaction is an append-only entry in a user's credit ledger.
// The (type, source, source_id) triple is unique so replays are no-ops.
type CreditTransaction struct {
	ID          uuid.UUID                  `bun:",pk,type:uuid"                      json:"id"`
	UserID      uuid.UUID                  `bun:",notnull,type:uuid"                 json:"userId"`
	Amount      int64                      `bun:",notnull"                           json:"amount"`
	Type        enum.CreditTransactionType `bun:",notnull,type:text"                 json:"type"`
	Source      string                     `bun:",notnull"                           json:"source"`
	SourceID    string                     `bun:",notnull"                           json:"sourceId"`
	Description string                     `bun:",notnull,default:''"                json:"description,omitempty"`
	CreatedAt   time.Time                  `bun:",notnull,default:current_timestamp" json:"createdAt"`
}

// CreditBalance is the materialized spendable balance of a user.
type CreditBalance struct {
	UserID    uuid.UUID `bun:",pk,type:uuid"                      json:"userId"`
	Balance   int64     `bun:",notnull,default:0"                 json:"balance"`
	UpdatedAt time.Time `bun:",notnull,default:current_timestamp" json:"updatedAt"`
}
