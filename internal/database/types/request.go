package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/robalyx/verdict/internal/database/types/enum"
)

// Request is a piece of content submitted for review by a requester.
type Request struct {
	ID                   uuid.UUID          `bun:",pk,type:uuid"                json:"id"`
	OwnerID              uuid.UUID          `bun:",notnull,type:uuid"           json:"ownerId"`
	Tier                 enum.Tier          `bun:",notnull,type:text"           json:"tier"`
	Status               enum.RequestStatus `bun:",notnull,type:text"           json:"status"`
	TargetVerdictCount   int                `bun:",notnull"                     json:"targetVerdictCount"`
	ReceivedVerdictCount int                `bun:",notnull,default:0"           json:"receivedVerdictCount"`
	CreditsCharged       int64              `bun:",notnull,default:0"           json:"creditsCharged"`
	RefundPending        bool               `bun:",notnull,default:false"       json:"refundPending"`
	RefundAmount         int64              `bun:",notnull,default:0"           json:"refundAmount"`
	Options              []string           `bun:",array"                       json:"options,omitempty"`
	WinningOption        *string            `bun:",nullzero"                    json:"winningOption,omitempty"`
	CancelReason         string             `bun:",notnull,default:''"          json:"cancelReason,omitempty"`
	CreatedAt            time.Time          `bun:",notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt            time.Time          `bun:",notnull,default:current_timestamp" json:"updatedAt"`
	ClosedAt             *time.Time         `bun:",nullzero"                    json:"closedAt,omitempty"`
	CancelledAt          *time.Time         `bun:",nullzero"                    json:"cancelledAt,omitempty"`
}

// HasOptions reports whether the request asks judges to pick between fixed options.
func (r *Request) HasOptions() bool {
	return len(r.Options) > 0
}

// Progress returns the public counters of the request.
func (r *Request) Progress() *RequestProgress {
	return &RequestProgress{
		Received:      r.ReceivedVerdictCount,
		Target:        r.TargetVerdictCount,
		Status:        r.Status,
		WinningOption: r.WinningOption,
	}
}

// RequestProgress is the verdict counter snapshot returned after a state change.
type RequestProgress struct {
	Received      int                `bun:"received_verdict_count" json:"received"`
	Target        int                `bun:"target_verdict_count"   json:"target"`
	Status        enum.RequestStatus `bun:"status"                 json:"status"`
	WinningOption *string            `bun:"winning_option"         json:"winningOption,omitempty"`
}

// Overfilled reports whether more verdicts were counted than requested.
func (p *RequestProgress) Overfilled() bool {
	return p.Received > p.Target
}
