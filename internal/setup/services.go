package setup

import (
	"context"

	"github.com/google/uuid"
	"github.com/robalyx/verdict/internal/database"
	"github.com/robalyx/verdict/internal/database/memory"
	"github.com/robalyx/verdict/internal/database/types"
	"github.com/robalyx/verdict/internal/database/types/enum"
	"github.com/robalyx/verdict/internal/events"
	"github.com/robalyx/verdict/internal/ledger"
	"github.com/robalyx/verdict/internal/reputation"
	"github.com/robalyx/verdict/internal/settlement"
	"github.com/robalyx/verdict/internal/setup/config"
	"go.uber.org/zap"
)

// JudgmentStore is every judgment read and write the services need.
type JudgmentStore interface {
	ledger.VerdictCounter
	settlement.JudgmentStore
	reputation.JudgmentReader
}

// ActivityStore writes and reads the audit log.
type ActivityStore interface {
	ledger.ActivityRecorder
	GetRequestActivity(ctx context.Context, requestID uuid.UUID, limit int) ([]*types.ActivityLog, error)
}

// Stores groups the persistence the services read and write.
type Stores struct {
	Requests       ledger.RequestStore
	Judgments      JudgmentStore
	Earnings       settlement.EarningStore
	Credits        ledger.CreditStore
	Reputation     reputation.Store
	Qualifications settlement.QualificationReader
	Activity       ActivityStore
}

// PostgresStores returns the stores backed by the database models.
func PostgresStores(repo *database.Repository) Stores {
	return Stores{
		Requests:       repo.Request(),
		Judgments:      repo.Judgment(),
		Earnings:       repo.Earning(),
		Credits:        repo.Credit(),
		Reputation:     repo.Reputation(),
		Qualifications: repo.Qualification(),
		Activity:       repo.Activity(),
	}
}

// MemoryStores returns the stores backed by one in-process store.
func MemoryStores(store *memory.Store) Stores {
	return Stores{
		Requests:       store,
		Judgments:      store,
		Earnings:       store,
		Credits:        store,
		Reputation:     store,
		Qualifications: store,
		Activity:       store,
	}
}

// Services bundles the domain services shared by the api and the worker.
type Services struct {
	Requests   *ledger.RequestLedger
	Credits    *ledger.CreditLedger
	Refunds    *ledger.RefundCalculator
	Reputation *reputation.Engine
	Pipeline   *settlement.Pipeline
	Effects    *settlement.Effects
	Dispatcher *events.Dispatcher
	Activity   ActivityStore
}

// NewServices wires the domain services. publisher and notifier may be nil,
// in which case side effects run inline and notifications are skipped.
func NewServices(
	cfg *config.CommonConfig, stores Stores, publisher events.Publisher, notifier ledger.Notifier, logger *zap.Logger,
) *Services {
	credits := ledger.NewCreditLedger(stores.Credits, logger)
	refunds := ledger.NewRefundCalculator(stores.Requests, credits, stores.Activity, notifier, logger)

	prices := make(map[enum.Tier]int64, len(cfg.Settlement.Prices))
	for name, price := range cfg.Settlement.Prices {
		if tier, err := enum.TierString(name); err == nil {
			prices[tier] = price
		}
	}
	requests := ledger.NewRequestLedger(
		stores.Requests, stores.Judgments, credits, refunds, stores.Activity, prices, logger,
	)

	engine := reputation.NewEngine(stores.Reputation, stores.Judgments, stores.Requests, reputation.Thresholds{
		GracePeriodReviews:   cfg.Reputation.GracePeriodReviews,
		CalibrationThreshold: cfg.Reputation.CalibrationThreshold,
		ProbationThreshold:   cfg.Reputation.ProbationThreshold,
		HistoryDelta:         cfg.Reputation.HistoryDelta,
	}, logger)

	effects := settlement.NewEffects(
		credits, engine, stores.Activity, notifier,
		settlement.NewCreditGate(cfg.Settlement), cfg.Settlement.CreditAward, logger,
	)
	dispatcher := events.NewDispatcher(publisher, effects, logger)

	pipeline := settlement.NewPipeline(
		requests, stores.Judgments, stores.Earnings, stores.Qualifications, dispatcher,
		settlement.OptionsFromConfig(cfg.Settlement), logger,
	)

	return &Services{
		Requests:   requests,
		Credits:    credits,
		Refunds:    refunds,
		Reputation: engine,
		Pipeline:   pipeline,
		Effects:    effects,
		Dispatcher: dispatcher,
		Activity:   stores.Activity,
	}
}
