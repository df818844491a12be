package database

import (
	"github.com/robalyx/verdict/internal/database/models"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	request       *models.RequestModel
	judgment      *models.JudgmentModel
	earning       *models.EarningModel
	credit        *models.CreditModel
	reputation    *models.ReputationModel
	qualification *models.QualificationModel
	activity      *models.ActivityModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		request:       models.NewRequest(db, logger),
		judgment:      models.NewJudgment(db, logger),
		earning:       models.NewEarning(db, logger),
		credit:        models.NewCredit(db, logger),
		reputation:    models.NewReputation(db, logger),
		qualification: models.NewQualification(db, logger),
		activity:      models.NewActivity(db, logger),
	}
}

// Request returns the request model repository.
func (r *Repository) Request() *models.RequestModel {
	return r.request
}

// Judgment returns the judgment model repository.
func (r *Repository) Judgment() *models.JudgmentModel {
	return r.judgment
}

// Earning returns the earning model repository.
func (r *Repository) Earning() *models.EarningModel {
	return r.earning
}

// Credit returns the credit ledger model repository.
func (r *Repository) Credit() *models.CreditModel {
	return r.credit
}

// Reputation returns the reputation model repository.
func (r *Repository) Reputation() *models.ReputationModel {
	return r.reputation
}

// Qualification returns the judge qualification model repository.
func (r *Repository) Qualification() *models.QualificationModel {
	return r.qualification
}

// Activity returns the audit log model repository.
func (r *Repository) Activity() *models.ActivityModel {
	return r.activity
}
