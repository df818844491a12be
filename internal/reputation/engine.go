package reputation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/robalyx/verdict/internal/apperr"
	"github.com/robalyx/verdict/internal/database/types"
	"github.com/robalyx/verdict/internal/database/types/enum"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Trigger events recorded in the reputation history.
const (
	TriggerJudgmentSubmitted = "judgment_submitted"
	TriggerHelpfulnessRating = "helpfulness_rating"
	TriggerRecalculated      = "manual_recalculation"
)

// SystemRaterID rates judgments automatically from their feedback text.
var SystemRaterID = uuid.Nil

// Store persists reputation records, history and ratings.
type Store interface {
	GetReputation(ctx context.Context, judgeID uuid.UUID) (*types.ReviewerReputation, error)
	SaveReputation(ctx context.Context, rep *types.ReviewerReputation) error
	AppendHistory(ctx context.Context, entry *types.ReputationHistory) error
	AddRating(ctx context.Context, rating *types.JudgmentRating) error
	ListRatingScores(ctx context.Context, judgeID uuid.UUID, kind enum.RatingKind) ([]float64, error)
}

// JudgmentReader reads the judgments reputation is derived from.
type JudgmentReader interface {
	GetJudgment(ctx context.Context, judgmentID uuid.UUID) (*types.Judgment, error)
	ListPeerVerdicts(ctx context.Context, judgeID uuid.UUID) ([]*types.Judgment, error)
	CountByJudge(ctx context.Context, judgeID uuid.UUID) (int, error)
}

// RequestReader reads request ownership.
type RequestReader interface {
	GetRequest(ctx context.Context, requestID uuid.UUID) (*types.Request, error)
}

// Engine computes and persists reviewer reputation.
type Engine struct {
	store      Store
	judgments  JudgmentReader
	requests   RequestReader
	thresholds Thresholds
	group      singleflight.Group
	logger     *zap.Logger
}

// NewEngine creates an Engine.
func NewEngine(
	store Store, judgments JudgmentReader, requests RequestReader, thresholds Thresholds, logger *zap.Logger,
) *Engine {
	return &Engine{
		store:      store,
		judgments:  judgments,
		requests:   requests,
		thresholds: thresholds,
		logger:     logger.Named("reputation_engine"),
	}
}

// GetReviewerReputation returns the persisted reputation of a judge, or the
// defaults for a judge that has none yet.
func (e *Engine) GetReviewerReputation(ctx context.Context, judgeID uuid.UUID) (*types.ReviewerReputation, error) {
	rep, err := e.store.GetReputation(ctx, judgeID)
	if errors.Is(err, types.ErrReputationNotFound) {
		return defaultReputation(judgeID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reputation: %w", err)
	}
	return rep, nil
}

// CanEarnCredits reports whether the judge's status allows credit awards.
func (e *Engine) CanEarnCredits(ctx context.Context, judgeID uuid.UUID) (bool, error) {
	rep, err := e.GetReviewerReputation(ctx, judgeID)
	if err != nil {
		return false, err
	}
	return rep.ReviewerStatus == enum.ReviewerStatusActive, nil
}

// RecordQualityRating stores the automatic quality rating of a judgment.
// Recording the same judgment twice is a no-op.
func (e *Engine) RecordQualityRating(
	ctx context.Context, judgmentID, judgeID uuid.UUID, feedback string,
) (QualityAnalysis, error) {
	analysis := AnalyzeResponseQuality(feedback)

	err := e.store.AddRating(ctx, &types.JudgmentRating{
		JudgmentID: judgmentID,
		JudgeID:    judgeID,
		RaterID:    SystemRaterID,
		Kind:       enum.RatingKindQuality,
		Score:      analysis.Rating(),
	})
	if err != nil && !errors.Is(err, types.ErrRatingExists) {
		return analysis, fmt.Errorf("failed to record quality rating: %w", err)
	}

	return analysis, nil
}

// RateJudgment records the requester's helpfulness rating of a judgment and
// refreshes the judge's reputation.
func (e *Engine) RateJudgment(
	ctx context.Context, judgmentID, raterID uuid.UUID, helpfulness int,
) (*types.ReviewerReputation, error) {
	const op = "reputation.rate"

	if helpfulness < 1 || helpfulness > 5 {
		return nil, apperr.Validation(op, "helpfulness must be between 1 and 5")
	}

	judgment, err := e.judgments.GetJudgment(ctx, judgmentID)
	if err != nil {
		if errors.Is(err, types.ErrJudgmentNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, op, "judgment not found", err)
		}
		return nil, err
	}
	if judgment.IsRemoved {
		return nil, apperr.Conflict(op, "judgment was removed")
	}

	req, err := e.requests.GetRequest(ctx, judgment.RequestID)
	if err != nil {
		if errors.Is(err, types.ErrRequestNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, op, "request not found", err)
		}
		return nil, err
	}
	if req.OwnerID != raterID {
		return nil, apperr.Authorization(op, "only the request owner can rate its judgments")
	}

	err = e.store.AddRating(ctx, &types.JudgmentRating{
		JudgmentID: judgmentID,
		JudgeID:    judgment.JudgeID,
		RaterID:    raterID,
		Kind:       enum.RatingKindHelpfulness,
		Score:      float64(helpfulness),
	})
	if errors.Is(err, types.ErrRatingExists) {
		return nil, apperr.Wrap(apperr.KindConflict, op, "judgment already rated", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record helpfulness rating: %w", err)
	}

	return e.UpdateReviewerReputation(ctx, judgment.JudgeID, TriggerHelpfulnessRating)
}

// UpdateReviewerReputation recomputes and persists a judge's reputation.
// Concurrent updates for the same judge share one computation. A caller that
// joined a computation already in flight recomputes once more after it, since
// the shared result may predate the caller's own rating write.
func (e *Engine) UpdateReviewerReputation(
	ctx context.Context, judgeID uuid.UUID, trigger string,
) (*types.ReviewerReputation, error) {
	result, err, shared := e.group.Do(judgeID.String(), func() (any, error) {
		return e.update(ctx, judgeID, trigger)
	})
	if shared {
		e.logger.Debug("Joined reputation update in flight, recomputing",
			zap.String("judgeID", judgeID.String()))
		return e.update(ctx, judgeID, trigger)
	}
	if err != nil {
		return nil, err
	}

	rep := *result.(*types.ReviewerReputation)
	return &rep, nil
}

func (e *Engine) update(ctx context.Context, judgeID uuid.UUID, trigger string) (*types.ReviewerReputation, error) {
	var (
		peers        []*types.Judgment
		helpfulness  []float64
		quality      []float64
		totalReviews int
		previous     *types.ReviewerReputation
	)

	p := pool.New().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		var err error
		peers, err = e.judgments.ListPeerVerdicts(ctx, judgeID)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		helpfulness, err = e.store.ListRatingScores(ctx, judgeID, enum.RatingKindHelpfulness)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		quality, err = e.store.ListRatingScores(ctx, judgeID, enum.RatingKindQuality)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		totalReviews, err = e.judgments.CountByJudge(ctx, judgeID)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		previous, err = e.GetReviewerReputation(ctx, judgeID)
		return err
	})
	if err := p.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load reputation inputs: %w", err)
	}

	consensus := ConsensusRate(judgeID, peers)
	helpAvg := RecencyWeightedAverage(helpfulness, DefaultAverage)
	qualityAvg := RecencyWeightedAverage(quality, DefaultAverage)
	score := Score(helpAvg, consensus, qualityAvg)

	rep := &types.ReviewerReputation{
		JudgeID:            judgeID,
		ReputationScore:    score,
		ReviewerStatus:     e.thresholds.Status(score, totalReviews),
		TotalReviews:       totalReviews,
		ConsensusRate:      consensus,
		HelpfulnessAverage: helpAvg,
		QualityAverage:     qualityAvg,
		LastCalibration:    previous.LastCalibration,
		UpdatedAt:          time.Now(),
	}

	if err := e.store.SaveReputation(ctx, rep); err != nil {
		return nil, fmt.Errorf("failed to save reputation: %w", err)
	}

	if math.Abs(rep.ReputationScore-previous.ReputationScore) > e.thresholds.HistoryDelta ||
		rep.ReviewerStatus != previous.ReviewerStatus {
		err := e.store.AppendHistory(ctx, &types.ReputationHistory{
			JudgeID:      judgeID,
			OldScore:     previous.ReputationScore,
			NewScore:     rep.ReputationScore,
			OldStatus:    previous.ReviewerStatus,
			NewStatus:    rep.ReviewerStatus,
			TriggerEvent: trigger,
		})
		if err != nil {
			e.logger.Warn("Failed to append reputation history",
				zap.Error(err),
				zap.String("judgeID", judgeID.String()))
		}
	}

	if rep.ReviewerStatus != previous.ReviewerStatus {
		e.logger.Info("Reviewer status changed",
			zap.String("judgeID", judgeID.String()),
			zap.String("from", previous.ReviewerStatus.String()),
			zap.String("to", rep.ReviewerStatus.String()),
			zap.Float64("score", rep.ReputationScore))
	}

	return rep, nil
}

func defaultReputation(judgeID uuid.UUID) *types.ReviewerReputation {
	return &types.ReviewerReputation{
		JudgeID:            judgeID,
		ReputationScore:    Score(DefaultAverage, DefaultConsensusRate, DefaultAverage),
		ReviewerStatus:     enum.ReviewerStatusActive,
		ConsensusRate:      DefaultConsensusRate,
		HelpfulnessAverage: DefaultAverage,
		QualityAverage:     DefaultAverage,
	}
}
