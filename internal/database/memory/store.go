// Package memory provides an in-process implementation of every model
// operation. It backs local runs without PostgreSQL and the service tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robalyx/verdict/internal/database/types"
	"github.com/robalyx/verdict/internal/database/types/enum"
)

// Store keeps all records in maps guarded by one lock so that every method
// behaves like a single atomic statement.
type Store struct {
	mu sync.RWMutex

	requests       map[uuid.UUID]types.Request
	judgments      map[uuid.UUID]types.Judgment
	earnings       map[uuid.UUID]types.Earning
	transactions   map[string]types.CreditTransaction
	balances       map[uuid.UUID]int64
	reputations    map[uuid.UUID]types.ReviewerReputation
	history        []types.ReputationHistory
	ratings        []types.JudgmentRating
	qualifications map[uuid.UUID]types.JudgeQualification
	activity       map[uuid.UUID]types.ActivityLog
	now            func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		requests:       make(map[uuid.UUID]types.Request),
		judgments:      make(map[uuid.UUID]types.Judgment),
		earnings:       make(map[uuid.UUID]types.Earning),
		transactions:   make(map[string]types.CreditTransaction),
		balances:       make(map[uuid.UUID]int64),
		reputations:    make(map[uuid.UUID]types.ReviewerReputation),
		qualifications: make(map[uuid.UUID]types.JudgeQualification),
		activity:       make(map[uuid.UUID]types.ActivityLog),
		now:            time.Now,
	}
}

// tick returns a strictly increasing timestamp so ordering by creation time
// is stable even within one clock tick.
func (s *Store) tick(last time.Time) time.Time {
	now := s.now()
	if !now.After(last) {
		now = last.Add(time.Microsecond)
	}
	return now
}

// Requests

func (s *Store) CreateRequest(_ context.Context, req *types.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[req.ID]; exists {
		return types.ErrRequestNotWritable
	}
	now := s.now()
	req.CreatedAt, req.UpdatedAt = now, now
	s.requests[req.ID] = cloneRequest(*req)
	return nil
}

func (s *Store) GetRequest(_ context.Context, requestID uuid.UUID) (*types.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[requestID]
	if !ok {
		return nil, types.ErrRequestNotFound
	}
	out := cloneRequest(req)
	return &out, nil
}

func (s *Store) IncrementVerdicts(_ context.Context, requestID uuid.UUID) (*types.RequestProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[requestID]
	if !ok || !req.Status.AcceptsVerdicts() {
		return nil, types.ErrRequestNotWritable
	}

	now := s.now()
	req.ReceivedVerdictCount++
	if req.ReceivedVerdictCount >= req.TargetVerdictCount {
		req.Status = enum.RequestStatusClosed
		req.ClosedAt = &now
	} else {
		req.Status = enum.RequestStatusInProgress
	}
	req.UpdatedAt = now
	s.requests[requestID] = req

	return req.Progress(), nil
}

func (s *Store) SetWinningOption(_ context.Context, requestID uuid.UUID, option string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[requestID]
	if !ok || req.WinningOption != nil || req.Status != enum.RequestStatusClosed {
		return false, nil
	}
	req.WinningOption = &option
	req.UpdatedAt = s.now()
	s.requests[requestID] = req
	return true, nil
}

func (s *Store) SetVerdictCount(_ context.Context, requestID uuid.UUID, count int) (*types.RequestProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[requestID]
	if !ok {
		return nil, types.ErrRequestNotFound
	}

	now := s.now()
	req.ReceivedVerdictCount = count
	if req.Status.AcceptsVerdicts() {
		switch {
		case count >= req.TargetVerdictCount:
			req.Status = enum.RequestStatusClosed
			req.ClosedAt = &now
		case count > 0:
			req.Status = enum.RequestStatusInProgress
		default:
			req.Status = enum.RequestStatusOpen
		}
	}
	req.UpdatedAt = now
	s.requests[requestID] = req

	return req.Progress(), nil
}

func (s *Store) CancelRequest(_ context.Context, requestID uuid.UUID, reason string) (*types.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[requestID]
	if !ok || !req.Status.Cancellable() {
		return nil, types.ErrRequestNotWritable
	}

	now := s.now()
	req.Status = enum.RequestStatusCancelled
	req.CancelReason = reason
	req.CancelledAt = &now
	req.UpdatedAt = now
	s.requests[requestID] = req

	out := cloneRequest(req)
	return &out, nil
}

func (s *Store) MarkRefundPending(_ context.Context, requestID uuid.UUID, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[requestID]
	if !ok {
		return types.ErrRequestNotFound
	}
	req.RefundPending = true
	req.RefundAmount = amount
	req.UpdatedAt = s.now()
	s.requests[requestID] = req
	return nil
}

func (s *Store) ClearRefundPending(_ context.Context, requestID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[requestID]
	if !ok {
		return types.ErrRequestNotFound
	}
	req.RefundPending = false
	req.UpdatedAt = s.now()
	s.requests[requestID] = req
	return nil
}

func (s *Store) ListRefundPending(_ context.Context, limit int) ([]*types.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*types.Request
	for _, req := range s.requests {
		if req.RefundPending && req.Status == enum.RequestStatusCancelled {
			r := cloneRequest(req)
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Judgments

func (s *Store) CreateJudgment(_ context.Context, judgment *types.Judgment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.judgments {
		if existing.RequestID == judgment.RequestID && existing.JudgeID == judgment.JudgeID {
			return types.ErrJudgmentExists
		}
	}

	judgment.CreatedAt = s.tick(s.latestJudgment())
	s.judgments[judgment.ID] = *judgment
	return nil
}

func (s *Store) latestJudgment() time.Time {
	var latest time.Time
	for _, j := range s.judgments {
		if j.CreatedAt.After(latest) {
			latest = j.CreatedAt
		}
	}
	return latest
}

func (s *Store) GetJudgment(_ context.Context, judgmentID uuid.UUID) (*types.Judgment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	judgment, ok := s.judgments[judgmentID]
	if !ok {
		return nil, types.ErrJudgmentNotFound
	}
	return &judgment, nil
}

func (s *Store) HasJudged(_ context.Context, requestID, judgeID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, j := range s.judgments {
		if j.RequestID == requestID && j.JudgeID == judgeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CountActive(_ context.Context, requestID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, j := range s.judgments {
		if j.RequestID == requestID && !j.IsRemoved {
			count++
		}
	}
	return count, nil
}

func (s *Store) CountByJudge(_ context.Context, judgeID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, j := range s.judgments {
		if j.JudgeID == judgeID && !j.IsRemoved {
			count++
		}
	}
	return count, nil
}

func (s *Store) TallyChoices(_ context.Context, requestID uuid.UUID) ([]types.ChoiceTally, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byChoice := make(map[string]*types.ChoiceTally)
	for _, j := range s.judgments {
		if j.RequestID != requestID || j.IsRemoved || j.Choice == nil {
			continue
		}
		tally, ok := byChoice[*j.Choice]
		if !ok {
			tally = &types.ChoiceTally{Choice: *j.Choice, FirstChosenAt: j.CreatedAt}
			byChoice[*j.Choice] = tally
		}
		tally.Votes++
		if j.CreatedAt.Before(tally.FirstChosenAt) {
			tally.FirstChosenAt = j.CreatedAt
		}
	}

	out := make([]types.ChoiceTally, 0, len(byChoice))
	for _, tally := range byChoice {
		out = append(out, *tally)
	}
	return out, nil
}

func (s *Store) ListPeerVerdicts(_ context.Context, judgeID uuid.UUID) ([]*types.Judgment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	requests := make(map[uuid.UUID]struct{})
	for _, j := range s.judgments {
		if j.JudgeID == judgeID && !j.IsRemoved && j.Rating != nil {
			requests[j.RequestID] = struct{}{}
		}
	}

	var out []*types.Judgment
	for _, j := range s.judgments {
		if _, ok := requests[j.RequestID]; ok && !j.IsRemoved && j.Rating != nil {
			judgment := j
			out = append(out, &judgment)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.Before(out[k].CreatedAt) })
	return out, nil
}

func (s *Store) RemoveJudgment(_ context.Context, judgmentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.judgments[judgmentID]
	if !ok {
		return types.ErrJudgmentNotFound
	}
	j.IsRemoved = true
	s.judgments[judgmentID] = j
	return nil
}

// Earnings

func (s *Store) CreateEarning(_ context.Context, earning *types.Earning) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	earning.CreatedAt, earning.UpdatedAt = now, now
	s.earnings[earning.ID] = *earning
	return nil
}

func (s *Store) ReclaimEarning(
	_ context.Context, judgeID, requestID, placeholder uuid.UUID, amount int64,
) (*types.Earning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found *types.Earning
	for _, e := range s.earnings {
		if e.JudgeID == judgeID && e.RequestID == requestID && e.PayoutStatus == enum.PayoutStatusNeedsReview {
			if found == nil || e.CreatedAt.Before(found.CreatedAt) {
				earning := e
				found = &earning
			}
		}
	}
	if found == nil {
		return nil, types.ErrEarningNotFound
	}

	found.PayoutStatus = enum.PayoutStatusPending
	found.JudgmentID = placeholder
	found.Amount = amount
	found.Notes = ""
	found.UpdatedAt = s.now()
	s.earnings[found.ID] = *found
	return found, nil
}

func (s *Store) MarkNeedsReview(_ context.Context, earningID uuid.UUID, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.earnings[earningID]
	if !ok {
		return types.ErrEarningNotFound
	}
	e.PayoutStatus = enum.PayoutStatusNeedsReview
	e.Notes = note
	e.UpdatedAt = s.now()
	s.earnings[earningID] = e
	return nil
}

func (s *Store) RekeyEarning(_ context.Context, earningID, judgmentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.earnings[earningID]
	if !ok {
		return types.ErrEarningNotFound
	}
	e.JudgmentID = judgmentID
	e.UpdatedAt = s.now()
	s.earnings[earningID] = e
	return nil
}

// Earnings returns a snapshot of every earning.
func (s *Store) Earnings() []types.Earning {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Earning, 0, len(s.earnings))
	for _, e := range s.earnings {
		out = append(out, e)
	}
	return out
}

// Judgments returns a snapshot of every judgment.
func (s *Store) Judgments() []types.Judgment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Judgment, 0, len(s.judgments))
	for _, j := range s.judgments {
		out = append(out, j)
	}
	return out
}

// Credits

func (s *Store) ApplyTransaction(_ context.Context, entry *types.CreditTransaction) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entry.Type.String() + "|" + entry.Source + "|" + entry.SourceID
	if _, exists := s.transactions[key]; exists {
		return 0, types.ErrDuplicateTransaction
	}

	balance := s.balances[entry.UserID] + entry.Amount
	if entry.Amount < 0 && balance < 0 {
		return 0, types.ErrInsufficientCredits
	}

	entry.CreatedAt = s.now()
	s.transactions[key] = *entry
	s.balances[entry.UserID] = balance
	return balance, nil
}

func (s *Store) GetBalance(_ context.Context, userID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.balances[userID], nil
}

// Transactions returns every ledger entry of a user.
func (s *Store) Transactions(userID uuid.UUID) []types.CreditTransaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.CreditTransaction
	for _, tx := range s.transactions {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out
}

// Reputation

func (s *Store) GetReputation(_ context.Context, judgeID uuid.UUID) (*types.ReviewerReputation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rep, ok := s.reputations[judgeID]
	if !ok {
		return nil, types.ErrReputationNotFound
	}
	return &rep, nil
}

func (s *Store) SaveReputation(_ context.Context, rep *types.ReviewerReputation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reputations[rep.JudgeID] = *rep
	return nil
}

func (s *Store) AppendHistory(_ context.Context, entry *types.ReputationHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = int64(len(s.history) + 1)
	entry.CreatedAt = s.now()
	s.history = append(s.history, *entry)
	return nil
}

func (s *Store) GetHistory(_ context.Context, judgeID uuid.UUID, limit int) ([]*types.ReputationHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*types.ReputationHistory
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].JudgeID == judgeID {
			entry := s.history[i]
			out = append(out, &entry)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) AddRating(_ context.Context, rating *types.JudgmentRating) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.ratings {
		if r.JudgmentID == rating.JudgmentID && r.RaterID == rating.RaterID && r.Kind == rating.Kind {
			return types.ErrRatingExists
		}
	}

	rating.ID = int64(len(s.ratings) + 1)
	rating.CreatedAt = s.now()
	s.ratings = append(s.ratings, *rating)
	return nil
}

func (s *Store) ListRatingScores(_ context.Context, judgeID uuid.UUID, kind enum.RatingKind) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var scores []float64
	for _, r := range s.ratings {
		if r.JudgeID == judgeID && r.Kind == kind {
			scores = append(scores, r.Score)
		}
	}
	return scores, nil
}

// Qualifications

func (s *Store) IsQualified(_ context.Context, judgeID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.qualifications[judgeID]
	return ok && q.Active(), nil
}

func (s *Store) Qualify(_ context.Context, judgeID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.qualifications[judgeID] = types.JudgeQualification{JudgeID: judgeID, QualifiedAt: s.now()}
	return nil
}

func (s *Store) Revoke(_ context.Context, judgeID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.qualifications[judgeID]
	if !ok {
		return nil
	}
	now := s.now()
	q.RevokedAt = &now
	s.qualifications[judgeID] = q
	return nil
}

// Activity

func (s *Store) RecordActivity(_ context.Context, log *types.ActivityLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.activity[log.EventID]; exists {
		return nil
	}
	log.ID = int64(len(s.activity) + 1)
	log.CreatedAt = s.now()
	s.activity[log.EventID] = *log
	return nil
}

func (s *Store) GetRequestActivity(_ context.Context, requestID uuid.UUID, limit int) ([]*types.ActivityLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*types.ActivityLog
	for _, log := range s.activity {
		if log.RequestID == requestID {
			entry := log
			out = append(out, &entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneRequest(req types.Request) types.Request {
	req.Options = slices.Clone(req.Options)
	return req
}
