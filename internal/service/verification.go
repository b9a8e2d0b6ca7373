package service

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fraudcheck/cli/internal/models"
	"github.com/fraudcheck/cli/internal/operation"
	"github.com/fraudcheck/cli/internal/utils"
)

// DefaultHistorySize bounds the locally kept verification history
const DefaultHistorySize = 50

// VerificationService submits messages for scoring and keeps the recent
// verdicts in memory
type VerificationService struct {
	client      Transport
	log         logrus.FieldLogger
	historySize int

	mu     sync.Mutex
	recent []models.VerificationResult

	verify  *operation.Tracker[models.VerificationResult]
	lookup  *operation.Tracker[models.VerificationResult]
	history *operation.Tracker[[]models.VerificationResult]
	stats   *operation.Tracker[models.VerificationStats]
}

// NewVerificationService creates the verification adapter. A non-positive
// historySize falls back to DefaultHistorySize.
func NewVerificationService(client Transport, historySize int, log logrus.FieldLogger) *VerificationService {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &VerificationService{
		client:      client,
		log:         log.WithField("component", "verification"),
		historySize: historySize,
		verify:      operation.New[models.VerificationResult](operation.KindVerify),
		lookup:      operation.New[models.VerificationResult](operation.KindLookup),
		history:     operation.New[[]models.VerificationResult](operation.KindHistory),
		stats:       operation.New[models.VerificationStats](operation.KindStats),
	}
}

// Verify submits one message for scoring
func (s *VerificationService) Verify(ctx context.Context, req models.VerificationRequest) (*models.VerificationResult, error) {
	result, err := operation.Run(ctx, s.verify, func(ctx context.Context) (models.VerificationResult, error) {
		if err := utils.ValidateStruct(req); err != nil {
			return models.VerificationResult{}, err
		}

		var result models.VerificationResult
		if err := s.client.Post(ctx, "/verify", req, &result); err != nil {
			return models.VerificationResult{}, err
		}
		if err := checkResponse("verification", result); err != nil {
			return models.VerificationResult{}, err
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}

	s.remember(result)
	s.log.WithFields(logrus.Fields{"id": result.ID, "risk": result.RiskLevel}).Debug("message verified")
	return &result, nil
}

// Get fetches a past verification by id
func (s *VerificationService) Get(ctx context.Context, id string) (*models.VerificationResult, error) {
	result, err := operation.Run(ctx, s.lookup, func(ctx context.Context) (models.VerificationResult, error) {
		parsed, err := parseID(id)
		if err != nil {
			return models.VerificationResult{}, err
		}

		var result models.VerificationResult
		if err := s.client.Get(ctx, "/verify/"+parsed.String(), nil, &result); err != nil {
			return models.VerificationResult{}, err
		}
		if err := checkResponse("verification", result); err != nil {
			return models.VerificationResult{}, err
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}

	s.remember(result)
	return &result, nil
}

// History fetches one page of past verifications, most recent first.
// A zero limit means the default page size.
func (s *VerificationService) History(ctx context.Context, limit, offset int) ([]models.VerificationResult, error) {
	results, err := operation.Run(ctx, s.history, func(ctx context.Context) ([]models.VerificationResult, error) {
		query, err := pageQuery(limit, offset)
		if err != nil {
			return nil, err
		}

		var page models.VerificationHistory
		if err := s.client.Get(ctx, "/verify/history", query, &page); err != nil {
			return nil, err
		}
		for _, v := range page.Verifications {
			if err := checkResponse("verification", v); err != nil {
				return nil, err
			}
		}
		if page.Verifications == nil {
			page.Verifications = []models.VerificationResult{}
		}
		return page.Verifications, nil
	})
	if err != nil {
		return nil, err
	}

	s.remember(results...)
	return results, nil
}

// Stats fetches the user's aggregate counters
func (s *VerificationService) Stats(ctx context.Context) (*models.VerificationStats, error) {
	stats, err := operation.Run(ctx, s.stats, func(ctx context.Context) (models.VerificationStats, error) {
		var stats models.VerificationStats
		err := s.client.Get(ctx, "/verify/stats", nil, &stats)
		return stats, err
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// ClearCurrent forgets the last verdict shown to the user
func (s *VerificationService) ClearCurrent() {
	s.verify.ClearResult()
}

// Recent returns the locally kept history, most recent first
func (s *VerificationService) Recent() []models.VerificationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.VerificationResult(nil), s.recent...)
}

// remember merges results into the bounded history. A result already
// present is replaced, not duplicated.
func (s *VerificationService) remember(results ...models.VerificationResult) {
	if len(results) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[uuid.UUID]bool, len(results)+len(s.recent))
	merged := make([]models.VerificationResult, 0, len(results)+len(s.recent))
	for _, batch := range [][]models.VerificationResult{results, s.recent} {
		for _, r := range batch {
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			merged = append(merged, r)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].VerifiedAt.After(merged[j].VerifiedAt)
	})
	if len(merged) > s.historySize {
		merged = merged[:s.historySize]
	}
	s.recent = merged
}

// VerifyState exposes the verify tracker
func (s *VerificationService) VerifyState() *operation.Tracker[models.VerificationResult] {
	return s.verify
}

// LookupState exposes the single-verification tracker
func (s *VerificationService) LookupState() *operation.Tracker[models.VerificationResult] {
	return s.lookup
}

// HistoryState exposes the history tracker
func (s *VerificationService) HistoryState() *operation.Tracker[[]models.VerificationResult] {
	return s.history
}

// StatsState exposes the stats tracker
func (s *VerificationService) StatsState() *operation.Tracker[models.VerificationStats] {
	return s.stats
}
