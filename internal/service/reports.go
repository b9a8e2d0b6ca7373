package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/fraudcheck/cli/internal/models"
	"github.com/fraudcheck/cli/internal/operation"
	"github.com/fraudcheck/cli/internal/utils"
)

// ReportService files fraud reports and feedback on verdicts
type ReportService struct {
	client Transport
	log    logrus.FieldLogger

	submit *operation.Tracker[models.Report]
	get    *operation.Tracker[models.Report]
	list   *operation.Tracker[[]models.Report]
	stats  *operation.Tracker[models.ReportStats]
}

// NewReportService creates the reports adapter
func NewReportService(client Transport, log logrus.FieldLogger) *ReportService {
	return &ReportService{
		client: client,
		log:    log.WithField("component", "reports"),
		submit: operation.New[models.Report](operation.KindReportSubmit),
		get:    operation.New[models.Report](operation.KindReportGet),
		list:   operation.New[[]models.Report](operation.KindReportList),
		stats:  operation.New[models.ReportStats](operation.KindReportStats),
	}
}

// Submit files a report
func (s *ReportService) Submit(ctx context.Context, in models.ReportInput) (*models.Report, error) {
	report, err := operation.Run(ctx, s.submit, func(ctx context.Context) (models.Report, error) {
		if err := utils.ValidateStruct(in); err != nil {
			return models.Report{}, err
		}

		var report models.Report
		err := s.client.Post(ctx, "/reports", in, &report)
		return report, err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"id": report.ID, "type": report.ReportType}).Debug("report filed")
	return &report, nil
}

// Get fetches one of the user's reports
func (s *ReportService) Get(ctx context.Context, id string) (*models.Report, error) {
	report, err := operation.Run(ctx, s.get, func(ctx context.Context) (models.Report, error) {
		parsed, err := parseID(id)
		if err != nil {
			return models.Report{}, err
		}

		var report models.Report
		err = s.client.Get(ctx, "/reports/"+parsed.String(), nil, &report)
		return report, err
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// List fetches one page of the user's reports, newest first
func (s *ReportService) List(ctx context.Context, limit, offset int) ([]models.Report, error) {
	return operation.Run(ctx, s.list, func(ctx context.Context) ([]models.Report, error) {
		query, err := pageQuery(limit, offset)
		if err != nil {
			return nil, err
		}

		var page models.ReportList
		if err := s.client.Get(ctx, "/reports", query, &page); err != nil {
			return nil, err
		}
		if page.Reports == nil {
			page.Reports = []models.Report{}
		}
		return page.Reports, nil
	})
}

// Stats fetches aggregate report counters
func (s *ReportService) Stats(ctx context.Context) (*models.ReportStats, error) {
	stats, err := operation.Run(ctx, s.stats, func(ctx context.Context) (models.ReportStats, error) {
		var stats models.ReportStats
		err := s.client.Get(ctx, "/reports/stats", nil, &stats)
		return stats, err
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// SubmitState exposes the submit tracker
func (s *ReportService) SubmitState() *operation.Tracker[models.Report] {
	return s.submit
}

// GetState exposes the single-report tracker
func (s *ReportService) GetState() *operation.Tracker[models.Report] {
	return s.get
}

// ListState exposes the listing tracker
func (s *ReportService) ListState() *operation.Tracker[[]models.Report] {
	return s.list
}

// StatsState exposes the report stats tracker
func (s *ReportService) StatsState() *operation.Tracker[models.ReportStats] {
	return s.stats
}
