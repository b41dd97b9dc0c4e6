package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/mfapi"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/model"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/repository"
)

// refreshTimeout bounds one scheduled refresh of all funds.
const refreshTimeout = 5 * time.Minute

// NAVService stores the latest NAV of every known fund, on demand or on a cron schedule.
type NAVService struct {
	repo   *repository.MutualFundRepository
	client mfapi.Client
	logger logrus.FieldLogger
	cron   *cron.Cron
}

// NewNAVService creates a new NAVService.
func NewNAVService(repo *repository.MutualFundRepository, client mfapi.Client, logger logrus.FieldLogger) *NAVService {
	return &NAVService{
		repo:   repo,
		client: client,
		logger: logger,
	}
}

// RefreshResult reports the outcome of one refresh.
type RefreshResult struct {
	Updated int      `json:"updated"`
	Failed  []string `json:"failed,omitempty"`
}

// RefreshAll fetches the latest NAV of every fund and stores it. A fund whose lookup fails is
// listed in Failed and does not stop the others.
func (s *NAVService) RefreshAll(ctx context.Context) (RefreshResult, error) {
	funds, err := s.repo.GetFunds(ctx)
	if err != nil {
		return RefreshResult{}, err
	}

	var result RefreshResult
	for _, f := range funds {
		quote, err := s.client.LatestNAV(ctx, f.SchemeCode)
		if err != nil {
			s.logger.WithError(err).WithField("schemeCode", f.SchemeCode).Warn("nav refresh failed")
			result.Failed = append(result.Failed, f.SchemeCode)
			continue
		}
		if err := s.repo.UpsertNAV(ctx, model.NAV{FundID: f.ID, Date: quote.Date, Price: quote.NAV}); err != nil {
			return result, err
		}
		result.Updated++
	}

	s.logger.WithFields(logrus.Fields{
		"updated": result.Updated,
		"failed":  len(result.Failed),
	}).Info("nav refresh finished")
	return result, nil
}

// Start schedules RefreshAll with a standard five field cron spec. An empty spec or "off" does nothing.
func (s *NAVService) Start(spec string) error {
	if spec == "" || spec == "off" {
		return nil
	}

	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(s.logger))),
	)
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if _, err := s.RefreshAll(ctx); err != nil {
			s.logger.WithError(err).Error("scheduled nav refresh failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid NAV refresh schedule %q: %w", spec, err)
	}

	s.cron = c
	c.Start()
	s.logger.WithField("schedule", spec).Info("nav refresh scheduled")
	return nil
}

// Stop stops the scheduler and waits for a running refresh to finish.
func (s *NAVService) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}
