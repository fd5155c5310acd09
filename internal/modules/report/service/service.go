package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"anoa.com/localswap/internal/entity"
	reportDto "anoa.com/localswap/internal/modules/report/dto"
	reportRepo "anoa.com/localswap/internal/modules/report/repository"
	"anoa.com/localswap/pkg/apperror"
	"anoa.com/localswap/pkg/events"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const submittedMessage = "Report submitted. Our team will review within 24 hours."

type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

type Service interface {
	CreateReport(ctx context.Context, reporterID uuid.UUID, req reportDto.CreateReportRequest) (*reportDto.CreateReportResponse, error)
}

type service struct {
	repo      reportRepo.ReportRepository
	users     UserFinder
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(repo reportRepo.ReportRepository, users UserFinder, publisher events.Publisher, logger *zap.Logger) Service {
	return &service{
		repo:      repo,
		users:     users,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *service) CreateReport(ctx context.Context, reporterID uuid.UUID, req reportDto.CreateReportRequest) (*reportDto.CreateReportResponse, error) {
	if req.ReportedUserID == uuid.Nil {
		return nil, fmt.Errorf("user to report is required: %w", apperror.ErrInvalidInput)
	}
	if req.ReportedUserID == reporterID {
		return nil, fmt.Errorf("cannot report yourself: %w", apperror.ErrInvalidInput)
	}

	reason := entity.ReportReason(req.Reason)
	if !reason.IsValid() {
		return nil, fmt.Errorf("unknown report reason %q: %w", req.Reason, apperror.ErrInvalidInput)
	}
	description := strings.TrimSpace(req.Description)
	if n := len([]rune(description)); n < 10 || n > 2000 {
		return nil, fmt.Errorf("description must be between 10 and 2000 characters: %w", apperror.ErrInvalidInput)
	}

	if _, err := s.users.FindByID(ctx, req.ReportedUserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found: %w", apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	evidence := req.EvidenceURLs
	if evidence == nil {
		evidence = []string{}
	}
	report := &entity.Report{
		ReporterID:        reporterID,
		ReportedUserID:    req.ReportedUserID,
		ReportedListingID: req.ReportedListingID,
		OfferID:           req.OfferID,
		Reason:            reason,
		Description:       description,
		EvidenceURLs:      evidence,
		Status:            entity.ReportPending,
	}

	created, err := s.repo.CreateUnlessRecent(ctx, report, s.now().Add(-entity.ReportCooldown))
	if err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	if !created {
		return nil, fmt.Errorf("you have already reported this user recently: %w", apperror.ErrInvalidInput)
	}

	if err := s.publisher.Publish(ctx, events.UserReported, report.ReportedUserID.String(), map[string]any{
		"report_id":        report.ID,
		"reporter_id":      report.ReporterID,
		"reported_user_id": report.ReportedUserID,
		"reason":           report.Reason,
	}); err != nil {
		s.logger.Warn("failed to publish report", zap.String("report_id", report.ID.String()), zap.Error(err))
	}

	return &reportDto.CreateReportResponse{
		ReportID: report.ID,
		Message:  submittedMessage,
	}, nil
}
