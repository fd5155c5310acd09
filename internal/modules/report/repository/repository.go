package repository

import (
	"context"
	"time"

	"anoa.com/localswap/internal/entity"
	"gorm.io/gorm"
)

type ReportRepository interface {
	// CreateUnlessRecent stores report unless the same reporter already
	// reported the same user at or after since. created is false in that case.
	CreateUnlessRecent(ctx context.Context, report *entity.Report, since time.Time) (created bool, err error)
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) CreateUnlessRecent(ctx context.Context, report *entity.Report, since time.Time) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// serialises concurrent reports for the same pair until commit
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))",
			report.ReporterID.String()+":"+report.ReportedUserID.String()).Error; err != nil {
			return err
		}

		var recent int64
		if err := tx.Model(&entity.Report{}).
			Where("reporter_id = ? AND reported_user_id = ? AND created_at >= ?", report.ReporterID, report.ReportedUserID, since).
			Count(&recent).Error; err != nil {
			return err
		}
		if recent > 0 {
			return nil
		}

		if err := tx.Create(report).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}
