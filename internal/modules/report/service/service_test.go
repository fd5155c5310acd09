package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"anoa.com/localswap/internal/entity"
	reportDto "anoa.com/localswap/internal/modules/report/dto"
	"anoa.com/localswap/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeReportRepo struct {
	mu      sync.Mutex
	reports []entity.Report
}

func (f *fakeReportRepo) CreateUnlessRecent(_ context.Context, r *entity.Report, since time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.reports {
		if existing.ReporterID == r.ReporterID && existing.ReportedUserID == r.ReportedUserID && !existing.CreatedAt.Before(since) {
			return false, nil
		}
	}
	r.ID = uuid.New()
	f.reports = append(f.reports, *r)
	return true, nil
}

type fakeUsers map[uuid.UUID]*entity.User

func (f fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, eventType, _ string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type fixture struct {
	reporter, reported uuid.UUID
	clock              time.Time
	repo               *fakeReportRepo
	publisher          *recordingPublisher
	svc                *service
}

func newFixture() *fixture {
	f := &fixture{
		reporter:  uuid.New(),
		reported:  uuid.New(),
		clock:     time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		repo:      &fakeReportRepo{},
		publisher: &recordingPublisher{},
	}
	users := fakeUsers{
		f.reporter: {ID: f.reporter, Status: entity.UserStatusActive},
		f.reported: {ID: f.reported, Status: entity.UserStatusActive},
	}
	f.svc = NewService(f.repo, users, f.publisher, zap.NewNop()).(*service)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

// report stamps CreatedAt from the fixture clock, as autoCreateTime would.
func (f *fixture) report(req reportDto.CreateReportRequest) (*reportDto.CreateReportResponse, error) {
	res, err := f.svc.CreateReport(context.Background(), f.reporter, req)
	if err == nil {
		f.repo.mu.Lock()
		f.repo.reports[len(f.repo.reports)-1].CreatedAt = f.clock
		f.repo.mu.Unlock()
	}
	return res, err
}

func noShow(userID uuid.UUID) reportDto.CreateReportRequest {
	return reportDto.CreateReportRequest{
		ReportedUserID: userID,
		Reason:         "no_show",
		Description:    "  Never showed up at the library steps.  ",
	}
}

func TestCreateReport(t *testing.T) {
	f := newFixture()
	listingID := uuid.New()
	req := noShow(f.reported)
	req.ReportedListingID = &listingID

	res, err := f.report(req)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, res.ReportID)
	assert.Equal(t, submittedMessage, res.Message)
	require.Len(t, f.repo.reports, 1)
	stored := f.repo.reports[0]
	assert.Equal(t, "Never showed up at the library steps.", stored.Description)
	assert.Equal(t, entity.ReportPending, stored.Status)
	assert.Equal(t, &listingID, stored.ReportedListingID)
	assert.NotNil(t, stored.EvidenceURLs)
	assert.Equal(t, []string{"user.reported"}, f.publisher.events)
}

func TestCreateReport_Self(t *testing.T) {
	f := newFixture()

	_, err := f.report(noShow(f.reporter))

	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	assert.Empty(t, f.repo.reports)
}

func TestCreateReport_UnknownUser(t *testing.T) {
	f := newFixture()

	_, err := f.report(noShow(uuid.New()))

	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCreateReport_OncePerDayPerPair(t *testing.T) {
	f := newFixture()

	_, err := f.report(noShow(f.reported))
	require.NoError(t, err)

	f.clock = f.clock.Add(23 * time.Hour)
	_, err = f.report(noShow(f.reported))
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	assert.Len(t, f.repo.reports, 1)

	f.clock = f.clock.Add(2 * time.Hour)
	_, err = f.report(noShow(f.reported))
	require.NoError(t, err)
	assert.Len(t, f.repo.reports, 2)
	assert.Len(t, f.publisher.events, 2)
}

func TestCreateReport_Validation(t *testing.T) {
	f := newFixture()

	req := noShow(f.reported)
	req.Reason = "rude"
	_, err := f.report(req)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	req = noShow(f.reported)
	req.Description = "   too short  "
	_, err = f.report(req)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	assert.Empty(t, f.repo.reports)
}
