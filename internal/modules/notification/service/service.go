package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"anoa.com/localswap/internal/entity"
	"anoa.com/localswap/internal/modules/notification/dto"
	notifRepo "anoa.com/localswap/internal/modules/notification/repository"
	"anoa.com/localswap/pkg/apperror"
	"anoa.com/localswap/pkg/push"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ReasonDisabled = "notification_disabled"

	dueBatchSize = 200
)

type CreateNotificationInput struct {
	UserID           uuid.UUID
	Type             entity.NotificationType
	Title            string
	Body             string
	Metadata         entity.NotificationMetadata
	RelatedOfferID   *uuid.UUID
	RelatedListingID *uuid.UUID
}

type CreateResult struct {
	Created bool      `json:"created"`
	Reason  string    `json:"reason,omitempty"`
	ID      uuid.UUID `json:"id,omitempty"`
	// DeliverAt is set when the notification was held for quiet hours.
	DeliverAt *time.Time `json:"deliver_at,omitempty"`
}

type NotificationService interface {
	GetOrCreateSettings(ctx context.Context, userID uuid.UUID) (*entity.NotificationSettings, error)
	IsEventEnabled(ctx context.Context, userID uuid.UUID, t entity.NotificationType) (bool, error)
	UpdateSettings(ctx context.Context, userID uuid.UUID, req dto.UpdateSettingsRequest) (*entity.NotificationSettings, error)

	CreateNotification(ctx context.Context, in CreateNotificationInput) (*CreateResult, error)
	Notifier

	GetNotifications(ctx context.Context, userID uuid.UUID, query dto.ListNotificationsQuery) (*dto.NotificationPage, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkAsRead(ctx context.Context, userID, id uuid.UUID) error
	MarkManyAsRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error)
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteNotifications(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error)
	DeleteExpiredNotifications(ctx context.Context) (int64, error)
	DeliverDueNotifications(ctx context.Context) (int, error)

	Subscribe(ctx context.Context, userID uuid.UUID, req dto.PushSubscribeRequest) error
	Unsubscribe(ctx context.Context, userID uuid.UUID, endpoint string) error
}

type notificationService struct {
	repo         notifRepo.NotificationRepository
	settingsRepo notifRepo.SettingsRepository
	pushRepo     notifRepo.PushSubscriptionRepository
	pusher       push.Sender
	redisClient  *redis.Client
	pushTimeout  time.Duration
	logger       *zap.Logger

	now     func() time.Time
	goAsync func(func())
}

func NewNotificationService(
	repo notifRepo.NotificationRepository,
	settingsRepo notifRepo.SettingsRepository,
	pushRepo notifRepo.PushSubscriptionRepository,
	pusher push.Sender,
	redisClient *redis.Client,
	pushTimeout time.Duration,
	logger *zap.Logger,
) NotificationService {
	if pushTimeout <= 0 {
		pushTimeout = 10 * time.Second
	}
	return &notificationService{
		repo:         repo,
		settingsRepo: settingsRepo,
		pushRepo:     pushRepo,
		pusher:       pusher,
		redisClient:  redisClient,
		pushTimeout:  pushTimeout,
		logger:       logger,
		now:          time.Now,
		goAsync:      func(fn func()) { go fn() },
	}
}

func (s *notificationService) CreateNotification(ctx context.Context, in CreateNotificationInput) (*CreateResult, error) {
	settings, err := s.GetOrCreateSettings(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	enabled, err := eventEnabled(settings, in.Type)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return &CreateResult{Created: false, Reason: ReasonDisabled}, nil
	}

	now := s.now()

	metadata, err := entity.EncodeNotificationMetadata(in.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode notification metadata: %w", err)
	}

	notification := &entity.Notification{
		UserID:           in.UserID,
		Type:             in.Type,
		Title:            in.Title,
		Body:             in.Body,
		Metadata:         metadata,
		RelatedOfferID:   in.RelatedOfferID,
		RelatedListingID: in.RelatedListingID,
		ExpiresAt:        now.Add(entity.NotificationTTL),
	}

	if IsWithinQuietHours(settings.QuietHours, now) {
		deliverAt, err := NextQuietHoursEnd(settings.QuietHours, now)
		if err != nil {
			return nil, err
		}
		notification.DeliverAt = &deliverAt
	} else {
		notification.PushedAt = &now
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	if notification.DeliverAt == nil {
		s.dispatch(*notification)
	}

	return &CreateResult{Created: true, ID: notification.ID, DeliverAt: notification.DeliverAt}, nil
}

// dispatch pushes and publishes in the background. Delivery failures are
// logged only.
func (s *notificationService) dispatch(n entity.Notification) {
	s.goAsync(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.pushTimeout)
		defer cancel()
		s.deliver(ctx, &n)
	})
}

func (s *notificationService) deliver(ctx context.Context, n *entity.Notification) {
	s.publish(ctx, n)

	if s.pusher == nil {
		return
	}
	result, err := s.pusher.Send(ctx, n.UserID, push.Payload{
		Title: n.Title,
		Body:  n.Body,
		URL:   n.PushURL(),
	})
	if err != nil {
		s.logger.Warn("push delivery failed",
			zap.String("notification_id", n.ID.String()),
			zap.String("user_id", n.UserID.String()),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("push delivered",
		zap.String("notification_id", n.ID.String()),
		zap.Int("success", result.Success),
		zap.Int("failed", result.Failed),
	)
}

// publish forwards the notification to any open websocket of the user.
func (s *notificationService) publish(ctx context.Context, n *entity.Notification) {
	if s.redisClient == nil {
		return
	}

	payload, err := json.Marshal(toResponse(n))
	if err != nil {
		s.logger.Warn("failed to encode realtime notification", zap.Error(err))
		return
	}

	if err := s.redisClient.Publish(ctx, UserChannel(n.UserID), payload).Err(); err != nil {
		s.logger.Warn("failed to publish realtime notification",
			zap.String("user_id", n.UserID.String()),
			zap.Error(err),
		)
	}
}

// UserChannel is the Redis pub/sub channel carrying a user's notifications.
func UserChannel(userID uuid.UUID) string {
	return fmt.Sprintf("user_notifications:%s", userID.String())
}

func (s *notificationService) GetNotifications(ctx context.Context, userID uuid.UUID, query dto.ListNotificationsQuery) (*dto.NotificationPage, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = dto.DefaultPageSize
	}
	if limit > dto.MaxPageSize {
		limit = dto.MaxPageSize
	}

	filter := notifRepo.ListFilter{
		Limit:      limit + 1,
		UnreadOnly: query.UnreadOnly,
		Now:        s.now(),
	}
	if query.Cursor != "" {
		cursor, err := uuid.Parse(query.Cursor)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor: %w", apperror.ErrBadRequest)
		}
		filter.Cursor = &cursor
	}

	rows, err := s.repo.ListVisible(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	page := &dto.NotificationPage{Items: make([]dto.NotificationResponse, 0, limit)}
	if len(rows) > limit {
		rows = rows[:limit]
		next := rows[limit-1].ID
		page.NextCursor = &next
	}
	for i := range rows {
		page.Items = append(page.Items, toResponse(&rows[i]))
	}
	return page, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID, s.now())
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("notification not found: %w", apperror.ErrNotFound)
		}
		return err
	}
	if n.UserID != userID {
		return fmt.Errorf("notification not found: %w", apperror.ErrNotFound)
	}

	_, err = s.repo.MarkAsRead(ctx, userID, []uuid.UUID{id}, s.now())
	return err
}

func (s *notificationService) MarkManyAsRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error) {
	return s.repo.MarkAsRead(ctx, userID, ids, s.now())
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllAsRead(ctx, userID, s.now())
}

func (s *notificationService) DeleteNotifications(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error) {
	return s.repo.Delete(ctx, userID, ids)
}

func (s *notificationService) DeleteExpiredNotifications(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired notifications: %w", err)
	}
	return deleted, nil
}

// DeliverDueNotifications pushes notifications held back by quiet hours once
// their deliver_at has passed. Each row is claimed before it is pushed so
// overlapping runs never push twice.
func (s *notificationService) DeliverDueNotifications(ctx context.Context) (int, error) {
	due, err := s.repo.ListDue(ctx, s.now(), dueBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list due notifications: %w", err)
	}

	delivered := 0
	for i := range due {
		n := &due[i]
		claimed, err := s.repo.ClaimPush(ctx, n.ID, s.now())
		if err != nil {
			s.logger.Warn("failed to claim due notification",
				zap.String("notification_id", n.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if !claimed {
			continue
		}

		pushCtx, cancel := context.WithTimeout(ctx, s.pushTimeout)
		s.deliver(pushCtx, n)
		cancel()
		delivered++
	}
	return delivered, nil
}

func (s *notificationService) Subscribe(ctx context.Context, userID uuid.UUID, req dto.PushSubscribeRequest) error {
	sub := &entity.PushSubscription{
		UserID:   userID,
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
	}
	if err := s.pushRepo.Upsert(ctx, sub); err != nil {
		return fmt.Errorf("failed to save push subscription: %w", err)
	}
	return nil
}

func (s *notificationService) Unsubscribe(ctx context.Context, userID uuid.UUID, endpoint string) error {
	removed, err := s.pushRepo.DeleteForUser(ctx, userID, endpoint)
	if err != nil {
		return fmt.Errorf("failed to remove push subscription: %w", err)
	}
	if removed == 0 {
		return fmt.Errorf("push subscription not found: %w", apperror.ErrNotFound)
	}
	return nil
}

func toResponse(n *entity.Notification) dto.NotificationResponse {
	resp := dto.NotificationResponse{
		ID:               n.ID,
		Type:             n.Type,
		Title:            n.Title,
		Body:             n.Body,
		RelatedOfferID:   n.RelatedOfferID,
		RelatedListingID: n.RelatedListingID,
		IsRead:           n.IsRead,
		ReadAt:           n.ReadAt,
		CreatedAt:        n.CreatedAt,
	}
	// Rows with metadata this build does not understand are still listed.
	if meta, err := entity.DecodeNotificationMetadata(n.Metadata); err == nil && meta != nil {
		resp.Kind = meta.MetadataKind()
		resp.Metadata = meta
	}
	return resp
}
