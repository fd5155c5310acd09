package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"anoa.com/localswap/internal/entity"
	chatDto "anoa.com/localswap/internal/modules/chat/dto"
	chatRepo "anoa.com/localswap/internal/modules/chat/repository"
	notification "anoa.com/localswap/internal/modules/notification/service"
	"anoa.com/localswap/pkg/apperror"
	commonDto "anoa.com/localswap/pkg/dto"
	"anoa.com/localswap/pkg/ratelimiter"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sendAction = "chat_message"

type UserReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

type BlockChecker interface {
	IsBlockedEitherWay(ctx context.Context, a, b uuid.UUID) (bool, error)
}

type Service interface {
	ListThreads(ctx context.Context, userID uuid.UUID) ([]chatDto.ThreadSummary, error)
	ListMessages(ctx context.Context, userID, threadID uuid.UUID, query chatDto.ListMessagesQuery) (*commonDto.Paginated[entity.Message], error)
	SendMessage(ctx context.Context, senderID, threadID uuid.UUID, req chatDto.SendMessageRequest) (*entity.Message, error)
}

type service struct {
	repo      chatRepo.ChatRepository
	users     UserReader
	blocks    BlockChecker
	notifier  notification.Notifier
	limiter   *ratelimiter.Limiter
	cooldown  time.Duration
	sanitizer *bluemonday.Policy
	logger    *zap.Logger

	now func() time.Time
}

func NewService(
	repo chatRepo.ChatRepository,
	users UserReader,
	blocks BlockChecker,
	notifier notification.Notifier,
	limiter *ratelimiter.Limiter,
	cooldown time.Duration,
	logger *zap.Logger,
) Service {
	return &service{
		repo:      repo,
		users:     users,
		blocks:    blocks,
		notifier:  notifier,
		limiter:   limiter,
		cooldown:  cooldown,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger,
		now:       time.Now,
	}
}

// loadThread returns the thread if userID takes part in it.
func (s *service) loadThread(ctx context.Context, userID, threadID uuid.UUID) (*entity.ChatThread, error) {
	thread, err := s.repo.FindThread(ctx, threadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("thread not found: %w", apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load thread: %w", err)
	}
	for _, p := range thread.Participants {
		if p.UserID == userID {
			return thread, nil
		}
	}
	return nil, fmt.Errorf("you are not part of this conversation: %w", apperror.ErrForbidden)
}

func otherParticipant(thread *entity.ChatThread, userID uuid.UUID) uuid.UUID {
	for _, p := range thread.Participants {
		if p.UserID != userID {
			return p.UserID
		}
	}
	return uuid.Nil
}

func (s *service) ListThreads(ctx context.Context, userID uuid.UUID) ([]chatDto.ThreadSummary, error) {
	threads, err := s.repo.ListThreads(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}

	out := make([]chatDto.ThreadSummary, 0, len(threads))
	for i := range threads {
		t := &threads[i]
		summary := chatDto.ThreadSummary{
			ID:            t.ID,
			ListingID:     t.ListingID,
			OtherUserID:   otherParticipant(t, userID),
			LastMessageAt: t.LastMessageAt,
		}
		for _, p := range t.Participants {
			if p.UserID == userID && t.LastMessageAt != nil {
				summary.Unread = p.LastReadAt == nil || p.LastReadAt.Before(*t.LastMessageAt)
			}
		}
		out = append(out, summary)
	}
	return out, nil
}

// ListMessages also marks the thread read for the caller.
func (s *service) ListMessages(ctx context.Context, userID, threadID uuid.UUID, query chatDto.ListMessagesQuery) (*commonDto.Paginated[entity.Message], error) {
	if _, err := s.loadThread(ctx, userID, threadID); err != nil {
		return nil, err
	}

	offset := query.Normalize()
	messages, total, err := s.repo.ListMessages(ctx, threadID, offset, query.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	if err := s.repo.MarkRead(ctx, threadID, userID, s.now()); err != nil {
		s.logger.Warn("failed to mark thread read", zap.String("thread_id", threadID.String()), zap.Error(err))
	}

	return &commonDto.Paginated[entity.Message]{
		Data: messages,
		Meta: commonDto.NewPaginationMeta(query.PageQuery, total),
	}, nil
}

func (s *service) SendMessage(ctx context.Context, senderID, threadID uuid.UUID, req chatDto.SendMessageRequest) (*entity.Message, error) {
	// markup is dropped; entities are decoded back since clients render plain text
	content := strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(req.Content)))
	if content == "" {
		return nil, fmt.Errorf("message cannot be empty: %w", apperror.ErrInvalidInput)
	}

	thread, err := s.loadThread(ctx, senderID, threadID)
	if err != nil {
		return nil, err
	}
	recipientID := otherParticipant(thread, senderID)

	blocked, err := s.blocks.IsBlockedEitherWay(ctx, senderID, recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to check blocks: %w", err)
	}
	if blocked {
		return nil, fmt.Errorf("cannot message this user: %w", apperror.ErrForbidden)
	}

	if err := s.limiter.Allow(ctx, senderID, sendAction, s.cooldown); err != nil {
		return nil, err
	}

	msg := &entity.Message{
		ThreadID:  threadID,
		SenderID:  senderID,
		Type:      entity.MessageText,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		if clearErr := s.limiter.Clear(ctx, senderID, sendAction); clearErr != nil {
			s.logger.Warn("failed to clear message cooldown", zap.Error(clearErr))
		}
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	senderName := (&entity.User{}).DisplayName()
	if sender, err := s.users.FindByID(ctx, senderID); err == nil {
		senderName = sender.DisplayName()
	}
	if _, err := s.notifier.NotifyMessageReceived(ctx, recipientID, threadID, senderName, content); err != nil {
		s.logger.Warn("failed to notify message recipient",
			zap.String("thread_id", threadID.String()),
			zap.String("recipient_id", recipientID.String()),
			zap.Error(err),
		)
	}

	return msg, nil
}
