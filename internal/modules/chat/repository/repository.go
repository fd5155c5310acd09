package repository

import (
	"context"
	"time"

	"anoa.com/localswap/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatRepository interface {
	FindThread(ctx context.Context, id uuid.UUID) (*entity.ChatThread, error)
	ListThreads(ctx context.Context, userID uuid.UUID) ([]entity.ChatThread, error)
	ListMessages(ctx context.Context, threadID uuid.UUID, offset, limit int) ([]entity.Message, int64, error)
	// CreateMessage stores the message and bumps the thread's last_message_at.
	CreateMessage(ctx context.Context, msg *entity.Message) error
	MarkRead(ctx context.Context, threadID, userID uuid.UUID, at time.Time) error
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) FindThread(ctx context.Context, id uuid.UUID) (*entity.ChatThread, error) {
	var thread entity.ChatThread
	if err := r.db.WithContext(ctx).
		Preload("Participants").
		Where("id = ?", id).
		First(&thread).Error; err != nil {
		return nil, err
	}
	return &thread, nil
}

func (r *chatRepository) ListThreads(ctx context.Context, userID uuid.UUID) ([]entity.ChatThread, error) {
	var threads []entity.ChatThread
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Where("id IN (?)", r.db.Model(&entity.ChatParticipant{}).Select("thread_id").Where("user_id = ?", userID)).
		Order("last_message_at DESC NULLS LAST").
		Find(&threads).Error
	return threads, err
}

func (r *chatRepository) ListMessages(ctx context.Context, threadID uuid.UUID, offset, limit int) ([]entity.Message, int64, error) {
	var messages []entity.Message
	var total int64

	query := r.db.WithContext(ctx).Where("thread_id = ?", threadID)
	if err := query.Model(&entity.Message{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// newest page first, oldest first within the page
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&messages).Error; err != nil {
		return nil, 0, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, total, nil
}

func (r *chatRepository) CreateMessage(ctx context.Context, msg *entity.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&entity.ChatThread{}).
			Where("id = ?", msg.ThreadID).
			Update("last_message_at", msg.CreatedAt).Error
	})
}

func (r *chatRepository) MarkRead(ctx context.Context, threadID, userID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.ChatParticipant{}).
		Where("thread_id = ? AND user_id = ?", threadID, userID).
		Update("last_read_at", at).Error
}
