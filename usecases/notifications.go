package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"starter-server/apperrors"
	"starter-server/entities"
	"starter-server/logger"
	"starter-server/repositories"
	"starter-server/ws"

	"gorm.io/gorm"
)

// Pusher delivers a payload to the live connections of a user.
type Pusher interface {
	SendToUser(userID string, payload []byte) (int, error)
}

// NotificationInput is the body of an admin-sent notification.
type NotificationInput struct {
	UserID string `json:"user_id" binding:"required"`
	Type   string `json:"type"`
	Title  string `json:"title" binding:"required,max=200"`
	Body   string `json:"body"`
}

type pushMessage struct {
	Type string                 `json:"type"`
	Data *entities.Notification `json:"data"`
}

type NotificationUseCase struct {
	NotificationRepo repositories.NotificationRepository
	UserRepo         repositories.UserRepository
	Stats            Invalidator

	pusher Pusher
	log    logger.Logger
}

func NewNotificationUseCase(notificationRepo repositories.NotificationRepository, userRepo repositories.UserRepository, pusher Pusher, log logger.Logger) *NotificationUseCase {
	return &NotificationUseCase{
		NotificationRepo: notificationRepo,
		UserRepo:         userRepo,
		pusher:           pusher,
		log:              log,
	}
}

// Create persists a notification and pushes it to the recipient's open
// websocket connections. Push failures never fail the call.
func (uc *NotificationUseCase) Create(ctx context.Context, in NotificationInput) (*entities.Notification, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, apperrors.Validation("title is required")
	}
	if in.Type == "" {
		in.Type = entities.NotificationInfo
	}
	if !entities.ValidNotificationType(in.Type) {
		return nil, apperrors.Validationf("unknown notification type %q", in.Type)
	}
	if _, err := uc.UserRepo.GetByID(ctx, in.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user")
		}
		return nil, err
	}

	n := &entities.Notification{
		UserID: in.UserID,
		Type:   in.Type,
		Title:  in.Title,
		Body:   in.Body,
	}
	if err := uc.NotificationRepo.Create(ctx, n); err != nil {
		return nil, err
	}

	invalidate(uc.Stats)
	uc.push(n)
	return n, nil
}

func (uc *NotificationUseCase) push(n *entities.Notification) {
	if uc.pusher == nil {
		return
	}
	payload, err := json.Marshal(pushMessage{Type: "notification", Data: n})
	if err != nil {
		uc.log.Error("encode notification push: ", err)
		return
	}
	sent, err := uc.pusher.SendToUser(n.UserID, payload)
	switch {
	case errors.Is(err, ws.ErrNotConnected):
		// delivered on next fetch
	case err != nil:
		uc.log.Warn("notification push to ", n.UserID, " partially failed: ", err)
	default:
		uc.log.Debug("notification ", n.ID, " pushed to ", sent, " connections")
	}
}

func (uc *NotificationUseCase) List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]entities.Notification, int64, error) {
	return uc.NotificationRepo.ListByUser(ctx, userID, unreadOnly, limit, offset)
}

// MarkRead marks one of the user's own notifications as read.
func (uc *NotificationUseCase) MarkRead(ctx context.Context, userID, id string) error {
	ok, err := uc.NotificationRepo.MarkRead(ctx, id, userID, nowUTC())
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("notification")
	}
	invalidate(uc.Stats)
	return nil
}

func (uc *NotificationUseCase) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := uc.NotificationRepo.MarkAllRead(ctx, userID, nowUTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		invalidate(uc.Stats)
	}
	return n, nil
}

func (uc *NotificationUseCase) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return uc.NotificationRepo.CountUnread(ctx, userID)
}
