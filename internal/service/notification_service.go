package service

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"github.com/qs3c/gym_go_server/internal/model"
	"github.com/qs3c/gym_go_server/internal/model/dto"
	"github.com/qs3c/gym_go_server/internal/pkg/metrics"
	"github.com/qs3c/gym_go_server/internal/pkg/pubsub"
	"github.com/qs3c/gym_go_server/internal/pkg/queue"
	"github.com/qs3c/gym_go_server/internal/repository"
)

var (
	ErrNotificationNotFound = errors.New("通知不存在")
	ErrNoRecipients         = errors.New("没有可发送的用户")
)

// EventPublisher 通知事件发布，Redis 不可用时为 nil
type EventPublisher interface {
	PublishNotification(ctx context.Context, evt *pubsub.NotificationEvent) error
}

// MailQueue 邮件任务队列，Redis 不可用时为 nil
type MailQueue interface {
	Push(ctx context.Context, job *queue.MailJob) error
}

type NotificationService struct {
	db               *gorm.DB
	notificationRepo *repository.NotificationRepository
	userRepo         *repository.UserRepository
	publisher        EventPublisher
	mails            MailQueue
	logger           *slog.Logger
}

func NewNotificationService(
	db *gorm.DB,
	notificationRepo *repository.NotificationRepository,
	userRepo *repository.UserRepository,
	publisher EventPublisher,
	mails MailQueue,
	logger *slog.Logger,
) *NotificationService {
	return &NotificationService{
		db:               db,
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		publisher:        publisher,
		mails:            mails,
		logger:           logger,
	}
}

// CreateInTx 在调用方事务内写入通知，投递需在提交后调用 Deliver
func (s *NotificationService) CreateInTx(tx *gorm.DB, n *model.Notification) error {
	return s.notificationRepo.WithTx(tx).Create(n)
}

// Deliver 推送在线消息并投递邮件，失败只记录日志
func (s *NotificationService) Deliver(ctx context.Context, n *model.Notification, mail *queue.MailJob) {
	if n != nil && s.publisher != nil {
		evt := &pubsub.NotificationEvent{
			UserID:         n.UserID,
			NotificationID: n.ID,
			Title:          n.Title,
			Message:        n.Message,
			Kind:           n.Type,
			RelatedID:      n.RelatedID,
			CreatedAt:      n.CreatedAt,
		}
		if err := s.publisher.PublishNotification(ctx, evt); err != nil {
			metrics.NotificationFailures.WithLabelValues("publish").Inc()
			s.logger.Warn("publish notification failed", "notification_id", n.ID, "user_id", n.UserID, "error", err)
		}
	}

	if mail != nil && s.mails != nil {
		if err := s.mails.Push(ctx, mail); err != nil {
			metrics.NotificationFailures.WithLabelValues("mail").Inc()
			s.logger.Warn("enqueue mail failed", "kind", mail.Kind, "user_id", mail.UserID, "error", err)
		}
	}
}

// Notify 写入通知后立即投递
func (s *NotificationService) Notify(ctx context.Context, n *model.Notification, mail *queue.MailJob) error {
	if err := s.notificationRepo.Create(n); err != nil {
		metrics.NotificationFailures.WithLabelValues("store").Inc()
		s.logger.Warn("store notification failed", "user_id", n.UserID, "type", n.Type, "error", err)
		return err
	}
	s.Deliver(ctx, n, mail)
	return nil
}

// List 当前用户的通知
func (s *NotificationService) List(userID int64, req *dto.NotificationListRequest) ([]*model.Notification, int64, error) {
	page, pageSize := normalizePage(req.Page, req.PageSize)
	req.Page, req.PageSize = page, pageSize
	return s.notificationRepo.ListByUser(userID, req.UnreadOnly, page, pageSize)
}

func (s *NotificationService) UnreadCount(userID int64) (*dto.UnreadCountResponse, error) {
	count, err := s.notificationRepo.CountUnread(userID)
	if err != nil {
		return nil, err
	}
	return &dto.UnreadCountResponse{Unread: count}, nil
}

func (s *NotificationService) MarkRead(userID, id int64) error {
	affected, err := s.notificationRepo.MarkRead(id, userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead 返回本次标记的条数
func (s *NotificationService) MarkAllRead(userID int64) (int64, error) {
	return s.notificationRepo.MarkAllRead(userID)
}

func (s *NotificationService) Delete(userID, id int64) error {
	affected, err := s.notificationRepo.Delete(id, userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// Broadcast 管理员发送通知：指定用户或全部启用的学员，返回发送条数
func (s *NotificationService) Broadcast(ctx context.Context, req *dto.BroadcastRequest) (int, error) {
	kind := req.Type
	if kind == "" {
		kind = model.NotificationSystem
	}

	var recipients []*model.User
	if req.UserID != nil {
		user, err := s.userRepo.GetByID(*req.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, ErrUserNotFound
			}
			return 0, err
		}
		recipients = append(recipients, user)
	} else {
		users, err := s.userRepo.ListActiveByType(model.UserTypeStudent)
		if err != nil {
			return 0, err
		}
		recipients = users
	}
	if len(recipients) == 0 {
		return 0, ErrNoRecipients
	}

	notifications := make([]*model.Notification, 0, len(recipients))
	for _, u := range recipients {
		notifications = append(notifications, &model.Notification{
			UserID:  u.ID,
			Title:   req.Title,
			Message: req.Message,
			Type:    kind,
		})
	}
	if err := s.notificationRepo.CreateBatch(notifications); err != nil {
		return 0, err
	}

	for i, n := range notifications {
		s.Deliver(ctx, n, mailJob(recipients[i], queue.MailGeneric, req.Title, map[string]string{
			"message": req.Message,
		}))
	}

	s.logger.Info("notification broadcast", "recipients", len(notifications), "type", kind)
	return len(notifications), nil
}

// mailJob 构造邮件任务，用户无邮箱时返回 nil
func mailJob(user *model.User, kind, subject string, data map[string]string) *queue.MailJob {
	if user == nil || user.Email == "" {
		return nil
	}
	return &queue.MailJob{
		Kind:      kind,
		UserID:    user.ID,
		To:        user.Email,
		Name:      user.Name,
		Subject:   subject,
		Data:      data,
		CreatedAt: utcNow(),
	}
}
