package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelNotifications = "gym_notifications"
)

// EventNotification 推送给前端的消息类型
const EventNotification = "notification"

// NotificationEvent 新通知事件，由 API 进程发布，WebSocket 网关订阅后转发给在线用户
type NotificationEvent struct {
	Type           string    `json:"type"`
	UserID         int64     `json:"user_id"`
	NotificationID int64     `json:"notification_id"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	Kind           string    `json:"kind"` // payment, workout, attendance, system
	RelatedID      *int64    `json:"related_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Publisher Redis 发布者
type Publisher struct {
	client *redis.Client
}

// NewPublisher 创建发布者
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishNotification 发布通知事件
func (p *Publisher) PublishNotification(ctx context.Context, evt *NotificationEvent) error {
	evt.Type = EventNotification

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	return p.client.Publish(ctx, ChannelNotifications, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe 订阅通知事件，直到 ctx 取消
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*NotificationEvent)) error {
	sub := s.client.Subscribe(ctx, ChannelNotifications)
	defer sub.Close()

	// 等待订阅确认，之后发布的消息不会丢失
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", ChannelNotifications, err)
	}

	ch := sub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var evt NotificationEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				slog.Warn("drop malformed notification event", "error", err)
				continue
			}

			handler(&evt)
		}
	}
}
