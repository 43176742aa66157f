package service

import (
	"encoding/json"
	"log"
	"time"

	"ranklist/internal/util"
	"ranklist/internal/websocket"
)

// Engagement event bus names
const (
	EngagementExchange   = "engagement_exchange"
	EngagementQueueName  = "engagement_events"
	EngagementRoutingKey = "engagement"
)

// Engagement event types
const (
	EventReactionToggled = "reaction.toggled"
	EventCommentCreated  = "comment.created"
)

// EngagementEvent is the message fanned out to clients watching a ranking.
type EngagementEvent struct {
	Type       string    `json:"type"`
	RankingID  string    `json:"ranking_id"`
	TargetType string    `json:"target_type,omitempty"`
	TargetID   string    `json:"target_id,omitempty"`
	CommentID  string    `json:"comment_id,omitempty"`
	UserID     string    `json:"user_id"`
	Emoji      string    `json:"emoji,omitempty"`
	Reacted    *bool     `json:"reacted,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher emits engagement events. Publishing is best-effort: a dead
// broker never fails the mutation that triggered the event.
type EventPublisher interface {
	PublishReactionToggled(rankingID, targetType, targetID, userID, emoji string, reacted bool)
	PublishCommentCreated(rankingID, commentID, userID string)
}

type eventPublisher struct {
	rabbitMQ *util.RabbitMQClient
	wsHub    *websocket.Hub
}

// NewEventPublisher builds the publisher. With a broker, events go through
// RabbitMQ and the worker pushes them to the hub; without one, they go to
// the hub directly (same degradation the notification path has always had).
func NewEventPublisher(rabbitMQ *util.RabbitMQClient, wsHub *websocket.Hub) EventPublisher {
	if rabbitMQ != nil {
		if err := rabbitMQ.DeclareExchange(EngagementExchange); err != nil {
			log.Printf("Warning: failed to declare engagement exchange: %v", err)
		}
	}
	return &eventPublisher{
		rabbitMQ: rabbitMQ,
		wsHub:    wsHub,
	}
}

func (p *eventPublisher) PublishReactionToggled(rankingID, targetType, targetID, userID, emoji string, reacted bool) {
	p.publish(&EngagementEvent{
		Type:       EventReactionToggled,
		RankingID:  rankingID,
		TargetType: targetType,
		TargetID:   targetID,
		UserID:     userID,
		Emoji:      emoji,
		Reacted:    &reacted,
		OccurredAt: time.Now(),
	})
}

func (p *eventPublisher) PublishCommentCreated(rankingID, commentID, userID string) {
	p.publish(&EngagementEvent{
		Type:       EventCommentCreated,
		RankingID:  rankingID,
		CommentID:  commentID,
		UserID:     userID,
		OccurredAt: time.Now(),
	})
}

func (p *eventPublisher) publish(event *EngagementEvent) {
	if p.rabbitMQ != nil {
		body, err := json.Marshal(event)
		if err != nil {
			log.Printf("Failed to marshal engagement event: %v", err)
			return
		}
		if err := p.rabbitMQ.Publish(EngagementExchange, EngagementRoutingKey, body); err != nil {
			log.Printf("Failed to publish engagement event: %v", err)
			// Fall through to the direct push so live pages still update
		} else {
			return
		}
	}

	if p.wsHub != nil {
		p.wsHub.BroadcastToRanking(event.RankingID, event.Type, eventPayload(event))
	}
}

// eventPayload flattens the event for the websocket frame
func eventPayload(event *EngagementEvent) map[string]interface{} {
	payload := map[string]interface{}{
		"ranking_id":  event.RankingID,
		"user_id":     event.UserID,
		"occurred_at": event.OccurredAt.Format(time.RFC3339),
	}
	if event.TargetType != "" {
		payload["target_type"] = event.TargetType
		payload["target_id"] = event.TargetID
	}
	if event.CommentID != "" {
		payload["comment_id"] = event.CommentID
	}
	if event.Emoji != "" {
		payload["emoji"] = event.Emoji
	}
	if event.Reacted != nil {
		payload["reacted"] = *event.Reacted
	}
	return payload
}
