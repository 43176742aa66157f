package service

import (
	"encoding/json"
	"log"

	"ranklist/internal/util"
	"ranklist/internal/websocket"
)

// EventWorker consumes engagement events from RabbitMQ and pushes them to
// the clients watching the affected ranking.
type EventWorker struct {
	rabbitMQ *util.RabbitMQClient
	wsHub    *websocket.Hub
}

// NewEventWorker creates a new engagement event worker
func NewEventWorker(rabbitMQ *util.RabbitMQClient, wsHub *websocket.Hub) *EventWorker {
	return &EventWorker{
		rabbitMQ: rabbitMQ,
		wsHub:    wsHub,
	}
}

// Start declares the queue binding and begins consuming
func (w *EventWorker) Start() error {
	if w.rabbitMQ == nil {
		return nil // RabbitMQ not available, worker will not start
	}

	channel := w.rabbitMQ.GetChannel()
	if channel == nil {
		return nil
	}

	if err := w.rabbitMQ.DeclareExchange(EngagementExchange); err != nil {
		return err
	}

	queue, err := channel.QueueDeclare(
		EngagementQueueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return err
	}

	if err := channel.QueueBind(
		queue.Name,
		EngagementRoutingKey,
		EngagementExchange,
		false,
		nil,
	); err != nil {
		return err
	}

	msgs, err := channel.Consume(
		queue.Name,
		"engagement_worker",
		false, // auto-ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgs {
			var event EngagementEvent
			if err := json.Unmarshal(msg.Body, &event); err != nil {
				log.Printf("Failed to decode engagement event: %v", err)
				msg.Nack(false, false)
				continue
			}

			if w.wsHub != nil && event.RankingID != "" {
				w.wsHub.BroadcastToRanking(event.RankingID, event.Type, eventPayload(&event))
			}

			msg.Ack(false)
		}
		log.Println("Engagement event consumer stopped")
	}()

	return nil
}
