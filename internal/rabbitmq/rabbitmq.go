package rabbitmq

import (
	"context"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	USER_INFO_UPDATED_QUEUE = "user-info-updated"
	COMMENT_CREATED_QUEUE   = "comment-created"
)

var queues = []string{USER_INFO_UPDATED_QUEUE, COMMENT_CREATED_QUEUE}

type MQConn struct {
	conn      *amqp.Connection
	publishCh *amqp.Channel
	consumeCh *amqp.Channel
	mu        sync.Mutex
}

func New(url string) (*MQConn, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	publishCh, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	consumeCh, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	for _, queue := range queues {
		if _, err := publishCh.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return &MQConn{
		conn:      conn,
		publishCh: publishCh,
		consumeCh: consumeCh,
	}, nil
}

func (c *MQConn) Consume(queue string) (<-chan amqp.Delivery, error) {
	return c.consumeCh.Consume(queue, "", false, false, false, false, nil)
}

func (c *MQConn) PublishJSON(ctx context.Context, queue string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.publishCh.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

func (c *MQConn) Close() error {
	return c.conn.Close()
}
