package nats

import (
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
)

// NATSClient carries stats signals between the chat pipeline and the
// aggregator.
type NATSClient struct {
	Conn *nats.Conn

	mu   sync.Mutex
	subs []*nats.Subscription
}

func NewNATSClient(url string) (*NATSClient, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSClient{Conn: nc}, nil
}

func (c *NATSClient) Close() {
	c.mu.Lock()
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.subs = nil
	c.mu.Unlock()
	c.Conn.Close()
}
