package nats

import (
	"encoding/json"
	"fmt"

	"github.com/jdy4236/mask/internal/domain"
)

// SignalSubject is the subject all stats signals travel on.
const SignalSubject = "mask.signals"

func (c *NATSClient) PublishSignal(sig domain.Signal) error {
	data, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("failed to serialize signal: %w", err)
	}
	return c.Conn.Publish(SignalSubject, data)
}
