package nats

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/jdy4236/mask/internal/domain"
)

// SubscribeSignals delivers every stats signal to handleFunc. Payloads that
// fail to decode are skipped.
func (c *NATSClient) SubscribeSignals(handleFunc func(domain.Signal)) error {
	sub, err := c.Conn.Subscribe(SignalSubject, func(msg *nats.Msg) {
		var sig domain.Signal
		if err := json.Unmarshal(msg.Data, &sig); err != nil {
			return
		}
		handleFunc(sig)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to signals: %w", err)
	}

	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return nil
}
