package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsActiveWithinWindow(t *testing.T) {
	tracker := NewTracker()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return now }

	// No recorded activity means inactive.
	assert.False(t, tracker.IsActive("general", time.Minute))

	tracker.Record("general")
	assert.True(t, tracker.IsActive("general", time.Minute))

	now = now.Add(59 * time.Second)
	assert.True(t, tracker.IsActive("general", time.Minute))

	now = now.Add(2 * time.Second)
	assert.False(t, tracker.IsActive("general", time.Minute))
}

func TestForget(t *testing.T) {
	tracker := NewTracker()
	tracker.Record("general")
	assert.True(t, tracker.IsActive("general", time.Minute))

	tracker.Forget("general")
	assert.False(t, tracker.IsActive("general", time.Minute))
}
