package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdy4236/mask/internal/domain"
	"github.com/jdy4236/mask/pkg/logger"
)

func TestAppendBoundedKeepsNewest(t *testing.T) {
	var buf []int
	for i := 1; i <= 5; i++ {
		buf = appendBounded(buf, i, 3)
	}
	assert.Equal(t, []int{3, 4, 5}, buf)
}

func TestAppendBoundedUnderCapacity(t *testing.T) {
	var buf []string
	buf = appendBounded(buf, "a", 3)
	buf = appendBounded(buf, "b", 3)
	assert.Equal(t, []string{"a", "b"}, buf)
}

func TestWindowReturnsCopy(t *testing.T) {
	s := NewSampler(time.Minute, 10, logger.NewLogger("error", ""))
	s.loads = []domain.LoadSample{{Timestamp: "t1", Load1: 0.5}}
	s.memory = []domain.MemorySample{{Timestamp: "t1", UsedPercent: 42}}

	usage := s.Window()
	require.Len(t, usage.Loads, 1)
	require.Len(t, usage.Memory, 1)

	// Mutating the snapshot must not reach the rings.
	usage.Loads[0].Load1 = 99
	usage.Memory[0].UsedPercent = 99
	assert.Equal(t, 0.5, s.loads[0].Load1)
	assert.Equal(t, float64(42), s.memory[0].UsedPercent)
}

func TestSampleBoundedByCapacity(t *testing.T) {
	s := NewSampler(time.Minute, 2, logger.NewLogger("error", ""))
	for i := 0; i < 5; i++ {
		s.sample()
	}
	usage := s.Window()
	assert.LessOrEqual(t, len(usage.Loads), 2)
	assert.LessOrEqual(t, len(usage.Memory), 2)
}
