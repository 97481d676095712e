package stats

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/jdy4236/mask/internal/domain"
	"github.com/jdy4236/mask/pkg/logger"
)

// Sampler periodically records system load averages and memory usage into
// two bounded ring buffers. Only the sampler's own loop appends; readers get
// a copied snapshot via Window.
type Sampler struct {
	interval time.Duration
	capacity int
	log      logger.Logger

	mu     sync.Mutex
	loads  []domain.LoadSample
	memory []domain.MemorySample

	proc *process.Process
}

func NewSampler(interval time.Duration, capacity int, log logger.Logger) *Sampler {
	proc, _ := process.NewProcess(int32(os.Getpid()))
	return &Sampler{
		interval: interval,
		capacity: capacity,
		log:      log.WithModule("sampler"),
		proc:     proc,
	}
}

// Run samples once immediately and then on every interval tick until the
// context is cancelled.
func (s *Sampler) Run(ctx context.Context) {
	s.sample()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sample()
		}
	}
}

// sample appends one point per ring. A metric the platform cannot report is
// recorded as an absent sample: nothing is appended for it.
func (s *Sampler) sample() {
	now := time.Now().Format(domain.TimeLayout)

	s.mu.Lock()
	defer s.mu.Unlock()

	if avg, err := load.Avg(); err != nil {
		s.log.Debugf("load average unavailable: %v", err)
	} else {
		s.loads = appendBounded(s.loads, domain.LoadSample{
			Timestamp: now,
			Load1:     avg.Load1,
			Load5:     avg.Load5,
			Load15:    avg.Load15,
		}, s.capacity)
	}

	sample := domain.MemorySample{Timestamp: now}
	ok := false
	if vm, err := mem.VirtualMemory(); err != nil {
		s.log.Debugf("virtual memory unavailable: %v", err)
	} else {
		sample.UsedPercent = vm.UsedPercent
		ok = true
	}
	if s.proc != nil {
		if info, err := s.proc.MemoryInfo(); err == nil {
			sample.RSSBytes = info.RSS
			ok = true
		}
	}
	if ok {
		s.memory = appendBounded(s.memory, sample, s.capacity)
	}
}

// Window returns a copy of the current rings, oldest first.
func (s *Sampler) Window() domain.ResourceUsage {
	s.mu.Lock()
	defer s.mu.Unlock()
	usage := domain.ResourceUsage{
		Loads:  make([]domain.LoadSample, len(s.loads)),
		Memory: make([]domain.MemorySample, len(s.memory)),
	}
	copy(usage.Loads, s.loads)
	copy(usage.Memory, s.memory)
	return usage
}

func appendBounded[T any](buf []T, v T, capacity int) []T {
	buf = append(buf, v)
	if len(buf) > capacity {
		buf = buf[len(buf)-capacity:]
	}
	return buf
}
