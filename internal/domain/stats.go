package domain

// TotalStats is the headline counter block of a snapshot.
type TotalStats struct {
	TotalRooms    int64 `json:"totalRooms"`
	TotalUsers    int64 `json:"totalUsers"`
	TotalMessages int64 `json:"totalMessages"`
	Connections   int   `json:"connections"`
}

// RoomDetail is one room's live state as seen by the aggregator.
type RoomDetail struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	IsPrivate bool   `json:"isPrivate"`
	UserCount int    `json:"userCount"`
	IsActive  bool   `json:"isActive"`
}

// HistogramBucket is one closed-open [Start, End) time bucket.
type HistogramBucket struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// SystemStatus reports store connectivity, either "connected" or
// "disconnected".
type SystemStatus struct {
	Database string `json:"database"`
	Uptime   string `json:"uptime"`
}

// LoadSample is one point of the rolling load-average window.
type LoadSample struct {
	Timestamp string  `json:"timestamp"`
	Load1     float64 `json:"load1"`
	Load5     float64 `json:"load5"`
	Load15    float64 `json:"load15"`
}

// MemorySample is one point of the rolling memory window.
type MemorySample struct {
	Timestamp   string  `json:"timestamp"`
	RSSBytes    uint64  `json:"rssBytes"`
	UsedPercent float64 `json:"usedPercent"`
}

// ResourceUsage is the sampler's current window: the trailing hour of load
// and memory samples at the default 60s interval.
type ResourceUsage struct {
	Loads  []LoadSample   `json:"loads"`
	Memory []MemorySample `json:"memory"`
}

// AdminUser is one entry of the elevated-user roster.
type AdminUser struct {
	ID        string `json:"id"`
	Nickname  string `json:"nickname"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

// StatsSnapshot is the aggregate pushed to elevated sessions. Recomputed per
// signal cycle, never persisted. Degraded reports which sub-computations
// failed and were zeroed rather than aborting the snapshot.
type StatsSnapshot struct {
	Totals        TotalStats        `json:"totals"`
	Rooms         []RoomDetail      `json:"rooms"`
	HourlySignups []HistogramBucket `json:"hourlySignups"`
	DailyMessages []HistogramBucket `json:"dailyMessages"`
	System        SystemStatus      `json:"system"`
	Resources     ResourceUsage     `json:"resources"`
	AdminUsers    []AdminUser       `json:"adminUsers"`
	Degraded      []string          `json:"degraded,omitempty"`
}
