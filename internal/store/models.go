package store

import "time"

// User is a registered account. PasswordHash is a bcrypt hash; the plain
// password is never stored.
type User struct {
	ID           string `gorm:"primaryKey;type:text"`
	Nickname     string `gorm:"uniqueIndex;not null;type:text"`
	Email        string `gorm:"uniqueIndex;not null;type:text"`
	PasswordHash string `gorm:"not null;type:text"`
	Role         string `gorm:"not null;default:user;type:text"`
	CreatedAt    time.Time
}

func (User) TableName() string { return "users" }

// Room is a named chat channel. The id is externally assigned at creation.
// Password holds a bcrypt hash and is set iff IsPrivate; LifespanMinutes of
// zero means the room never expires.
type Room struct {
	ID               string `gorm:"primaryKey;type:text"`
	Name             string `gorm:"not null;type:text"`
	Category         string `gorm:"not null;index;type:text"`
	IsPrivate        bool   `gorm:"not null"`
	Password         string `gorm:"type:text"`
	ParticipantLimit int
	LifespanMinutes  int
	CreatedBy        string `gorm:"index;type:text"`
	CreatedAt        time.Time
}

func (Room) TableName() string { return "rooms" }

// ExpiresAt returns the room's expiry instant, or the zero time when the
// room has no lifespan.
func (r Room) ExpiresAt() time.Time {
	if r.LifespanMinutes <= 0 {
		return time.Time{}
	}
	return r.CreatedAt.Add(time.Duration(r.LifespanMinutes) * time.Minute)
}

// Expired reports whether the room's lifespan has elapsed at now.
func (r Room) Expired(now time.Time) bool {
	exp := r.ExpiresAt()
	return !exp.IsZero() && !now.Before(exp)
}

// Message is immutable once created. CreatedAt is server-assigned and defines
// per-room ordering; it equals persistence order and broadcast order.
type Message struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	RoomID    string    `gorm:"not null;index;type:text"`
	SenderID  string    `gorm:"not null;type:text"`
	Content   string    `gorm:"not null;type:text"`
	CreatedAt time.Time `gorm:"index"`
}

func (Message) TableName() string { return "messages" }
