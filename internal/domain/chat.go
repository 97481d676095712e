package domain

// TimeLayout is the wall-clock format carried on the wire.
const TimeLayout = "2006-01-02 15:04:05"

type MessageType string

// Client commands.
const (
	MessageTypeJoin     MessageType = "join_room"
	MessageTypeLeave    MessageType = "leave_room"
	MessageTypeChat     MessageType = "chat_message"
	MessageTypeVerify   MessageType = "verify_password"
	MessageTypeSearch   MessageType = "search_rooms"
	MessageTypeRoomList MessageType = "list_rooms"
)

// Server events.
const (
	MessageTypeSystem       MessageType = "system_message"
	MessageTypeRoomUsers    MessageType = "room_users"
	MessageTypePrevMessages MessageType = "previous_messages"
	MessageTypeVerification MessageType = "password_verification"
	MessageTypeRooms        MessageType = "rooms"
	MessageTypeError        MessageType = "error"
)

// Admin statistics pushes, delivered only to sessions with the admin role.
const (
	MessageTypeAdminTotals        MessageType = "admin_total_stats"
	MessageTypeAdminRoomDetails   MessageType = "admin_room_details"
	MessageTypeAdminUserStats     MessageType = "admin_user_stats"
	MessageTypeAdminMessageStats  MessageType = "admin_daily_message_stats"
	MessageTypeAdminSystemStatus  MessageType = "admin_system_status"
	MessageTypeAdminResourceUsage MessageType = "admin_resource_usage"
	MessageTypeAdminUsers         MessageType = "admin_admin_users"
)

// ChatMessage is the wire envelope exchanged over a session. Commands and
// events share it; unused fields are omitted.
type ChatMessage struct {
	Type      MessageType `json:"type"`
	Room      string      `json:"room,omitempty"`
	Sender    string      `json:"sender,omitempty"`
	Content   string      `json:"content,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
	Password  string      `json:"password,omitempty"`
	Nickname  string      `json:"nickname,omitempty"`
	Query     string      `json:"query,omitempty"`

	Success  *bool         `json:"success,omitempty"`
	Users    []RoomUser    `json:"users,omitempty"`
	Messages []ChatMessage `json:"messages,omitempty"`
	Rooms    []RoomInfo    `json:"rooms,omitempty"`
	Data     interface{}   `json:"data,omitempty"`
}

// RoomUser is one roster entry, ordered by join time.
type RoomUser struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

// RoomInfo is the client-visible view of a room. The password never leaves
// the server; only the private flag does.
type RoomInfo struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Category         string `json:"category"`
	IsPrivate        bool   `json:"isPrivate"`
	ParticipantLimit int    `json:"participantLimit,omitempty"`
	CreatedBy        string `json:"createdBy,omitempty"`
}

// SystemMessage builds a room-scoped announcement.
func SystemMessage(room, content, timestamp string) ChatMessage {
	return ChatMessage{
		Type:      MessageTypeSystem,
		Room:      room,
		Sender:    "System",
		Content:   content,
		Timestamp: timestamp,
	}
}

// ErrorMessage builds an error event for a single session.
func ErrorMessage(content string) ChatMessage {
	return ChatMessage{Type: MessageTypeError, Content: content}
}
