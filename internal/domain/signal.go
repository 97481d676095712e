package domain

type SignalType string

// Signals raised by the chat pipeline whenever state relevant to statistics
// changes. The aggregator coalesces them; each one means "recompute at least
// once after me".
const (
	SignalMembershipChanged SignalType = "membership_changed"
	SignalMessageSent       SignalType = "message_sent"
	SignalRoomCreated       SignalType = "room_created"
	SignalRoomDeleted       SignalType = "room_deleted"
)

type Signal struct {
	Type SignalType `json:"type"`
	Room string     `json:"room,omitempty"`
}
