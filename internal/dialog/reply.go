package dialog

import "github.com/Marksalz/AISecretary/internal/calendar"

// Reply is the envelope every turn produces. Failures surface here as normal
// replies; the engine never lets an error escape to the transport layer.
type Reply struct {
	Success              bool      `json:"success"`
	RequiresConfirmation bool      `json:"requiresConfirmation,omitempty"`
	Data                 ReplyData `json:"data"`
}

type ReplyData struct {
	Type    string           `json:"type"`
	Message string           `json:"message"`
	Event   *calendar.Event  `json:"event,omitempty"`
	Events  []calendar.Event `json:"events,omitempty"`
}

const (
	TypeChatResponse   = "chat_response"
	TypeEventPending   = "calendar_event_pending"
	TypeEventAdded     = "calendar_event_added"
	TypeEventUpdated   = "calendar_event_updated"
	TypeEventDeleted   = "calendar_event_deleted"
	TypeEventCancelled = "calendar_event_cancelled"
	TypeAvailability   = "calendar_availability"
	TypeEventQuery     = "calendar_event_query"
)

func chatReply(message string) Reply {
	return Reply{
		Success: true,
		Data: ReplyData{
			Type:    TypeChatResponse,
			Message: message,
		},
	}
}

// failReply marks a turn that could not do what the user asked. It is still a
// normal reply; errors never escape to the transport layer.
func failReply(message string) Reply {
	return Reply{
		Success: false,
		Data: ReplyData{
			Type:    TypeChatResponse,
			Message: message,
		},
	}
}

// pendingReply carries the staged event preview and asks for confirm/cancel.
func pendingReply(message string, preview *calendar.Event) Reply {
	return Reply{
		Success:              true,
		RequiresConfirmation: true,
		Data: ReplyData{
			Type:    TypeEventPending,
			Message: message,
			Event:   preview,
		},
	}
}

func eventReply(replyType, message string, ev *calendar.Event) Reply {
	return Reply{
		Success: true,
		Data: ReplyData{
			Type:    replyType,
			Message: message,
			Event:   ev,
		},
	}
}

func eventsReply(replyType, message string, events []calendar.Event) Reply {
	return Reply{
		Success: true,
		Data: ReplyData{
			Type:    replyType,
			Message: message,
			Events:  events,
		},
	}
}
