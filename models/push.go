package models

// ExpoPushMessage represents a single push notification message for the Expo push API
type ExpoPushMessage struct {
	To        string                 `json:"to"`
	Title     string                 `json:"title,omitempty"`
	Body      string                 `json:"body,omitempty"`
	Sound     string                 `json:"sound,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Priority  string                 `json:"priority,omitempty"`
	ChannelID string                 `json:"channelId,omitempty"`
}

// PushTicket is the per message delivery ticket returned by the Expo push API
type PushTicket struct {
	Status  string             `json:"status"`
	ID      string             `json:"id,omitempty"`
	Message string             `json:"message,omitempty"`
	Details *PushTicketDetails `json:"details,omitempty"`
}

// PushTicketDetails carries the classified error of a failed ticket
type PushTicketDetails struct {
	Error string `json:"error,omitempty"`
}

// ErrorCode returns the classified error of the ticket, if any.
func (t PushTicket) ErrorCode() string {
	if t.Details == nil {
		return ""
	}
	return t.Details.Error
}
