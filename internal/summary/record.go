package summary

import "time"

// Message is a platform channel message as seen by the fetcher. The bot layer
// adapts the gateway's own type into this so the pipeline stays free of SDK
// types.
type Message struct {
	ID             string
	Sender         string
	Content        string
	ReplyToID      string
	HasAttachments bool
	FromBot        bool
	CreatedAt      time.Time
}

// Record is the normalized unit sent to the model. reply_to and attachments
// must be omitted from the serialized form when absent: the serialized byte
// count feeds the token estimate, so empty keys would inflate the budget math.
type Record struct {
	MessageID   string `json:"message_id"`
	Sender      string `json:"sender"`
	Content     string `json:"content"`
	ReplyTo     string `json:"reply_to,omitempty"`
	Attachments bool   `json:"attachments,omitempty"`
}

func newRecord(msg Message) Record {
	return Record{
		MessageID:   msg.ID,
		Sender:      msg.Sender,
		Content:     msg.Content,
		ReplyTo:     msg.ReplyToID,
		Attachments: msg.HasAttachments,
	}
}
