package models

import (
	"time"
)

// GlobalConversationID is the reserved id of the single shared room every
// member can see.
const GlobalConversationID = "global"

type MessageKind string

const (
	KindText  MessageKind = "text"
	KindOther MessageKind = "other"
)

// StatusSent is the only delivery status the store ever persists. The
// richer sending/failed states exist purely on the client.
const StatusSent = "sent"

// Message is a confirmed chat message. The store assigns ID and Timestamp
// atomically on append; after that the message is immutable. IDs are
// ULIDs, so lexicographic order matches arrival order within a
// conversation.
type Message struct {
	ID             string      `bson:"_id" json:"id"`
	ConversationID string      `bson:"conversation_id" json:"conversationId"`
	UserID         string      `bson:"user_id" json:"userId"`
	UserName       string      `bson:"user_name" json:"userName"`
	UserAvatar     *string     `bson:"user_avatar,omitempty" json:"userAvatar"`
	Text           string      `bson:"text" json:"text"`
	Kind           MessageKind `bson:"kind" json:"type"`
	Timestamp      time.Time   `bson:"timestamp" json:"timestamp"`
	Status         string      `bson:"status" json:"status"`
}

// SenderProfile is the display identity attached to an outgoing message.
// It comes from the auth layer; the chat core trusts it as-is.
type SenderProfile struct {
	UserID string
	Name   string
	Avatar *string
}
