package common

type NotificationType string

const (
	NewPostType      NotificationType = "new_post"
	PostReactionType NotificationType = "new_reaction"
	PostCommentType  NotificationType = "new_comment"
	MessageType      NotificationType = "new_message"
	SystemType       NotificationType = "system"
)

// NotificationEvent is a single fan-out unit: one recipient, one push.
type NotificationEvent struct {
	Type          NotificationType
	UserID        uint64 // recipient
	TriggerUserID *uint64
	Title         string
	Body          string
	Metadata      map[string]string
}

// Observer receives every notification event published to the manager.
type Observer interface {
	Update(event NotificationEvent) error
	Name() string
}

// Subject is the fan-out side of the observer pair.
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	Notify(event NotificationEvent)
	NotifyAsync(event NotificationEvent)
}
