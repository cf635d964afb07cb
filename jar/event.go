package jar

import (
	"fmt"
	"time"
)

// A single chat message, as delivered by the platform client. Immutable.
type MessageEvent struct {
	// Platform identifier of the message. Used for deletes and reactions.
	MessageID string
	ChannelID string
	GuildID   string
	AuthorID  string
	// Whether the author is a bot account. Bot messages are never moderated.
	AuthorBot bool
	Content   string
	CreatedAt time.Time
}

// Checks that the event carries the identifiers the pipelines need.
func (evt *MessageEvent) Validate() error {
	if evt.AuthorID == "" {
		return &ValidationError{Field: "author", Reason: "missing author id"}
	}
	if evt.ChannelID == "" {
		return &ValidationError{Field: "channel", Reason: "missing channel id"}
	}
	return nil
}

// The user (within a guild) that an action is applied to.
type Subject struct {
	GuildID string
	UserID  string
}

func (s Subject) String() string {
	return fmt.Sprintf("%s/%s", s.GuildID, s.UserID)
}

// Renders a platform mention for the user.
func Mention(userID string) string {
	return fmt.Sprintf("<@%s>", userID)
}
