// Platform side effects: message deletes, reactions, notifications, role changes, and the mute restriction.
//
// Everything in the engine which touches the chat platform goes through the Sink interface, so that the core pipelines can be driven by a Recorder in tests.
package sink

import (
	"context"
	"time"

	"github.com/thiccolasscage/sorrynotsorry69/jar"
)

// Name of the role used to restrict muted users.
const MuteRoleName = "Muted"

type Sink interface {
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	AddReaction(ctx context.Context, channelID, messageID, emoji string) error
	SendMessage(ctx context.Context, channelID, content string) error
	AddRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveRole(ctx context.Context, guildID, userID, roleID string) error
	// Applies the mute restriction (the "Muted" role, created on demand).
	Restrict(ctx context.Context, guildID, userID string) error
	Unrestrict(ctx context.Context, guildID, userID string) error
	DisplayName(ctx context.Context, guildID, userID string) (string, error)
}

// A moderator-facing notice, mirrored out-of-band (eg, to slack).
type Notice struct {
	Subject   jar.Subject
	Kind      string
	Reason    string
	Duration  time.Duration
	ExpiresAt time.Time
}

type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}
