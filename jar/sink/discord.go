package sink

import (
	"context"
	"log/slog"

	"github.com/thiccolasscage/sorrynotsorry69/jar"
	"github.com/thiccolasscage/sorrynotsorry69/jar/cachestore"

	"github.com/bwmarrin/discordgo"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/time/rate"
)

// Sink backed by a discord bot session. REST calls are paced by a shared rate limiter.
type Discord struct {
	Session *discordgo.Session
	Limiter *rate.Limiter
	Names   cachestore.CacheStore
	Logger  *slog.Logger

	// guild id to mute role id
	muteRoles *xsync.MapOf[string, string]
}

var _ Sink = (*Discord)(nil)

func NewDiscord(session *discordgo.Session, names cachestore.CacheStore, ratePerSecond float64, logger *slog.Logger) *Discord {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discord{
		Session:   session,
		Limiter:   rate.NewLimiter(rate.Limit(ratePerSecond), 5),
		Names:     names,
		Logger:    logger,
		muteRoles: xsync.NewMapOf[string, string](),
	}
}

func (d *Discord) call(ctx context.Context, op string, fn func(opt discordgo.RequestOption) error) error {
	if err := d.Limiter.Wait(ctx); err != nil {
		return &jar.ExternalActionError{Op: op, Err: err}
	}
	if err := fn(discordgo.WithContext(ctx)); err != nil {
		sinkFailures.WithLabelValues(op).Inc()
		return &jar.ExternalActionError{Op: op, Err: err}
	}
	return nil
}

func (d *Discord) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return d.call(ctx, "delete-message", func(opt discordgo.RequestOption) error {
		return d.Session.ChannelMessageDelete(channelID, messageID, opt)
	})
}

func (d *Discord) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	return d.call(ctx, "add-reaction", func(opt discordgo.RequestOption) error {
		return d.Session.MessageReactionAdd(channelID, messageID, emoji, opt)
	})
}

func (d *Discord) SendMessage(ctx context.Context, channelID, content string) error {
	return d.call(ctx, "send-message", func(opt discordgo.RequestOption) error {
		_, err := d.Session.ChannelMessageSend(channelID, content, opt)
		return err
	})
}

func (d *Discord) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	return d.call(ctx, "add-role", func(opt discordgo.RequestOption) error {
		return d.Session.GuildMemberRoleAdd(guildID, userID, roleID, opt)
	})
}

func (d *Discord) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	return d.call(ctx, "remove-role", func(opt discordgo.RequestOption) error {
		return d.Session.GuildMemberRoleRemove(guildID, userID, roleID, opt)
	})
}

// Finds the guild's mute role, creating it (and denying send-messages on every channel) if it doesn't exist yet.
func (d *Discord) muteRole(ctx context.Context, guildID string) (string, error) {
	if id, ok := d.muteRoles.Load(guildID); ok {
		return id, nil
	}

	var roles []*discordgo.Role
	err := d.call(ctx, "list-roles", func(opt discordgo.RequestOption) error {
		var err error
		roles, err = d.Session.GuildRoles(guildID, opt)
		return err
	})
	if err != nil {
		return "", err
	}
	for _, r := range roles {
		if r.Name == MuteRoleName {
			d.muteRoles.Store(guildID, r.ID)
			return r.ID, nil
		}
	}

	var role *discordgo.Role
	err = d.call(ctx, "create-role", func(opt discordgo.RequestOption) error {
		var err error
		role, err = d.Session.GuildRoleCreate(guildID, &discordgo.RoleParams{Name: MuteRoleName}, opt)
		return err
	})
	if err != nil {
		return "", err
	}
	d.Logger.Info("created mute role", "guild", guildID, "role", role.ID)

	var channels []*discordgo.Channel
	err = d.call(ctx, "list-channels", func(opt discordgo.RequestOption) error {
		var err error
		channels, err = d.Session.GuildChannels(guildID, opt)
		return err
	})
	if err != nil {
		return "", err
	}
	for _, ch := range channels {
		err := d.call(ctx, "set-channel-permission", func(opt discordgo.RequestOption) error {
			return d.Session.ChannelPermissionSet(ch.ID, role.ID, discordgo.PermissionOverwriteTypeRole, 0, discordgo.PermissionSendMessages, opt)
		})
		if err != nil {
			// one locked-down channel shouldn't block the rest
			d.Logger.Warn("failed to deny send-messages for mute role", "guild", guildID, "channel", ch.ID, "err", err)
		}
	}
	d.muteRoles.Store(guildID, role.ID)
	return role.ID, nil
}

func (d *Discord) Restrict(ctx context.Context, guildID, userID string) error {
	roleID, err := d.muteRole(ctx, guildID)
	if err != nil {
		return err
	}
	return d.AddRole(ctx, guildID, userID, roleID)
}

func (d *Discord) Unrestrict(ctx context.Context, guildID, userID string) error {
	roleID, err := d.muteRole(ctx, guildID)
	if err != nil {
		return err
	}
	return d.RemoveRole(ctx, guildID, userID, roleID)
}

func (d *Discord) DisplayName(ctx context.Context, guildID, userID string) (string, error) {
	return cachestore.DisplayName(ctx, d.Names, guildID, userID, func(ctx context.Context) (string, error) {
		var member *discordgo.Member
		err := d.call(ctx, "get-member", func(opt discordgo.RequestOption) error {
			var err error
			member, err = d.Session.GuildMember(guildID, userID, opt)
			return err
		})
		if err != nil {
			return "", err
		}
		if member.Nick != "" {
			return member.Nick, nil
		}
		if member.User != nil {
			return member.User.Username, nil
		}
		return userID, nil
	})
}
