package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/thiccolasscage/sorrynotsorry69/jar"
	"github.com/thiccolasscage/sorrynotsorry69/jar/cachestore"

	"github.com/bwmarrin/discordgo"
)

// Converts a gateway message into the engine's event. Animated embeds and GIF attachments are appended to the content, so that the GIF filter sees them.
func messageEvent(m *discordgo.Message) jar.MessageEvent {
	var sb strings.Builder
	sb.WriteString(m.Content)
	for _, e := range m.Embeds {
		if e != nil && e.Type == discordgo.EmbedTypeGifv && e.URL != "" && !strings.Contains(m.Content, e.URL) {
			sb.WriteString("\n")
			sb.WriteString(e.URL)
		}
	}
	for _, a := range m.Attachments {
		if a != nil && a.ContentType == "image/gif" {
			sb.WriteString("\n")
			sb.WriteString(a.URL)
		}
	}
	evt := jar.MessageEvent{
		MessageID: m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Content:   sb.String(),
		CreatedAt: m.Timestamp,
	}
	if m.Author != nil {
		evt.AuthorID = m.Author.ID
		evt.AuthorBot = m.Author.Bot
	}
	return evt
}

func (s *Server) handleMessageCreate(sess *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.GuildID == "" {
		// direct messages are not moderated
		return
	}
	if sess.State != nil && sess.State.User != nil && m.Author.ID == sess.State.User.ID {
		return
	}
	messagesReceived.Inc()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	ctx, span := tracer.Start(ctx, "handleMessageCreate")
	defer span.End()

	if _, err := s.engine.ProcessMessage(ctx, messageEvent(m.Message)); err != nil {
		messagesFailed.Inc()
		s.logger.Error("failed to process message", "message", m.ID, "user", m.Author.ID, "err", err)
	}
}

// Nickname changes invalidate the cached display name, so leaderboards pick up the new one.
func (s *Server) handleMemberUpdate(sess *discordgo.Session, m *discordgo.GuildMemberUpdate) {
	if m.Member == nil || m.User == nil {
		return
	}
	if m.BeforeUpdate != nil && m.BeforeUpdate.Nick == m.Nick {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cachestore.ForgetDisplayName(ctx, s.names, m.GuildID, m.User.ID); err != nil {
		s.logger.Warn("failed to purge cached display name", "guild", m.GuildID, "user", m.User.ID, "err", err)
	}
}

// Converts an interaction into a command request. Options are flattened into plain values: strings, int64s, and user ids.
func interactionRequest(i *discordgo.InteractionCreate) *commandRequest {
	data := i.ApplicationCommandData()
	req := &commandRequest{
		Name:      data.Name,
		ChannelID: i.ChannelID,
		Subject:   jar.Subject{GuildID: i.GuildID},
		Options:   make(map[string]any, len(data.Options)),
	}
	switch {
	case i.Member != nil && i.Member.User != nil:
		req.Subject.UserID = i.Member.User.ID
		req.IsAdmin = i.Member.Permissions&discordgo.PermissionAdministrator != 0
	case i.User != nil:
		req.Subject.UserID = i.User.ID
	}
	for _, opt := range data.Options {
		switch opt.Type {
		case discordgo.ApplicationCommandOptionInteger:
			// integers arrive as JSON numbers
			if f, ok := opt.Value.(float64); ok {
				req.Options[opt.Name] = int64(f)
			}
		default:
			req.Options[opt.Name] = opt.Value
		}
	}
	return req
}

func (s *Server) handleInteraction(sess *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ctx, span := tracer.Start(ctx, "handleInteraction")
	defer span.End()

	req := interactionRequest(i)
	rep := s.dispatch(ctx, req)

	var flags discordgo.MessageFlags
	if rep.Ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := sess.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: rep.Content,
			Flags:   flags,
			// mentions in replies are rendered, but never ping anyone
			AllowedMentions: &discordgo.MessageAllowedMentions{},
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		s.logger.Warn("failed to respond to interaction", "command", req.Name, "user", req.Subject.UserID, "err", err)
	}
}

// Registers every slash command globally. Existing commands with the same name are overwritten.
func (s *Server) registerCommands() error {
	appID := s.session.State.User.ID
	for _, cmd := range commandTable {
		if _, err := s.session.ApplicationCommandCreate(appID, "", cmd.def); err != nil {
			return fmt.Errorf("failed to register command %s: %w", cmd.def.Name, err)
		}
	}
	s.logger.Info("registered slash commands", "count", len(commandTable))
	return nil
}
