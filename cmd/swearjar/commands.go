package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/thiccolasscage/sorrynotsorry69/jar"
	"github.com/thiccolasscage/sorrynotsorry69/jar/economy"
	"github.com/thiccolasscage/sorrynotsorry69/jar/enforcement"
	"github.com/thiccolasscage/sorrynotsorry69/jar/engine"
	"github.com/thiccolasscage/sorrynotsorry69/jar/ledger"
	"github.com/thiccolasscage/sorrynotsorry69/jar/settings"

	"github.com/bwmarrin/discordgo"
)

// A slash command invocation, independent of the gateway types.
type commandRequest struct {
	Name      string
	Subject   jar.Subject
	ChannelID string
	IsAdmin   bool
	// option name to value: string, int64, or a user id string
	Options map[string]any
}

func (r *commandRequest) str(name string) string {
	v, _ := r.Options[name].(string)
	return strings.TrimSpace(v)
}

func (r *commandRequest) integer(name string) int64 {
	switch v := r.Options[name].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

type reply struct {
	Content   string
	Ephemeral bool
}

func publicReply(format string, args ...any) *reply {
	return &reply{Content: fmt.Sprintf(format, args...)}
}

func privateReply(format string, args ...any) *reply {
	return &reply{Content: fmt.Sprintf(format, args...), Ephemeral: true}
}

type command struct {
	def     *discordgo.ApplicationCommand
	admin   bool
	handler func(s *Server, ctx context.Context, req *commandRequest) (*reply, error)
}

var adminPermission int64 = discordgo.PermissionAdministrator

func stringOpt(name, desc string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionString, Name: name, Description: desc, Required: required}
}

func intOpt(name, desc string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionInteger, Name: name, Description: desc, Required: required}
}

func userOpt(name, desc string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionUser, Name: name, Description: desc, Required: required}
}

func userCommand(name, desc string, h func(s *Server, ctx context.Context, req *commandRequest) (*reply, error), opts ...*discordgo.ApplicationCommandOption) command {
	return command{
		def:     &discordgo.ApplicationCommand{Name: name, Description: desc, Options: opts},
		handler: h,
	}
}

func adminCommand(name, desc string, h func(s *Server, ctx context.Context, req *commandRequest) (*reply, error), opts ...*discordgo.ApplicationCommandOption) command {
	return command{
		def: &discordgo.ApplicationCommand{
			Name:                     name,
			Description:              desc,
			Options:                  opts,
			DefaultMemberPermissions: &adminPermission,
		},
		admin:   true,
		handler: h,
	}
}

var commandTable = []command{
	userCommand("balance", "Check your remaining coins.", (*Server).cmdBalance),
	userCommand("daily", "Collect your daily coins reward.", (*Server).cmdDaily),
	userCommand("shop", "View available items in the shop.", (*Server).cmdShop),
	userCommand("buy", "Buy an item from the shop.", (*Server).cmdBuy,
		intOpt("item_id", "The ID of the item you want to buy", true)),
	userCommand("inventory", "View your inventory.", (*Server).cmdInventory),
	userCommand("use", "Use an item from your inventory.", (*Server).cmdUse,
		intOpt("item_id", "The ID of the item you want to use", true),
		userOpt("target", "The user to target with this item (if applicable)", false)),
	userCommand("leaderboard", "View the swear jar leaderboard.", (*Server).cmdLeaderboard),
	userCommand("richest", "View the users with the most coins.", (*Server).cmdRichest),
	userCommand("positive_words_list", "View all positive words and their rewards.", (*Server).cmdPositiveList),
	userCommand("moderation_levels", "View information about moderation levels and their reactions.", (*Server).cmdModerationLevels),
	userCommand("ping", "Check if the bot is online and responding.", (*Server).cmdPing),

	adminCommand("give_coins", "Give coins to a user (admin only).", (*Server).cmdGiveCoins,
		userOpt("user", "The user to give coins to", true),
		intOpt("amount", "The amount of coins to give", true)),
	adminCommand("add_shop_item", "Add a new item to the shop.", (*Server).cmdAddShopItem,
		stringOpt("name", "The name of the item", true),
		stringOpt("emoji", "An emoji to represent the item", true),
		intOpt("price", "The price in coins", true),
		stringOpt("description", "A description of what the item does", true),
		stringOpt("role_id", "Optional: The role ID to give when item is purchased", false)),
	adminCommand("update_shop_item", "Update an existing shop item.", (*Server).cmdUpdateShopItem,
		intOpt("item_id", "The ID of the item to update", true),
		stringOpt("name", "New name (leave blank to keep current)", false),
		stringOpt("emoji", "New emoji (leave blank to keep current)", false),
		intOpt("price", "New price (leave blank to keep current)", false),
		stringOpt("description", "New description (leave blank to keep current)", false),
		stringOpt("role_id", "New role ID (leave blank to keep current)", false)),
	adminCommand("remove_shop_item", "Remove an item from the shop.", (*Server).cmdRemoveShopItem,
		intOpt("item_id", "The ID of the item to remove", true)),
	adminCommand("set_currency", "Set the currency name (e.g. gold, tokens).", (*Server).cmdSetCurrency,
		stringOpt("name", "The currency name", true)),
	adminCommand("set_currency_emoji", "Set the emoji used for currency.", (*Server).cmdSetCurrencyEmoji,
		stringOpt("emoji", "The emoji to use as currency symbol", true)),
	adminCommand("set_moderation_reaction", "Set custom reaction emoji for a moderation level.", (*Server).cmdSetModerationReaction,
		intOpt("level", "The moderation level (1-4)", true),
		stringOpt("emoji", "The emoji to use for this level", true)),
	adminCommand("addswear", "Add a new swear word to the list.", (*Server).cmdAddSwear,
		stringOpt("word", "The word to add", true)),
	adminCommand("removeswear", "Remove a word from the swear list.", (*Server).cmdRemoveSwear,
		stringOpt("word", "The word to remove", true)),
	adminCommand("banned_words", "View all banned words.", (*Server).cmdBannedWords),
	adminCommand("addpositive", "Add a new positive word to reward users.", (*Server).cmdAddPositive,
		stringOpt("word", "The positive word to add", true),
		intOpt("reward", "Coins to reward when used (default: 5)", false)),
	adminCommand("removepositive", "Remove a word from the positive words list.", (*Server).cmdRemovePositive,
		stringOpt("word", "The word to remove", true)),
	adminCommand("add_nsfw_word", "Add a new NSFW word to the filter list.", (*Server).cmdAddNSFW,
		stringOpt("word", "The word to filter", true)),
	adminCommand("remove_nsfw_word", "Remove a word from the NSFW filter list.", (*Server).cmdRemoveNSFW,
		stringOpt("word", "The word to remove", true)),
	adminCommand("nsfw_words_list", "View all filtered NSFW words.", (*Server).cmdNSFWList),
	adminCommand("add_gif_filter", "Add a new term to the GIF filter list.", (*Server).cmdAddGifFilter,
		stringOpt("term", "The term to filter", true)),
	adminCommand("remove_gif_filter", "Remove a term from the GIF filter list.", (*Server).cmdRemoveGifFilter,
		stringOpt("term", "The term to remove", true)),
	adminCommand("gif_filters_list", "View all filtered GIF terms.", (*Server).cmdGifFilterList),
}

func init() {
	// registered here since the handler reads commandTable
	commandTable = append(commandTable, userCommand("help", "Display information about the bot's commands and features.", (*Server).cmdHelp))
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commandTable {
		if c.def.Name == name {
			return c, true
		}
	}
	return command{}, false
}

// Runs a command and renders the outcome. Domain and validation errors become user-visible replies; anything else is logged and reported generically.
func (s *Server) dispatch(ctx context.Context, req *commandRequest) *reply {
	cmd, ok := lookupCommand(req.Name)
	if !ok {
		commandsHandled.WithLabelValues("unknown", "error").Inc()
		return privateReply("❌ Unknown command: %s", req.Name)
	}
	if req.Subject.UserID == "" {
		commandsHandled.WithLabelValues(req.Name, "error").Inc()
		return privateReply("❌ Could not identify the calling user.")
	}
	if !s.limits.Allow(req.Subject.UserID) {
		commandsHandled.WithLabelValues(req.Name, "limited").Inc()
		return privateReply("⏳ Slow down! You are running commands too quickly, try again in a minute.")
	}

	var rep *reply
	var err error
	if cmd.admin {
		err = economy.RequireAdmin(req.IsAdmin)
	}
	if err == nil {
		rep, err = cmd.handler(s, ctx, req)
	}

	var de *jar.DomainError
	var ve *jar.ValidationError
	switch {
	case err == nil:
		commandsHandled.WithLabelValues(req.Name, "ok").Inc()
		return rep
	case errors.As(err, &de):
		commandsHandled.WithLabelValues(req.Name, "rejected").Inc()
		if errors.Is(err, jar.ErrNotAuthorized) {
			return privateReply("❌ You need administrator permissions to use /%s!", req.Name)
		}
		return privateReply("❌ %s", capitalize(de.Message))
	case errors.As(err, &ve):
		commandsHandled.WithLabelValues(req.Name, "rejected").Inc()
		return privateReply("⚠️ Invalid %s: %s", ve.Field, ve.Reason)
	default:
		commandsHandled.WithLabelValues(req.Name, "error").Inc()
		s.logger.Error("command failed", "command", req.Name, "user", req.Subject.UserID, "err", err)
		if rep != nil {
			// partial success; the handler has already described what happened
			return rep
		}
		return privateReply("❌ Something went wrong, please try again later.")
	}
}

func capitalize(msg string) string {
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func (s *Server) cmdBalance(ctx context.Context, req *commandRequest) (*reply, error) {
	rec, err := s.ledger.Get(ctx, req.Subject.UserID)
	if err != nil {
		return nil, err
	}
	coins := int64(ledger.DefaultCoins)
	if rec != nil {
		coins = rec.Coins
	}
	cur := s.settings.Current()
	return publicReply("%s You have `%d` %s left!", cur.CurrencyEmoji(), coins, cur.CurrencyName()), nil
}

func (s *Server) cmdDaily(ctx context.Context, req *commandRequest) (*reply, error) {
	res, err := s.ledger.ClaimDaily(ctx, req.Subject.UserID)
	if err != nil {
		return nil, err
	}
	if !res.Claimed {
		left := res.Remaining.Round(time.Minute)
		return privateReply("⏰ You already claimed your daily reward! Try again in %dh %dm.",
			int(left.Hours()), int(left.Minutes())%60), nil
	}
	cur := s.settings.Current()
	return publicReply("🎁 You claimed your daily reward of %d %s! You now have %d %s.",
		res.Reward, cur.CurrencyName(), res.Record.Coins, cur.CurrencyEmoji()), nil
}

func (s *Server) cmdShop(ctx context.Context, req *commandRequest) (*reply, error) {
	items, err := s.economy.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return privateReply("🏪 The shop is currently empty!"), nil
	}
	rec, err := s.ledger.Get(ctx, req.Subject.UserID)
	if err != nil {
		return nil, err
	}
	coins := int64(ledger.DefaultCoins)
	if rec != nil {
		coins = rec.Coins
	}
	cur := s.settings.Current()

	var sb strings.Builder
	sb.WriteString("🏪 **Shop**: buy items with your " + cur.CurrencyName() + "!\n")
	for _, it := range items {
		fmt.Fprintf(&sb, "%s **%s** - %d %s | ID: `%d` | %s\n", it.Emoji, it.Name, it.Price, cur.CurrencyName(), it.ID, it.Description)
	}
	fmt.Fprintf(&sb, "You have %d %s", coins, cur.CurrencyName())
	return publicReply("%s", sb.String()), nil
}

func (s *Server) cmdBuy(ctx context.Context, req *commandRequest) (*reply, error) {
	res, err := s.economy.Buy(ctx, economy.BuyRequest{
		Subject: req.Subject,
		ItemID:  uint(req.integer("item_id")),
	})
	if err != nil {
		return nil, err
	}
	cur := s.settings.Current()
	item := res.Item

	var sb strings.Builder
	switch {
	case item.Name == economy.ItemMoneyBag:
		fmt.Fprintf(&sb, "%s You bought %s and received %d bonus %s!", item.Emoji, item.Name, res.Bonus, cur.CurrencyName())
	case res.WarningRemoved:
		fmt.Fprintf(&sb, "%s You used %s! One warning has been removed from your record (%d/%d).", item.Emoji, item.Name, res.Record.Warnings, ledger.MuteThreshold)
	default:
		fmt.Fprintf(&sb, "✅ You bought %s %s for %d %s!", item.Emoji, item.Name, item.Price, cur.CurrencyName())
		if res.AddedToInventory {
			sb.WriteString(" It has been added to your inventory.")
		}
	}
	if res.RoleGranted {
		fmt.Fprintf(&sb, " You received the <@&%s> role!", item.RoleID)
	} else if res.RoleErr != nil {
		sb.WriteString(" ⚠️ The role could not be granted, please contact an administrator.")
	}
	fmt.Fprintf(&sb, " You now have %d %s.", res.Record.Coins, cur.CurrencyEmoji())
	return publicReply("%s", sb.String()), nil
}

func (s *Server) cmdInventory(ctx context.Context, req *commandRequest) (*reply, error) {
	entries, err := s.economy.Inventory(ctx, req.Subject.UserID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return privateReply("🎒 Your inventory is empty! Visit the /shop to buy items."), nil
	}
	var sb strings.Builder
	sb.WriteString("🎒 **Your Inventory**\n")
	for _, e := range entries {
		fmt.Fprintf(&sb, "%s **%s** x%d | ID: `%d` | %s\n", e.Item.Emoji, e.Item.Name, e.Quantity, e.Item.ID, e.Item.Description)
	}
	return privateReply("%s", strings.TrimRight(sb.String(), "\n")), nil
}

func (s *Server) cmdUse(ctx context.Context, req *commandRequest) (*reply, error) {
	target := req.str("target")
	res, err := s.economy.Use(ctx, economy.UseRequest{
		Subject: req.Subject,
		ItemID:  uint(req.integer("item_id")),
		Target:  target,
	})
	if err != nil {
		if res != nil && res.Outcome == economy.UseMuted {
			return privateReply("⚠️ Your %s was used, but %s could not be muted.", res.Item.Name, jar.Mention(target)), err
		}
		return nil, err
	}
	switch res.Outcome {
	case economy.UseMuted:
		msg := fmt.Sprintf("🔇 %s has been muted for %d minutes by %s!", jar.Mention(target), int(enforcement.TokenMuteDuration.Minutes()), jar.Mention(req.Subject.UserID))
		if res.Mute != nil && res.Mute.RestrictErr != nil {
			msg += " ⚠️ The mute role could not be applied."
		}
		return publicReply("%s", msg), nil
	case economy.UseSwearPassArmed:
		return publicReply("%s Swear Pass activated! Your next swear is on the house.", s.settings.Current().SwearPassReaction()), nil
	default:
		return privateReply("🤷 %s %s has no use action.", res.Item.Emoji, res.Item.Name), nil
	}
}

func (s *Server) standingsReply(title string, standings []engine.Standing, line func(st engine.Standing) string) *reply {
	if len(standings) == 0 {
		return publicReply("📊 Nobody is on the board yet!")
	}
	var sb strings.Builder
	sb.WriteString(title + "\n")
	for _, st := range standings {
		fmt.Fprintf(&sb, "%d. %s: %s\n", st.Rank, st.DisplayName, line(st))
	}
	return publicReply("%s", strings.TrimRight(sb.String(), "\n"))
}

func (s *Server) cmdLeaderboard(ctx context.Context, req *commandRequest) (*reply, error) {
	standings, err := s.engine.Leaderboard(ctx, req.Subject.GuildID, engine.DefaultLeaderboardSize)
	if err != nil {
		return nil, err
	}
	return s.standingsReply("🏆 **Swear Jar Leaderboard**", standings, func(st engine.Standing) string {
		return fmt.Sprintf("%d swears", st.SwearCount)
	}), nil
}

func (s *Server) cmdRichest(ctx context.Context, req *commandRequest) (*reply, error) {
	standings, err := s.engine.Richest(ctx, req.Subject.GuildID, engine.DefaultLeaderboardSize)
	if err != nil {
		return nil, err
	}
	cur := s.settings.Current()
	return s.standingsReply("💰 **Richest Users**", standings, func(st engine.Standing) string {
		return fmt.Sprintf("%d %s", st.Coins, cur.CurrencyEmoji())
	}), nil
}

func (s *Server) cmdPositiveList(ctx context.Context, req *commandRequest) (*reply, error) {
	words := s.lexicons.Current().PositiveWords()
	if len(words) == 0 {
		return publicReply("📋 No positive words have been added yet!"), nil
	}
	keys := make([]string, 0, len(words))
	for w := range words {
		keys = append(keys, w)
	}
	sort.Strings(keys)
	cur := s.settings.Current()
	var sb strings.Builder
	sb.WriteString("😊 **Positive Words**\n")
	for _, w := range keys {
		fmt.Fprintf(&sb, "`%s`: %d %s\n", w, words[w], cur.CurrencyName())
	}
	return publicReply("%s", strings.TrimRight(sb.String(), "\n")), nil
}

func (s *Server) cmdModerationLevels(ctx context.Context, req *commandRequest) (*reply, error) {
	cur := s.settings.Current()
	return publicReply("🛡️ **Moderation Levels**\n"+
		"%s Level 1 (mild): first offenses\n"+
		"%s Level 2 (moderate): one warning, or %d+ swears\n"+
		"%s Level 3 (severe): two warnings\n"+
		"%s Level 4 (muted): %d warnings, muted for %d minutes",
		cur.Reaction(jar.LevelMild),
		cur.Reaction(jar.LevelModerate), engine.FrequentOffenderCount,
		cur.Reaction(jar.LevelSevere),
		cur.Reaction(jar.LevelMuted), ledger.MuteThreshold, int(enforcement.WarningMuteDuration.Minutes())), nil
}

func (s *Server) cmdPing(ctx context.Context, req *commandRequest) (*reply, error) {
	if s.session != nil {
		return publicReply("🏓 Pong! Gateway latency %dms.", s.session.HeartbeatLatency().Milliseconds()), nil
	}
	return publicReply("🏓 Pong!"), nil
}

// Lists commands from the table itself. Admin commands are only listed for admins.
func (s *Server) cmdHelp(ctx context.Context, req *commandRequest) (*reply, error) {
	var users, admins strings.Builder
	for _, c := range commandTable {
		sb := &users
		if c.admin {
			sb = &admins
		}
		fmt.Fprintf(sb, "`/%s` - %s\n", c.def.Name, c.def.Description)
	}

	var sb strings.Builder
	sb.WriteString("🤖 **Swear Jar Bot Help**\n")
	sb.WriteString("This bot watches chat for swear words, fines offenders, and rewards positive words with coins to spend in the shop.\n\n")
	sb.WriteString("📝 **User Commands**\n")
	sb.WriteString(users.String())
	if req.IsAdmin {
		sb.WriteString("\n⚙️ **Admin Commands**\n")
		sb.WriteString(admins.String())
	}
	sb.WriteString("\nUse `/moderation_levels` to see what each reaction means.")
	return privateReply("%s", sb.String()), nil
}

func (s *Server) cmdGiveCoins(ctx context.Context, req *commandRequest) (*reply, error) {
	target := req.str("user")
	amount := req.integer("amount")
	rec, err := s.economy.GrantAdmin(ctx, req.IsAdmin, target, amount)
	if err != nil {
		return nil, err
	}
	cur := s.settings.Current()
	return publicReply("✅ Gave %d %s to %s! They now have %d %s.", amount, cur.CurrencyName(), jar.Mention(target), rec.Coins, cur.CurrencyEmoji()), nil
}

func (s *Server) cmdAddShopItem(ctx context.Context, req *commandRequest) (*reply, error) {
	item, err := s.economy.AddItem(ctx, economy.ShopItem{
		Name:        req.str("name"),
		Emoji:       req.str("emoji"),
		Price:       req.integer("price"),
		Description: req.str("description"),
		RoleID:      req.str("role_id"),
	})
	if err != nil {
		return nil, err
	}
	return publicReply("✅ Added %s **%s** to the shop for %d %s! (ID: `%d`)", item.Emoji, item.Name, item.Price, s.settings.Current().CurrencyName(), item.ID), nil
}

func (s *Server) cmdUpdateShopItem(ctx context.Context, req *commandRequest) (*reply, error) {
	item, err := s.economy.UpdateItem(ctx, uint(req.integer("item_id")), economy.ItemUpdate{
		Name:        req.str("name"),
		Emoji:       req.str("emoji"),
		Price:       req.integer("price"),
		Description: req.str("description"),
		RoleID:      req.str("role_id"),
	})
	if err != nil {
		return nil, err
	}
	return publicReply("✅ Updated %s **%s** (ID: `%d`): %d %s | %s", item.Emoji, item.Name, item.ID, item.Price, s.settings.Current().CurrencyName(), item.Description), nil
}

func (s *Server) cmdRemoveShopItem(ctx context.Context, req *commandRequest) (*reply, error) {
	id := uint(req.integer("item_id"))
	item, err := s.economy.Item(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.economy.RemoveItem(ctx, id); err != nil {
		return nil, err
	}
	return publicReply("🗑️ Removed %s **%s** from the shop.", item.Emoji, item.Name), nil
}

func (s *Server) cmdSetCurrency(ctx context.Context, req *commandRequest) (*reply, error) {
	name := req.str("name")
	if err := s.settings.Set(ctx, settings.KeyCurrency, name); err != nil {
		return nil, err
	}
	return publicReply("💰 Currency name set to `%s`!", name), nil
}

func (s *Server) cmdSetCurrencyEmoji(ctx context.Context, req *commandRequest) (*reply, error) {
	emoji := req.str("emoji")
	if err := s.settings.Set(ctx, settings.KeyCurrencyEmoji, emoji); err != nil {
		return nil, err
	}
	return publicReply("✅ Currency emoji set to %s!", emoji), nil
}

func (s *Server) cmdSetModerationReaction(ctx context.Context, req *commandRequest) (*reply, error) {
	level := req.integer("level")
	emoji := req.str("emoji")
	if err := s.settings.SetReaction(ctx, int(level), emoji); err != nil {
		return nil, err
	}
	return publicReply("✅ Level %d (%s) reaction set to %s!", level, jar.ModerationLevel(level), emoji), nil
}

func (s *Server) cmdAddSwear(ctx context.Context, req *commandRequest) (*reply, error) {
	word := req.str("word")
	if err := s.lexicons.AddSwear(ctx, word); err != nil {
		return nil, err
	}
	return privateReply("✅ Added `%s` to the swear list!", strings.ToLower(word)), nil
}

func (s *Server) cmdRemoveSwear(ctx context.Context, req *commandRequest) (*reply, error) {
	return s.removeWord(ctx, req.str("word"), "swear list", s.lexicons.RemoveSwear)
}

func (s *Server) removeWord(ctx context.Context, word, list string, remove func(ctx context.Context, word string) (bool, error)) (*reply, error) {
	ok, err := remove(ctx, word)
	if err != nil {
		return nil, err
	}
	if !ok {
		return privateReply("⚠️ `%s` is not in the %s.", word, list), nil
	}
	return privateReply("✅ Removed `%s` from the %s!", strings.ToLower(word), list), nil
}

func wordListReply(title string, words []string) *reply {
	if len(words) == 0 {
		return privateReply("📋 %s: none yet!", title)
	}
	return privateReply("📋 **%s** (%d)\n`%s`", title, len(words), strings.Join(words, "`, `"))
}

func (s *Server) cmdBannedWords(ctx context.Context, req *commandRequest) (*reply, error) {
	return wordListReply("Banned Words", s.lexicons.Current().SwearWords()), nil
}

func (s *Server) cmdAddPositive(ctx context.Context, req *commandRequest) (*reply, error) {
	word := req.str("word")
	if err := s.lexicons.AddPositive(ctx, word, int(req.integer("reward"))); err != nil {
		return nil, err
	}
	reward, _ := s.lexicons.Current().PositiveReward(strings.ToLower(word))
	return privateReply("✅ Added `%s` to positive words with a reward of %d %s!", strings.ToLower(word), reward, s.settings.Current().CurrencyName()), nil
}

func (s *Server) cmdRemovePositive(ctx context.Context, req *commandRequest) (*reply, error) {
	return s.removeWord(ctx, req.str("word"), "positive words list", s.lexicons.RemovePositive)
}

func (s *Server) cmdAddNSFW(ctx context.Context, req *commandRequest) (*reply, error) {
	word := req.str("word")
	if err := s.lexicons.AddNSFW(ctx, word); err != nil {
		return nil, err
	}
	return privateReply("✅ Added `%s` to the NSFW filter!", strings.ToLower(word)), nil
}

func (s *Server) cmdRemoveNSFW(ctx context.Context, req *commandRequest) (*reply, error) {
	return s.removeWord(ctx, req.str("word"), "NSFW filter", s.lexicons.RemoveNSFW)
}

func (s *Server) cmdNSFWList(ctx context.Context, req *commandRequest) (*reply, error) {
	return wordListReply("NSFW Filter", s.lexicons.Current().NSFWTerms()), nil
}

func (s *Server) cmdAddGifFilter(ctx context.Context, req *commandRequest) (*reply, error) {
	term := req.str("term")
	if err := s.lexicons.AddGifFilter(ctx, term); err != nil {
		return nil, err
	}
	return privateReply("✅ Added `%s` to the GIF filter!", strings.ToLower(term)), nil
}

func (s *Server) cmdRemoveGifFilter(ctx context.Context, req *commandRequest) (*reply, error) {
	return s.removeWord(ctx, req.str("term"), "GIF filter", s.lexicons.RemoveGifFilter)
}

func (s *Server) cmdGifFilterList(ctx context.Context, req *commandRequest) (*reply, error) {
	return wordListReply("GIF Filter", s.lexicons.Current().GifFilterTerms()), nil
}
