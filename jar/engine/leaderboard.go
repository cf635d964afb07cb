package engine

import (
	"context"

	"github.com/thiccolasscage/sorrynotsorry69/jar"
	"github.com/thiccolasscage/sorrynotsorry69/jar/ledger"
)

const DefaultLeaderboardSize = 10

type Standing struct {
	Rank        int
	UserID      string
	DisplayName string
	SwearCount  int64
	Coins       int64
}

func (eng *Engine) standings(ctx context.Context, guildID string, by ledger.Ranking, limit int) ([]Standing, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}
	top, err := eng.Ledger.Top(ctx, by, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Standing, 0, len(top))
	for i, rec := range top {
		name, err := eng.Sink.DisplayName(ctx, guildID, rec.UserID)
		if err != nil || name == "" {
			eng.Logger.Debug("display name lookup failed", "user", rec.UserID, "err", err)
			name = jar.Mention(rec.UserID)
		}
		out = append(out, Standing{
			Rank:        i + 1,
			UserID:      rec.UserID,
			DisplayName: name,
			SwearCount:  rec.SwearCount,
			Coins:       rec.Coins,
		})
	}
	return out, nil
}

// Top swearers, most swears first.
func (eng *Engine) Leaderboard(ctx context.Context, guildID string, limit int) ([]Standing, error) {
	return eng.standings(ctx, guildID, ledger.RankSwearCount, limit)
}

// Largest balances first.
func (eng *Engine) Richest(ctx context.Context, guildID string, limit int) ([]Standing, error) {
	return eng.standings(ctx, guildID, ledger.RankCoins, limit)
}
