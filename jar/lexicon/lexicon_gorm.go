package lexicon

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WordRow struct {
	List      string `gorm:"primaryKey"`
	Word      string `gorm:"primaryKey"`
	CreatedAt time.Time
}

func (WordRow) TableName() string {
	return "jar_lexicon_words"
}

type RewardRow struct {
	Word      string `gorm:"primaryKey"`
	Reward    int    `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (RewardRow) TableName() string {
	return "jar_positive_words"
}

type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&WordRow{}, &RewardRow{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) LoadAll(ctx context.Context) (*Contents, error) {
	var words []WordRow
	if err := s.db.WithContext(ctx).Find(&words).Error; err != nil {
		return nil, err
	}
	var rewards []RewardRow
	if err := s.db.WithContext(ctx).Find(&rewards).Error; err != nil {
		return nil, err
	}

	out := Contents{
		Words:    make(map[string][]string),
		Positive: make(map[string]int, len(rewards)),
	}
	for _, w := range words {
		out.Words[w.List] = append(out.Words[w.List], w.Word)
	}
	for _, r := range rewards {
		out.Positive[r.Word] = r.Reward
	}
	return &out, nil
}

func (s *GormStore) AddWord(ctx context.Context, list, word string) error {
	row := WordRow{List: list, Word: word}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

func (s *GormStore) RemoveWord(ctx context.Context, list, word string) (bool, error) {
	res := s.db.WithContext(ctx).Where("list = ? AND word = ?", list, word).Delete(&WordRow{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) SetPositive(ctx context.Context, word string, reward int) error {
	row := RewardRow{Word: word, Reward: reward}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "word"}},
		DoUpdates: clause.AssignmentColumns([]string{"reward", "updated_at"}),
	}).Create(&row).Error
}

func (s *GormStore) RemovePositive(ctx context.Context, word string) (bool, error) {
	res := s.db.WithContext(ctx).Where("word = ?", word).Delete(&RewardRow{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
