package jar

// Escalation level of a user, used to pick the reaction glyph for a swear.
type ModerationLevel int

const (
	// first-time or infrequent offender
	LevelMild ModerationLevel = 1
	// one warning, or a frequent offender
	LevelModerate ModerationLevel = 2
	// about to be muted
	LevelSevere ModerationLevel = 3
	LevelMuted  ModerationLevel = 4
)

func (l ModerationLevel) String() string {
	switch l {
	case LevelMild:
		return "mild"
	case LevelModerate:
		return "moderate"
	case LevelSevere:
		return "severe"
	case LevelMuted:
		return "muted"
	default:
		return "unknown"
	}
}

func (l ModerationLevel) Valid() bool {
	return l >= LevelMild && l <= LevelMuted
}
