package domain

// SensitivityLevel is an ordinal classification of how privacy-sensitive a
// query is. Higher values gate which backends may process the query.
type SensitivityLevel int

const (
	SensitivityPublic SensitivityLevel = iota
	SensitivitySensitive
	SensitivityHighlySensitive
)

func (s SensitivityLevel) String() string {
	switch s {
	case SensitivityHighlySensitive:
		return "highly_sensitive"
	case SensitivitySensitive:
		return "sensitive"
	default:
		return "public"
	}
}
