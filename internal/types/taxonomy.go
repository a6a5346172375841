package types

import "strings"

// Field is a technical interview track.
type Field string

// Field constants define the supported technical fields.
const (
	FieldFrontend Field = "Frontend"
	FieldBackend  Field = "Backend"
	FieldMobile   Field = "Mobile"
	FieldUX       Field = "UX"
)

// Fields lists all supported fields in display order.
func Fields() []Field {
	return []Field{FieldFrontend, FieldBackend, FieldMobile, FieldUX}
}

// ParseField converts a full field label to a Field. Matching is
// case-insensitive on the label only; short interviewer codes (FE, BE, ...)
// are the visibility package's concern.
func ParseField(s string) (Field, bool) {
	for _, f := range Fields() {
		if strings.EqualFold(s, string(f)) {
			return f, true
		}
	}
	return "", false
}

// Level is a seniority band.
type Level string

// Level constants define the supported seniority bands.
const (
	LevelFresh  Level = "fresh"
	LevelJunior Level = "junior"
	LevelMid    Level = "mid"
	LevelSenior Level = "senior"
	LevelLead   Level = "lead"
)

// Levels lists all supported levels from most to least junior.
func Levels() []Level {
	return []Level{LevelFresh, LevelJunior, LevelMid, LevelSenior, LevelLead}
}

// ParseLevel converts a string to a Level, case-insensitively.
func ParseLevel(s string) (Level, bool) {
	for _, l := range Levels() {
		if strings.EqualFold(s, string(l)) {
			return l, true
		}
	}
	return "", false
}
