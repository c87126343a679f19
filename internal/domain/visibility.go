package domain

// Visibility controls who can see an owned resource (memo, todo, event).
// Reminders are never visibility-scoped; they are strictly private to
// their owner.
type Visibility string

// Possible visibility values
const (
	VisibilityPrivate Visibility = "private"
	VisibilityFamily  Visibility = "family"
)

// IsValid reports whether the visibility is a recognized value.
func (v Visibility) IsValid() bool {
	switch v {
	case VisibilityPrivate, VisibilityFamily:
		return true
	default:
		return false
	}
}
