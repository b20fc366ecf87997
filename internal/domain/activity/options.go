package activity

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// ListActivityOptions provides filtering options for listing activity.
type ListActivityOptions struct {
	ProjectID    string
	ActivityType *ActivityType
	Limit        int
	Offset       int
}
