package activity

// ListActivityOptions provides filtering options for listing activity.
type ListActivityOptions struct {
	Code      string
	Action    string
	SessionID string
	Limit     int
	Offset    int
}
