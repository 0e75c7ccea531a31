package ids

import "github.com/segmentio/ksuid"

// New returns a time-sortable identifier used for users, assets, projections and comments.
func New() string {
	return ksuid.New().String()
}
