package ids

import "github.com/segmentio/ksuid"

// New returns a sortable unique id for stored records.
func New() string {
	return ksuid.New().String()
}
