// Package statuslog models the local journal of notable agent events. The
// journal mirrors what gets shipped to the control plane's status log so the
// device keeps its history when the uplink is down.
package statuslog

import "time"

const (
	EventStatusChange = "STATUS_CHANGE"
	EventIPConflict   = "IP_CONFLICT"
	EventCommand      = "COMMAND"
	EventRebootSkip   = "REBOOT_SKIPPED"
	EventUpdate       = "UPDATE"
)

// Entry is one journal record. Details is a JSON document.
type Entry struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	EventType string    `json:"event_type" gorm:"index"`
	Details   string    `json:"details"`
}
