package domain

import "time"

// ApplicationEvent is published after a committed state transition so
// downstream consumers (audit archive, notifications) can react without a
// write path into the store.
type ApplicationEvent struct {
	Action      string          `json:"action"`
	Actor       string          `json:"actor"`
	Comment     string          `json:"comment,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Application LoanApplication `json:"application"`
}
