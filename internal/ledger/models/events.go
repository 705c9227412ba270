package models

import (
	"time"

	id "mastery/pkg/domain"
)

// EventType names a committed ledger state change.
type EventType string

const (
	EventVerificationSubmitted EventType = "verification_submitted"
	EventVerificationUpdated   EventType = "verification_updated"
	EventCertificateMinted     EventType = "certificate_minted"
	EventRewardDistributed     EventType = "reward_distributed"
	EventConfigChanged         EventType = "config_changed"
)

// Event is emitted only after the operation that produced it commits.
type Event struct {
	ID             id.EventID        `json:"id"`
	Type           EventType         `json:"type"`
	VerificationID id.VerificationID `json:"verification_id"`
	Principal      id.Principal      `json:"principal,omitempty"`
	CourseID       id.CourseID       `json:"course_id,omitempty"`
	Status         bool              `json:"status"`
	Amount         int64             `json:"amount,omitempty"`
	Setting        string            `json:"setting,omitempty"`
	BlockHeight    id.BlockHeight    `json:"block_height"`
	OccurredAt     time.Time         `json:"occurred_at"`
}
