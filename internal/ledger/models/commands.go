package models

import (
	id "mastery/pkg/domain"
	dErrors "mastery/pkg/domain-errors"
)

// SubmitCommand carries the caller-supplied fields of a submission.
type SubmitCommand struct {
	CourseID   id.CourseID
	Score      int64
	Threshold  int64
	ProofHash  []byte
	Type       VerificationType
	Difficulty int64
	Expiry     id.BlockHeight
	Metadata   string
}

// Validate runs the stateless submission checks in their fixed order; the
// first failing check wins. Capacity, uniqueness and oracle checks need
// ledger state and are performed by the service around this call.
func (c *SubmitCommand) Validate(height id.BlockHeight) error {
	if c.CourseID <= 0 {
		return dErrors.New(dErrors.CodeInvalidCourseID, "course ID must be positive")
	}
	if err := ValidateScore(c.Score); err != nil {
		return err
	}
	if err := ValidateThreshold(c.Threshold); err != nil {
		return err
	}
	if len(c.ProofHash) != ProofHashLength {
		return dErrors.New(dErrors.CodeInvalidProof, "proof hash must be 32 bytes")
	}
	if !c.Type.IsValid() {
		return dErrors.New(dErrors.CodeInvalidVerificationType, "verification type must be quiz, oracle or challenge")
	}
	if c.Difficulty < MinDifficulty || c.Difficulty > MaxDifficulty {
		return dErrors.New(dErrors.CodeInvalidDifficulty, "difficulty must be between 1 and 10")
	}
	if c.Expiry <= height {
		return dErrors.New(dErrors.CodeInvalidExpiry, "expiry must be after the current block height")
	}
	if MetadataLength(c.Metadata) > MaxMetadataLength {
		return dErrors.New(dErrors.CodeInvalidMetadata, "metadata must be at most 256 characters")
	}
	return nil
}

// NewVerification builds the record a validated command produces.
func (c *SubmitCommand) NewVerification(vid id.VerificationID, inv Invocation) *Verification {
	v := &Verification{
		ID:         vid,
		CourseID:   c.CourseID,
		User:       inv.Caller,
		Score:      c.Score,
		Threshold:  c.Threshold,
		Timestamp:  inv.BlockHeight,
		Type:       c.Type,
		Difficulty: c.Difficulty,
		Expiry:     c.Expiry,
		Metadata:   c.Metadata,
		Status:     Passed(c.Score, c.Threshold),
	}
	copy(v.ProofHash[:], c.ProofHash)
	if c.Type == TypeOracle {
		v.Verifier = inv.Caller
	}
	return v
}

// UpdateCommand carries a correction to an existing verification.
type UpdateCommand struct {
	ID        id.VerificationID
	Score     int64
	Threshold int64
}

// Validate checks the corrected bounds under the same rules as submission.
func (c *UpdateCommand) Validate() error {
	if err := ValidateScore(c.Score); err != nil {
		return err
	}
	return ValidateThreshold(c.Threshold)
}
