package models

import (
	"unicode/utf8"

	id "mastery/pkg/domain"
	dErrors "mastery/pkg/domain-errors"
)

// Bounds enforced on every write.
const (
	MinScore          = 0
	MaxScore          = 100
	MaxThreshold      = 100
	MinDifficulty     = 1
	MaxDifficulty     = 10
	ProofHashLength   = 32
	MaxMetadataLength = 256

	// RewardPerDifficulty scales a verification's difficulty into a payout.
	RewardPerDifficulty = 100
)

// VerificationType names how mastery was proven.
type VerificationType string

const (
	TypeQuiz      VerificationType = "quiz"
	TypeOracle    VerificationType = "oracle"
	TypeChallenge VerificationType = "challenge"
)

// IsValid reports whether t is one of the supported verification types.
func (t VerificationType) IsValid() bool {
	switch t {
	case TypeQuiz, TypeOracle, TypeChallenge:
		return true
	}
	return false
}

// Invocation is the implicit transaction context of a ledger call: who is
// calling and at which block height.
type Invocation struct {
	Caller      id.Principal
	BlockHeight id.BlockHeight
}

// Verification is a user's recorded attempt to prove mastery of a course.
//
// # Uniqueness Invariant
//
// At most one Verification ever exists per (User, CourseID). Submissions are
// write-once; corrections go through an update, which rewrites Score,
// Threshold, Timestamp and Status in place.
type Verification struct {
	ID         id.VerificationID
	CourseID   id.CourseID
	User       id.Principal
	Score      int64
	Threshold  int64
	ProofHash  [ProofHashLength]byte
	Timestamp  id.BlockHeight
	Verifier   id.Principal // zero unless Type is oracle
	Type       VerificationType
	Difficulty int64
	Expiry     id.BlockHeight
	Metadata   string
	Status     bool
}

// Passed computes the pass/fail status for a score and threshold.
func Passed(score, threshold int64) bool {
	return score >= threshold
}

// Rescore overwrites the graded fields and recomputes Status.
func (v *Verification) Rescore(score, threshold int64, at id.BlockHeight) {
	v.Score = score
	v.Threshold = threshold
	v.Timestamp = at
	v.Status = Passed(score, threshold)
}

// RewardAmount is the payout owed for this verification's difficulty.
func (v *Verification) RewardAmount() int64 {
	return v.Difficulty * RewardPerDifficulty
}

// VerificationUpdate is the audit record of the most recent correction to a
// verification. Only the latest survives.
type VerificationUpdate struct {
	VerificationID id.VerificationID
	Score          int64
	Threshold      int64
	UpdatedAt      id.BlockHeight
	Updater        id.Principal
}

// Certificate is a one-time proof-of-pass tied to a verification. It is
// immutable: later updates that flip the verification's status do not touch it.
type Certificate struct {
	VerificationID id.VerificationID
	Owner          id.Principal
	IssuedAt       id.BlockHeight
	Metadata       string
}

// UserCourseKey indexes verifications by submitter and course.
type UserCourseKey struct {
	User     id.Principal
	CourseID id.CourseID
}

// ValidateScore enforces score ∈ [0,100].
func ValidateScore(score int64) error {
	if score < MinScore || score > MaxScore {
		return dErrors.New(dErrors.CodeInvalidScore, "score must be between 0 and 100")
	}
	return nil
}

// ValidateThreshold enforces threshold ∈ (0,100].
func ValidateThreshold(threshold int64) error {
	if threshold <= 0 || threshold > MaxThreshold {
		return dErrors.New(dErrors.CodeInvalidThreshold, "threshold must be between 1 and 100")
	}
	return nil
}

// MetadataLength counts characters, not bytes.
func MetadataLength(metadata string) int {
	return utf8.RuneCountInString(metadata)
}
