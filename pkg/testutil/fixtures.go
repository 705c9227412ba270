package testutil

import (
	"crypto/sha256"

	"mastery/internal/ledger/models"
	id "mastery/pkg/domain"
)

// TestPrincipals provides well-known principals for tests.
var TestPrincipals = struct {
	Admin          id.Principal
	Oracle         id.Principal
	User1          id.Principal
	User2          id.Principal
	RewardContract id.Principal
	NftContract    id.Principal
}{
	Admin:          "ST1ADMIN",
	Oracle:         "ST2ORACLE",
	User1:          "ST3USERONE",
	User2:          "ST4USERTWO",
	RewardContract: "ST1ADMIN.mastery-rewards",
	NftContract:    "ST1ADMIN.mastery-nft",
}

// ProofOf returns a deterministic 32-byte proof hash for the given seed.
func ProofOf(seed string) []byte {
	sum := sha256.Sum256([]byte(seed))
	return sum[:]
}

// SubmitBuilder provides a fluent interface for building submissions.
type SubmitBuilder struct {
	cmd models.SubmitCommand
}

// NewSubmitBuilder creates a passing quiz submission for course 1.
func NewSubmitBuilder() *SubmitBuilder {
	return &SubmitBuilder{
		cmd: models.SubmitCommand{
			CourseID:   1,
			Score:      85,
			Threshold:  70,
			ProofHash:  ProofOf("course-1"),
			Type:       models.TypeQuiz,
			Difficulty: 5,
			Expiry:     1000,
			Metadata:   "Mastery in Algebra",
		},
	}
}

func (b *SubmitBuilder) WithCourse(courseID id.CourseID) *SubmitBuilder {
	b.cmd.CourseID = courseID
	return b
}

func (b *SubmitBuilder) WithScore(score, threshold int64) *SubmitBuilder {
	b.cmd.Score = score
	b.cmd.Threshold = threshold
	return b
}

func (b *SubmitBuilder) WithType(t models.VerificationType) *SubmitBuilder {
	b.cmd.Type = t
	return b
}

func (b *SubmitBuilder) WithExpiry(expiry id.BlockHeight) *SubmitBuilder {
	b.cmd.Expiry = expiry
	return b
}

func (b *SubmitBuilder) WithMetadata(metadata string) *SubmitBuilder {
	b.cmd.Metadata = metadata
	return b
}

func (b *SubmitBuilder) Failing() *SubmitBuilder {
	return b.WithScore(40, 70)
}

func (b *SubmitBuilder) Build() models.SubmitCommand {
	cmd := b.cmd
	cmd.ProofHash = append([]byte(nil), b.cmd.ProofHash...)
	return cmd
}

// As builds an invocation for caller at the given block height.
func As(caller id.Principal, height id.BlockHeight) models.Invocation {
	return models.Invocation{Caller: caller, BlockHeight: height}
}
