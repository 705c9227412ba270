package handler

import (
	"encoding/hex"
	"strings"

	"mastery/internal/ledger/models"
	id "mastery/pkg/domain"
	dErrors "mastery/pkg/domain-errors"
	s "mastery/pkg/string"
	"mastery/pkg/validation"
)

// HTTP Request DTOs. Only presence and shape are checked here; range checks
// belong to the ledger so rejections keep their ledger error kinds and order.

type SubmitRequest struct {
	CourseID         *int64  `json:"course_id" validate:"required"`
	Score            *int64  `json:"score" validate:"required"`
	Threshold        *int64  `json:"threshold" validate:"required"`
	ProofHash        string  `json:"proof_hash"`
	VerificationType string  `json:"verification_type"`
	Difficulty       *int64  `json:"difficulty" validate:"required"`
	Expiry           *uint64 `json:"expiry" validate:"required"`
	Metadata         string  `json:"metadata"`
}

// Sanitize trims the proof hash only. The verification type is matched
// exactly by the ledger, so it is passed on untouched.
func (r *SubmitRequest) Sanitize() {
	if r == nil {
		return
	}
	s.TrimStrings(&r.ProofHash)
}

func (r *SubmitRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

// ToCommand converts the request into a ledger command. A proof hash that is
// not valid hex is passed on empty so the ledger rejects it as invalid_proof.
func (r *SubmitRequest) ToCommand() models.SubmitCommand {
	return models.SubmitCommand{
		CourseID:   id.CourseID(*r.CourseID),
		Score:      *r.Score,
		Threshold:  *r.Threshold,
		ProofHash:  decodeProofHash(r.ProofHash),
		Type:       models.VerificationType(r.VerificationType),
		Difficulty: *r.Difficulty,
		Expiry:     id.BlockHeight(*r.Expiry),
		Metadata:   r.Metadata,
	}
}

func decodeProofHash(raw string) []byte {
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "0x"), "0X")
	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return nil
	}
	return decoded
}

type UpdateRequest struct {
	Score     *int64 `json:"score" validate:"required"`
	Threshold *int64 `json:"threshold" validate:"required"`
}

func (r *UpdateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

// SetPrincipalRequest names an oracle or collaborator address. The reserved
// null address is accepted on the wire and rejected by the ledger.
type SetPrincipalRequest struct {
	Principal string `json:"principal" validate:"notblank"`
}

func (r *SetPrincipalRequest) Sanitize() {
	if r == nil {
		return
	}
	s.TrimStrings(&r.Principal)
}

func (r *SetPrincipalRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

type SetFeeRequest struct {
	Fee *int64 `json:"fee" validate:"required"`
}

func (r *SetFeeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

type SetMaxVerificationsRequest struct {
	MaxVerifications *int64 `json:"max_verifications" validate:"required"`
}

func (r *SetMaxVerificationsRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}
