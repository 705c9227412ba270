package handler

import (
	"encoding/hex"

	"mastery/internal/ledger/models"
)

type SubmitResponse struct {
	VerificationID uint64 `json:"verification_id"`
}

type VerificationResponse struct {
	ID               uint64 `json:"id"`
	CourseID         int64  `json:"course_id"`
	User             string `json:"user"`
	Score            int64  `json:"score"`
	Threshold        int64  `json:"threshold"`
	ProofHash        string `json:"proof_hash"`
	BlockHeight      uint64 `json:"block_height"`
	Verifier         string `json:"verifier,omitempty"`
	VerificationType string `json:"verification_type"`
	Difficulty       int64  `json:"difficulty"`
	Expiry           uint64 `json:"expiry"`
	Metadata         string `json:"metadata"`
	Status           bool   `json:"status"`
}

type CountResponse struct {
	Count uint64 `json:"count"`
}

type StatusResponse struct {
	User     string `json:"user"`
	CourseID int64  `json:"course_id"`
	Passed   bool   `json:"passed"`
}

type UpdateResponse struct {
	VerificationID uint64 `json:"verification_id"`
	Score          int64  `json:"score"`
	Threshold      int64  `json:"threshold"`
	UpdatedAt      uint64 `json:"updated_at"`
	Updater        string `json:"updater"`
}

type CertificateResponse struct {
	VerificationID uint64 `json:"verification_id"`
	Owner          string `json:"owner"`
	IssuedAt       uint64 `json:"issued_at"`
	Metadata       string `json:"metadata"`
}

// ConfigResponse reports unset collaborator addresses as empty strings.
type ConfigResponse struct {
	Admin              string `json:"admin"`
	Oracle             string `json:"oracle"`
	RewardCollaborator string `json:"reward_collaborator"`
	NftCollaborator    string `json:"nft_collaborator"`
	VerificationFee    int64  `json:"verification_fee"`
	MaxVerifications   int64  `json:"max_verifications"`
}

// Response mapping functions - convert domain objects to HTTP DTOs

func toVerificationResponse(v *models.Verification) *VerificationResponse {
	return &VerificationResponse{
		ID:               uint64(v.ID),
		CourseID:         int64(v.CourseID),
		User:             v.User.String(),
		Score:            v.Score,
		Threshold:        v.Threshold,
		ProofHash:        hex.EncodeToString(v.ProofHash[:]),
		BlockHeight:      uint64(v.Timestamp),
		Verifier:         v.Verifier.String(),
		VerificationType: string(v.Type),
		Difficulty:       v.Difficulty,
		Expiry:           uint64(v.Expiry),
		Metadata:         v.Metadata,
		Status:           v.Status,
	}
}

func toUpdateResponse(u *models.VerificationUpdate) *UpdateResponse {
	return &UpdateResponse{
		VerificationID: uint64(u.VerificationID),
		Score:          u.Score,
		Threshold:      u.Threshold,
		UpdatedAt:      uint64(u.UpdatedAt),
		Updater:        u.Updater.String(),
	}
}

func toCertificateResponse(c *models.Certificate) *CertificateResponse {
	return &CertificateResponse{
		VerificationID: uint64(c.VerificationID),
		Owner:          c.Owner.String(),
		IssuedAt:       uint64(c.IssuedAt),
		Metadata:       c.Metadata,
	}
}

func toConfigResponse(c *models.Config) *ConfigResponse {
	return &ConfigResponse{
		Admin:              c.Admin.String(),
		Oracle:             c.Oracle.String(),
		RewardCollaborator: c.RewardCollaborator.String(),
		NftCollaborator:    c.NftCollaborator.String(),
		VerificationFee:    c.VerificationFee,
		MaxVerifications:   c.MaxVerifications,
	}
}
