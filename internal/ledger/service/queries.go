package service

import (
	"context"
	"errors"

	"mastery/internal/ledger/models"
	id "mastery/pkg/domain"
	dErrors "mastery/pkg/domain-errors"
	"mastery/pkg/platform/sentinel"
)

// GetVerification returns the verification, or nil without error when none exists.
func (s *Service) GetVerification(ctx context.Context, vid id.VerificationID) (*models.Verification, error) {
	v, err := s.store.FindVerification(ctx, vid)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification")
	}
	return v, nil
}

// GetVerificationCount returns the number of verifications ever recorded,
// which is also the next ID to be allocated.
func (s *Service) GetVerificationCount(ctx context.Context) (uint64, error) {
	next, err := s.store.NextID(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification counter")
	}
	return uint64(next), nil
}

// CheckVerificationStatus reports whether user currently passes courseID.
// A missing verification reads as false.
func (s *Service) CheckVerificationStatus(ctx context.Context, user id.Principal, courseID id.CourseID) (bool, error) {
	vid, err := s.store.FindIDByUserCourse(ctx, user, courseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up verification")
	}
	v, err := s.GetVerification(ctx, vid)
	if err != nil || v == nil {
		return false, err
	}
	return v.Status, nil
}

// GetVerificationUpdate returns the latest correction of a verification, or
// nil when it was never updated.
func (s *Service) GetVerificationUpdate(ctx context.Context, vid id.VerificationID) (*models.VerificationUpdate, error) {
	u, err := s.store.FindUpdate(ctx, vid)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification update")
	}
	return u, nil
}

// GetCertificate returns the certificate minted for a verification, or nil.
func (s *Service) GetCertificate(ctx context.Context, vid id.VerificationID) (*models.Certificate, error) {
	c, err := s.store.FindCertificate(ctx, vid)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load certificate")
	}
	return c, nil
}

// GetConfig returns the current configuration.
func (s *Service) GetConfig(ctx context.Context) (*models.Config, error) {
	return loadConfig(ctx, s.store, s.admin)
}
