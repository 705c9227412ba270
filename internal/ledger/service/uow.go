package service

import (
	"context"
	"errors"

	"mastery/internal/ledger/models"
	id "mastery/pkg/domain"
	dErrors "mastery/pkg/domain-errors"
	"mastery/pkg/platform/sentinel"
)

// unitOfWork stages the writes of one operation. Reads see staged writes
// first, then the store, so later steps of an operation observe earlier ones.
type unitOfWork struct {
	store Store
	admin id.Principal
	batch *models.Batch
}

func newUnitOfWork(store Store, admin id.Principal) *unitOfWork {
	return &unitOfWork{store: store, admin: admin, batch: models.NewBatch()}
}

func (u *unitOfWork) config(ctx context.Context) (*models.Config, error) {
	if u.batch.Config != nil {
		cfg := *u.batch.Config
		return &cfg, nil
	}
	return loadConfig(ctx, u.store, u.admin)
}

func (u *unitOfWork) nextID(ctx context.Context) (id.VerificationID, error) {
	if u.batch.NextID != nil {
		return *u.batch.NextID, nil
	}
	next, err := u.store.NextID(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification counter")
	}
	return next, nil
}

func (u *unitOfWork) verification(ctx context.Context, vid id.VerificationID) (*models.Verification, error) {
	if v, ok := u.batch.Verifications[vid]; ok {
		c := *v
		return &c, nil
	}
	v, err := u.store.FindVerification(ctx, vid)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification")
	}
	return v, nil
}

func (u *unitOfWork) hasVerification(ctx context.Context, user id.Principal, courseID id.CourseID) (bool, error) {
	if _, ok := u.batch.Index[models.UserCourseKey{User: user, CourseID: courseID}]; ok {
		return true, nil
	}
	_, err := u.store.FindIDByUserCourse(ctx, user, courseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing verification")
	}
	return true, nil
}

func (u *unitOfWork) hasCertificate(ctx context.Context, vid id.VerificationID) (bool, error) {
	if _, ok := u.batch.Certificates[vid]; ok {
		return true, nil
	}
	_, err := u.store.FindCertificate(ctx, vid)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check certificate")
	}
	return true, nil
}

func (u *unitOfWork) commit(ctx context.Context) error {
	if u.batch.IsEmpty() {
		return nil
	}
	if err := u.store.Apply(ctx, u.batch); err != nil {
		if errors.Is(err, sentinel.ErrStale) {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "ledger changed concurrently")
		}
		if errors.Is(err, sentinel.ErrConflict) {
			if len(u.batch.Index) > 0 {
				return dErrors.Wrap(err, dErrors.CodeAlreadyVerified, "verification already recorded")
			}
			return dErrors.Wrap(err, dErrors.CodeNftAlreadyIssued, "certificate already recorded")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist ledger changes")
	}
	return nil
}

// loadConfig returns the stored configuration, or the defaults for admin
// when the ledger has never been configured.
func loadConfig(ctx context.Context, store Store, admin id.Principal) (*models.Config, error) {
	cfg, err := store.LoadConfig(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.DefaultConfig(admin), nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load configuration")
	}
	return cfg, nil
}
