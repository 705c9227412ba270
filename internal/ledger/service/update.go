package service

import (
	"context"

	"mastery/internal/ledger/models"
	"mastery/internal/platform/tracer"
	id "mastery/pkg/domain"
	dErrors "mastery/pkg/domain-errors"
	txcontext "mastery/pkg/platform/tx"
)

// Update corrects the score and threshold of the caller's own verification
// and records the correction. It never mints or rewards, even when the
// status flips to passed, and never revokes an existing certificate.
func (s *Service) Update(ctx context.Context, inv models.Invocation, vid id.VerificationID, score, threshold int64) (err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanUpdate,
		tracer.Int64(tracer.AttrVerificationID, int64(vid)),
		tracer.Int64(tracer.AttrBlockHeight, int64(inv.BlockHeight)),
	)
	defer func() { span.End(err) }()

	cmd := models.UpdateCommand{ID: vid, Score: score, Threshold: threshold}
	var updated *models.Verification
	err = s.inTx(ctx, func(ctx context.Context, uow *unitOfWork) error {
		v, err := uow.verification(ctx, cmd.ID)
		if err != nil {
			return err
		}
		if v == nil {
			return dErrors.New(dErrors.CodeNotVerified, "verification not found")
		}
		if v.User != inv.Caller {
			return dErrors.New(dErrors.CodeNotAuthorized, "only the submitter may update a verification")
		}
		if err := cmd.Validate(); err != nil {
			return err
		}

		v.Rescore(cmd.Score, cmd.Threshold, inv.BlockHeight)
		uow.batch.PutVerification(v)
		uow.batch.PutUpdate(&models.VerificationUpdate{
			VerificationID: v.ID,
			Score:          cmd.Score,
			Threshold:      cmd.Threshold,
			UpdatedAt:      inv.BlockHeight,
			Updater:        inv.Caller,
		})
		updated = v

		s.emit(ctx, models.Event{
			Type:           models.EventVerificationUpdated,
			VerificationID: v.ID,
			Principal:      inv.Caller,
			CourseID:       v.CourseID,
			Status:         v.Status,
			BlockHeight:    inv.BlockHeight,
		})
		txcontext.AfterCommit(ctx, func() {
			if s.metrics != nil {
				s.metrics.IncrementUpdated(v.Status)
			}
		})
		return nil
	})
	if err != nil {
		s.recordRejection("update", err)
		s.logger.WarnContext(ctx, "verification update rejected",
			"caller", inv.Caller.String(),
			"verification_id", vid.String(),
			"code", string(dErrors.CodeOf(err)),
		)
		return err
	}

	span.SetAttributes(tracer.Bool(tracer.AttrStatus, updated.Status))
	s.logger.InfoContext(ctx, "verification updated",
		"verification_id", updated.ID.String(),
		"caller", inv.Caller.String(),
		"status", updated.Status,
	)
	return nil
}
