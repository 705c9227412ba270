package service

import (
	"context"
	"time"

	"mastery/internal/ledger/models"
	"mastery/internal/platform/tracer"
	id "mastery/pkg/domain"
	dErrors "mastery/pkg/domain-errors"
	txcontext "mastery/pkg/platform/tx"
)

// Submit records a new verification for the caller and returns its ID.
//
// Checks run in a fixed order and the first failure wins: capacity, the
// stateless field checks of SubmitCommand.Validate, uniqueness of
// (caller, course), then oracle authorization. A passing submission mints
// its certificate and triggers the reward in the same transaction; if the
// fee transfer or the mint fails, nothing is recorded and no ID is consumed.
func (s *Service) Submit(ctx context.Context, inv models.Invocation, cmd models.SubmitCommand) (vid id.VerificationID, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanSubmit,
		tracer.Int64(tracer.AttrCourseID, int64(cmd.CourseID)),
		tracer.String(tracer.AttrVerificationType, string(cmd.Type)),
		tracer.Int64(tracer.AttrBlockHeight, int64(inv.BlockHeight)),
	)
	defer func() { span.End(err) }()

	var record *models.Verification
	err = s.inTx(ctx, func(ctx context.Context, uow *unitOfWork) error {
		cfg, err := uow.config(ctx)
		if err != nil {
			return err
		}
		next, err := uow.nextID(ctx)
		if err != nil {
			return err
		}
		if int64(next) >= cfg.MaxVerifications {
			return dErrors.New(dErrors.CodeMaxVerificationsExceeded, "verification limit reached")
		}
		if err := cmd.Validate(inv.BlockHeight); err != nil {
			return err
		}
		exists, err := uow.hasVerification(ctx, inv.Caller, cmd.CourseID)
		if err != nil {
			return err
		}
		if exists {
			return dErrors.New(dErrors.CodeAlreadyVerified, "course already verified for caller")
		}
		if cmd.Type == models.TypeOracle && !cfg.IsOracle(inv.Caller) {
			return dErrors.New(dErrors.CodeOracleNotAuthorized, "caller is not the configured oracle")
		}

		if err := s.chargeFee(ctx, cfg, inv.Caller); err != nil {
			return err
		}

		record = cmd.NewVerification(next, inv)
		uow.batch.PutVerification(record)
		uow.batch.PutIndex(models.UserCourseKey{User: record.User, CourseID: record.CourseID}, record.ID)
		uow.batch.PutNextID(next + 1)

		s.emit(ctx, models.Event{
			Type:           models.EventVerificationSubmitted,
			VerificationID: record.ID,
			Principal:      record.User,
			CourseID:       record.CourseID,
			Status:         record.Status,
			BlockHeight:    inv.BlockHeight,
		})

		if record.Status {
			if err := s.issueCertificate(ctx, uow, cfg, inv, record.ID, record.User, record.Metadata); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.recordRejection("submit", err)
		s.logger.WarnContext(ctx, "verification rejected",
			"caller", inv.Caller.String(),
			"course_id", cmd.CourseID.String(),
			"code", string(dErrors.CodeOf(err)),
		)
		return 0, err
	}

	span.SetAttributes(
		tracer.Int64(tracer.AttrVerificationID, int64(record.ID)),
		tracer.Bool(tracer.AttrStatus, record.Status),
	)
	if s.metrics != nil {
		s.metrics.IncrementSubmitted(string(record.Type), record.Status)
		s.metrics.ObserveSubmitLatency(time.Since(start).Seconds())
	}
	s.logger.InfoContext(ctx, "verification submitted",
		"verification_id", record.ID.String(),
		"course_id", record.CourseID.String(),
		"caller", record.User.String(),
		"status", record.Status,
	)
	return record.ID, nil
}

// chargeFee moves the configured fee from the submitter to the admin. A
// zero fee makes no transfer at all.
func (s *Service) chargeFee(ctx context.Context, cfg *models.Config, payer id.Principal) (err error) {
	if s.fees == nil || cfg.VerificationFee == 0 {
		return nil
	}
	ctx, span := s.tracer.Start(ctx, tracer.SpanFeeTransfer, tracer.Int64(tracer.AttrAmount, cfg.VerificationFee))
	defer func() { span.End(err) }()

	if err := s.fees.Transfer(ctx, cfg.VerificationFee, payer, cfg.Admin); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTransferFailed, "verification fee transfer failed")
	}
	fee := cfg.VerificationFee
	txcontext.AfterCommit(ctx, func() {
		if s.metrics != nil {
			s.metrics.AddFeesCollected(fee)
		}
	})
	return nil
}
