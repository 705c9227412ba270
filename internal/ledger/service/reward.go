package service

import (
	"context"

	"mastery/internal/ledger/models"
	"mastery/internal/platform/tracer"
	id "mastery/pkg/domain"
	dErrors "mastery/pkg/domain-errors"
	txcontext "mastery/pkg/platform/tx"
)

// distributeReward pays difficulty*100 to the verification's user. It runs
// only after a successful mint and never fails the caller: a rejected payout
// is logged and counted, and the certificate stays minted.
func (s *Service) distributeReward(
	ctx context.Context,
	uow *unitOfWork,
	cfg *models.Config,
	inv models.Invocation,
	vid id.VerificationID,
) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanReward, tracer.Int64(tracer.AttrVerificationID, int64(vid)))
	var spanErr error
	defer func() { span.End(spanErr) }()

	if cfg.RewardCollaborator.IsNil() || s.rewards == nil {
		span.AddEvent(tracer.EventRewardSkipped, tracer.String("reason", "no_collaborator"))
		return
	}
	v, err := uow.verification(ctx, vid)
	if err != nil {
		spanErr = err
		s.logger.ErrorContext(ctx, "failed to load verification for reward",
			"verification_id", vid.String(),
			"error", err,
		)
		return
	}
	if v == nil || !v.Status {
		span.AddEvent(tracer.EventRewardSkipped, tracer.String("reason", "not_passed"))
		return
	}

	amount := v.RewardAmount()
	span.SetAttributes(tracer.Int64(tracer.AttrAmount, amount))
	if err := s.rewards.Payout(ctx, cfg.RewardCollaborator, v.User, amount); err != nil {
		spanErr = err
		if s.metrics != nil {
			s.metrics.IncrementRewardsFailed()
		}
		s.logger.WarnContext(ctx, "reward payout failed",
			"verification_id", vid.String(),
			"user", v.User.String(),
			"amount", amount,
			"code", string(dErrors.CodeOf(err)),
			"error", err,
		)
		return
	}

	s.emit(ctx, models.Event{
		Type:           models.EventRewardDistributed,
		VerificationID: vid,
		Principal:      v.User,
		CourseID:       v.CourseID,
		Status:         true,
		Amount:         amount,
		BlockHeight:    inv.BlockHeight,
	})
	txcontext.AfterCommit(ctx, func() {
		if s.metrics != nil {
			s.metrics.RecordReward(amount)
		}
	})
}
