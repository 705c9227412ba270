package service

import (
	"context"

	"mastery/internal/ledger/models"
	"mastery/internal/platform/tracer"
	id "mastery/pkg/domain"
	dErrors "mastery/pkg/domain-errors"
	txcontext "mastery/pkg/platform/tx"
)

// issueCertificate mints the certificate for a passing verification. It is a
// no-op when no NFT collaborator is configured or a certificate already
// exists for vid. Mint failures are returned and abort the enclosing
// operation; reward failures are not.
func (s *Service) issueCertificate(
	ctx context.Context,
	uow *unitOfWork,
	cfg *models.Config,
	inv models.Invocation,
	vid id.VerificationID,
	owner id.Principal,
	metadata string,
) (err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanIssue, tracer.Int64(tracer.AttrVerificationID, int64(vid)))
	defer func() { span.End(err) }()

	if cfg.NftCollaborator.IsNil() || s.minter == nil {
		span.AddEvent(tracer.EventCertificateSkipped, tracer.String("reason", "no_collaborator"))
		return nil
	}
	issued, err := uow.hasCertificate(ctx, vid)
	if err != nil {
		return err
	}
	if issued {
		span.AddEvent(tracer.EventCertificateSkipped, tracer.String("reason", "already_issued"))
		return nil
	}

	uow.batch.PutCertificate(&models.Certificate{
		VerificationID: vid,
		Owner:          owner,
		IssuedAt:       inv.BlockHeight,
		Metadata:       metadata,
	})
	if err := s.minter.Mint(ctx, cfg.NftCollaborator, owner, vid); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTransferFailed, "certificate mint failed")
	}

	s.emit(ctx, models.Event{
		Type:           models.EventCertificateMinted,
		VerificationID: vid,
		Principal:      owner,
		Status:         true,
		BlockHeight:    inv.BlockHeight,
	})
	txcontext.AfterCommit(ctx, func() {
		if s.metrics != nil {
			s.metrics.IncrementCertificatesMinted()
		}
	})

	s.distributeReward(ctx, uow, cfg, inv, vid)
	return nil
}
