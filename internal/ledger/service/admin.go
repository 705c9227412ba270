package service

import (
	"context"
	"strconv"

	"mastery/internal/ledger/models"
	"mastery/internal/platform/tracer"
	id "mastery/pkg/domain"
	dErrors "mastery/pkg/domain-errors"
	txcontext "mastery/pkg/platform/tx"
)

// Configuration setting names, used in events, metrics and logs.
const (
	SettingOracle             = "oracle"
	SettingRewardCollaborator = "reward_collaborator"
	SettingNftCollaborator    = "nft_collaborator"
	SettingFee                = "verification_fee"
	SettingMaxVerifications   = "max_verifications"
)

func (s *Service) SetOracle(ctx context.Context, inv models.Invocation, p id.Principal) error {
	return s.setPrincipal(ctx, inv, SettingOracle, p, func(cfg *models.Config) { cfg.Oracle = p })
}

func (s *Service) SetRewardCollaborator(ctx context.Context, inv models.Invocation, p id.Principal) error {
	return s.setPrincipal(ctx, inv, SettingRewardCollaborator, p, func(cfg *models.Config) { cfg.RewardCollaborator = p })
}

func (s *Service) SetNftCollaborator(ctx context.Context, inv models.Invocation, p id.Principal) error {
	return s.setPrincipal(ctx, inv, SettingNftCollaborator, p, func(cfg *models.Config) { cfg.NftCollaborator = p })
}

// SetFee sets the fee charged on every submission. Zero disables the charge.
func (s *Service) SetFee(ctx context.Context, inv models.Invocation, fee int64) error {
	return s.configure(ctx, inv, SettingFee, strconv.FormatInt(fee, 10), func(cfg *models.Config) error {
		if fee < 0 {
			return dErrors.New(dErrors.CodeInvalidUpdateParam, "verification fee must not be negative")
		}
		cfg.VerificationFee = fee
		return nil
	})
}

// SetMaxVerifications caps the total number of verifications the ledger accepts.
func (s *Service) SetMaxVerifications(ctx context.Context, inv models.Invocation, maxVerifications int64) error {
	return s.configure(ctx, inv, SettingMaxVerifications, strconv.FormatInt(maxVerifications, 10), func(cfg *models.Config) error {
		if maxVerifications <= 0 {
			return dErrors.New(dErrors.CodeInvalidUpdateParam, "max verifications must be positive")
		}
		cfg.MaxVerifications = maxVerifications
		return nil
	})
}

func (s *Service) setPrincipal(ctx context.Context, inv models.Invocation, setting string, p id.Principal, apply func(*models.Config)) error {
	return s.configure(ctx, inv, setting, p.Wire(), func(cfg *models.Config) error {
		if p.IsNil() || p == id.NullPrincipalWire {
			return dErrors.New(dErrors.CodeNotVerified, "principal must not be the null principal")
		}
		apply(cfg)
		return nil
	})
}

// configure checks the caller is the admin before validating the new value,
// so unauthorized callers learn nothing about parameter bounds.
func (s *Service) configure(ctx context.Context, inv models.Invocation, setting, value string, apply func(*models.Config) error) (err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanConfigure, tracer.String(tracer.AttrSetting, setting))
	defer func() { span.End(err) }()

	err = s.inTx(ctx, func(ctx context.Context, uow *unitOfWork) error {
		cfg, err := uow.config(ctx)
		if err != nil {
			return err
		}
		if !cfg.IsAdmin(inv.Caller) {
			return dErrors.New(dErrors.CodeNotAuthorized, "only the admin may change configuration")
		}
		if err := apply(cfg); err != nil {
			return err
		}
		uow.batch.PutConfig(cfg)

		s.emit(ctx, models.Event{
			Type:        models.EventConfigChanged,
			Principal:   inv.Caller,
			Setting:     setting,
			BlockHeight: inv.BlockHeight,
		})
		txcontext.AfterCommit(ctx, func() {
			if s.metrics != nil {
				s.metrics.IncrementConfigChanges(setting)
			}
			s.logger.InfoContext(ctx, "ledger configuration changed",
				"setting", setting,
				"value", value,
				"caller", inv.Caller.String(),
			)
		})
		return nil
	})
	if err != nil {
		s.recordRejection("configure", err)
	}
	return err
}
