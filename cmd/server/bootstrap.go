package main

import (
	"context"
	"log/slog"

	"mastery/internal/ledger/models"
	"mastery/internal/platform/config"
	id "mastery/pkg/domain"
)

// ledgerConfigurer is the admin surface bootstrap drives.
type ledgerConfigurer interface {
	GetConfig(ctx context.Context) (*models.Config, error)
	SetOracle(ctx context.Context, inv models.Invocation, p id.Principal) error
	SetRewardCollaborator(ctx context.Context, inv models.Invocation, p id.Principal) error
	SetNftCollaborator(ctx context.Context, inv models.Invocation, p id.Principal) error
	SetFee(ctx context.Context, inv models.Invocation, fee int64) error
	SetMaxVerifications(ctx context.Context, inv models.Invocation, maxVerifications int64) error
}

// bootstrap applies configured settings through the admin-gated setters,
// acting as the stored admin. Settings that already match are skipped so
// restarts do not emit config changes.
func bootstrap(ctx context.Context, ledger ledgerConfigurer, want config.Ledger, height id.BlockHeight, log *slog.Logger) error {
	current, err := ledger.GetConfig(ctx)
	if err != nil {
		return err
	}
	inv := models.Invocation{Caller: current.Admin, BlockHeight: height}

	principals := []struct {
		setting string
		want    string
		have    id.Principal
		set     func(context.Context, models.Invocation, id.Principal) error
	}{
		{"oracle", want.Oracle, current.Oracle, ledger.SetOracle},
		{"reward_collaborator", want.RewardCollaborator, current.RewardCollaborator, ledger.SetRewardCollaborator},
		{"nft_collaborator", want.NftCollaborator, current.NftCollaborator, ledger.SetNftCollaborator},
	}
	for _, p := range principals {
		if p.want == "" || id.Principal(p.want) == p.have {
			continue
		}
		principal, err := id.ParsePrincipal(p.want)
		if err != nil {
			return err
		}
		if err := p.set(ctx, inv, principal); err != nil {
			return err
		}
		log.InfoContext(ctx, "bootstrapped ledger setting", "setting", p.setting, "value", p.want)
	}

	if want.VerificationFee != current.VerificationFee {
		if err := ledger.SetFee(ctx, inv, want.VerificationFee); err != nil {
			return err
		}
		log.InfoContext(ctx, "bootstrapped ledger setting", "setting", "verification_fee", "value", want.VerificationFee)
	}
	if want.MaxVerifications != current.MaxVerifications {
		if err := ledger.SetMaxVerifications(ctx, inv, want.MaxVerifications); err != nil {
			return err
		}
		log.InfoContext(ctx, "bootstrapped ledger setting", "setting", "max_verifications", "value", want.MaxVerifications)
	}
	return nil
}
