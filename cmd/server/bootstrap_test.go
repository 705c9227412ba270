package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mastery/internal/ledger/events"
	"mastery/internal/ledger/models"
	"mastery/internal/ledger/service"
	"mastery/internal/ledger/store"
	"mastery/internal/platform/config"
	dErrors "mastery/pkg/domain-errors"
)

func newBootstrapLedger() (*service.Service, *events.InMemorySink) {
	sink := events.NewInMemorySink()
	svc := service.NewService(store.NewInMemory(), "admin",
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		service.WithPublisher(events.NewPublisher(sink)),
	)
	return svc, sink
}

func configChanges(sink *events.InMemorySink) int {
	n := 0
	for _, e := range sink.All() {
		if e.Type == models.EventConfigChanged {
			n++
		}
	}
	return n
}

func TestBootstrap_AppliesSettings(t *testing.T) {
	svc, sink := newBootstrapLedger()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	want := config.Ledger{
		Oracle:           "oracle",
		NftCollaborator:  "nft",
		VerificationFee:  0,
		MaxVerifications: 25,
	}

	require.NoError(t, bootstrap(context.Background(), svc, want, 0, log))

	cfg, err := svc.GetConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "oracle", cfg.Oracle.String())
	assert.Equal(t, "nft", cfg.NftCollaborator.String())
	assert.True(t, cfg.RewardCollaborator.IsNil())
	assert.Equal(t, int64(0), cfg.VerificationFee)
	assert.Equal(t, int64(25), cfg.MaxVerifications)
	assert.Equal(t, 4, configChanges(sink))

	require.NoError(t, bootstrap(context.Background(), svc, want, 0, log))
	assert.Equal(t, 4, configChanges(sink), "a matching config is not reapplied")
}

func TestBootstrap_InvalidSettingFails(t *testing.T) {
	svc, _ := newBootstrapLedger()
	err := bootstrap(context.Background(), svc, config.Ledger{
		VerificationFee:  -5,
		MaxVerifications: models.DefaultMaxVerifications,
	}, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidUpdateParam))
}
