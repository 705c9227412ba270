//go:build integration

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"mastery/internal/ledger/collaborator"
	"mastery/internal/ledger/service"
	"mastery/internal/ledger/store"
	id "mastery/pkg/domain"
	dErrors "mastery/pkg/domain-errors"
	"mastery/pkg/testutil"
	"mastery/pkg/testutil/containers"
)

type LedgerPostgresTxSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	minter   *collaborator.NFTRegistry
	service  *service.Service
}

func TestLedgerPostgresTxSuite(t *testing.T) {
	suite.Run(t, new(LedgerPostgresTxSuite))
}

func (s *LedgerPostgresTxSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
}

func (s *LedgerPostgresTxSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(context.Background()))
	s.minter = collaborator.NewNFTRegistry()
	s.service = s.newService()
}

func (s *LedgerPostgresTxSuite) newService() *service.Service {
	return service.NewService(
		store.NewPostgres(s.postgres.DB),
		testutil.TestPrincipals.Admin,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		service.WithTx(newLedgerPostgresTx(s.postgres.DB)),
		service.WithFeeCollector(collaborator.NewBank()),
		service.WithMinter(s.minter),
		service.WithRewardPayer(collaborator.NewRewardPool()),
	)
}

func (s *LedgerPostgresTxSuite) TestSubmissionSurvivesRestart() {
	ctx := context.Background()
	admin := testutil.As(testutil.TestPrincipals.Admin, 1)
	s.Require().NoError(s.service.SetNftCollaborator(ctx, admin, testutil.TestPrincipals.NftContract))

	vid, err := s.service.Submit(ctx, testutil.As(testutil.TestPrincipals.User1, 10), testutil.NewSubmitBuilder().Build())
	s.Require().NoError(err)
	s.Equal(id.VerificationID(0), vid)

	restarted := s.newService()
	v, err := restarted.GetVerification(ctx, vid)
	s.Require().NoError(err)
	s.Require().NotNil(v)
	s.Equal(testutil.TestPrincipals.User1, v.User)
	s.Equal(testutil.ProofOf("course-1"), v.ProofHash[:])
	s.True(v.Status)

	cert, err := restarted.GetCertificate(ctx, vid)
	s.Require().NoError(err)
	s.Require().NotNil(cert)
	s.Equal(id.BlockHeight(10), cert.IssuedAt)

	cfg, err := restarted.GetConfig(ctx)
	s.Require().NoError(err)
	s.Equal(testutil.TestPrincipals.NftContract, cfg.NftCollaborator)
}

func (s *LedgerPostgresTxSuite) TestConcurrentSubmissionsRespectCapacity() {
	ctx := context.Background()
	const capacity = 5
	const submitters = 20
	s.Require().NoError(s.service.SetMaxVerifications(ctx, testutil.As(testutil.TestPrincipals.Admin, 1), capacity))

	result := testutil.RunConcurrent(ctx, submitters, func(ctx context.Context, idx int) error {
		caller := id.Principal(fmt.Sprintf("ST%02dSUBMITTER", idx))
		_, err := s.service.Submit(ctx, testutil.As(caller, 10), testutil.NewSubmitBuilder().Build())
		return err
	})

	s.Equal(capacity, result.Accepted)
	s.Equal(submitters-capacity, result.Count(dErrors.CodeMaxVerificationsExceeded))
	s.True(result.OnlyRejectedWith(dErrors.CodeMaxVerificationsExceeded), "unexpected errors: %v", result.Errors)

	count, err := s.service.GetVerificationCount(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(capacity), count)
}

func (s *LedgerPostgresTxSuite) TestConcurrentDuplicateSubmissionRecordsOnce() {
	ctx := context.Background()
	result := testutil.RunConcurrent(ctx, 10, func(ctx context.Context, _ int) error {
		_, err := s.service.Submit(ctx, testutil.As(testutil.TestPrincipals.User2, 10), testutil.NewSubmitBuilder().Build())
		return err
	})

	s.Equal(1, result.Accepted)
	s.Equal(9, result.Count(dErrors.CodeAlreadyVerified))
	s.Equal(10, result.Total())

	count, err := s.service.GetVerificationCount(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(1), count)
}

func (s *LedgerPostgresTxSuite) TestRejectedSubmissionLeavesNoRows() {
	ctx := context.Background()
	cmd := testutil.NewSubmitBuilder().WithScore(101, 70).Build()

	_, err := s.service.Submit(ctx, testutil.As(testutil.TestPrincipals.User1, 10), cmd)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidScore))

	var rows int
	s.Require().NoError(s.postgres.QueryRow(ctx, `SELECT COUNT(*) FROM verifications`).Scan(&rows))
	s.Zero(rows)
}
