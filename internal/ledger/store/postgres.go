package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"mastery/internal/ledger/models"
	id "mastery/pkg/domain"
	"mastery/pkg/platform/sentinel"
	txcontext "mastery/pkg/platform/tx"
)

// PostgresStore persists ledger state in PostgreSQL. When the context carries
// a SQL transaction (see pkg/platform/tx) every statement runs inside it.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed ledger store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.SQL(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) LoadConfig(ctx context.Context) (*models.Config, error) {
	query := `
		SELECT admin_principal, oracle_principal, reward_collaborator, nft_collaborator,
		       verification_fee, max_verifications
		FROM ledger_config
	`
	var cfg models.Config
	var admin string
	var oracle, reward, nft sql.NullString
	err := s.execer(ctx).QueryRowContext(ctx, query).Scan(
		&admin, &oracle, &reward, &nft, &cfg.VerificationFee, &cfg.MaxVerifications,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Admin = id.Principal(admin)
	cfg.Oracle = id.Principal(oracle.String)
	cfg.RewardCollaborator = id.Principal(reward.String)
	cfg.NftCollaborator = id.Principal(nft.String)
	return &cfg, nil
}

func (s *PostgresStore) NextID(ctx context.Context) (id.VerificationID, error) {
	var next int64
	err := s.execer(ctx).QueryRowContext(ctx, `SELECT next_id FROM ledger_sequence`).Scan(&next)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("load next id: %w", err)
	}
	return id.VerificationID(next), nil
}

const verificationColumns = `
	id, course_id, user_principal, score, threshold, proof_hash, block_height,
	verifier, verification_type, difficulty, expiry, metadata, status
`

func (s *PostgresStore) FindVerification(ctx context.Context, vid id.VerificationID) (*models.Verification, error) {
	query := `SELECT ` + verificationColumns + ` FROM verifications WHERE id = $1`
	v, err := scanVerification(s.execer(ctx).QueryRowContext(ctx, query, int64(vid)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find verification: %w", err)
	}
	return v, nil
}

func (s *PostgresStore) FindIDByUserCourse(ctx context.Context, user id.Principal, courseID id.CourseID) (id.VerificationID, error) {
	query := `SELECT id FROM verifications WHERE user_principal = $1 AND course_id = $2`
	var vid int64
	err := s.execer(ctx).QueryRowContext(ctx, query, string(user), int64(courseID)).Scan(&vid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, sentinel.ErrNotFound
		}
		return 0, fmt.Errorf("find verification by user and course: %w", err)
	}
	return id.VerificationID(vid), nil
}

func (s *PostgresStore) FindUpdate(ctx context.Context, vid id.VerificationID) (*models.VerificationUpdate, error) {
	query := `
		SELECT verification_id, score, threshold, block_height, updater
		FROM verification_updates
		WHERE verification_id = $1
	`
	var u models.VerificationUpdate
	var rawID, height int64
	var updater string
	err := s.execer(ctx).QueryRowContext(ctx, query, int64(vid)).Scan(&rawID, &u.Score, &u.Threshold, &height, &updater)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find verification update: %w", err)
	}
	u.VerificationID = id.VerificationID(rawID)
	u.UpdatedAt = id.BlockHeight(height)
	u.Updater = id.Principal(updater)
	return &u, nil
}

func (s *PostgresStore) FindCertificate(ctx context.Context, vid id.VerificationID) (*models.Certificate, error) {
	query := `
		SELECT verification_id, owner_principal, issued_at, metadata
		FROM certificates
		WHERE verification_id = $1
	`
	var c models.Certificate
	var rawID, issuedAt int64
	var owner string
	err := s.execer(ctx).QueryRowContext(ctx, query, int64(vid)).Scan(&rawID, &owner, &issuedAt, &c.Metadata)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find certificate: %w", err)
	}
	c.VerificationID = id.VerificationID(rawID)
	c.Owner = id.Principal(owner)
	c.IssuedAt = id.BlockHeight(issuedAt)
	return &c, nil
}

// Apply writes the batch in one transaction. It joins the transaction carried
// by ctx when present, otherwise it opens and commits its own.
func (s *PostgresStore) Apply(ctx context.Context, batch *models.Batch) error {
	if tx, ok := txcontext.SQL(ctx); ok {
		return applyBatch(ctx, tx, batch)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin apply: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is no-op
	}()
	if err := applyBatch(ctx, tx, batch); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit apply: %w", err)
	}
	return nil
}

// applyBatch writes config, sequence, verifications, updates and certificates
// in that order so foreign keys resolve. Index entries need no statement: the
// verifications table carries the (user_principal, course_id) unique key.
func applyBatch(ctx context.Context, exec dbExecutor, batch *models.Batch) error {
	if batch.Config != nil {
		if err := upsertConfig(ctx, exec, batch.Config); err != nil {
			return err
		}
	}
	if batch.NextID != nil {
		if err := checkNextID(ctx, exec, *batch.NextID); err != nil {
			return err
		}
		_, err := exec.ExecContext(ctx, `
			INSERT INTO ledger_sequence (singleton, next_id) VALUES (TRUE, $1)
			ON CONFLICT (singleton) DO UPDATE SET next_id = EXCLUDED.next_id
		`, int64(*batch.NextID))
		if err != nil {
			return fmt.Errorf("store next id: %w", err)
		}
	}
	created := make(map[id.VerificationID]bool)
	for _, vid := range batch.Created() {
		created[vid] = true
	}
	for vid, v := range batch.Verifications {
		if err := writeVerification(ctx, exec, v, created[vid]); err != nil {
			return err
		}
	}
	for _, u := range batch.Updates {
		_, err := exec.ExecContext(ctx, `
			INSERT INTO verification_updates (verification_id, score, threshold, block_height, updater)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (verification_id) DO UPDATE SET
				score = EXCLUDED.score,
				threshold = EXCLUDED.threshold,
				block_height = EXCLUDED.block_height,
				updater = EXCLUDED.updater
		`, int64(u.VerificationID), u.Score, u.Threshold, int64(u.UpdatedAt), string(u.Updater))
		if err != nil {
			return fmt.Errorf("store verification update: %w", err)
		}
	}
	for _, c := range batch.Certificates {
		_, err := exec.ExecContext(ctx, `
			INSERT INTO certificates (verification_id, owner_principal, issued_at, metadata)
			VALUES ($1, $2, $3, $4)
		`, int64(c.VerificationID), string(c.Owner), int64(c.IssuedAt), c.Metadata)
		if err != nil {
			if isUniqueViolation(err) {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("store certificate: %w", err)
		}
	}
	return nil
}

func upsertConfig(ctx context.Context, exec dbExecutor, cfg *models.Config) error {
	_, err := exec.ExecContext(ctx, `
		INSERT INTO ledger_config (singleton, admin_principal, oracle_principal, reward_collaborator,
		                           nft_collaborator, verification_fee, max_verifications)
		VALUES (TRUE, $1, $2, $3, $4, $5, $6)
		ON CONFLICT (singleton) DO UPDATE SET
			oracle_principal = EXCLUDED.oracle_principal,
			reward_collaborator = EXCLUDED.reward_collaborator,
			nft_collaborator = EXCLUDED.nft_collaborator,
			verification_fee = EXCLUDED.verification_fee,
			max_verifications = EXCLUDED.max_verifications
	`, string(cfg.Admin), nullPrincipal(cfg.Oracle), nullPrincipal(cfg.RewardCollaborator),
		nullPrincipal(cfg.NftCollaborator), cfg.VerificationFee, cfg.MaxVerifications)
	if err != nil {
		return fmt.Errorf("store config: %w", err)
	}
	return nil
}

// checkNextID locks the sequence row and requires it to sit one below next,
// so a batch built from an older read cannot reuse an id.
func checkNextID(ctx context.Context, exec dbExecutor, next id.VerificationID) error {
	var current int64
	err := exec.QueryRowContext(ctx, `SELECT next_id FROM ledger_sequence FOR UPDATE`).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check next id: %w", err)
	}
	if next == 0 || id.VerificationID(current) != next-1 {
		return sentinel.ErrStale
	}
	return nil
}

// writeVerification inserts a new submission, failing on any id or
// (user, course) clash, or rewrites the mutable columns of an existing one.
func writeVerification(ctx context.Context, exec dbExecutor, v *models.Verification, created bool) error {
	query := `
		INSERT INTO verifications (` + verificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	if !created {
		query += `
		ON CONFLICT (id) DO UPDATE SET
			score = EXCLUDED.score,
			threshold = EXCLUDED.threshold,
			block_height = EXCLUDED.block_height,
			status = EXCLUDED.status
	`
	}
	_, err := exec.ExecContext(ctx, query,
		int64(v.ID), int64(v.CourseID), string(v.User), v.Score, v.Threshold, v.ProofHash[:],
		int64(v.Timestamp), nullPrincipal(v.Verifier), string(v.Type), v.Difficulty,
		int64(v.Expiry), v.Metadata, v.Status,
	)
	if err != nil {
		if isUniqueViolation(err) {
			if violatedConstraint(err) == "verifications_pkey" {
				return sentinel.ErrStale
			}
			return sentinel.ErrConflict
		}
		return fmt.Errorf("store verification: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVerification(row rowScanner) (*models.Verification, error) {
	var v models.Verification
	var rawID, courseID, height, expiry int64
	var user, vType string
	var verifier sql.NullString
	var proof []byte
	if err := row.Scan(&rawID, &courseID, &user, &v.Score, &v.Threshold, &proof, &height,
		&verifier, &vType, &v.Difficulty, &expiry, &v.Metadata, &v.Status); err != nil {
		return nil, err
	}
	v.ID = id.VerificationID(rawID)
	v.CourseID = id.CourseID(courseID)
	v.User = id.Principal(user)
	copy(v.ProofHash[:], proof)
	v.Timestamp = id.BlockHeight(height)
	v.Verifier = id.Principal(verifier.String)
	v.Type = models.VerificationType(vType)
	v.Expiry = id.BlockHeight(expiry)
	return &v, nil
}

func nullPrincipal(p id.Principal) sql.NullString {
	return sql.NullString{String: string(p), Valid: !p.IsNil()}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func violatedConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
