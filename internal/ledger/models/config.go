package models

import (
	id "mastery/pkg/domain"
)

const (
	DefaultVerificationFee  int64 = 500
	DefaultMaxVerifications int64 = 10000
)

// Config is the ledger's process-wide configuration. Admin is fixed at
// construction; every other field changes only through admin-gated setters.
// Collaborator addresses are absent (zero) until set.
type Config struct {
	Admin              id.Principal
	Oracle             id.Principal
	RewardCollaborator id.Principal
	NftCollaborator    id.Principal
	VerificationFee    int64
	MaxVerifications   int64
}

// DefaultConfig returns the configuration a fresh ledger starts with.
func DefaultConfig(admin id.Principal) *Config {
	return &Config{
		Admin:            admin,
		VerificationFee:  DefaultVerificationFee,
		MaxVerifications: DefaultMaxVerifications,
	}
}

// IsAdmin reports whether caller may change configuration.
func (c *Config) IsAdmin(caller id.Principal) bool {
	return !caller.IsNil() && caller == c.Admin
}

// IsOracle reports whether caller is the configured oracle. An unset oracle
// matches nobody.
func (c *Config) IsOracle(caller id.Principal) bool {
	return !c.Oracle.IsNil() && caller == c.Oracle
}
