// Package main provides a CLI tool for generating principal tokens for the
// mastery ledger API. With no JWT_SIGNING_KEY set the tokens use the dev
// signing key and will NOT work in production.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"mastery/internal/platform/config"
	id "mastery/pkg/domain"
	"mastery/pkg/platform/middleware/auth"
)

const (
	// Dev signing key - matches config.go when JWT_SIGNING_KEY is not set
	devSigningKey = "dev-secret-key-change-in-production"
	defaultIssuer = "mastery"
)

type tokenOutput struct {
	Token     string            `json:"token"`
	Principal string            `json:"principal"`
	ExpiresIn string            `json:"expires_in"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "tokengen: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("tokengen", flag.ContinueOnError)
	principal := fs.String("principal", "", "Principal to authenticate as (required)")
	ttl := fs.Duration("ttl", config.TokenTTL, "Token time-to-live")
	issuer := fs.String("issuer", envOr("JWT_ISSUER", defaultIssuer), "Token issuer")
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), `tokengen - Generate bearer tokens for the mastery ledger API

Usage:
  tokengen -principal <principal> [-ttl 1h] [-json]

The signing key is read from JWT_SIGNING_KEY and defaults to the dev key.

Examples:
  # Token for the admin principal configured by MASTERY_ADMIN_PRINCIPAL
  tokengen -principal admin

  # Token for a learner, valid for a day, as JSON
  tokengen -principal alice -ttl 24h -json`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := id.ParsePrincipal(*principal)
	if err != nil {
		return fmt.Errorf("-principal: %w", err)
	}
	if p.IsNil() {
		return fmt.Errorf("-principal: the null principal cannot authenticate")
	}

	signingKey := envOr("JWT_SIGNING_KEY", devSigningKey)
	token, err := auth.NewTokenService(signingKey, *issuer, *ttl).Issue(p)
	if err != nil {
		return err
	}

	if *jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(tokenOutput{
			Token:     token,
			Principal: p.String(),
			ExpiresIn: ttl.String(),
			Usage: map[string]string{
				"header": "Authorization: Bearer <token>",
			},
		})
	}

	fmt.Fprintln(out, "Principal Token (JWT)")
	fmt.Fprintln(out, "=====================")
	fmt.Fprintf(out, "Principal:  %s\n", p)
	fmt.Fprintf(out, "Expires In: %s\n", *ttl)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Token:")
	fmt.Fprintln(out, token)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, `  curl -H "Authorization: Bearer <token>" http://localhost:8080/verifications/count`)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

