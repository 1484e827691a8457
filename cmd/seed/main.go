// Command seed populates a running ledgerd with demo records for
// development. It talks to ledgerd through pkg/client using X-Creator
// identities, so ledgerd must run with identity.allow_creator_header.
//
// Running twice is safe: records and grants that already exist are skipped.
//
// Usage:
//
//	go run ./cmd/seed
//	LEDGER_URL=http://localhost:8080 go run ./cmd/seed
package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/jmerrifield20/recordledger/internal/identity"
	"github.com/jmerrifield20/recordledger/pkg/client"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const demoCertPEM = "-----BEGIN CERTIFICATE-----\nZGVtbw==\n-----END CERTIFICATE-----\n"

// ── Providers ────────────────────────────────────────────────────────────────

type seedProvider struct {
	MSP  string
	Seed int64
}

var providers = []seedProvider{
	{MSP: "Hospital1MSP", Seed: 500},
	{MSP: "Clinic2MSP", Seed: 200},
	{MSP: "Lab3MSP", Seed: 50},
}

// ── Records ──────────────────────────────────────────────────────────────────

type seedGrant struct {
	Target   string // MSP of the grantee
	Provider bool   // grant to the provider rather than its client
	Action   string
}

type seedRecord struct {
	Ref          string
	User         string
	Owner        string // MSP of the creating client
	Significance int64
	Grants       []seedGrant
	Edits        []string
}

var records = []seedRecord{
	{
		Ref: "rec-cardiology-001", User: "10000000001", Owner: "Hospital1MSP", Significance: 80,
		Grants: []seedGrant{{Target: "Clinic2MSP", Action: "READ"}, {Target: "Lab3MSP", Provider: true, Action: "READ"}},
		Edits:  []string{"ECG uploaded", "discharge summary"},
	},
	{
		Ref: "rec-bloodwork-002", User: "10000000001", Owner: "Lab3MSP", Significance: 20,
		Grants: []seedGrant{{Target: "Hospital1MSP", Action: "WRITE"}},
		Edits:  []string{"CBC panel"},
	},
	{
		Ref: "rec-gp-003", User: "10000000002", Owner: "Clinic2MSP", Significance: 35,
	},
}

func creatorOf(msp string) string {
	return base64.StdEncoding.EncodeToString(identity.SerializeIdentity(msp, []byte(demoCertPEM)))
}

func main() {
	logger, _ := zap.NewDevelopment()
	defer logger.Sync() //nolint:errcheck

	if err := run(context.Background(), logger); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *zap.Logger) error {
	viper.AutomaticEnv()
	viper.SetDefault("ledger_url", "http://localhost:8080")
	base := viper.GetString("ledger_url")

	clients := make(map[string]*client.Client, len(providers))
	for _, p := range providers {
		c, err := client.New(base, client.WithCreator(creatorOf(p.MSP)))
		if err != nil {
			return err
		}
		clients[p.MSP] = c
	}

	if err := seedProviders(ctx, clients[providers[0].MSP], logger); err != nil {
		return fmt.Errorf("seed providers: %w", err)
	}
	for _, r := range records {
		if err := seedRecordOne(ctx, clients, r, logger); err != nil {
			return fmt.Errorf("seed %s: %w", r.Ref, err)
		}
	}

	logger.Info("seed complete", zap.String("ledger", base))
	return nil
}

// seedProviders only credits providers that have no score yet.
func seedProviders(ctx context.Context, c *client.Client, logger *zap.Logger) error {
	for _, p := range providers {
		id := identity.ProviderFromCreator([]byte(p.MSP))
		_, err := c.ProviderSignificance(ctx, id)
		if err == nil {
			logger.Info("skip provider", zap.String("provider", id))
			continue
		}
		if !client.IsKind(err, "not_found") {
			return err
		}
		if _, err := c.CreditProvider(ctx, id, p.Seed); err != nil {
			return err
		}
		logger.Info("seeded provider", zap.String("provider", id), zap.Int64("significance", p.Seed))
	}
	return nil
}

func seedRecordOne(ctx context.Context, clients map[string]*client.Client, r seedRecord, logger *zap.Logger) error {
	owner := clients[r.Owner]
	if _, err := owner.CreateRecord(ctx, r.Ref, r.User, r.Significance); err != nil {
		if client.IsKind(err, "duplicate") {
			logger.Info("skip record", zap.String("record", r.Ref))
			return nil
		}
		return err
	}

	for _, g := range r.Grants {
		target, kind := creatorOf(g.Target), client.KindClient
		if g.Provider {
			target, kind = identity.ProviderFromCreator([]byte(g.Target)), client.KindProvider
		}
		if _, err := owner.UpdateACL(ctx, r.Ref, target, client.OpGrant, kind, g.Action); err != nil && !client.IsKind(err, "duplicate") {
			return err
		}
	}
	for _, detail := range r.Edits {
		if _, err := owner.LogRecord(ctx, r.Ref, "WRITE", detail); err != nil {
			return err
		}
	}
	logger.Info("seeded record",
		zap.String("record", r.Ref),
		zap.String("user", r.User),
		zap.Int("grants", len(r.Grants)),
	)
	return nil
}
