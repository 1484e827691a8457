package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/jmerrifield20/recordledger/internal/identity"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var journalCmd = &cobra.Command{
	Use:   "journal [index]",
	Short: "Show the invocation journal's root, verify it, or print one entry",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if len(args) == 1 {
			var idx int
			if _, err := fmt.Sscanf(args[0], "%d", &idx); err != nil {
				return fmt.Errorf("index must be an integer: %w", err)
			}
			entry, err := c.GetJournalEntry(ctx, idx)
			if err != nil {
				return err
			}
			return printResult(entry, nil)
		}

		overview, err := c.JournalOverview(ctx)
		if err != nil {
			return err
		}
		verification, err := c.VerifyJournal(ctx)
		if err != nil {
			return err
		}
		return printResult(map[string]any{
			"entries": overview.Entries,
			"root":    overview.Root,
			"valid":   verification.Valid,
			"error":   verification.Error,
		}, func() {
			fmt.Printf("Entries: %d\nRoot:    %s\n", overview.Entries, overview.Root)
			if verification.Valid {
				fmt.Println("Valid:   yes")
			} else {
				fmt.Printf("Valid:   NO (%s)\n", verification.Error)
			}
		})
	},
}

var (
	identityMSP  string
	identityCert string
	tokenSecret  string
	tokenIssuer  string
	tokenTTL     time.Duration
)

func init() {
	for _, cmd := range []*cobra.Command{tokenIssueCmd, creatorCmd} {
		cmd.Flags().StringVar(&identityMSP, "msp", "", "MSP id, e.g. Org1MSP (required)")
		cmd.Flags().StringVar(&identityCert, "cert", "", "PEM certificate file (required)")
		_ = cmd.MarkFlagRequired("msp")
		_ = cmd.MarkFlagRequired("cert")
	}
	tokenIssueCmd.Flags().StringVar(&tokenSecret, "secret", "", "HMAC secret shared with ledgerd (default: token_secret from config)")
	tokenIssueCmd.Flags().StringVar(&tokenIssuer, "issuer", "ledgerd", "token issuer; must match ledgerd's identity.token_issuer")
	tokenIssueCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")

	tokenCmd.AddCommand(tokenIssueCmd)
}

func creatorBlob() ([]byte, error) {
	certPEM, err := os.ReadFile(identityCert)
	if err != nil {
		return nil, fmt.Errorf("read certificate: %w", err)
	}
	return identity.SerializeIdentity(identityMSP, certPEM), nil
}

var creatorCmd = &cobra.Command{
	Use:   "creator",
	Short: "Print the base64 creator blob for an MSP id and certificate",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		blob, err := creatorBlob()
		if err != nil {
			return err
		}
		caller, err := identity.FromCreator(blob)
		if err != nil {
			return err
		}
		return printResult(caller, func() { fmt.Println(base64.StdEncoding.EncodeToString(blob)) })
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage caller tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Mint a caller token for an MSP id and certificate",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenSecret == "" {
			tokenSecret = viper.GetString("token_secret")
		}
		if tokenSecret == "" {
			return fmt.Errorf("--secret is required")
		}
		blob, err := creatorBlob()
		if err != nil {
			return err
		}
		issued, err := identity.NewTokenIssuer([]byte(tokenSecret), tokenIssuer, tokenTTL).Issue(blob)
		if err != nil {
			return err
		}
		return printResult(map[string]any{"token": issued, "expires_in": int(tokenTTL.Seconds())}, func() {
			fmt.Println(issued)
		})
	},
}
