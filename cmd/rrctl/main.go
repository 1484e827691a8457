// Command rrctl is the command-line client for ledgerd.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jmerrifield20/recordledger/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden via -ldflags "-X main.version=...".
var version = "dev"

var (
	cfgFile   string
	serverURL string
	creator   string
	token     string
	certDir   string
	format    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "rrctl",
	Short: "recordledger CLI",
	Long: `rrctl talks to a ledgerd instance.

It creates and audits records, manages their access lists, inspects the
patient directory and provider reputation, and reads the invocation journal.

The caller is identified by --token (a caller token from 'rrctl token issue'),
--cert-dir (mutual TLS) or --creator (a base64 creator blob, development only).`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.rrctl")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.SetEnvPrefix("rrctl")
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		fill := func(v *string, key, def string) {
			if *v == "" {
				*v = viper.GetString(key)
			}
			if *v == "" {
				*v = def
			}
		}
		fill(&serverURL, "server", "http://localhost:8080")
		fill(&creator, "creator", "")
		fill(&token, "token", "")
		fill(&certDir, "cert_dir", "")
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ~/.rrctl/config.yaml)")
	pf.StringVar(&serverURL, "server", "", "ledgerd base URL (default http://localhost:8080)")
	pf.StringVar(&creator, "creator", "", "base64 creator blob sent as X-Creator")
	pf.StringVar(&token, "token", "", "caller token sent as a Bearer credential")
	pf.StringVar(&certDir, "cert-dir", "", "directory holding cert.pem, key.pem and ca.pem for mutual TLS")
	pf.StringVar(&format, "format", "text", "output format: text or json")

	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(directoryCmd)
	rootCmd.AddCommand(providerCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(creatorCmd)
	rootCmd.AddCommand(versionCmd)
}

func newClient() (*client.Client, error) {
	var opts []client.Option
	if certDir != "" {
		opts = append(opts, client.WithCertDir(certDir))
	}
	if token != "" {
		opts = append(opts, client.WithBearerToken(token))
	}
	if creator != "" {
		opts = append(opts, client.WithCreator(creator))
	}
	return client.New(serverURL, opts...)
}

// printResult prints v as indented JSON, or calls text in text mode.
func printResult(v any, text func()) error {
	if format == "json" || text == nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text()
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the rrctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("rrctl %s\n", version)
	},
}
