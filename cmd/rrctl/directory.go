package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var directoryCmd = &cobra.Command{
	Use:   "directory",
	Short: "Inspect and administer user directory entries",
}

var providerCmd = &cobra.Command{
	Use:   "provider",
	Short: "Inspect and administer provider reputation",
}

func init() {
	directoryCmd.AddCommand(queryDirectoryCmd, deleteDirectoryCmd)
	providerCmd.AddCommand(creditProviderCmd, queryProviderCmd, deleteProviderCmd, listProvidersCmd, endorserCmd)
}

var queryDirectoryCmd = &cobra.Command{
	Use:   "query <user-id>",
	Short: "List the records associated with a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		entry, err := c.QueryDirectory(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printResult(entry, func() {
			refs := make([]string, 0, len(entry.References))
			for ref := range entry.References {
				refs = append(refs, ref)
			}
			sort.Strings(refs)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RECORD\tPROVIDER\tLAST EDIT")
			for _, ref := range refs {
				r := entry.References[ref]
				fmt.Fprintf(w, "%s\t%s\t%s\n", ref, r.Provider, r.LastEdit.Format(time.RFC3339))
			}
			w.Flush()
		})
	},
}

var deleteDirectoryCmd = &cobra.Command{
	Use:   "delete <user-id>",
	Short: "Remove a user's whole directory entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if err := c.DeleteDirectoryEntry(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted directory entry %s\n", args[0])
		return nil
	},
}

var creditProviderCmd = &cobra.Command{
	Use:   "credit <provider-id> <amount>",
	Short: "Add to a provider's significance",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("amount must be an integer: %w", err)
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		score, err := c.CreditProvider(cmd.Context(), args[0], amount)
		if err != nil {
			return err
		}
		return printResult(score, func() {
			fmt.Printf("%s: %d\n", args[0], score.Significance)
		})
	},
}

var queryProviderCmd = &cobra.Command{
	Use:   "query <provider-id>",
	Short: "Print a provider's significance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		n, err := c.ProviderSignificance(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printResult(n, func() { fmt.Println(n) })
	},
}

var deleteProviderCmd = &cobra.Command{
	Use:   "delete <provider-id>",
	Short: "Remove a provider's score",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if err := c.DeleteProvider(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted provider %s\n", args[0])
		return nil
	},
}

var listProvidersCmd = &cobra.Command{
	Use:   "list",
	Short: "List every provider's standing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		standings, err := c.Providers(cmd.Context())
		if err != nil {
			return err
		}
		return printResult(standings, func() {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tSIGNIFICANCE\tLAST UPDATE")
			for _, s := range standings {
				fmt.Fprintf(w, "%s\t%d\t%s\n", s.Provider, s.Significance, s.LastUpdate.Format(time.RFC3339))
			}
			w.Flush()
		})
	},
}

var endorserCmd = &cobra.Command{
	Use:   "endorser [exclude-provider]",
	Short: "Select the provider to endorse the next transaction",
	Long: `endorser runs the fairness selection. Without an argument the caller's
own provider is excluded.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exclude := ""
		if len(args) == 1 {
			exclude = args[0]
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		endorser, err := c.SelectEndorser(cmd.Context(), exclude)
		if err != nil {
			return err
		}
		return printResult(endorser, func() { fmt.Println(endorser) })
	},
}
