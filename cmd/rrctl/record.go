package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jmerrifield20/recordledger/pkg/client"
	"github.com/spf13/cobra"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Create, audit and share records",
}

var (
	grantProvider bool
	queryOverride bool
)

func init() {
	grantCmd.Flags().BoolVar(&grantProvider, "provider", false, "target is a provider rather than a client")
	revokeCmd.Flags().BoolVar(&grantProvider, "provider", false, "target is a provider rather than a client")
	queryRecordCmd.Flags().BoolVar(&queryOverride, "override", false, "read without READ access; audited as OVERRIDE")

	recordCmd.AddCommand(createRecordCmd, logRecordCmd, grantCmd, revokeCmd, deleteRecordCmd, queryRecordCmd)
}

var createRecordCmd = &cobra.Command{
	Use:   "create <record-ref> <user-id> <initial-significance>",
	Short: "Create a record owned by the caller",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		sig, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("initial significance must be an integer: %w", err)
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		rec, err := c.CreateRecord(cmd.Context(), args[0], args[1], sig)
		if err != nil {
			return err
		}
		return printResult(rec, func() { printRecord(args[0], rec) })
	},
}

var logRecordCmd = &cobra.Command{
	Use:   "log <record-ref> <action> [detail]",
	Short: "Append an audit entry; any action other than READ counts as an edit",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		detail := ""
		if len(args) == 3 {
			detail = args[2]
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		entry, err := c.LogRecord(cmd.Context(), args[0], args[1], detail)
		if err != nil {
			return err
		}
		return printResult(entry, func() {
			fmt.Printf("logged %s on %s at %s\n", entry.Action, args[0], entry.Timestamp.Format(time.RFC3339))
		})
	},
}

func aclCommand(use, short string, op client.ACLOp) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <record-ref> <target-id> <action>",
		Short: short,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := client.KindClient
			if grantProvider {
				kind = client.KindProvider
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			rec, err := c.UpdateACL(cmd.Context(), args[0], args[1], op, kind, strings.ToUpper(args[2]))
			if err != nil {
				return err
			}
			return printResult(rec, func() { printRecord(args[0], rec) })
		},
	}
}

var (
	grantCmd  = aclCommand("grant", "Grant an action on a record", client.OpGrant)
	revokeCmd = aclCommand("revoke", "Revoke an action on a record", client.OpRevoke)
)

var deleteRecordCmd = &cobra.Command{
	Use:   "delete <record-ref>",
	Short: "Delete a record the caller created",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if err := c.DeleteRecord(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	},
}

var queryRecordCmd = &cobra.Command{
	Use:   "query <record-ref>",
	Short: "Read a record; the read is audited",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		rec, err := c.QueryRecord(cmd.Context(), args[0], queryOverride)
		if err != nil {
			return err
		}
		return printResult(rec, func() { printRecord(args[0], rec) })
	},
}

func printRecord(ref string, rec *client.Record) {
	fmt.Printf("Record:       %s\n", ref)
	fmt.Printf("Significance: %d\n\n", rec.Significance)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tPRINCIPAL\tACTIONS")
	for _, g := range rec.ACL {
		fmt.Fprintf(w, "%s\t%s\t%s\n", g.Principal.Kind, g.Principal.ID, strings.Join(g.Actions, ","))
	}
	w.Flush()
	fmt.Println()

	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTION\tINVOKER\tDETAIL")
	for _, e := range rec.Log {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Timestamp.Format(time.RFC3339), e.Action, e.Invoker, e.Detail)
	}
	w.Flush()
}
