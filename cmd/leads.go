package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/studioluxe/leadflow/internal/crm"
	"github.com/studioluxe/leadflow/pkg/notion"
)

var leadsStatus string

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Inspect and update leads in the Notion CRM database",
}

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List leads with a given status, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, dbID, err := leadsClient()
		if err != nil {
			return err
		}
		return listLeads(cmd.Context(), client, dbID, leadsStatus, cmd.OutOrStdout())
	},
}

var leadsSetStatusCmd = &cobra.Command{
	Use:   "set-status <page-id> <status>",
	Short: "Move a lead to a new status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := leadsClient()
		if err != nil {
			return err
		}
		if err := notion.SetLeadStatus(cmd.Context(), client, args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", args[0], args[1])
		return nil
	},
}

func leadsClient() (notion.Client, string, error) {
	if err := cfg.Validate("leads"); err != nil {
		return nil, "", err
	}
	client := notion.NewClient(cfg.CRM.Notion.Token, notion.WithRateLimit(cfg.CRM.Notion.RateLimit))
	return client, crm.NormalizeCollectionID(cfg.CRM.Notion.DatabaseID), nil
}

func listLeads(ctx context.Context, c notion.Client, dbID, status string, w io.Writer) error {
	leads, err := notion.QueryLeadsByStatus(ctx, c, dbID, status)
	if err != nil {
		return eris.Wrap(err, "leads: list")
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PAGE ID\tCREATED\tNAME\tEMAIL\tBUDGET\tSCORE\tSTATUS")
	for _, l := range leads {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.0f\t%s\n",
			l.PageID,
			l.CreatedAt.Format("2006-01-02 15:04"),
			l.Name,
			l.Email,
			l.Budget,
			l.Score,
			l.Status,
		)
	}
	return tw.Flush()
}

func init() {
	leadsListCmd.Flags().StringVar(&leadsStatus, "status", crm.StatusLead, "status to filter by")
	leadsCmd.AddCommand(leadsListCmd, leadsSetStatusCmd)
	rootCmd.AddCommand(leadsCmd)
}
