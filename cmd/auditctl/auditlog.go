package main

import (
	auditv1 "github.com/brunohelius/cau-eleitoral-migrado-sub006/contracts/gen/audit/v1"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/internal/app/bootstrap"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/internal/platform/auditlog"
	"github.com/spf13/cobra"
)

func auditLogCommand() *cobra.Command {
	var (
		filter   auditlog.Filter
		severity string
	)
	cmd := &cobra.Command{
		Use:   "audit-log",
		Short: "Print audit trail entries in insertion order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter.Severity = auditv1.Severity(severity)
			return withRuntime(cmd.Context(), func(runtime *bootstrap.Runtime) error {
				entries, err := runtime.Audit.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), entries)
			})
		},
	}
	cmd.Flags().StringVar(&filter.EntityType, "entity-type", "", "only entries for this entity type (election, slate, tally, commission, case, session)")
	cmd.Flags().StringVar(&filter.EntityID, "entity-id", "", "only entries for this entity id")
	cmd.Flags().StringVar(&filter.Action, "action", "", "only entries with this action")
	cmd.Flags().StringVar(&severity, "severity", "", "only entries with this severity (info, violation)")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "maximum number of entries, 0 for all")
	return cmd
}
