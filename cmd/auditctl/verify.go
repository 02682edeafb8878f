package main

import (
	"errors"
	"fmt"

	"github.com/brunohelius/cau-eleitoral-migrado-sub006/internal/app/bootstrap"
	"github.com/spf13/cobra"
)

var (
	errNotReproducible = errors.New("tally is not reproducible from stored ballots")
	errReceiptMissing  = errors.New("receipt not found in stored ballots")
)

func verifyTallyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-tally <tally_id>",
		Short: "Recompute a stored tally and compare its hashes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(runtime *bootstrap.Runtime) error {
				result, err := runtime.Election.Handler.VerifyTallyHandler(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("verify tally %s: %w", args[0], err)
				}
				if err := printJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
				if !result.Reproducible {
					return errNotReproducible
				}
				return nil
			})
		},
	}
}

func verifyReceiptCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-receipt <election_id> <ballot_hash>",
		Short: "Check that a voter receipt is stored and counted",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(runtime *bootstrap.Runtime) error {
				result, err := runtime.Election.Handler.VerifyReceiptHandler(cmd.Context(), args[0], args[1])
				if err != nil {
					return fmt.Errorf("verify receipt %s: %w", args[1], err)
				}
				if err := printJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
				if !result.Stored {
					return errReceiptMissing
				}
				return nil
			})
		},
	}
}
