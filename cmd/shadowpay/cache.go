package main

import (
	"fmt"

	"github.com/Veraticus/shadow-payroll/internal/cli"
	"github.com/Veraticus/shadow-payroll/internal/common"
	"github.com/Veraticus/shadow-payroll/internal/config"
	"github.com/Veraticus/shadow-payroll/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the persistent response cache",
	}
	cmd.AddCommand(cachePurgeCmd())
	return cmd
}

func cachePurgeCmd() *cobra.Command {
	var all, yes bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove expired cached model replies",
		Long: `Remove expired cached model replies from the SQLite cache.
With --all every cached reply is removed. Last known exchange rates are kept.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.Load(viper.GetViper())
			if err != nil {
				return common.NewUserError("invalid configuration", err)
			}

			out := cmd.OutOrStdout()
			if all && !yes {
				ok, err := cli.Confirm(cmd.Context(), cmd.InOrStdin(), out, "Remove every cached reply?")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, cli.FormatInfo("Nothing removed."))
					return nil
				}
			}

			store, err := storage.Open(cmd.Context(), settings.Cache.Path)
			if err != nil {
				return fmt.Errorf("failed to open cache: %w", err)
			}
			defer func() { _ = store.Close() }()

			var removed int64
			if all {
				removed, err = store.PurgeAll(cmd.Context())
			} else {
				removed, err = store.Purge(cmd.Context())
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Removed %d cached %s from %s", removed, plural(removed, "reply", "replies"), store.Path())))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "remove unexpired replies too")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
