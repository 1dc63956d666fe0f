package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the static cache",
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached data",
		Long: `Remove every entry of the static cache. With the memory backend this only
affects the cache of this process. Use it with the redis backend to reset
the cache shared by storefront instances.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			defer container.Close()

			if err := container.CacheAdmin().ClearCache(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Cleared the %s cache\n", container.Config().Cache.Backend)
			return nil
		},
	}

	cmd.AddCommand(clearCmd)
	return cmd
}
