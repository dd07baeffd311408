package handlers

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the result cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()

		stats := a.cache.Stats()
		fmt.Printf("Valid entries:   %d\n", stats.ValidEntries)
		fmt.Printf("Expired entries: %d\n", stats.ExpiredEntries)
		fmt.Printf("Hits:            %d\n", stats.Hits)
		fmt.Printf("Misses:          %d\n", stats.Misses)
		fmt.Printf("Hit rate:        %.1f%%\n", stats.HitRate*100)
		return nil
	},
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate <post-id>",
	Short: "Drop the cached result for a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()

		a.cache.Invalidate(args[0])
		fmt.Printf("Cache entry for post %s invalidated.\n", args[0])
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every in-memory cache entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()

		a.cache.Clear()
		fmt.Println("Cache cleared.")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
