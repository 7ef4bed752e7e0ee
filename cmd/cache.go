package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// cacheCmd 缓存管理命令
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Cache management commands",
	Long: `Inspect the cache and clear pending password reset codes.
Only meaningful with cache_type=redis; the in-memory cache lives inside the server process.`,
}

var cachePingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the cache is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		container, closeAll, err := openContainer(ctx)
		if err != nil {
			return err
		}
		defer closeAll()

		provider := container.GetCache()
		if err := provider.Ping(ctx); err != nil {
			return fmt.Errorf("cache %s unreachable: %w", provider.Name(), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cache %s: ok\n", provider.Name())
		return nil
	},
}

// cacheClearOTPCmd unlocks a user locked out of code-based reset
var cacheClearOTPCmd = &cobra.Command{
	Use:   "clear-otp <email>",
	Short: "Drop the pending reset code and attempt counter for an email",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		container, closeAll, err := openContainer(ctx)
		if err != nil {
			return err
		}
		defer closeAll()

		if err := container.AuthService.RevokeResetOTP(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared reset code for %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cachePingCmd, cacheClearOTPCmd)
}
