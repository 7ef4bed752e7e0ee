package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/anoixa/photo-album/database/models"
	"github.com/anoixa/photo-album/internal/auth"
)

// passwordEnv lets scripts pass a password without putting it in argv.
const passwordEnv = "PHOTO_ALBUM_PASSWORD"

// userCmd 用户管理命令
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "User account management",
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		container, closeAll, err := openContainer(ctx)
		if err != nil {
			return err
		}
		defer closeAll()

		users, err := container.AuthService.ListUsers(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tNAME\tLOGIN\tCREATED")
		for _, u := range users {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				u.ID, u.Username, u.Email, u.Name, loginKind(&u), u.CreatedAt.Format("2006-01-02"))
		}
		return w.Flush()
	},
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a local account",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		username, _ := cmd.Flags().GetString("username")
		password, err := passwordFlag(cmd)
		if err != nil {
			return err
		}

		ctx := context.Background()
		container, closeAll, err := openContainer(ctx)
		if err != nil {
			return err
		}
		defer closeAll()

		user, err := container.AuthService.Register(ctx, name, email, username, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (id %d)\n", user.Username, user.ID)
		return nil
	},
}

var userPasswdCmd = &cobra.Command{
	Use:   "passwd <email>",
	Short: "Set a new password for an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := passwordFlag(cmd)
		if err != nil {
			return err
		}

		ctx := context.Background()
		container, closeAll, err := openContainer(ctx)
		if err != nil {
			return err
		}
		defer closeAll()

		if err := container.AuthService.UpdatePassword(ctx, args[0], password); err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				return fmt.Errorf("no account with email %s", args[0])
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %s\n", args[0])
		return nil
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <email>",
	Short: "Delete an account with all its photos",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("refusing to delete without --yes")
		}

		ctx := context.Background()
		container, closeAll, err := openContainer(ctx)
		if err != nil {
			return err
		}
		defer closeAll()

		user, err := container.AccountsRepo.GetUserByEmail(ctx, models.NormalizeEmail(args[0]))
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("no account with email %s", args[0])
		}
		if err := container.AuthService.DeleteAccount(ctx, user.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %s\n", user.Username)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userListCmd, userCreateCmd, userPasswdCmd, userDeleteCmd)

	userCreateCmd.Flags().String("name", "", "display name")
	userCreateCmd.Flags().String("email", "", "email address")
	userCreateCmd.Flags().String("username", "", "login name")
	_ = userCreateCmd.MarkFlagRequired("name")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("username")

	for _, c := range []*cobra.Command{userCreateCmd, userPasswdCmd} {
		c.Flags().String("password", "", "password (or set "+passwordEnv+")")
	}
	userDeleteCmd.Flags().Bool("yes", false, "confirm deletion")
}

func passwordFlag(cmd *cobra.Command) (string, error) {
	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		password = os.Getenv(passwordEnv)
	}
	if len(password) < auth.MinPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", auth.MinPasswordLength)
	}
	return password, nil
}

func loginKind(u *models.User) string {
	switch {
	case u.HasPassword() && u.OAuthProvider != "":
		return "password+" + u.OAuthProvider
	case u.HasPassword():
		return "password"
	case u.OAuthProvider != "":
		return u.OAuthProvider
	default:
		return "-"
	}
}
