package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/connectly/backend/internal/database"
	"github.com/connectly/backend/internal/models"
)

var (
	promoteEmail string
	revokeAdmin  bool
)

var promoteAdminCmd = &cobra.Command{
	Use:   "promote-admin",
	Short: "Grant or revoke admin access for a user",
	Run: func(cmd *cobra.Command, args []string) {
		email := strings.ToLower(strings.TrimSpace(promoteEmail))
		if email == "" {
			fmt.Fprintln(os.Stderr, "Error: --email is required")
			os.Exit(1)
		}

		var user models.User
		if err := database.DB.Where("LOWER(email) = ?", email).First(&user).Error; err != nil {
			fmt.Fprintf(os.Stderr, "Error: user not found: %s\n", email)
			os.Exit(1)
		}

		user.IsAdmin = !revokeAdmin
		if err := database.DB.Model(&user).Update("is_admin", user.IsAdmin).Error; err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to update user: %v\n", err)
			os.Exit(1)
		}

		if user.IsAdmin {
			fmt.Printf("✅ %s %s (%s) is now an admin\n", user.FirstName, user.LastName, user.Email)
		} else {
			fmt.Printf("✅ Admin access revoked for %s %s (%s)\n", user.FirstName, user.LastName, user.Email)
		}
	},
}

func init() {
	promoteAdminCmd.Flags().StringVar(&promoteEmail, "email", "", "Email address of the user")
	promoteAdminCmd.Flags().BoolVar(&revokeAdmin, "revoke", false, "Revoke admin access instead of granting it")
}
