package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/connectly/backend/internal/database"
	"github.com/connectly/backend/internal/seed"
)

var seedTestUsers bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the database with development data",
	Long: `Seed fills the database with fake users, posts, connections, jobs,
and messages for local development. With --test it creates a small fixed
set of accounts (alice@example.com etc., password "password123") instead.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := database.Migrate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: migration failed: %v\n", err)
			os.Exit(1)
		}

		seeder := seed.NewSeeder(database.DB)

		var err error
		if seedTestUsers {
			err = seeder.SeedTest()
		} else {
			err = seeder.SeedDev()
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: seeding failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("✅ Database seeded")
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedTestUsers, "test", false, "Seed fixed test accounts instead of fake dev data")
}
