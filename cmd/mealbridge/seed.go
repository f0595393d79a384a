package main

import (
	"context"
	"fmt"

	"mealbridge/internal/db"
	"mealbridge/internal/seed"
	"mealbridge/internal/store"

	"github.com/k0kubun/pp/v3"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the database with fake donations",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"c"},
			Usage:   "Number of fake donations to create",
			Value:   20,
		},
		&cli.BoolFlag{
			Name:  "reset",
			Usage: "Delete previously seeded donations first",
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logrus.Info("Connected to database")

		donationRepo := store.NewDonationRepository(pool)

		logrus.Info("Seeding donations...")
		created, err := seed.SeedFakeDonations(ctx, pool, donationRepo, c.Int("count"), c.Bool("reset"))
		if err != nil {
			return fmt.Errorf("failed to seed donations: %w", err)
		}

		logrus.WithField("count", len(created)).Info("Donations seeded successfully")

		if len(created) > 0 {
			pp.Println(created[0])
		}

		return nil
	},
}
