package main

import (
	"context"
	"fmt"

	"locallink/internal/db"
	"locallink/internal/seed"
	"locallink/internal/store"

	"github.com/k0kubun/pp/v3"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the database with sample posts",
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

		logger := logrus.New()
		changeFeed := store.NewChangeFeed(logger)
		postsRepo := store.NewPostRepository(pool, changeFeed)

		logrus.Info("Seeding posts...")
		created, err := seed.Posts(ctx, postsRepo)
		if err != nil {
			return fmt.Errorf("failed to seed posts: %w", err)
		}

		pp.Println(created)
		logrus.Infof("Seeded %d posts", len(created))

		return nil
	},
}
