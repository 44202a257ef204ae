package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"locallink/internal/feed"
	"locallink/internal/identity"
	"locallink/internal/view"
	"locallink/pkg/client"
	"locallink/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var watchCommand = &cli.Command{
	Name:  "watch",
	Usage: "Follow the live post feed in the terminal",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "server",
			Usage: "Base URL of the server",
			Value: "http://localhost:8080",
		},
		&cli.StringFlag{
			Name:  "device-file",
			Usage: "Path to the persisted device id (default ~/.locallink/device_id)",
		},
		&cli.StringFlag{
			Name:  "type",
			Usage: "All, Needs or Offers",
			Value: string(view.TypeAll),
		},
		&cli.StringFlag{
			Name:  "category",
			Value: view.CategoryAll,
		},
		&cli.StringFlag{
			Name:  "search",
			Usage: "Substring match over item, location and description",
		},
		&cli.DurationFlag{
			Name:  "refresh",
			Value: 5 * time.Second,
		},
	},
	Action: watch,
}

// urgentAlert is the terminal stand-in for the browser's alert sound.
type urgentAlert struct {
	logger *logrus.Logger
}

func (a *urgentAlert) UrgentPost(post *types.Post) error {
	a.logger.WithFields(logrus.Fields{
		"post_id":  post.ID,
		"item":     post.Item,
		"location": post.Location,
	}).Warn("urgent post")
	return nil
}

func watch(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(cCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()

	devicePath := cCtx.String("device-file")
	if devicePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		devicePath = filepath.Join(home, ".locallink", "device_id")
	}

	deviceID, err := identity.LoadOrCreate(devicePath)
	if err != nil {
		return err
	}

	c := client.New(cCtx.String("server"), deviceID)
	defer c.Close()

	reconciler := feed.NewReconciler(logger, &urgentAlert{logger: logger})

	posts, err := c.List(ctx)
	if err != nil {
		return err
	}
	reconciler.Load(posts)

	events, unsubscribe, err := c.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer unsubscribe()

	go reconciler.Run(ctx, events)

	opts := view.Options{
		Type:     view.TypeFilter(cCtx.String("type")),
		Category: cCtx.String("category"),
		Search:   cCtx.String("search"),
	}

	ticker := time.NewTicker(cCtx.Duration("refresh"))
	defer ticker.Stop()

	fmt.Print(renderFeed(reconciler.Snapshot(), opts))

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			fmt.Print(renderFeed(reconciler.Snapshot(), opts))
		}
	}
}

// renderFeed formats the filtered, sorted view, one post per line.
func renderFeed(posts []*types.Post, opts view.Options) string {
	visible := view.Apply(posts, opts)

	var b strings.Builder
	fmt.Fprintf(&b, "-- %d post(s) --\n", len(visible))

	for _, p := range visible {
		marker := " "
		if p.Urgency == types.UrgencyUrgent {
			marker = "!"
		}
		fmt.Fprintf(&b, "%s %-20s %-5s %-10s %-25s %s\n",
			marker, p.Status, p.Type, p.Category, p.Item, p.Location)
	}

	return b.String()
}
