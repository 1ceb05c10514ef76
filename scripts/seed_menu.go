package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"brewhouse/internal/config"
	"brewhouse/internal/database"
	"brewhouse/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type MenuFile struct {
	Items []models.MenuItem `yaml:"items"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		menuPath = flag.String("menu", "configs/menu.yaml", "path to menu.yaml")
		dbPath   = flag.String("db", "./data/brewhouse.db", "path to sqlite db")
	)
	flag.Parse()

	data, err := os.ReadFile(*menuPath)
	if err != nil {
		return fmt.Errorf("read menu: %w", err)
	}
	var menu MenuFile
	if err = yaml.Unmarshal(data, &menu); err != nil {
		return fmt.Errorf("parse menu: %w", err)
	}
	if len(menu.Items) == 0 {
		return fmt.Errorf("no items in yaml")
	}

	db, err := database.NewDB(*dbPath, config.BookingConfig{}, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	existing, err := db.ListMenuItems(ctx)
	if err != nil {
		return fmt.Errorf("list menu: %w", err)
	}
	byTitle := make(map[string]*models.MenuItem, len(existing))
	for _, it := range existing {
		byTitle[it.Category+"/"+it.Title] = it
	}

	created := 0
	updated := 0
	for _, it := range menu.Items {
		if it.Title == "" || it.Category == "" {
			continue
		}
		if prev, ok := byTitle[it.Category+"/"+it.Title]; ok {
			it.ID = prev.ID
			it.ImageRef = prev.ImageRef
			if err = db.UpdateMenuItem(ctx, &it); err != nil {
				return fmt.Errorf("update %s: %w", it.Title, err)
			}
			updated++
			continue
		}
		if err = db.CreateMenuItem(ctx, &it); err != nil {
			return fmt.Errorf("create %s: %w", it.Title, err)
		}
		created++
	}

	fmt.Printf("done: created=%d updated=%d\n", created, updated)
	return nil
}
