package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/animedojo/anime-api/internal/client"
)

func main() {
	var (
		baseURL  = flag.String("url", getenv("ANIME_API_URL", "http://localhost:8080"), "anime API base URL")
		username = flag.String("user", getenv("ANIME_API_USER", "user"), "basic auth username")
		password = flag.String("password", getenv("ANIME_API_PASSWORD", "test"), "basic auth password")
		page     = flag.Int("page", 0, "zero-based page number")
		size     = flag.Int("size", 20, "page size")
		sort     = flag.String("sort", "id,asc", "sort field and direction")
		create   = flag.String("create", "", "create an anime with this name before listing")
		getID    = flag.Int64("get", 0, "fetch a single anime by id")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c := client.New(*baseURL, *username, *password)

	if *create != "" {
		anime, err := c.Create(ctx, *create)
		if err != nil {
			logger.Error("create anime", slog.Any("error", err))
			os.Exit(1)
		}
		fmt.Printf("created %d\t%s\n", anime.ID, anime.Name)
	}

	if *getID > 0 {
		anime, err := c.Get(ctx, *getID)
		if err != nil {
			logger.Error("get anime", slog.Int64("id", *getID), slog.Any("error", err))
			os.Exit(1)
		}
		fmt.Printf("%d\t%s\n", anime.ID, anime.Name)
		return
	}

	result, err := c.ListPage(ctx, *page, *size, *sort)
	if err != nil {
		logger.Error("list anime", slog.Any("error", err))
		os.Exit(1)
	}
	for _, anime := range result.Content {
		fmt.Printf("%d\t%s\n", anime.ID, anime.Name)
	}
	fmt.Printf("page %d/%d, %d total\n", result.Number+1, max(result.TotalPages, 1), result.TotalElements)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
