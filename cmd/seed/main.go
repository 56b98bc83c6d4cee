// Command main fills the configured database with demo blog data.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"techsparks/internal/config"
	"techsparks/internal/database"
	"techsparks/internal/repository"
	"techsparks/internal/seed"
	"techsparks/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numCategories := flag.Int("categories", 6, "Number of categories to ensure")
	numPosts := flag.Int("posts", 60, "Number of posts to create")
	comments := flag.Int("comments", 3, "Top-level comments per post")
	replies := flag.Int("replies", 2, "Replies per comment")
	seedValue := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	withImages := flag.Bool("images", true, "Write generated cover images to the uploads directory")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Printf("Target: %d users, %d categories, %d posts\n", *numUsers, *numCategories, *numPosts)

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	stores, closeFn, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	var images *service.ImageService
	if *withImages {
		images = service.NewImageService(cfg)
	}

	sum, err := seed.NewSeeder(stores, images, *seedValue).Run(ctx, seed.Options{
		Users:             *numUsers,
		Categories:        *numCategories,
		Posts:             *numPosts,
		CommentsPerPost:   *comments,
		RepliesPerComment: *replies,
	})
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	log.Printf("✨ Done: %+v", sum)
	log.Printf("📧 All seeded users have the password: %s", seed.DefaultPassword)
	return nil
}

func openStores(ctx context.Context, cfg *config.Config) (seed.Stores, func(), error) {
	if cfg.DBDriver == config.DriverMongo {
		client, mdb, err := database.ConnectMongo(ctx, cfg)
		if err != nil {
			return seed.Stores{}, nil, fmt.Errorf("connect database: %w", err)
		}
		if err := repository.EnsureMongoIndexes(ctx, mdb); err != nil {
			return seed.Stores{}, nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return seed.Stores{
				Users:      repository.NewMongoUserRepository(mdb),
				Categories: repository.NewMongoCategoryRepository(mdb),
				Posts:      repository.NewMongoPostRepository(mdb),
				Comments:   repository.NewMongoCommentRepository(mdb),
			}, func() {
				_ = client.Disconnect(context.Background())
			}, nil
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return seed.Stores{}, nil, fmt.Errorf("connect database: %w", err)
	}
	return seed.Stores{
			Users:      repository.NewUserRepository(db),
			Categories: repository.NewCategoryRepository(db),
			Posts:      repository.NewPostRepository(db),
			Comments:   repository.NewCommentRepository(db),
		}, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}, nil
}
