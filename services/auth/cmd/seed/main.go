package main

import (
	"context"
	"fmt"

	"clipway/pkg/config"
	"clipway/pkg/database"
	"clipway/pkg/logger"
	"clipway/services/auth/internal/entity"
	"clipway/services/auth/internal/repo/persistent"

	"golang.org/x/crypto/bcrypt"
)

// Seeds demo accounts: a credential row in Postgres and the matching profile
// document in Mongo for each. The seeded usernames double as the mention
// suggestion directory.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.New()

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}

	mongoClient, err := database.NewMongoDB(cfg)
	if err != nil {
		log.Error("Failed to connect to MongoDB: %v", err)
		panic(err)
	}
	defer mongoClient.Close(context.Background())

	userRepo := persistent.NewUserRepository(db)
	profileRepo := persistent.NewProfileRepository(mongoClient.Database)

	demoUsers := []struct {
		email    string
		username string
		password string
	}{
		{"kai@demo.clipway.dev", "kai", "password123"},
		{"kaia@demo.clipway.dev", "kaia", "password123"},
		{"marina@demo.clipway.dev", "marina", "password123"},
		{"paulo@demo.clipway.dev", "paulo", "password123"},
		{"sofia@demo.clipway.dev", "sofia", "password123"},
	}

	ctx := context.Background()
	for _, demo := range demoUsers {
		if _, err := userRepo.GetByEmail(demo.email); err == nil {
			log.Info("User %s already exists, skipping", demo.username)
			continue
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(demo.password), bcrypt.DefaultCost)
		if err != nil {
			log.Error("Failed to hash password for %s: %v", demo.username, err)
			continue
		}

		user := &entity.User{
			Email:    demo.email,
			Username: demo.username,
			Password: string(hashedPassword),
			Role:     entity.RoleViewer,
			IsActive: true,
		}

		if err := userRepo.Create(user); err != nil {
			log.Error("Failed to create user %s: %v", demo.username, err)
			continue
		}

		profile := &entity.Profile{
			UID:      user.ID,
			Email:    user.Email,
			Username: user.Username,
			Posts:    []string{},
		}
		if err := profileRepo.Create(ctx, profile); err != nil {
			log.Error("Failed to create profile for %s: %v", demo.username, err)
			continue
		}

		log.Info("Created user: %s (%s)", user.Username, user.Email)
	}

	log.Info("Database seeded successfully!")
}
