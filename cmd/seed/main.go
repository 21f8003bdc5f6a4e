// Command seed fills a development database with demo users and advertisements.
package main

import (
	"context"
	"errors"

	"admetrics/internal/config"
	"admetrics/internal/database"
	"admetrics/internal/modules/advertisement"
	"admetrics/internal/modules/auth"
	"admetrics/internal/modules/factmetrics"
	"admetrics/internal/pkg/jwt"
	"admetrics/internal/pkg/logger"
	"admetrics/internal/repository"
)

var demoUsers = []auth.RegisterRequest{
	{Name: "Admin", Email: "admin@admetrics.local", Password: "admin123", DateOfBirth: "1985-03-12", Gender: "male", IsSuperadmin: true},
	{Name: "Ann", Email: "ann@admetrics.local", Password: "secret123", DateOfBirth: "1990-01-01", Gender: "female"},
	{Name: "Sam", Email: "sam@admetrics.local", Password: "secret123", DateOfBirth: "2001-07-30"},
}

var demoAds = []advertisement.CreateRequest{
	{PromoterName: "Acme", Message: "Spring sale", RunHours: "2"},
	{PromoterName: "Globex", Message: "Free shipping this week", RunHours: "24", BuyURL: "https://globex.example.com/buy"},
	{PromoterName: "Initech", Message: "New TPS reports", RunHours: "6"},
}

func main() {
	cfg, err := config.Load()
	logger.Init(logger.Config{Level: "info"})
	log := logger.WithComponent("seed")
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("DB connection failed")
	}

	log.Info().Msg("running AutoMigrate")
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("AutoMigrate failed")
	}

	ctx := context.Background()
	userRepo := repository.NewUserRepository(db)
	resolver := factmetrics.NewResolver(repository.NewDimensionRepository(db), factmetrics.PolicyFrom(cfg.DimensionDedup))
	authService := auth.NewService(userRepo, resolver, jwt.New(cfg.SecretKey, cfg.AccessTokenTTL))
	adService := advertisement.NewService(repository.NewAdvertisementRepository(db), userRepo, cfg.DefaultBuyURL)

	for _, g := range []string{"male", "female", "unknown"} {
		if _, err := resolver.Gender(ctx, g); err != nil {
			log.Fatal().Err(err).Str("gender", g).Msg("seed gender")
		}
	}

	var owner string
	for _, req := range demoUsers {
		u, err := authService.Register(ctx, req)
		switch {
		case errors.Is(err, auth.ErrEmailAlreadyExists):
			log.Info().Str("email", req.Email).Msg("user exists, skipping")
			existing, err := userRepo.GetByEmail(ctx, req.Email)
			if err != nil {
				log.Fatal().Err(err).Msg("load user")
			}
			if owner == "" {
				owner = existing.ID
			}
			continue
		case err != nil:
			log.Fatal().Err(err).Str("email", req.Email).Msg("register")
		}
		if owner == "" {
			owner = u.ID
		}
		log.Info().Str("email", u.Email).Msg("user created")
	}

	for _, req := range demoAds {
		ad, err := adService.Create(ctx, owner, req)
		if err != nil {
			log.Fatal().Err(err).Str("promoter", req.PromoterName).Msg("create ad")
		}
		log.Info().Str("id", ad.ID).Str("promoter", ad.PromoterName).Str("cost", ad.Cost).Msg("advertisement created")
	}

	log.Info().Msg("seed complete")
}
