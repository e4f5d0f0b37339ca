package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"nick8/config"
	"nick8/models"
	"nick8/utils"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// issuetoken mints a bearer token for local testing against the API.
func main() {
	email := flag.String("email", "", "User email (required)")
	id := flag.String("id", "", "User id (default: random)")
	ttl := flag.Duration("ttl", 0, "Token lifetime (default: jwt.expiry from config)")
	configPath := flag.String("config", "config/config.prod.yml", "Path to config file")
	flag.Parse()

	if *email == "" {
		fmt.Println("Error: email is required")
		fmt.Println("\nUsage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *id == "" {
		*id = uuid.NewString()
	}
	lifetime := *ttl
	if lifetime <= 0 {
		lifetime = time.Duration(cfg.JWT.Expiry) * time.Minute
	}

	token, err := utils.GenerateJWTToken(cfg.JWT.Secret, models.Identity{ID: *id, Email: *email}, lifetime)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}
