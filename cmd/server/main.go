package main

import (
	"log"
	"os"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"cinetalk/internal/db"
	"cinetalk/internal/router"
	"cinetalk/internal/store"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	// Initialize Database
	db.Init()

	// The discussion tree lives in memory and is journaled to postgres so
	// it survives restarts. STORE_JOURNAL=off runs memory-only.
	var st store.Store
	if os.Getenv("STORE_JOURNAL") == "off" {
		st = store.NewMemory()
		log.Println("Store journal disabled, running memory-only")
	} else {
		persistent := store.NewPersistent(db.DB)
		if err := persistent.Load(); err != nil {
			log.Fatalf("Failed to load store journal: %v", err)
		}
		st = persistent
	}

	// Initialize Gin
	r := gin.Default()

	// Setup Sessions
	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		secret = "secret_key_change_me"
	}
	sessionStore := cookie.NewStore([]byte(secret))
	r.Use(sessions.Sessions("cinetalk_session", sessionStore))

	router.RegisterRoutes(r, st, db.DB)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("CineTalk server starting on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
