package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"dompet/pkg/auth"
	"dompet/pkg/store"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	email := flag.String("email", "", "email of the user to reset")
	password := flag.String("password", "", "new plaintext password (min 6 chars)")
	keepSession := flag.Bool("keep-session", false, "leave the current refresh token valid")
	flag.Parse()
	if *email == "" || *password == "" {
		log.Fatal("--email and --password are required")
	}
	if len(*password) < 6 {
		log.Fatal("password too short (min 6)")
	}
	// existing variables win over .env
	_ = godotenv.Load()

	ctx := context.Background()
	users := store.NewUsers(store.MustOpenFromEnv())
	user, err := users.FindByEmail(ctx, *email)
	if err != nil {
		log.Fatalf("user not found: %v", err)
	}
	hash, err := auth.NewCredentialVerifier(bcrypt.DefaultCost).Hash(*password)
	if err != nil {
		log.Fatalf("bcrypt: %v", err)
	}
	if err := users.SetPassword(ctx, user.ID, hash); err != nil {
		log.Fatalf("update failed: %v", err)
	}
	if !*keepSession {
		if err := users.SetRefreshToken(ctx, user.ID, ""); err != nil {
			log.Fatalf("revoke session: %v", err)
		}
	}
	fmt.Printf("Password reset for user %s\n", user.Email)
}
