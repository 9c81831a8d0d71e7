package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"dompet/models"
	"dompet/pkg/auth"
	"dompet/pkg/store"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

func main() {
	_ = godotenv.Load()
	email := flag.String("email", "", "login email (required)")
	name := flag.String("name", "", "first name")
	lastname := flag.String("lastname", "", "last name")
	password := flag.String("password", "", "plaintext password; prompted for when empty")
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	flag.Parse()

	if strings.TrimSpace(*email) == "" {
		fmt.Println("usage: go run ./cmd/create_user --email <email> [--name N --lastname L --password P]")
		os.Exit(2)
	}
	pw := *password
	if pw == "" {
		var err error
		if pw, err = promptPassword(); err != nil {
			log.Fatalf("read password: %v", err)
		}
	}
	if len(pw) < 6 {
		log.Fatal("password too short (min 6)")
	}

	gdb := store.MustOpenFromEnv()
	users := store.NewUsers(gdb)
	ctx := context.Background()

	if existing, err := users.FindByEmail(ctx, *email); err == nil {
		fmt.Printf("user %s already exists (id=%d)\n", existing.Email, existing.ID)
		os.Exit(0)
	}

	hash, err := auth.NewCredentialVerifier(*cost).Hash(pw)
	if err != nil {
		log.Fatalf("bcrypt failed: %v", err)
	}
	user := models.User{Name: *name, Lastname: *lastname, Email: *email, HashedPassword: hash}
	if err := users.Create(ctx, &user); err != nil {
		log.Fatalf("failed to create user: %v", err)
	}
	fmt.Printf("created user %s id=%d\n", user.Email, user.ID)
}

// promptPassword reads the password twice from the terminal without echo.
func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal; pass --password")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	fmt.Fprint(os.Stderr, "Repeat password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}
