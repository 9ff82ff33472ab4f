// Command hooktoken prints a bearer token for the hook endpoints acting as
// the given user.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ktoodev/onesignal-push-permissions/internal/hooks"
)

func main() {
	_ = godotenv.Load()
	userID := flag.Int64("user", 0, "acting user id")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("HOOK_TOKEN_SECRET")
	if secret == "" {
		log.Fatal("HOOK_TOKEN_SECRET is not set")
	}
	token, exp, err := hooks.NewTokenManager(secret, *ttl).Issue(*userID)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}
	fmt.Println(token)
	fmt.Fprintln(os.Stderr, "expires", exp.Format(time.RFC3339))
}
