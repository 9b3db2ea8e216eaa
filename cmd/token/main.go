// Command token mints a development JWT for exercising the API by hand.
//
//	JWT_SECRET=... go run ./cmd/token -user alice
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"market-chat/auth"

	"github.com/joho/godotenv"
)

func main() {
	user := flag.String("user", "", "User id to embed in the token")
	duration := flag.Duration("duration", 24*time.Hour, "Token validity")
	flag.Parse()

	if *user == "" {
		log.Fatal("missing -user")
	}

	_ = godotenv.Load()
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	signed, err := auth.NewTokens(secret, *duration).Generate(*user)
	if err != nil {
		log.Fatal("Error while signing token: ", err)
	}
	fmt.Println(signed)
}
