// Command devtoken prints a session token for local development, signed with
// JWT_SECRET the same way the identity provider signs real sessions.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"matlog/internal/auth"
	"matlog/internal/config"
)

func main() {
	user := flag.String("user", "", "user id to put in the token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	logger := zap.NewExample()
	defer func() { _ = logger.Sync() }()

	if *user == "" {
		logger.Fatal("-user is required")
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	tok, err := auth.NewIssuer([]byte(cfg.JWTSecret), cfg.JWTIssuer, *ttl).Issue(*user)
	if err != nil {
		logger.Fatal("issue token", zap.Error(err))
	}
	fmt.Fprintln(os.Stdout, tok)
}
