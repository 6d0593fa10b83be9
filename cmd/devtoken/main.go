// Command devtoken mints a bearer token for local testing against the API.
// Production tokens come from the identity service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/refurbmart/refurbmart-backend/pkg/auth"
	"github.com/refurbmart/refurbmart-backend/pkg/config"
	"github.com/refurbmart/refurbmart-backend/pkg/enums"
	"github.com/refurbmart/refurbmart-backend/pkg/logger"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "devtoken", Format: logger.FormatConsole})

	_ = godotenv.Load()

	accountID := flag.String("account", "", "account id (random when empty)")
	role := flag.String("role", string(enums.AccountRoleBuyer), "buyer|seller|admin")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}
	if cfg.App.IsProd() {
		logg.Warn(ctx, "refusing to mint tokens in prod")
		os.Exit(1)
	}

	parsedRole, err := enums.ParseAccountRole(*role)
	if err != nil {
		logg.Error(ctx, "invalid role", err)
		os.Exit(1)
	}
	id := uuid.New()
	if *accountID != "" {
		if id, err = uuid.Parse(*accountID); err != nil {
			logg.Error(ctx, "invalid account id", err)
			os.Exit(1)
		}
	}

	token, err := auth.MintAccessToken(cfg.JWT, time.Now(), *ttl, auth.Actor{AccountID: id, Role: parsedRole})
	if err != nil {
		logg.Error(ctx, "failed to mint token", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
