package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/mrops-br/products-rbac-api/internal/infrastructure/auth"
	"github.com/mrops-br/products-rbac-api/internal/infrastructure/config"
)

func main() {
	secret := flag.String("secret", "", "Signing secret (defaults to JWT_SECRET)")
	id := flag.String("id", "local-user", "User id carried in the token")
	role := flag.String("role", "admin", "Role carried in the token: admin, manager or user")
	ttl := flag.Duration("ttl", time.Hour, "Token lifetime (e.g., 30m, 1h, 24h)")
	outputFormat := flag.String("format", "compact", "Output format: compact or debug")
	flag.Parse()

	if *secret == "" {
		var authCfg config.AuthConfig
		if err := cleanenv.ReadEnv(&authCfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: -secret not given and JWT_SECRET unset: %v\n", err)
			os.Exit(1)
		}
		*secret = authCfg.JWTSecret
	}

	tokenStr, err := auth.NewIssuer(*secret).Issue(*id, *role, *ttl)
	if err != nil {
		slog.Error("Failed to generate token", "err", err)
		fmt.Fprintf(os.Stderr, "Error: Failed to generate token: %v\n", err)
		os.Exit(1)
	}

	switch *outputFormat {
	case "compact":
		fmt.Println(tokenStr)
	case "debug":
		token, err := auth.NewJWTAuth(*secret).Decode(tokenStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to parse generated token: %v\n", err)
			os.Exit(1)
		}
		claims, err := token.AsMap(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to read claims: %v\n", err)
			os.Exit(1)
		}

		claimsJSON, _ := json.MarshalIndent(claims, "", "  ")
		fmt.Printf("Token: %s\n\n", tokenStr)
		fmt.Printf("=== Token Claims ===\n%s\n\n", claimsJSON)
		fmt.Printf("Expires: %s\n", token.Expiration().Format(time.RFC3339))
	default:
		fmt.Fprintf(os.Stderr, "Error: Unknown output format: %s\n", *outputFormat)
		os.Exit(1)
	}
}
