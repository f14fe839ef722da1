package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/corvusHold/rentmail/internal/config"
	urepo "github.com/corvusHold/rentmail/internal/users/repository"
)

func main() {
	_ = godotenv.Load()
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	ctx := context.Background()
	sub := os.Args[1]

	// contract output needs no database
	if sub == "contract" {
		fs := flag.NewFlagSet("contract", flag.ExitOnError)
		uid := fs.String("user-id", os.Getenv("USER_ID"), "uid the contract belongs to")
		seed := fs.Int64("seed", time.Now().UnixNano(), "random seed")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*uid) == "" {
			fatalf("user-id is required")
		}
		c := sampleContract(*uid, rand.New(rand.NewSource(*seed)), time.Now())
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{"contractData": c}); err != nil {
			fatalf("encode contract: %v", err)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fatalf("load config: %v", err)
	}
	pgCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		fatalf("invalid DATABASE_URL: %v", err)
	}
	pgPool, err := pgxpool.NewWithConfig(ctx, pgCfg)
	if err != nil {
		fatalf("pg pool: %v", err)
	}
	defer pgPool.Close()
	repo := urepo.New(pgPool)

	switch sub {
	case "user":
		fs := flag.NewFlagSet("user", flag.ExitOnError)
		uid := fs.String("uid", os.Getenv("USER_ID"), "identity provider uid")
		email := fs.String("email", os.Getenv("EMAIL"), "user email")
		first := fs.String("first", envOr("FIRST_NAME", "Test"), "first name")
		last := fs.String("last", envOr("LAST_NAME", "User"), "last name")
		typ := fs.String("type", envOr("USER_TYPE", "customer"), "admin or customer")
		_ = fs.Parse(os.Args[2:])

		u, err := userFromFlags(*uid, *email, *first, *last, *typ)
		if err != nil {
			fatalf("%v", err)
		}
		created, err := ensureUser(ctx, repo, u)
		if err != nil {
			fatalf("user upsert: %v", err)
		}
		printEnv(map[string]string{"USER_ID": u.UID, "EMAIL": u.Email, "USER_TYPE": string(u.Type)})
		if created {
			stderr("created %s user %s", u.Type, u.UID)
		} else {
			stderr("updated %s user %s", u.Type, u.UID)
		}
	case "demo":
		fs := flag.NewFlagSet("demo", flag.ExitOnError)
		customers := fs.Int("customers", envOrInt("SEED_CUSTOMERS", 10), "number of customers")
		adminEmail := fs.String("admin-email", envOr("ADMIN_EMAIL", "admin@example.com"), "admin email")
		domain := fs.String("domain", envOr("SEED_EMAIL_DOMAIN", "example.com"), "email domain for customers")
		seed := fs.Int64("seed", 42, "random seed")
		_ = fs.Parse(os.Args[2:])

		users := demoUsers(*customers, *adminEmail, *domain, rand.New(rand.NewSource(*seed)), time.Now().UTC())
		for _, u := range users {
			if _, err := ensureUser(ctx, repo, u); err != nil {
				fatalf("seed %s: %v", u.UID, err)
			}
		}
		printEnv(map[string]string{"ADMIN_ID": users[0].UID, "CUSTOMER_ID": users[len(users)-1].UID})
		stderr("seeded %d users", len(users))
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: seed <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  user      upsert a single admin or customer user")
	fmt.Fprintln(os.Stderr, "  demo      upsert one admin plus N customers with profiles")
	fmt.Fprintln(os.Stderr, "  contract  print a sample /sendEmail payload for --user-id")
}

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func envOrInt(k string, def int) int {
	var n int
	if _, err := fmt.Sscanf(os.Getenv(k), "%d", &n); err == nil {
		return n
	}
	return def
}

func printEnv(kv map[string]string) {
	for k, v := range kv {
		fmt.Printf("%s=%s\n", k, v)
	}
}

func fatalf(f string, a ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", a...)
	os.Exit(1)
}

func stderr(f string, a ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", a...)
}
