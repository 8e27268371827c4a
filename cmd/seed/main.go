package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-management-api/config"
	appuser "github.com/oksasatya/user-management-api/internal/application"
	"github.com/oksasatya/user-management-api/internal/domain/apperror"
	"github.com/oksasatya/user-management-api/internal/domain/rules"
	pginfra "github.com/oksasatya/user-management-api/internal/infrastructure/postgres"
	"github.com/oksasatya/user-management-api/internal/infrastructure/search"
	"github.com/oksasatya/user-management-api/pkg/helpers"
)

var demoUsers = []rules.CreateInput{
	{Username: "admin", Email: "admin@example.com", FirstName: "Ada", LastName: "Lovelace", Role: ptr("admin")},
	{Username: "john_doe", Email: "john.doe@example.com", FirstName: "John", LastName: "Doe"},
	{Username: "jane-doe", Email: "jane.doe@example.com", FirstName: "Jane", LastName: "Doe"},
	{Username: "guest", Email: "guest@example.com", FirstName: "Grace", LastName: "Hopper", Role: ptr("guest")},
	{Username: "jose", Email: "jose@example.com", FirstName: "José", LastName: "O'Brien", Active: ptr(false)},
}

func ptr[T any](v T) *T { return &v }

func main() {
	extra := flag.Int("extra", 0, "additional generated users (userNNN)")
	reindex := flag.Bool("reindex", false, "push every user into Elasticsearch after seeding")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, pginfra.PoolOptions{
		DSN:             cfg.PostgresDSN(),
		AppName:         cfg.AppName,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: cfg.DBMaxConnLife,
	})
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	var index appuser.SearchIndex
	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			log.Fatalf("failed to init elasticsearch: %v", err)
		}
		index = search.NewUserIndex(es, cfg.ESUsersIndex)
	}

	svc := appuser.NewService(pginfra.NewUserRepository(pool), pginfra.NewTxManager(pool), logger, index)

	inputs := append([]rules.CreateInput{}, demoUsers...)
	for i := 1; i <= *extra; i++ {
		inputs = append(inputs, rules.CreateInput{
			Username:  fmt.Sprintf("user%03d", i),
			Email:     fmt.Sprintf("user%03d@example.com", i),
			FirstName: "Demo",
			LastName:  "User",
		})
	}

	created, skipped := 0, 0
	for _, in := range inputs {
		u, err := svc.CreateUser(ctx, in)
		if err != nil {
			var conflict *apperror.ConflictError
			if errors.As(err, &conflict) {
				skipped++
				continue
			}
			helpers.LogError(logger, "seed user failed", err, logrus.Fields{"username": in.Username})
			continue
		}
		created++
		fmt.Printf("seeded user: id=%s username=%s email=%s role=%s\n", u.ID, u.Username, u.Email, u.Role)
	}
	helpers.LogInfo(logger, "seeding finished", logrus.Fields{"created": created, "skipped": skipped})

	if *reindex {
		n, err := svc.Reindex(ctx, 100)
		if err != nil {
			log.Fatalf("reindex failed after %d users: %v", n, err)
		}
		helpers.LogInfo(logger, "reindex finished", logrus.Fields{"indexed": n})
	}
}
