// Package container holds the components main constructs once and hands to
// the router so modules can wire themselves.
package container

import (
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-management-api/config"
	"github.com/oksasatya/user-management-api/internal/domain/repository"
	"github.com/oksasatya/user-management-api/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/user-management-api/internal/infrastructure/postgres"
)

// Container is built in main. Optional infrastructure (PGPool, Redis, ES)
// is nil when not configured.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger

	PGPool *pgxpool.Pool
	Redis  *redis.Client
	ES     *elasticsearch.Client

	Users repository.UserRepository
	Tx    repository.Transactor
}

func New(cfg *config.Config, logger *logrus.Logger) *Container {
	return &Container{Config: cfg, Logger: logger}
}

// UsePostgres backs the user store with pool.
func (c *Container) UsePostgres(pool *pgxpool.Pool) *Container {
	c.PGPool = pool
	c.Users = pginfra.NewUserRepository(pool)
	c.Tx = pginfra.NewTxManager(pool)
	return c
}

// UseMemory backs the user store with a process-local map.
func (c *Container) UseMemory() *Container {
	c.PGPool = nil
	c.Users = memory.NewUserRepository()
	c.Tx = memory.NewTransactor()
	return c
}

func (c *Container) SetRedis(r *redis.Client)       { c.Redis = r }
func (c *Container) SetES(es *elasticsearch.Client) { c.ES = es }
