package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Skotchmaster/product_rating/internal/config"
	"github.com/Skotchmaster/product_rating/internal/db"
	"github.com/Skotchmaster/product_rating/internal/repo"
	"github.com/Skotchmaster/product_rating/internal/service"
)

var (
	envFile string
	dbURL   string
)

var rootCmd = &cobra.Command{
	Use:   "manage",
	Short: "Operator commands for the product rating service",
	Long: `manage runs one-off operator tasks against the service database:
schema migration, user creation and access token issuance.

Configuration is read the same way the server reads it: an optional .env
file followed by the process environment.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "Database URL, overrides DATABASE_URL")
}

// env bundles what every command needs. Close releases the pool.
type env struct {
	cfg   *config.Config
	db    *gorm.DB
	users *service.UserService
}

func (e *env) Close() {
	if sqlDB, err := e.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func openEnv(ctx context.Context) (*env, error) {
	if dbURL != "" {
		if err := os.Setenv("DATABASE_URL", dbURL); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	gdb, err := db.Open(openCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	r := &repo.GormRepo{DB: gdb}
	return &env{
		cfg:   cfg,
		db:    gdb,
		users: &service.UserService{Repo: r, Secret: []byte(cfg.JWTSecret), TokenTTL: cfg.TokenTTL},
	}, nil
}
