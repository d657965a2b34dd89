package main

import (
	"context"
	"fmt"
	"os"

	"wishyoulucky/internal/config"
	"wishyoulucky/internal/database"
	"wishyoulucky/internal/logger"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const usage = `usage: migrate [flags] <up|down|status>

flags:
`

func main() {
	flags := pflag.NewFlagSet("migrate", pflag.ExitOnError)
	dir := flags.StringP("dir", "d", "migrations", "directory holding the goose migrations")
	envFile := flags.String("env-file", ".env", "path to the env file")
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	if flags.NArg() != 1 {
		flags.Usage()
		os.Exit(2)
	}
	command := flags.Arg(0)

	cfg := config.LoadArgs([]string{"--env-file", *envFile})

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	dbService, err := database.New(context.Background(), cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer dbService.Close()

	db := dbService.DB()
	switch command {
	case "up":
		err = database.RunMigrations(db, *dir, log)
	case "down":
		err = database.RollbackMigration(db, *dir, log)
	case "status":
		err = database.MigrationStatus(db, *dir, log)
	default:
		flags.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Error("Migration command failed", zap.String("command", command), zap.Error(err))
		os.Exit(1)
	}
}
