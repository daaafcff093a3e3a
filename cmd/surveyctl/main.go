// Команда surveyctl - служебные операции над базой опросов:
// миграции, выгрузка ответов и создание пользователей.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yourusername/survey-api/internal/config"
	"github.com/yourusername/survey-api/pkg/database"
	"github.com/yourusername/survey-api/pkg/logger"
)

var (
	configPath string
	verbose    bool
)

// rootCmd - корневая команда CLI
var rootCmd = &cobra.Command{
	Use:   "surveyctl",
	Short: "Administrative tool for the survey API",
	Long: `surveyctl works directly with the survey database.

Available commands:
  migrate - apply or repair SQL migrations
  export  - write survey responses to an XLSX file
  user    - manage users (create administrators)`,
	SilenceUsage: true,
}

func init() {
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = "config/config.yaml"
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfig, "Path to config file (or set CONFIG_PATH env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateForceCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
	userCmd.AddCommand(userCreateCmd)

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(userCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env - общее окружение команд: конфигурация, логгер и подключение к БД
type env struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
}

// setup загружает конфигурацию и подключается к PostgreSQL
func setup() (*env, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	// Консольный вывод удобнее для CLI
	cfg.Log.Development = true

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	return &env{cfg: cfg, log: log, db: db}, nil
}

// Close освобождает подключение к БД и сбрасывает буфер логгера
func (e *env) Close() {
	if sqlDB, err := e.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = e.log.Sync()
}
