package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	pgRepo "github.com/yourusername/survey-api/internal/repository/postgres"
	"github.com/yourusername/survey-api/internal/service"
)

var exportOut string

// exportCmd выгружает ответы опроса в XLSX без запуска API
var exportCmd = &cobra.Command{
	Use:   "export <survey-id>",
	Short: "Export survey responses to an XLSX file",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default: survey-<id>.xlsx)")
}

func runExport(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil || id == 0 {
		return fmt.Errorf("invalid survey id %q", args[0])
	}
	surveyID := uint(id)

	out := exportOut
	if out == "" {
		out = fmt.Sprintf("survey-%d.xlsx", surveyID)
	}

	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	// Кеш не нужен: команда читает каталог один раз
	catalog := service.NewCatalogService(
		pgRepo.NewSurveyRepo(e.db),
		pgRepo.NewCategoryRepo(e.db),
		pgRepo.NewQuestionRepo(e.db),
		nil, 0, e.log,
	)
	exporter := service.NewExportService(catalog, pgRepo.NewResponseRepo(e.db), e.log)

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	if err := exporter.WriteXLSX(f, surveyID); err != nil {
		_ = f.Close()
		_ = os.Remove(out)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", out, err)
	}

	e.log.Info("Responses exported", zap.Uint("survey_id", surveyID), zap.String("file", out))
	return nil
}
