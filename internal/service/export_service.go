package service

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/yourusername/survey-api/internal/domain/repository"
)

const exportBatchSize = 500

// ExportService выгружает ответы опроса в XLSX
type ExportService struct {
	catalog      SurveyCatalog
	responseRepo repository.ResponseRepository
	logger       *zap.Logger
}

// NewExportService создает сервис экспорта
func NewExportService(catalog SurveyCatalog, responseRepo repository.ResponseRepository, logger *zap.Logger) *ExportService {
	return &ExportService{
		catalog:      catalog,
		responseRepo: responseRepo,
		logger:       logger.With(zap.String("component", "export_service")),
	}
}

// WriteXLSX пишет книгу: строка на Response, столбец на вопрос.
// Используется StreamWriter, ответы читаются порциями.
func (s *ExportService) WriteXLSX(w io.Writer, surveyID uint) error {
	survey, err := s.catalog.GetSurvey(surveyID)
	if err != nil {
		return err
	}
	questions, err := s.catalog.GetOrderedQuestions(surveyID)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Responses"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	headers := []interface{}{"Response ID", "Interview UUID", "User ID", "Created At"}
	column := make(map[uint]int, len(questions))
	for _, q := range questions {
		headers = append(headers, sanitizeForExcel(q.Text))
		column[q.ID] = len(headers) - 1
	}
	if err := sw.SetRow("A1", headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	row := 2
	for offset := 0; ; offset += exportBatchSize {
		responses, total, err := s.responseRepo.ListBySurveyID(surveyID, exportBatchSize, offset)
		if err != nil {
			return fmt.Errorf("failed to load responses: %w", err)
		}
		for _, resp := range responses {
			cells := make([]interface{}, len(headers))
			cells[0] = resp.ID
			cells[1] = resp.InterviewUUID
			if resp.UserID != nil {
				cells[2] = *resp.UserID
			}
			cells[3] = resp.CreatedAt
			for _, answer := range resp.Answers {
				if idx, ok := column[answer.GetQuestionID()]; ok {
					cells[idx] = exportCell(answer.BodyValue(), survey.ChoiceSeparator())
				}
			}
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			if err := sw.SetRow(cell, cells); err != nil {
				return fmt.Errorf("failed to write row %d: %w", row, err)
			}
			row++
		}
		if len(responses) == 0 || int64(offset+len(responses)) >= total {
			break
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	s.logger.Info("responses exported", zap.Uint("survey_id", surveyID), zap.Int("rows", row-2))
	return nil
}

// exportCell приводит тело ответа к значению ячейки
func exportCell(body interface{}, separator string) interface{} {
	switch v := body.(type) {
	case nil:
		return nil
	case string:
		return sanitizeForExcel(v)
	case []string:
		return sanitizeForExcel(strings.Join(v, separator))
	case int64:
		return v
	}
	return sanitizeForExcel(fmt.Sprint(body))
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return s
		}
		return "'" + s
	}
	return s
}
