package postgres

import (
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/yourusername/survey-api/internal/domain/entity"
)

// ResponseRepo реализует repository.ResponseRepository
type ResponseRepo struct {
	db *gorm.DB
}

// NewResponseRepo создает новый репозиторий ответов на опросы
func NewResponseRepo(db *gorm.DB) *ResponseRepo {
	return &ResponseRepo{db: db}
}

// CreateWithAnswers сохраняет Response и все ответы в одной транзакции.
// Любая ошибка откатывает запись целиком.
func (r *ResponseRepo) CreateWithAnswers(response *entity.Response, answers []entity.Answer) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Survey", "User").Create(response).Error; err != nil {
			return fmt.Errorf("failed to create response: %w", err)
		}
		for _, answer := range answers {
			answer.AttachTo(response.ID)
			if err := tx.Omit("Question", "Response").Create(answer).Error; err != nil {
				return fmt.Errorf("failed to create answer for question %d: %w", answer.GetQuestionID(), err)
			}
		}
		return nil
	})
	if err != nil {
		return mapError(err)
	}
	response.Answers = answers
	return nil
}

// GetByInterviewUUID возвращает Response по токену интервью вместе с ответами
func (r *ResponseRepo) GetByInterviewUUID(interviewUUID string) (*entity.Response, error) {
	var response entity.Response
	if err := r.db.Where("interview_uuid = ?", interviewUUID).First(&response).Error; err != nil {
		return nil, mapError(err)
	}
	answers, err := r.GetAnswers(response.ID)
	if err != nil {
		return nil, err
	}
	response.Answers = answers
	return &response, nil
}

// ListBySurveyID возвращает страницу Response опроса (новые первыми) с ответами
func (r *ResponseRepo) ListBySurveyID(surveyID uint, limit, offset int) ([]entity.Response, int64, error) {
	query := r.db.Model(&entity.Response{}).Where("survey_id = ?", surveyID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var responses []entity.Response
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&responses).Error; err != nil {
		return nil, 0, err
	}
	if len(responses) == 0 {
		return responses, total, nil
	}

	ids := make([]uint, len(responses))
	index := make(map[uint]int, len(responses))
	for i, resp := range responses {
		ids[i] = resp.ID
		index[resp.ID] = i
	}

	answers, err := r.loadAnswers(ids)
	if err != nil {
		return nil, 0, err
	}
	for _, answer := range answers {
		i := index[answer.GetResponseID()]
		responses[i].Answers = append(responses[i].Answers, answer)
	}
	return responses, total, nil
}

// GetAnswers возвращает все ответы Response, упорядоченные по вопросу
func (r *ResponseRepo) GetAnswers(responseID uint) ([]entity.Answer, error) {
	return r.loadAnswers([]uint{responseID})
}

// loadAnswers читает все пять таблиц ответов для набора Response
func (r *ResponseRepo) loadAnswers(responseIDs []uint) ([]entity.Answer, error) {
	var (
		texts    []entity.AnswerText
		radios   []entity.AnswerRadio
		selects  []entity.AnswerSelect
		multiple []entity.AnswerSelectMultiple
		integers []entity.AnswerInteger
	)

	targets := []interface{}{&texts, &radios, &selects, &multiple, &integers}
	for _, target := range targets {
		if err := r.db.Where("response_id IN ?", responseIDs).Find(target).Error; err != nil {
			return nil, fmt.Errorf("failed to load answers: %w", err)
		}
	}

	answers := make([]entity.Answer, 0, len(texts)+len(radios)+len(selects)+len(multiple)+len(integers))
	for i := range texts {
		answers = append(answers, &texts[i])
	}
	for i := range radios {
		answers = append(answers, &radios[i])
	}
	for i := range selects {
		answers = append(answers, &selects[i])
	}
	for i := range multiple {
		answers = append(answers, &multiple[i])
	}
	for i := range integers {
		answers = append(answers, &integers[i])
	}

	sort.SliceStable(answers, func(i, j int) bool {
		if answers[i].GetResponseID() != answers[j].GetResponseID() {
			return answers[i].GetResponseID() < answers[j].GetResponseID()
		}
		return answers[i].GetQuestionID() < answers[j].GetQuestionID()
	})
	return answers, nil
}
