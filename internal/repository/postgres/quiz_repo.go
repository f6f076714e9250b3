package postgres

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"gorm.io/gorm"

	"github.com/pdtechteam/quiz-generator/internal/domain/entity"
	apperrors "github.com/pdtechteam/quiz-generator/internal/pkg/errors"
)

// QuizRepo implements repository.QuizRepository.
type QuizRepo struct {
	db *gorm.DB
}

func NewQuizRepo(db *gorm.DB) *QuizRepo {
	return &QuizRepo{db: db}
}

func (r *QuizRepo) CreateQuiz(quiz *entity.Quiz) error {
	return r.db.Create(quiz).Error
}

func (r *QuizRepo) GetQuiz(id uint) (*entity.Quiz, error) {
	var quiz entity.Quiz
	if err := r.db.Preload("Questions.Choices").First(&quiz, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepo) ListQuizzes() ([]entity.Quiz, error) {
	var quizzes []entity.Quiz
	if err := r.db.Order("created_at desc").Find(&quizzes).Error; err != nil {
		return nil, err
	}
	return quizzes, nil
}

// AttachQuestions validates the full question+choice set up front,
// aggregating every violation via go-multierror, then writes
// question_count and all rows as one transactional unit.
func (r *QuizRepo) AttachQuestions(quizID uint, questions []entity.Question) error {
	if err := validateQuestionSet(questions); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidQuestions, err)
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		for i := range questions {
			q := &questions[i]
			q.QuizID = quizID
			if q.UUID == uuid.Nil {
				q.UUID = uuid.New()
			}
			if err := tx.Create(q).Error; err != nil {
				return fmt.Errorf("insert question %d: %w", q.Order, err)
			}
			for ci := range q.Choices {
				q.Choices[ci].QuestionID = q.ID
			}
			if err := tx.Create(&q.Choices).Error; err != nil {
				return fmt.Errorf("insert choices for question %d: %w", q.Order, err)
			}
		}

		return tx.Model(&entity.Quiz{}).
			Where("id = ?", quizID).
			Update("question_count", gorm.Expr("question_count + ?", len(questions))).Error
	})
}

func (r *QuizRepo) GetQuestions(quizID uint) ([]entity.Question, error) {
	var questions []entity.Question
	if err := r.db.Preload("Choices").Where("quiz_id = ?", quizID).Order("\"order\"").Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *QuizRepo) GetQuestion(id uint) (*entity.Question, error) {
	var question entity.Question
	if err := r.db.Preload("Choices").First(&question, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// DeleteQuiz removes a quiz and its questions/choices in one transaction.
func (r *QuizRepo) DeleteQuiz(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var questions []entity.Question
		if err := tx.Where("quiz_id = ?", id).Find(&questions).Error; err != nil {
			return err
		}
		if len(questions) > 0 {
			ids := make([]uint, len(questions))
			for i, q := range questions {
				ids[i] = q.ID
			}
			if err := tx.Where("question_id IN ?", ids).Delete(&entity.Choice{}).Error; err != nil {
				return err
			}
			if err := tx.Where("quiz_id = ?", id).Delete(&entity.Question{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&entity.Quiz{}, id).Error
	})
}

func (r *QuizRepo) GetQuestionByUUID(quizID uint, questionUUID string) (*entity.Question, error) {
	var question entity.Question
	err := r.db.Preload("Choices").
		Where("quiz_id = ? AND uuid = ?", quizID, questionUUID).
		First(&question).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// validateQuestionSet enforces the per-question invariants of spec.md §3:
// exactly four choices, exactly one correct, pairwise-distinct choice text.
func validateQuestionSet(questions []entity.Question) error {
	var result *multierror.Error
	for _, q := range questions {
		if len(q.Choices) != entity.ChoicesPerQuestion {
			result = multierror.Append(result, fmt.Errorf("question %q: expected %d choices, got %d", q.Text, entity.ChoicesPerQuestion, len(q.Choices)))
			continue
		}
		correctCount := 0
		seen := make(map[string]bool, entity.ChoicesPerQuestion)
		for _, c := range q.Choices {
			if c.IsCorrect {
				correctCount++
			}
			if seen[c.Text] {
				result = multierror.Append(result, fmt.Errorf("question %q: duplicate choice text %q", q.Text, c.Text))
			}
			seen[c.Text] = true
		}
		if correctCount != 1 {
			result = multierror.Append(result, fmt.Errorf("question %q: expected exactly one correct choice, got %d", q.Text, correctCount))
		}
	}
	if result != nil {
		return result.ErrorOrNil()
	}
	return nil
}
