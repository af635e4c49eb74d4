package app

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"points-exchange-service/internal/domain"
)

// QuizService contains the quiz use cases: authoring, listing and scoring.
type QuizService struct {
	quizzes QuizRepository
	tx      Transactor
	log     *zap.Logger
}

func NewQuizService(quizzes QuizRepository, tx Transactor, log *zap.Logger) *QuizService {
	if log == nil {
		log = zap.NewNop()
	}
	return &QuizService{quizzes: quizzes, tx: tx, log: log}
}

func (s *QuizService) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return s.quizzes.ListQuizzes(ctx)
}

func (s *QuizService) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.quizzes.GetQuiz(ctx, quizID)
}

// CreateQuiz validates and stores a new quiz authored by a teacher.
func (s *QuizService) CreateQuiz(ctx context.Context, author domain.Identity, title string, questions []domain.Question) (domain.Quiz, error) {
	if author.Role != domain.RoleTeacher {
		return domain.Quiz{}, domain.ErrForbidden
	}
	title = strings.TrimSpace(title)
	if err := validateQuiz(title, questions); err != nil {
		return domain.Quiz{}, err
	}

	quiz, err := s.quizzes.InsertQuiz(ctx, domain.Quiz{
		Title:     title,
		Author:    author.Username,
		Questions: questions,
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	s.log.Info("quiz created", zap.String("quiz_id", quiz.ID), zap.String("author", quiz.Author), zap.Int("questions", len(quiz.Questions)))
	return quiz, nil
}

// SubmitAnswers scores a submission and credits the student with the total.
func (s *QuizService) SubmitAnswers(ctx context.Context, quizID string, student domain.Identity, answers []string) (domain.SubmissionResult, error) {
	if student.Role != domain.RoleStudent {
		return domain.SubmissionResult{}, domain.ErrForbidden
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	result := domain.SubmissionResult{QuizID: quiz.ID, Score: Score(quiz, answers)}
	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx Repositories) error {
		balance, err := tx.Accounts.CreditPoints(ctx, student.Username, result.Score)
		if err != nil {
			return err
		}
		result.Balance = balance
		return tx.Accounts.MarkQuizCompleted(ctx, student.Username, quiz.ID)
	})
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	s.log.Info("quiz submitted",
		zap.String("quiz_id", quiz.ID),
		zap.String("student", student.Username),
		zap.Int("score", result.Score),
	)
	return result, nil
}

// Score sums the points of every question whose answer at the same position
// matches the correct answer exactly. Missing and extra answers are ignored.
func Score(quiz domain.Quiz, answers []string) int {
	total := 0
	for i, q := range quiz.Questions {
		if i >= len(answers) {
			break
		}
		if answers[i] == q.CorrectAnswer && q.Points > 0 {
			total += q.Points
		}
	}
	return total
}

func validateQuiz(title string, questions []domain.Question) error {
	var v domain.Validator
	v.Check(title != "", "title", "this field is required")
	v.Check(len(questions) > 0, "questions", "at least one question is required")
	for i, q := range questions {
		field := "questions[" + strconv.Itoa(i) + "]"
		v.Check(strings.TrimSpace(q.Prompt) != "", field+".prompt", "this field is required")
		v.Check(len(q.Options) >= 2, field+".options", "at least two options are required")
		v.Check(containsOption(q.Options, q.CorrectAnswer), field+".correctAnswer", "must match one of the options")
		v.Check(q.Points >= 1 && q.Points <= maxPoints, field+".points", "must be between 1 and 1000000")
	}
	return v.Err()
}

func containsOption(options []string, answer string) bool {
	for _, o := range options {
		if o == answer {
			return true
		}
	}
	return false
}
