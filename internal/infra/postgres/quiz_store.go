package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"

	"points-exchange-service/internal/app"
	"points-exchange-service/internal/domain"
)

// QuizStore keeps quizzes with their questions as JSONB.
type QuizStore struct {
	q querier
}

var _ app.QuizRepository = (*QuizStore)(nil)

func (s *QuizStore) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz, err := scanQuiz(s.q.QueryRow(ctx, `
		SELECT id, title, author, questions, created_at
		FROM quizzes WHERE id = $1`, quizID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, err
}

func (s *QuizStore) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, title, author, questions, created_at
		FROM quizzes ORDER BY seq`)
	if err != nil {
		return nil, errors.Wrap(err, "query quizzes")
	}
	defer rows.Close()

	out := make([]domain.Quiz, 0)
	for rows.Next() {
		quiz, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, quiz)
	}
	return out, errors.Wrap(rows.Err(), "iterate quizzes")
}

func (s *QuizStore) InsertQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	raw, err := json.Marshal(quiz.Questions)
	if err != nil {
		return domain.Quiz{}, errors.Wrap(err, "marshal questions")
	}
	quiz.ID = uuid.NewString()
	err = s.q.QueryRow(ctx, `
		INSERT INTO quizzes (id, title, author, questions)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`, quiz.ID, quiz.Title, quiz.Author, raw).Scan(&quiz.CreatedAt)
	if err != nil {
		return domain.Quiz{}, errors.Wrap(err, "insert quiz")
	}
	return quiz, nil
}

func scanQuiz(row pgx.Row) (domain.Quiz, error) {
	var (
		quiz domain.Quiz
		raw  []byte
	)
	if err := row.Scan(&quiz.ID, &quiz.Title, &quiz.Author, &raw, &quiz.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Quiz{}, err
		}
		return domain.Quiz{}, errors.Wrap(err, "scan quiz")
	}
	if err := json.Unmarshal(raw, &quiz.Questions); err != nil {
		return domain.Quiz{}, errors.Wrap(err, "unmarshal questions")
	}
	return quiz, nil
}
