package memory

import (
	"context"
	"sort"

	"points-exchange-service/internal/app"
	"points-exchange-service/internal/domain"
)

// QuizStore is an in-memory implementation of app.QuizRepository.
type QuizStore struct {
	db *DB
	tx *state
}

var _ app.QuizRepository = (*QuizStore)(nil)

func (s *QuizStore) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	var out domain.Quiz
	err := s.db.view(s.tx, func(st *state) error {
		row, ok := st.quizzes[quizID]
		if !ok {
			return domain.ErrQuizNotFound
		}
		out = row.quiz
		return nil
	})
	return out, err
}

func (s *QuizStore) ListQuizzes(_ context.Context) ([]domain.Quiz, error) {
	var rows []quizRow
	err := s.db.view(s.tx, func(st *state) error {
		rows = make([]quizRow, 0, len(st.quizzes))
		for _, row := range st.quizzes {
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	quizzes := make([]domain.Quiz, len(rows))
	for i, row := range rows {
		quizzes[i] = row.quiz
	}
	return quizzes, nil
}

func (s *QuizStore) InsertQuiz(_ context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	err := s.db.view(s.tx, func(st *state) error {
		quiz.ID = s.db.newID()
		quiz.CreatedAt = s.db.now()
		quiz.Questions = copyQuestions(quiz.Questions)
		st.quizzes[quiz.ID] = quizRow{quiz: quiz, seq: st.nextSeq()}
		return nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

func copyQuestions(in []domain.Question) []domain.Question {
	out := make([]domain.Question, len(in))
	for i, q := range in {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}
