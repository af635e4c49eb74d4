package domain

import "golang.org/x/crypto/bcrypt"

// PasswordCost is the bcrypt cost used for new password hashes.
var PasswordCost = bcrypt.DefaultCost

// SetPassword hashes and stores pwd.
func (a *Account) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), PasswordCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

// CheckPassword reports whether pwd matches the stored hash.
func (a Account) CheckPassword(pwd string) bool {
	if len(a.PasswordHash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd)) == nil
}

// HasCompleted reports whether quizID is in the completed list.
func (a Account) HasCompleted(quizID string) bool {
	for _, id := range a.CompletedQuizzes {
		if id == quizID {
			return true
		}
	}
	return false
}

// Redacted returns a copy of the quiz without correct answers, for students.
func (q Quiz) Redacted() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		question.CorrectAnswer = ""
		question.Options = append([]string(nil), question.Options...)
		out.Questions[i] = question
	}
	return out
}
