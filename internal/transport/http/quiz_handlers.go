package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"

	"points-exchange-service/internal/domain"
)

type questionRequest struct {
	Prompt        string   `json:"prompt" binding:"required"`
	Options       []string `json:"options" binding:"required,min=2"`
	CorrectAnswer string   `json:"correctAnswer" binding:"required"`
	Points        int      `json:"points" binding:"required,min=1,max=1000000"`
}

type createQuizRequest struct {
	Title     string            `json:"title" binding:"required"`
	Questions []questionRequest `json:"questions" binding:"required,min=1,dive"`
}

type submitAnswersRequest struct {
	Answers []string `json:"answers" binding:"required"`
}

func (s *Server) listQuizzes(c *gin.Context) {
	quizzes, err := s.quizzes.ListQuizzes(c.Request.Context())
	if err != nil {
		writeError(c, s.log, err)
		return
	}
	if currentIdentity(c).Role != domain.RoleTeacher {
		for i := range quizzes {
			quizzes[i] = quizzes[i].Redacted()
		}
	}
	respond(c, http.StatusOK, "ok", quizzes)
}

func (s *Server) getQuiz(c *gin.Context) {
	quiz, err := s.quizzes.GetQuiz(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, s.log, err)
		return
	}
	if currentIdentity(c).Role != domain.RoleTeacher {
		quiz = quiz.Redacted()
	}
	respond(c, http.StatusOK, "ok", quiz)
}

func (s *Server) createQuiz(c *gin.Context) {
	var req createQuizRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, s.log, err)
		return
	}
	var questions []domain.Question
	if err := copier.Copy(&questions, &req.Questions); err != nil {
		writeError(c, s.log, err)
		return
	}
	quiz, err := s.quizzes.CreateQuiz(c.Request.Context(), currentIdentity(c), req.Title, questions)
	if err != nil {
		writeError(c, s.log, err)
		return
	}
	respond(c, http.StatusCreated, "quiz created", quiz)
}

func (s *Server) submitAnswers(c *gin.Context) {
	var req submitAnswersRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, s.log, err)
		return
	}
	res, err := s.quizzes.SubmitAnswers(c.Request.Context(), c.Param("id"), currentIdentity(c), req.Answers)
	if err != nil {
		writeError(c, s.log, err)
		return
	}
	s.metrics.ObserveSubmission(res.Score)
	respond(c, http.StatusOK, "answers submitted", res)
}
