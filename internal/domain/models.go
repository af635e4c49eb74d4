package domain

import "time"

// Role is the account role that gates every operation.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}

// Grade is one entry of a student's grade history.
type Grade struct {
	Grade      int       `json:"grade"`
	Subject    string    `json:"subject"`
	AssignedAt time.Time `json:"assignedAt"`
}

// Account is a registered user together with its point balance.
type Account struct {
	Username         string    `json:"username"`
	PasswordHash     []byte    `json:"-"`
	Role             Role      `json:"role"`
	Points           int       `json:"points"`
	Subject          string    `json:"subject,omitempty"` // teachers only
	CompletedQuizzes []string  `json:"completedQuizzes"`
	Grades           []Grade   `json:"grades"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Identity is what the session gate resolves for every authenticated request.
type Identity struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Subject  string `json:"subject,omitempty"`
}

// IdentityOf builds the session identity of an account.
func IdentityOf(acc Account) Identity {
	return Identity{Username: acc.Username, Role: acc.Role, Subject: acc.Subject}
}

// Question models a single-answer question; CorrectAnswer is one of Options.
type Question struct {
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Points        int      `json:"points"`
}

// Quiz is an ordered collection of questions authored by a teacher.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Author    string     `json:"author"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"createdAt"`
}

// SubmissionResult summarizes a scored quiz submission.
type SubmissionResult struct {
	QuizID  string `json:"quizId"`
	Score   int    `json:"score"`
	Balance int    `json:"balance"`
}

// NotificationKind tags the payload carried by a notification.
type NotificationKind string

const (
	KindPointsExchange NotificationKind = "points_exchange"
	KindGradeAssigned  NotificationKind = "grade_assigned"
)

// NotificationStatus is the workflow state a notification represents.
type NotificationStatus string

const (
	StatusPendingTeacherReview NotificationStatus = "pending_teacher_review"
	StatusResolved             NotificationStatus = "resolved"
)

// Notification is a durable message addressed to Recipient.
type Notification struct {
	ID        string           `json:"id"`
	Recipient string           `json:"recipient"`
	Sender    string           `json:"sender"`
	Kind      NotificationKind `json:"type"`
	Teacher   string           `json:"teacher"`
	Student   string           `json:"student"`
	Points    int              `json:"points,omitempty"` // points_exchange only
	Grade     int              `json:"grade"`
	Subject   string           `json:"subject"`
	CreatedAt time.Time        `json:"timestamp"`
}

// Status derives the workflow state from the notification kind.
func (n Notification) Status() NotificationStatus {
	if n.Kind == KindPointsExchange {
		return StatusPendingTeacherReview
	}
	return StatusResolved
}

// ExchangeRequest is a student's request to spend points on a grade.
type ExchangeRequest struct {
	Student string
	Subject string
	Grade   int
	Points  int
}

// DebitStatus is the outcome of a conditional balance decrement.
type DebitStatus int

const (
	Debited DebitStatus = iota + 1
	InsufficientPoints
)

func (s DebitStatus) String() string {
	switch s {
	case Debited:
		return "debited"
	case InsufficientPoints:
		return "insufficient_points"
	default:
		return "unknown"
	}
}

// DebitResult is returned by the store's atomic decrement-if-sufficient.
type DebitResult struct {
	Status  DebitStatus
	Balance int
}
