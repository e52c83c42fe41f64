package dto

// SessionResponse describes one active relay session.
type SessionResponse struct {
	UserID    int64  `json:"user_id"`
	StaffName string `json:"staff_name"`
}

// SessionsResponse lists the active and waiting partitions.
type SessionsResponse struct {
	Active  []SessionResponse `json:"active"`
	Waiting []int64           `json:"waiting"`
}

// QuestionResponse describes one deferred question.
type QuestionResponse struct {
	ID       string `json:"id"`
	AskerID  int64  `json:"asker_id"`
	FullName string `json:"full_name"`
	Status   string `json:"status"`
	AskedAt  string `json:"asked_at"`
}

// StatsResponse aggregates session and question counters.
type StatsResponse struct {
	ActiveSessions    int              `json:"active_sessions"`
	WaitingUsers      int              `json:"waiting_users"`
	TotalQuestions    int              `json:"total_questions"`
	PendingQuestions  int              `json:"pending_questions"`
	AnsweredQuestions int              `json:"answered_questions"`
	Transitions       map[string]int64 `json:"transitions"`
	Relayed           map[string]int64 `json:"relayed"`
}
