package domain

// ScoreRecord is one user's durable scoreboard entry.
type ScoreRecord struct {
	UserID      string `json:"-"`
	DisplayName string `json:"name"`
	Score       int    `json:"score"`
}

// Question is a single multiple-choice question. The Answer text is always
// one of Options; the catalog rejects anything else at load time.
type Question struct {
	Category string   `json:"-"`
	Prompt   string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// QuestionView is what the transport renders to the user: prompt and options,
// never the answer.
type QuestionView struct {
	Category string   `json:"category"`
	Index    int      `json:"index"`
	Prompt   string   `json:"prompt"`
	Options  []string `json:"options"`
}

// Delivery is the outcome of serving the question at the session's current
// index. Completed is terminal for the run: the index walked past the last
// question and the session was cleared.
type Delivery struct {
	Question  *QuestionView `json:"question,omitempty"`
	Completed bool          `json:"completed"`
}

// AnswerResult summarizes the resolution of one delivered question by the
// user's answer. Persisted is false when the score write failed and only the
// in-memory outcome is being shown.
type AnswerResult struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correctAnswer"`
	Score         int    `json:"score"`
	Persisted     bool   `json:"-"`
}

// TimeoutNotice is pushed to the user when the answer window elapses before
// a submission. The session stays on the same question index.
type TimeoutNotice struct {
	Category      string `json:"category"`
	Index         int    `json:"index"`
	CorrectAnswer string `json:"correctAnswer"`
}
