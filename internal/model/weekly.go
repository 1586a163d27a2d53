package model

// WeeklyQuizItem is one quiz item inside a week.
type WeeklyQuizItem struct {
	ID        int    `json:"id"`
	QuizID    int    `json:"quiz_id"`
	Title     string `json:"title"`
	WeekID    string `json:"week_id"`
	CreatedAt string `json:"created_at"`
}

// WeeklyQuiz groups quizzes by calendar week, as returned by /quizzes/weekly.
type WeeklyQuiz struct {
	WeekLabel string           `json:"week_label"`
	WeekID    string           `json:"week_id"`
	QuizIDs   []int            `json:"quiz_ids"`
	Quizzes   []WeeklyQuizItem `json:"quizzes"`
}

// CatalogWeek is a week as shown on the quiz list; the most recent week is current.
type CatalogWeek struct {
	WeeklyQuiz
	IsCurrent bool `json:"is_current"`
}

// WeekSelection is the memoized random subset of a week's quiz IDs.
type WeekSelection struct {
	WeekID  string `json:"week_id"`
	QuizIDs []int  `json:"quiz_ids"`
}
