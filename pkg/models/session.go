package models

import "time"

// Screen pantallas que la capa de presentación puede mostrar
type Screen string

const (
	ScreenMain    Screen = "main"
	ScreenQuiz    Screen = "quiz"
	ScreenResult  Screen = "result"
	ScreenMaouWin Screen = "maou-win"
)

// Outcome clasificación final de una sesión terminada
type Outcome string

const (
	OutcomeVictory        Outcome = "victory"        // Maou: todas correctas
	OutcomeDefeat         Outcome = "defeat"         // Maou: al menos una fallada
	OutcomePerfectClear   Outcome = "perfectClear"   // categoría normal: todas correctas
	OutcomePartialSuccess Outcome = "partialSuccess" // al menos la mitad correctas
	OutcomeAttempt        Outcome = "attempt"
)

// SessionState estado del ciclo de vida de la máquina de sesiones
type SessionState string

const (
	StateIdle   SessionState = "idle"
	StateActive SessionState = "active"
	StateEnded  SessionState = "ended"
)

// QuizSession sesión transitoria de una partida: se crea al empezar
// y se destruye al terminar o cancelar. Nunca se comparte.
type QuizSession struct {
	ID             string     `json:"id"`
	Category       string     `json:"category"`
	IsMaouBattle   bool       `json:"isMaouBattle"`
	Questions      []Question `json:"-"`
	CurrentIndex   int        `json:"currentIndex"`
	CorrectAnswers int        `json:"correctAnswers"`
	StartTime      time.Time  `json:"startTime"`
}

// GameSnapshot vista de solo lectura del estado del juego para la API
type GameSnapshot struct {
	State             SessionState `json:"state"`
	Category          string       `json:"category,omitempty"`
	IsMaouBattle      bool         `json:"isMaouBattle,omitempty"`
	QuestionNumber    int          `json:"questionNumber,omitempty"`
	TotalQuestions    int          `json:"totalQuestions,omitempty"`
	CorrectAnswers    int          `json:"correctAnswers"`
	TotalPoints       int          `json:"totalPoints"`
	ClearedCategories []string     `json:"clearedCategories"`
	MaouDefeated      bool         `json:"maouDefeated"`
}
