package models

// Question estructura para representar una pregunta del quiz
type Question struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Correct  int      `json:"correct"`
}

// NoSelection indica que el jugador no eligió ninguna opción (timeout o skip)
const NoSelection = -1

// Valid verifica el invariante de una pregunta: al menos dos opciones
// y el índice correcto dentro del rango.
func (q Question) Valid() bool {
	return len(q.Options) >= 2 && q.Correct >= 0 && q.Correct < len(q.Options)
}

// QuizData documento estático con las preguntas por categoría
type QuizData map[string][]Question

// Progress progreso persistente del jugador entre sesiones
type Progress struct {
	TotalPoints       int      `json:"totalPoints"`
	ClearedCategories []string `json:"clearedCategories"`
	MaouDefeated      bool     `json:"maouDefeated"`
}

// IsCleared indica si una categoría ya fue superada (y por tanto bloqueada)
func (p Progress) IsCleared(category string) bool {
	for _, c := range p.ClearedCategories {
		if c == category {
			return true
		}
	}
	return false
}

// APIResponse estructura estándar para respuestas de API
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// CategoryInfo información de una categoría para la pantalla principal
type CategoryInfo struct {
	Name          string `json:"name"`
	QuestionCount int    `json:"questionCount"`
	Cleared       bool   `json:"cleared"`
	IsMaou        bool   `json:"isMaou"`
	Playable      bool   `json:"playable"`
}
