package services

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"

	"github.com/backsoul/quest/pkg/models"
)

// QuestionService banco de preguntas: carga el documento JSON una vez
// por proceso y lo sirve como lecturas puras, sin efectos secundarios.
type QuestionService struct {
	mu     sync.RWMutex
	data   models.QuizData
	loaded bool
}

// NewQuestionService crea un banco de preguntas vacío (sin cargar)
func NewQuestionService() *QuestionService {
	return &QuestionService{}
}

// LoadFromFile carga las preguntas desde el archivo JSON.
// Las preguntas que no cumplen el invariante (mínimo dos opciones e
// índice correcto dentro del rango) se descartan con un aviso.
func (s *QuestionService) LoadFromFile(filePath string) error {
	log.Printf("📂 Cargando preguntas desde: %s", filePath)

	jsonData, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("%w: error leyendo archivo: %v", ErrDataUnavailable, err)
	}

	var data models.QuizData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return fmt.Errorf("%w: error parsing JSON: %v", ErrDataUnavailable, err)
	}

	total := 0
	for category, questions := range data {
		valid := questions[:0]
		for _, q := range questions {
			if !q.Valid() {
				log.Printf("⚠️ Pregunta inválida descartada en categoría %s: %q", category, q.Question)
				continue
			}
			valid = append(valid, q)
		}
		data[category] = valid
		total += len(valid)
	}

	s.mu.Lock()
	s.data = data
	s.loaded = true
	s.mu.Unlock()

	log.Printf("✅ %d preguntas cargadas en %d categorías", total, len(data))
	return nil
}

// Loaded indica si el banco de preguntas está disponible
func (s *QuestionService) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// GetQuestions obtiene las preguntas de una categoría. Devuelve una copia
// para que el llamador no pueda mutar el banco; vacío si la categoría no existe.
func (s *QuestionService) GetQuestions(category string) ([]models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded {
		return nil, ErrDataUnavailable
	}

	questions := s.data[category]
	out := make([]models.Question, len(questions))
	copy(out, questions)
	return out, nil
}

// Categories obtiene los nombres de categoría ordenados alfabéticamente
func (s *QuestionService) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data))
	for category := range s.data {
		names = append(names, category)
	}
	sort.Strings(names)
	return names
}

// Count obtiene el número de preguntas de una categoría
func (s *QuestionService) Count(category string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[category])
}

// HealthCheck verifica que el banco de preguntas esté disponible
func (s *QuestionService) HealthCheck() error {
	if !s.Loaded() {
		return ErrDataUnavailable
	}
	return nil
}
