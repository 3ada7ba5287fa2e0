package services

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/backsoul/quest/pkg/models"
	"github.com/google/uuid"
)

// GameConfig constantes de juego de la máquina de sesiones
type GameConfig struct {
	QuestionsPerSession int           // preguntas por sesión
	PointsPerCorrect    int           // puntos por respuesta correcta
	MaouUnlockPoints    int           // puntos necesarios para desafiar al Maou
	SecondsPerQuestion  int           // tiempo límite por pregunta
	SettleDelay         time.Duration // pausa antes de la siguiente pregunta
	MaouCategory        string        // categoría reservada para el jefe final
}

// DefaultGameConfig valores del juego original
func DefaultGameConfig() GameConfig {
	return GameConfig{
		QuestionsPerSession: 5,
		PointsPerCorrect:    10,
		MaouUnlockPoints:    30,
		SecondsPerQuestion:  10,
		SettleDelay:         1500 * time.Millisecond,
		MaouCategory:        "Maou",
	}
}

// QuestionSource fuente de preguntas por categoría (lectura pura)
type QuestionSource interface {
	GetQuestions(category string) ([]models.Question, error)
}

// GameService la máquina de estados de la sesión de quiz: selección de
// categoría, secuencia de preguntas, evaluación de respuestas, puntuación
// y condiciones de fin. Hay como mucho una sesión y un temporizador vivos;
// el orden ante cada respuesta es siempre puntuación → persistencia →
// notificación.
type GameService struct {
	mu       sync.Mutex
	bank     QuestionSource
	progress ProgressStore
	notifier Notifier
	timer    SessionTimer
	config   GameConfig

	// schedule difiere la transición a la siguiente pregunta sin bloquear
	schedule func(delay time.Duration, fn func())
	rng      *rand.Rand

	state       models.SessionState
	session     *models.QuizSession
	awaiting    bool // hay una pregunta esperando respuesta
	generation  int  // invalida callbacks de sesiones o preguntas muertas
	prog        models.Progress
	savePending bool // quedó un guardado fallido por reintentar
}

// NewGameService crea la máquina de sesiones y carga el progreso guardado
func NewGameService(bank QuestionSource, progress ProgressStore, notifier Notifier, timer SessionTimer, config GameConfig) (*GameService, error) {
	prog, err := progress.Load()
	if err != nil {
		return nil, err
	}

	s := &GameService{
		bank:     bank,
		progress: progress,
		notifier: notifier,
		timer:    timer,
		config:   config,
		schedule: func(delay time.Duration, fn func()) { time.AfterFunc(delay, fn) },
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		state:    models.StateIdle,
		prog:     prog,
	}

	log.Printf("🎮 Progreso cargado: %d puntos, %d categorías superadas", prog.TotalPoints, len(prog.ClearedCategories))
	notifier.ProgressChanged(prog.TotalPoints, s.clearedCopy())
	notifier.ScreenChanged(models.ScreenMain)
	return s, nil
}

// StartSession empieza una sesión para una categoría. Verifica todas las
// precondiciones antes de tocar el estado: si falla, la máquina queda
// exactamente como estaba.
func (s *GameService) StartSession(category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == models.StateActive {
		return ErrSessionActive
	}

	questions, err := s.bank.GetQuestions(category)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}

	isMaou := category == s.config.MaouCategory
	if isMaou {
		if s.prog.TotalPoints < s.config.MaouUnlockPoints {
			return ErrNotUnlocked
		}
	} else {
		if s.prog.IsCleared(category) {
			return ErrCategoryLocked
		}
		if len(questions) < s.config.QuestionsPerSession {
			return ErrCategoryTooSmall
		}
	}

	n := s.config.QuestionsPerSession
	if len(questions) < n {
		n = len(questions) // solo posible en la batalla contra el Maou
	}

	s.session = &models.QuizSession{
		ID:           uuid.New().String(),
		Category:     category,
		IsMaouBattle: isMaou,
		Questions:    s.sampleQuestions(questions, n),
		StartTime:    time.Now(),
	}
	s.state = models.StateActive
	s.awaiting = false
	s.generation++

	log.Printf("🚀 Sesión iniciada: categoría %s, %d preguntas (ID: %s)", category, n, s.session.ID)
	s.notifier.ScreenChanged(models.ScreenQuiz)
	s.showQuestion(s.generation)
	return nil
}

// SubmitAnswer procesa la respuesta del jugador a la pregunta actual.
// Las respuestas tardías o duplicadas (por ejemplo un callback de
// temporizador rezagado) no alteran la puntuación.
func (s *GameService) SubmitAnswer(selectedOption int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != models.StateActive || !s.awaiting {
		return ErrNoActiveQuestion
	}

	s.applyAnswer(selectedOption)
	return nil
}

// SkipQuestion salta la pregunta actual (función de depuración).
// Se puntúa como incorrecta, igual que un timeout.
func (s *GameService) SkipQuestion() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != models.StateActive || !s.awaiting {
		return ErrNoActiveQuestion
	}

	log.Println("⏭️ Pregunta saltada")
	s.applyAnswer(models.NoSelection)
	return nil
}

// CancelSession descarta la sesión en curso sin puntuar ni persistir.
// Tras cancelar no llega ninguna notificación más de la sesión muerta.
func (s *GameService) CancelSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != models.StateActive {
		return ErrNoActiveSession
	}

	s.timer.Cancel()
	s.generation++
	log.Printf("🛑 Sesión cancelada (ID: %s)", s.session.ID)
	s.session = nil
	s.state = models.StateIdle
	s.awaiting = false
	s.notifier.ScreenChanged(models.ScreenMain)
	return nil
}

// ResetProgress pone los puntos a cero, vacía las categorías superadas y
// borra el estado del Maou. No está permitido en mitad de una sesión.
func (s *GameService) ResetProgress() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == models.StateActive {
		return ErrSessionActive
	}

	s.prog = models.Progress{}
	s.persistProgress()
	log.Println("🔄 Progreso reiniciado")
	s.notifier.ProgressChanged(0, []string{})
	return nil
}

// ReturnToMain vuelve a la pantalla principal tras una sesión terminada
func (s *GameService) ReturnToMain() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == models.StateActive {
		return ErrSessionActive
	}

	s.session = nil
	s.state = models.StateIdle
	s.notifier.ProgressChanged(s.prog.TotalPoints, s.clearedCopy())
	s.notifier.ScreenChanged(models.ScreenMain)
	return nil
}

// RestartGame reinicia la partida completa: cancela la sesión en curso
// si la hay, borra el progreso y vuelve a la pantalla principal.
func (s *GameService) RestartGame() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == models.StateActive {
		s.timer.Cancel()
		s.generation++
		s.session = nil
		s.awaiting = false
	}

	s.state = models.StateIdle
	s.prog = models.Progress{}
	s.persistProgress()
	log.Println("🔄 Partida reiniciada desde cero")
	s.notifier.ProgressChanged(0, []string{})
	s.notifier.ScreenChanged(models.ScreenMain)
	return nil
}

// Snapshot obtiene una vista de solo lectura del estado del juego
func (s *GameService) Snapshot() models.GameSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := models.GameSnapshot{
		State:             s.state,
		TotalPoints:       s.prog.TotalPoints,
		ClearedCategories: s.clearedCopy(),
		MaouDefeated:      s.prog.MaouDefeated,
	}
	if s.session != nil {
		snapshot.Category = s.session.Category
		snapshot.IsMaouBattle = s.session.IsMaouBattle
		snapshot.QuestionNumber = s.session.CurrentIndex + 1
		snapshot.TotalQuestions = len(s.session.Questions)
		snapshot.CorrectAnswers = s.session.CorrectAnswers
	}
	return snapshot
}

// Progress obtiene el progreso actual en memoria
func (s *GameService) Progress() models.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	progress := s.prog
	progress.ClearedCategories = s.clearedCopy()
	return progress
}

// Config devuelve las constantes de juego
func (s *GameService) Config() GameConfig {
	return s.config
}

// --- Métodos internos (se llaman con el mutex tomado) ---

// sampleQuestions elige n preguntas distintas de forma uniforme
// (Fisher-Yates parcial sobre una copia del pool)
func (s *GameService) sampleQuestions(pool []models.Question, n int) []models.Question {
	shuffled := make([]models.Question, len(pool))
	copy(shuffled, pool)

	for i := 0; i < n; i++ {
		j := i + s.rng.Intn(len(shuffled)-i)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	return shuffled[:n]
}

// showQuestion muestra la pregunta actual y arranca su cuenta atrás,
// o termina la sesión si ya no quedan preguntas
func (s *GameService) showQuestion(gen int) {
	sess := s.session
	index := sess.CurrentIndex

	if index >= s.config.QuestionsPerSession {
		s.finishSession()
		return
	}
	if index >= len(sess.Questions) {
		// Nunca debería pasar con una selección bien formada: terminar
		// la sesión en vez de leer fuera de rango
		log.Printf("⚠️ Índice de pregunta %d fuera de rango (%d seleccionadas), terminando sesión", index, len(sess.Questions))
		s.finishSession()
		return
	}

	question := sess.Questions[index]
	s.awaiting = true
	s.notifier.QuestionShown(question.Question, question.Options, index+1, s.config.SecondsPerQuestion)
	s.timer.Start(s.config.SecondsPerQuestion,
		func(remaining int) { s.onTimerTick(gen, index, remaining) },
		func() { s.onTimerExpire(gen, index) },
	)
}

func (s *GameService) onTimerTick(gen, index, remaining int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.currentQuestionIs(gen, index) {
		return
	}
	s.notifier.TimerTick(remaining)
}

func (s *GameService) onTimerExpire(gen, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.currentQuestionIs(gen, index) {
		return
	}
	log.Printf("⏰ Tiempo agotado en la pregunta %d", index+1)
	s.applyAnswer(models.NoSelection)
}

// currentQuestionIs comprueba que un callback pertenece a la pregunta
// que sigue esperando respuesta
func (s *GameService) currentQuestionIs(gen, index int) bool {
	return s.state == models.StateActive &&
		gen == s.generation &&
		s.awaiting &&
		s.session.CurrentIndex == index
}

// applyAnswer puntúa la respuesta (NoSelection cuenta como incorrecta),
// persiste el progreso, notifica y programa el avance diferido
func (s *GameService) applyAnswer(selectedOption int) {
	s.timer.Cancel()
	s.awaiting = false

	sess := s.session
	question := sess.Questions[sess.CurrentIndex]

	if selectedOption == question.Correct {
		sess.CorrectAnswers++
		s.prog.TotalPoints += s.config.PointsPerCorrect
		log.Printf("✅ Respuesta correcta (%d/%d)", sess.CorrectAnswers, len(sess.Questions))
	} else {
		log.Printf("❌ Respuesta incorrecta (elegida %d, correcta %d)", selectedOption, question.Correct)
	}

	s.persistProgress()
	s.notifier.AnswerResult(selectedOption, question.Correct)
	s.notifier.ProgressChanged(s.prog.TotalPoints, s.clearedCopy())

	gen := s.generation
	s.schedule(s.config.SettleDelay, func() { s.advance(gen) })
}

// advance pasa a la siguiente pregunta tras la pausa de transición
func (s *GameService) advance(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != models.StateActive || gen != s.generation {
		return
	}

	s.session.CurrentIndex++
	s.showQuestion(gen)
}

// finishSession calcula el desenlace de la sesión y lo notifica
func (s *GameService) finishSession() {
	s.timer.Cancel()
	s.awaiting = false

	sess := s.session
	n := s.config.QuestionsPerSession

	var outcome models.Outcome
	screen := models.ScreenResult

	if sess.IsMaouBattle {
		// El Maou solo cae con todas las respuestas correctas
		if sess.CorrectAnswers == n {
			outcome = models.OutcomeVictory
			s.prog.MaouDefeated = true
			screen = models.ScreenMaouWin
			log.Println("👑 ¡Maou derrotado!")
		} else {
			outcome = models.OutcomeDefeat
		}
	} else {
		switch {
		case sess.CorrectAnswers == n:
			outcome = models.OutcomePerfectClear
			s.markCleared(sess.Category)
		case sess.CorrectAnswers >= n/2:
			outcome = models.OutcomePartialSuccess
		default:
			outcome = models.OutcomeAttempt
		}
	}

	s.persistProgress()

	s.state = models.StateEnded
	s.generation++

	log.Printf("🏁 Sesión terminada: %s (%d/%d correctas, %d puntos)", outcome, sess.CorrectAnswers, n, s.prog.TotalPoints)
	s.notifier.ScreenChanged(screen)
	s.notifier.SessionEnded(outcome, s.prog.TotalPoints, sess.CorrectAnswers)
	s.notifier.ProgressChanged(s.prog.TotalPoints, s.clearedCopy())
}

// markCleared añade la categoría al conjunto de superadas una sola vez
func (s *GameService) markCleared(category string) {
	if s.prog.IsCleared(category) {
		return
	}
	s.prog.ClearedCategories = append(s.prog.ClearedCategories, category)
	log.Printf("🏆 Categoría superada: %s", category)
}

// persistProgress guarda el progreso. Un fallo de escritura no tumba la
// sesión: la puntuación sigue en memoria y se reintenta en el siguiente
// punto de persistencia.
func (s *GameService) persistProgress() {
	if err := s.progress.Save(s.prog); err != nil {
		s.savePending = true
		log.Printf("⚠️ Error guardando progreso (se reintentará): %v", err)
		return
	}
	if s.savePending {
		log.Println("💾 Guardado pendiente completado")
		s.savePending = false
	}
}

func (s *GameService) clearedCopy() []string {
	cleared := make([]string, len(s.prog.ClearedCategories))
	copy(cleared, s.prog.ClearedCategories)
	return cleared
}
