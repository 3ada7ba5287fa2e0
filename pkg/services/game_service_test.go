package services

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/backsoul/quest/pkg/models"
	"github.com/stretchr/testify/require"
)

// --- Dobles de prueba ---

type fakeBank struct {
	data map[string][]models.Question
	err  error
}

func (b *fakeBank) GetQuestions(category string) ([]models.Question, error) {
	if b.err != nil {
		return nil, b.err
	}
	questions := make([]models.Question, len(b.data[category]))
	copy(questions, b.data[category])
	return questions, nil
}

type fakeProgressStore struct {
	saved     models.Progress
	saveCalls int
	failSaves bool
}

func (s *fakeProgressStore) Load() (models.Progress, error) {
	return s.saved, nil
}

func (s *fakeProgressStore) Save(progress models.Progress) error {
	if s.failSaves {
		return errors.New("redis caído")
	}
	s.saved = progress
	s.saveCalls++
	return nil
}

type fakeSessionTimer struct {
	startCalls  int
	cancelCalls int
	seconds     int
	onTick      func(remaining int)
	onExpire    func()
}

func (t *fakeSessionTimer) Start(seconds int, onTick func(int), onExpire func()) {
	t.startCalls++
	t.seconds = seconds
	t.onTick = onTick
	t.onExpire = onExpire
}

func (t *fakeSessionTimer) Cancel() {
	t.cancelCalls++
}

type answerEvent struct {
	chosen  int
	correct int
}

type endEvent struct {
	outcome      models.Outcome
	finalPoints  int
	correctCount int
}

// recordingNotifier acumula todas las notificaciones emitidas
type recordingNotifier struct {
	screens   []models.Screen
	questions []string
	ticks     []int
	answers   []answerEvent
	ends      []endEvent
	progress  []int
}

func (n *recordingNotifier) ScreenChanged(screen models.Screen) {
	n.screens = append(n.screens, screen)
}

func (n *recordingNotifier) QuestionShown(prompt string, _ []string, _, _ int) {
	n.questions = append(n.questions, prompt)
}

func (n *recordingNotifier) TimerTick(secondsLeft int) {
	n.ticks = append(n.ticks, secondsLeft)
}

func (n *recordingNotifier) AnswerResult(chosen, correct int) {
	n.answers = append(n.answers, answerEvent{chosen: chosen, correct: correct})
}

func (n *recordingNotifier) SessionEnded(outcome models.Outcome, finalPoints, correctCount int) {
	n.ends = append(n.ends, endEvent{outcome: outcome, finalPoints: finalPoints, correctCount: correctCount})
}

func (n *recordingNotifier) ProgressChanged(points int, _ []string) {
	n.progress = append(n.progress, points)
}

// --- Arranque de la máquina bajo prueba ---

type gameFixture struct {
	svc      *GameService
	timer    *fakeSessionTimer
	notifier *recordingNotifier
	store    *fakeProgressStore
	pending  []func()
}

func newGameFixture(t *testing.T, data map[string][]models.Question, store *fakeProgressStore) *gameFixture {
	t.Helper()

	f := &gameFixture{
		timer:    &fakeSessionTimer{},
		notifier: &recordingNotifier{},
		store:    store,
	}

	svc, err := NewGameService(&fakeBank{data: data}, store, f.notifier, f.timer, DefaultGameConfig())
	require.NoError(t, err)

	// Transiciones diferidas capturadas para ejecutarlas a mano
	svc.schedule = func(_ time.Duration, fn func()) {
		f.pending = append(f.pending, fn)
	}
	svc.rng = rand.New(rand.NewSource(1))

	f.svc = svc
	return f
}

// settle ejecuta las transiciones diferidas pendientes (la pausa de 1.5s)
func (f *gameFixture) settle() {
	for len(f.pending) > 0 {
		fn := f.pending[0]
		f.pending = f.pending[1:]
		fn()
	}
}

func makeQuestions(n, correct int) []models.Question {
	questions := make([]models.Question, n)
	for i := range questions {
		questions[i] = models.Question{
			Question: fmt.Sprintf("pregunta-%d", i),
			Options:  []string{"a", "b", "c"},
			Correct:  correct,
		}
	}
	return questions
}

// --- Inicio de sesión ---

func TestStartSessionSelectsDistinctQuestions(t *testing.T) {
	f := newGameFixture(t, map[string][]models.Question{
		"Historia": makeQuestions(8, 0),
	}, &fakeProgressStore{})

	require.NoError(t, f.svc.StartSession("Historia"))

	require.Len(t, f.svc.session.Questions, 5)
	seen := map[string]bool{}
	for _, q := range f.svc.session.Questions {
		require.False(t, seen[q.Question], "pregunta repetida en la sesión: %s", q.Question)
		seen[q.Question] = true
	}

	require.Equal(t, models.StateActive, f.svc.state)
	require.Equal(t, 1, f.timer.startCalls)
	require.Equal(t, 10, f.timer.seconds)
	require.Contains(t, f.notifier.screens, models.ScreenQuiz)
	require.Len(t, f.notifier.questions, 1)
}

func TestStartSessionPreconditions(t *testing.T) {
	data := map[string][]models.Question{
		"Historia": makeQuestions(5, 0),
		"Corta":    makeQuestions(3, 0),
		"Maou":     makeQuestions(5, 0),
	}

	t.Run("categoría desconocida", func(t *testing.T) {
		f := newGameFixture(t, data, &fakeProgressStore{})
		require.ErrorIs(t, f.svc.StartSession("Inexistente"), ErrNoQuestions)
		require.Equal(t, models.StateIdle, f.svc.state)
	})

	t.Run("pocas preguntas", func(t *testing.T) {
		f := newGameFixture(t, data, &fakeProgressStore{})
		require.ErrorIs(t, f.svc.StartSession("Corta"), ErrCategoryTooSmall)
	})

	t.Run("categoría ya superada", func(t *testing.T) {
		store := &fakeProgressStore{saved: models.Progress{ClearedCategories: []string{"Historia"}}}
		f := newGameFixture(t, data, store)
		require.ErrorIs(t, f.svc.StartSession("Historia"), ErrCategoryLocked)
	})

	t.Run("Maou bloqueado con 25 puntos", func(t *testing.T) {
		store := &fakeProgressStore{saved: models.Progress{TotalPoints: 25}}
		f := newGameFixture(t, data, store)
		require.ErrorIs(t, f.svc.StartSession("Maou"), ErrNotUnlocked)
	})

	t.Run("Maou desbloqueado con 30 puntos", func(t *testing.T) {
		store := &fakeProgressStore{saved: models.Progress{TotalPoints: 30}}
		f := newGameFixture(t, data, store)
		require.NoError(t, f.svc.StartSession("Maou"))
		require.True(t, f.svc.session.IsMaouBattle)
	})

	t.Run("sesión ya activa", func(t *testing.T) {
		f := newGameFixture(t, data, &fakeProgressStore{})
		require.NoError(t, f.svc.StartSession("Historia"))
		require.ErrorIs(t, f.svc.StartSession("Historia"), ErrSessionActive)
	})

	t.Run("banco no disponible", func(t *testing.T) {
		f := &gameFixture{timer: &fakeSessionTimer{}, notifier: &recordingNotifier{}, store: &fakeProgressStore{}}
		svc, err := NewGameService(&fakeBank{err: ErrDataUnavailable}, f.store, f.notifier, f.timer, DefaultGameConfig())
		require.NoError(t, err)
		require.ErrorIs(t, svc.StartSession("Historia"), ErrDataUnavailable)
		require.Equal(t, models.StateIdle, svc.state)
	})
}

// --- Puntuación ---

func TestCorrectAnswerScoresOnce(t *testing.T) {
	f := newGameFixture(t, map[string][]models.Question{
		"Historia": makeQuestions(5, 0),
	}, &fakeProgressStore{})

	require.NoError(t, f.svc.StartSession("Historia"))
	require.NoError(t, f.svc.SubmitAnswer(0))

	require.Equal(t, 1, f.svc.session.CorrectAnswers)
	require.Equal(t, 10, f.svc.prog.TotalPoints)
	require.Equal(t, 10, f.store.saved.TotalPoints, "el progreso se persiste antes de avanzar")
	require.Equal(t, []answerEvent{{chosen: 0, correct: 0}}, f.notifier.answers)
	require.Equal(t, 1, f.timer.cancelCalls)
}

func TestWrongAnswerDoesNotScore(t *testing.T) {
	f := newGameFixture(t, map[string][]models.Question{
		"Historia": makeQuestions(5, 0),
	}, &fakeProgressStore{})

	require.NoError(t, f.svc.StartSession("Historia"))
	require.NoError(t, f.svc.SubmitAnswer(1))

	require.Zero(t, f.svc.session.CorrectAnswers)
	require.Zero(t, f.svc.prog.TotalPoints)
	require.Equal(t, []answerEvent{{chosen: 1, correct: 0}}, f.notifier.answers)
}

func TestDuplicateSubmissionIsIgnored(t *testing.T) {
	f := newGameFixture(t, map[string][]models.Question{
		"Historia": makeQuestions(5, 0),
	}, &fakeProgressStore{})

	require.NoError(t, f.svc.StartSession("Historia"))
	require.NoError(t, f.svc.SubmitAnswer(0))

	// Segunda respuesta para la misma pregunta: rechazada sin tocar nada
	require.ErrorIs(t, f.svc.SubmitAnswer(0), ErrNoActiveQuestion)
	require.Equal(t, 1, f.svc.session.CorrectAnswers)
	require.Equal(t, 10, f.svc.prog.TotalPoints)
	require.Len(t, f.notifier.answers, 1)
}

func TestStaleTimerExpireIsIgnored(t *testing.T) {
	f := newGameFixture(t, map[string][]models.Question{
		"Historia": makeQuestions(5, 0),
	}, &fakeProgressStore{})

	require.NoError(t, f.svc.StartSession("Historia"))
	staleExpire := f.timer.onExpire

	require.NoError(t, f.svc.SubmitAnswer(0))

	// El callback rezagado de la cuenta atrás ya respondida no puntúa
	staleExpire()
	require.Equal(t, 1, f.svc.session.CorrectAnswers)
	require.Len(t, f.notifier.answers, 1)
}

func TestTimeoutScoredAsIncorrect(t *testing.T) {
	f := newGameFixture(t, map[string][]models.Question{
		"Historia": makeQuestions(5, 0),
	}, &fakeProgressStore{})

	require.NoError(t, f.svc.StartSession("Historia"))
	f.timer.onExpire()

	require.Zero(t, f.svc.session.CorrectAnswers)
	require.Equal(t, []answerEvent{{chosen: models.NoSelection, correct: 0}}, f.notifier.answers)

	// La pausa de transición lleva a la siguiente pregunta
	f.settle()
	require.Equal(t, 1, f.svc.session.CurrentIndex)
	require.Len(t, f.notifier.questions, 2)
}

func TestSkipScoredAsIncorrect(t *testing.T) {
	f := newGameFixture(t, map[string][]models.Question{
		"Historia": makeQuestions(5, 0),
	}, &fakeProgressStore{})

	require.NoError(t, f.svc.StartSession("Historia"))
	require.NoError(t, f.svc.SkipQuestion())

	require.Zero(t, f.svc.session.CorrectAnswers)
	require.Equal(t, []answerEvent{{chosen: models.NoSelection, correct: 0}}, f.notifier.answers)
	require.Equal(t, 1, f.timer.cancelCalls)
}

func TestTimerTickForwardedWhileAwaiting(t *testing.T) {
	f := newGameFixture(t, map[string][]models.Question{
		"Historia": makeQuestions(5, 0),
	}, &fakeProgressStore{})

	require.NoError(t, f.svc.StartSession("Historia"))
	f.timer.onTick(9)
	f.timer.onTick(8)

	require.Equal(t, []int{9, 8}, f.notifier.ticks)

	// Tras responder, los ticks rezagados se descartan
	staleTick := f.timer.onTick
	require.NoError(t, f.svc.SubmitAnswer(0))
	staleTick(7)
	require.Equal(t, []int{9, 8}, f.notifier.ticks)
}

// --- Desenlaces ---

// playSession responde las 5 preguntas: las primeras correctCount bien
// y el resto mal
func playSession(t *testing.T, f *gameFixture, correctCount int) {
	t.Helper()
	for i := 0; i < 5; i++ {
		answer := 1 // incorrecta
		if i < correctCount {
			answer = 0
		}
		require.NoError(t, f.svc.SubmitAnswer(answer))
		f.settle()
	}
}

func TestPerfectClearMarksCategoryOnce(t *testing.T) {
	f := newGameFixture(t, map[string][]models.Question{
		"Historia": makeQuestions(5, 0),
	}, &fakeProgressStore{})

	require.NoError(t, f.svc.StartSession("Historia"))
	playSession(t, f, 5)

	require.Equal(t, models.StateEnded, f.svc.state)
	require.Len(t, f.notifier.ends, 1)
	require.Equal(t, endEvent{outcome: models.OutcomePerfectClear, finalPoints: 50, correctCount: 5}, f.notifier.ends[0])
	require.Equal(t, []string{"Historia"}, f.store.saved.ClearedCategories)
	require.Contains(t, f.notifier.screens, models.ScreenResult)

	// La categoría superada queda bloqueada para una nueva sesión
	require.NoError(t, f.svc.ReturnToMain())
	require.ErrorIs(t, f.svc.StartSession("Historia"), ErrCategoryLocked)
	require.Equal(t, []string{"Historia"}, f.store.saved.ClearedCategories)
}

func TestPartialSuccessOutcome(t *testing.T) {
	f := newGameFixture(t, map[string][]models.Question{
		"Historia": makeQuestions(5, 0),
	}, &fakeProgressStore{})

	require.NoError(t, f.svc.StartSession("Historia"))
	playSession(t, f, 2) // floor(5/2) = 2 correctas bastan

	require.Equal(t, models.OutcomePartialSuccess, f.notifier.ends[0].outcome)
	require.Empty(t, f.store.saved.ClearedCategories)
	require.Equal(t, 20, f.store.saved.TotalPoints)
}

func TestAttemptOutcome(t *testing.T) {
	f := newGameFixture(t, map[string][]models.Question{
		"Historia": makeQuestions(5, 0),
	}, &fakeProgressStore{})

	require.NoError(t, f.svc.StartSession("Historia"))
	playSession(t, f, 1)

	require.Equal(t, models.OutcomeAttempt, f.notifier.ends[0].outcome)
}

func TestMaouVictorySetsDefeatedFlag(t *testing.T) {
	store := &fakeProgressStore{saved: models.Progress{TotalPoints: 30}}
	f := newGameFixture(t, map[string][]models.Question{
		"Maou": makeQuestions(5, 0),
	}, store)

	require.NoError(t, f.svc.StartSession("Maou"))
	playSession(t, f, 5)

	require.Equal(t, models.OutcomeVictory, f.notifier.ends[0].outcome)
	require.True(t, f.store.saved.MaouDefeated)
	require.Contains(t, f.notifier.screens, models.ScreenMaouWin)
	// La victoria contra el Maou no marca categorías superadas
	require.Empty(t, f.store.saved.ClearedCategories)
}

func TestMaouDefeatLeavesFlagUnset(t *testing.T) {
	store := &fakeProgressStore{saved: models.Progress{TotalPoints: 30}}
	f := newGameFixture(t, map[string][]models.Question{
		"Maou": makeQuestions(5, 0),
	}, store)

	require.NoError(t, f.svc.StartSession("Maou"))
	playSession(t, f, 4)

	require.Equal(t, models.OutcomeDefeat, f.notifier.ends[0].outcome)
	require.False(t, f.store.saved.MaouDefeated)
	require.NotContains(t, f.notifier.screens, models.ScreenMaouWin)
}

// --- Reinicio y cancelación ---

func TestResetProgress(t *testing.T) {
	store := &fakeProgressStore{saved: models.Progress{
		TotalPoints:       70,
		ClearedCategories: []string{"Historia"},
		MaouDefeated:      true,
	}}
	f := newGameFixture(t, map[string][]models.Question{
		"Ciencia": makeQuestions(5, 0),
	}, store)

	require.NoError(t, f.svc.ResetProgress())

	require.Zero(t, f.store.saved.TotalPoints)
	require.Empty(t, f.store.saved.ClearedCategories)
	require.False(t, f.store.saved.MaouDefeated)
}

func TestResetProgressRejectedMidSession(t *testing.T) {
	f := newGameFixture(t, map[string][]models.Question{
		"Historia": makeQuestions(5, 0),
	}, &fakeProgressStore{})

	require.NoError(t, f.svc.StartSession("Historia"))
	require.ErrorIs(t, f.svc.ResetProgress(), ErrSessionActive)
}

func TestCancelSessionDiscardsWithoutScoring(t *testing.T) {
	f := newGameFixture(t, map[string][]models.Question{
		"Historia": makeQuestions(5, 0),
	}, &fakeProgressStore{})

	require.ErrorIs(t, f.svc.CancelSession(), ErrNoActiveSession)

	require.NoError(t, f.svc.StartSession("Historia"))
	require.NoError(t, f.svc.SubmitAnswer(0))
	savesBefore := f.store.saveCalls
	staleExpire := f.timer.onExpire
	staleTick := f.timer.onTick

	require.NoError(t, f.svc.CancelSession())
	require.Equal(t, models.StateIdle, f.svc.state)
	require.Nil(t, f.svc.session)

	// Ni los callbacks rezagados ni el avance diferido producen nada
	answersBefore := len(f.notifier.answers)
	questionsBefore := len(f.notifier.questions)
	ticksBefore := len(f.notifier.ticks)
	staleExpire()
	staleTick(3)
	f.settle()

	require.Len(t, f.notifier.answers, answersBefore)
	require.Len(t, f.notifier.questions, questionsBefore)
	require.Len(t, f.notifier.ticks, ticksBefore)
	require.Empty(t, f.notifier.ends)
	require.Equal(t, savesBefore, f.store.saveCalls, "cancelar no persiste nada")
}

func TestRestartGameCancelsAndResets(t *testing.T) {
	store := &fakeProgressStore{saved: models.Progress{TotalPoints: 40}}
	f := newGameFixture(t, map[string][]models.Question{
		"Historia": makeQuestions(5, 0),
	}, store)

	require.NoError(t, f.svc.StartSession("Historia"))
	require.NoError(t, f.svc.RestartGame())

	require.Equal(t, models.StateIdle, f.svc.state)
	require.Nil(t, f.svc.session)
	require.Zero(t, f.store.saved.TotalPoints)
}

// --- Persistencia ---

func TestSaveFailureDoesNotKillSession(t *testing.T) {
	store := &fakeProgressStore{}
	f := newGameFixture(t, map[string][]models.Question{
		"Historia": makeQuestions(5, 0),
	}, store)

	require.NoError(t, f.svc.StartSession("Historia"))

	// El primer guardado falla: la puntuación sigue en memoria
	store.failSaves = true
	require.NoError(t, f.svc.SubmitAnswer(0))
	require.Equal(t, 10, f.svc.prog.TotalPoints)
	require.Zero(t, f.store.saved.TotalPoints)
	f.settle()

	// El siguiente punto de persistencia reintenta y recupera todo
	store.failSaves = false
	require.NoError(t, f.svc.SubmitAnswer(0))
	require.Equal(t, 20, f.store.saved.TotalPoints)
}

func TestPointsNeverDecreaseDuringPlay(t *testing.T) {
	f := newGameFixture(t, map[string][]models.Question{
		"Historia": makeQuestions(5, 0),
	}, &fakeProgressStore{})

	require.NoError(t, f.svc.StartSession("Historia"))
	playSession(t, f, 3)

	last := 0
	for _, points := range f.notifier.progress {
		require.GreaterOrEqual(t, points, last)
		last = points
	}
}
