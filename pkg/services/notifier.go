package services

import "github.com/backsoul/quest/pkg/models"

// Notifier superficie de notificación hacia la capa de presentación.
// La máquina de sesiones nunca toca la presentación directamente:
// solo emite estos eventos.
type Notifier interface {
	ScreenChanged(screen models.Screen)
	QuestionShown(prompt string, options []string, number, secondsLeft int)
	TimerTick(secondsLeft int)
	AnswerResult(chosen, correct int)
	SessionEnded(outcome models.Outcome, finalPoints, correctCount int)
	ProgressChanged(points int, clearedCategories []string)
}

// SessionTimer cuenta atrás de la pregunta actual. Start sobre una cuenta
// activa cancela la anterior; Cancel garantiza, junto con las guardas de
// la máquina, que no llegan expiraciones de cuentas muertas.
type SessionTimer interface {
	Start(seconds int, onTick func(remaining int), onExpire func())
	Cancel()
}
