package websocket

import (
	"github.com/backsoul/quest/pkg/models"
)

// HubNotifier implementa services.Notifier reenviando cada evento de la
// máquina de sesiones como un mensaje tipado a los clientes WebSocket
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) ScreenChanged(screen models.Screen) {
	n.hub.BroadcastMessage("screenChange", map[string]interface{}{
		"screen": screen,
	})
}

func (n *HubNotifier) QuestionShown(prompt string, options []string, number, secondsLeft int) {
	n.hub.BroadcastMessage("question", map[string]interface{}{
		"question": prompt,
		"options":  options,
		"number":   number,
		"timeLeft": secondsLeft,
	})
}

func (n *HubNotifier) TimerTick(secondsLeft int) {
	n.hub.BroadcastMessage("timerTick", map[string]interface{}{
		"timeLeft": secondsLeft,
	})
}

func (n *HubNotifier) AnswerResult(chosen, correct int) {
	n.hub.BroadcastMessage("answerResult", map[string]interface{}{
		"selectedOption": chosen,
		"correctOption":  correct,
		"isCorrect":      chosen == correct,
	})
}

func (n *HubNotifier) SessionEnded(outcome models.Outcome, finalPoints, correctCount int) {
	n.hub.BroadcastMessage("quizEnd", map[string]interface{}{
		"outcome":        outcome,
		"finalScore":     finalPoints,
		"correctAnswers": correctCount,
	})
}

func (n *HubNotifier) ProgressChanged(points int, clearedCategories []string) {
	n.hub.BroadcastMessage("progress", map[string]interface{}{
		"totalPoints":       points,
		"clearedCategories": clearedCategories,
	})
}
