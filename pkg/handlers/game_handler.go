package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/backsoul/quest/pkg/models"
	"github.com/backsoul/quest/pkg/services"
	websocketHub "github.com/backsoul/quest/pkg/websocket"
	"github.com/fasthttp/websocket"
	"github.com/valyala/fasthttp"
)

// GameHandler expone los comandos de operador de la máquina de sesiones:
// empezar sesión, responder, saltar, cancelar, reiniciar
type GameHandler struct {
	game *services.GameService
	hub  *websocketHub.Hub
}

func NewGameHandler(game *services.GameService, hub *websocketHub.Hub) *GameHandler {
	return &GameHandler{
		game: game,
		hub:  hub,
	}
}

var upgrader = websocket.FastHTTPUpgrader{
	CheckOrigin: func(ctx *fasthttp.RequestCtx) bool {
		return true // Permitir conexiones desde cualquier origen en desarrollo
	},
}

// HandleWebSocket maneja las conexiones WebSocket de la presentación
func (gh *GameHandler) HandleWebSocket(ctx *fasthttp.RequestCtx) {
	err := upgrader.Upgrade(ctx, func(ws *websocket.Conn) {
		defer ws.Close()

		gh.hub.Register(ws)
		defer gh.hub.Unregister(ws)

		// Enviar el estado actual del juego al conectarse
		message := websocketHub.Message{
			Type: "gameState",
			Data: gh.game.Snapshot(),
		}
		data, _ := json.Marshal(message)
		ws.WriteMessage(websocket.TextMessage, data)

		// Escuchar mensajes del cliente hasta que cierre
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}
	})

	if err != nil {
		log.Printf("Error upgrading to WebSocket: %v", err)
		ctx.Error("Error upgrading to WebSocket", fasthttp.StatusInternalServerError)
	}
}

// StartSession maneja POST /api/game/start
func (gh *GameHandler) StartSession(ctx *fasthttp.RequestCtx) {
	var request struct {
		Category string `json:"category"`
	}

	if err := json.Unmarshal(ctx.PostBody(), &request); err != nil {
		gh.respondWithError(ctx, fasthttp.StatusBadRequest, "JSON inválido")
		return
	}

	if request.Category == "" {
		gh.respondWithError(ctx, fasthttp.StatusBadRequest, "Categoría es requerida")
		return
	}

	if err := gh.game.StartSession(request.Category); err != nil {
		gh.respondWithError(ctx, statusForError(err), fmt.Sprintf("No se pudo iniciar la sesión: %v", err))
		return
	}

	gh.respondWithSuccess(ctx, gh.game.Snapshot(), fmt.Sprintf("Sesión iniciada para la categoría %s", request.Category))
}

// SubmitAnswer maneja POST /api/game/answer
func (gh *GameHandler) SubmitAnswer(ctx *fasthttp.RequestCtx) {
	var request struct {
		Option int `json:"option"`
	}

	if err := json.Unmarshal(ctx.PostBody(), &request); err != nil {
		gh.respondWithError(ctx, fasthttp.StatusBadRequest, "JSON inválido")
		return
	}

	if err := gh.game.SubmitAnswer(request.Option); err != nil {
		gh.respondWithError(ctx, statusForError(err), fmt.Sprintf("Respuesta rechazada: %v", err))
		return
	}

	gh.respondWithSuccess(ctx, gh.game.Snapshot(), "Respuesta procesada")
}

// SkipQuestion maneja POST /api/game/skip
func (gh *GameHandler) SkipQuestion(ctx *fasthttp.RequestCtx) {
	if err := gh.game.SkipQuestion(); err != nil {
		gh.respondWithError(ctx, statusForError(err), fmt.Sprintf("No se pudo saltar la pregunta: %v", err))
		return
	}

	gh.respondWithSuccess(ctx, gh.game.Snapshot(), "Pregunta saltada")
}

// CancelSession maneja POST /api/game/cancel
func (gh *GameHandler) CancelSession(ctx *fasthttp.RequestCtx) {
	if err := gh.game.CancelSession(); err != nil {
		gh.respondWithError(ctx, statusForError(err), fmt.Sprintf("No se pudo cancelar: %v", err))
		return
	}

	gh.respondWithSuccess(ctx, gh.game.Snapshot(), "Sesión cancelada")
}

// ReturnToMain maneja POST /api/game/back
func (gh *GameHandler) ReturnToMain(ctx *fasthttp.RequestCtx) {
	if err := gh.game.ReturnToMain(); err != nil {
		gh.respondWithError(ctx, statusForError(err), fmt.Sprintf("No se pudo volver al menú: %v", err))
		return
	}

	gh.respondWithSuccess(ctx, gh.game.Snapshot(), "De vuelta en la pantalla principal")
}

// ResetProgress maneja POST /api/game/reset
func (gh *GameHandler) ResetProgress(ctx *fasthttp.RequestCtx) {
	if err := gh.game.ResetProgress(); err != nil {
		gh.respondWithError(ctx, statusForError(err), fmt.Sprintf("No se pudo reiniciar el progreso: %v", err))
		return
	}

	gh.respondWithSuccess(ctx, gh.game.Snapshot(), "Progreso reiniciado")
}

// RestartGame maneja POST /api/game/restart
func (gh *GameHandler) RestartGame(ctx *fasthttp.RequestCtx) {
	if err := gh.game.RestartGame(); err != nil {
		gh.respondWithError(ctx, fasthttp.StatusInternalServerError, fmt.Sprintf("No se pudo reiniciar la partida: %v", err))
		return
	}

	gh.respondWithSuccess(ctx, gh.game.Snapshot(), "Partida reiniciada")
}

// GetGameState maneja GET /api/game/state
func (gh *GameHandler) GetGameState(ctx *fasthttp.RequestCtx) {
	gh.respondWithSuccess(ctx, gh.game.Snapshot(), "Estado del juego obtenido exitosamente")
}

// statusForError traduce los errores de precondición a códigos HTTP
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrDataUnavailable):
		return fasthttp.StatusServiceUnavailable
	case errors.Is(err, services.ErrNoQuestions),
		errors.Is(err, services.ErrCategoryTooSmall),
		errors.Is(err, services.ErrCategoryLocked),
		errors.Is(err, services.ErrNotUnlocked):
		return fasthttp.StatusBadRequest
	case errors.Is(err, services.ErrSessionActive),
		errors.Is(err, services.ErrNoActiveSession),
		errors.Is(err, services.ErrNoActiveQuestion):
		return fasthttp.StatusConflict
	default:
		return fasthttp.StatusInternalServerError
	}
}

// Métodos auxiliares para respuestas HTTP
func (gh *GameHandler) respondWithJSON(ctx *fasthttp.RequestCtx, statusCode int, response interface{}) {
	ctx.Response.Header.Set("Content-Type", "application/json")
	ctx.SetStatusCode(statusCode)

	jsonData, err := json.Marshal(response)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString(`{"success": false, "error": "Error al serializar respuesta"}`)
		return
	}

	ctx.SetBody(jsonData)
}

func (gh *GameHandler) respondWithError(ctx *fasthttp.RequestCtx, statusCode int, message string) {
	response := models.APIResponse{
		Success: false,
		Error:   message,
	}
	gh.respondWithJSON(ctx, statusCode, response)
}

func (gh *GameHandler) respondWithSuccess(ctx *fasthttp.RequestCtx, data interface{}, message string) {
	response := models.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
	gh.respondWithJSON(ctx, fasthttp.StatusOK, response)
}
