package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/backsoul/quest/pkg/models"
	"github.com/backsoul/quest/pkg/redis"
	"github.com/backsoul/quest/pkg/services"
	"github.com/valyala/fasthttp"
)

// QuestionHandler maneja las peticiones HTTP del banco de preguntas
// y del progreso del jugador
type QuestionHandler struct {
	questionService *services.QuestionService
	game            *services.GameService
	redisClient     *redis.RedisClient
	quizDataFile    string
}

func NewQuestionHandler(questionService *services.QuestionService, game *services.GameService, redisClient *redis.RedisClient, quizDataFile string) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		game:            game,
		redisClient:     redisClient,
		quizDataFile:    quizDataFile,
	}
}

// GetCategories maneja GET /api/categories
func (h *QuestionHandler) GetCategories(ctx *fasthttp.RequestCtx) {
	if !h.questionService.Loaded() {
		h.respondWithError(ctx, fasthttp.StatusServiceUnavailable, "Banco de preguntas no disponible")
		return
	}

	progress := h.game.Progress()
	config := h.game.Config()

	var categories []models.CategoryInfo
	for _, name := range h.questionService.Categories() {
		count := h.questionService.Count(name)
		isMaou := name == config.MaouCategory

		info := models.CategoryInfo{
			Name:          name,
			QuestionCount: count,
			Cleared:       progress.IsCleared(name),
			IsMaou:        isMaou,
		}
		if isMaou {
			info.Playable = progress.TotalPoints >= config.MaouUnlockPoints
		} else {
			info.Playable = !info.Cleared && count >= config.QuestionsPerSession
		}
		categories = append(categories, info)
	}

	// Mensaje de la pantalla principal, como en el juego original
	message := "¡Puedes desafiar al Maou!"
	if remaining := config.MaouUnlockPoints - progress.TotalPoints; remaining > 0 {
		message = fmt.Sprintf("¡Te faltan %d puntos para desafiar al Maou!", remaining)
	}

	h.respondWithSuccess(ctx, map[string]interface{}{
		"categories":  categories,
		"totalPoints": progress.TotalPoints,
		"message":     message,
	}, fmt.Sprintf("%d categorías obtenidas", len(categories)))
}

// GetProgress maneja GET /api/progress
func (h *QuestionHandler) GetProgress(ctx *fasthttp.RequestCtx) {
	h.respondWithSuccess(ctx, h.game.Progress(), "Progreso obtenido exitosamente")
}

// ReloadQuestions maneja POST /api/questions/reload
func (h *QuestionHandler) ReloadQuestions(ctx *fasthttp.RequestCtx) {
	if err := h.questionService.LoadFromFile(h.quizDataFile); err != nil {
		h.respondWithError(ctx, fasthttp.StatusInternalServerError, fmt.Sprintf("Error recargando preguntas: %v", err))
		return
	}

	h.respondWithSuccess(ctx, nil, "Preguntas recargadas exitosamente")
}

// HealthCheck maneja GET /api/health
func (h *QuestionHandler) HealthCheck(ctx *fasthttp.RequestCtx) {
	if err := h.redisClient.HealthCheck(); err != nil {
		h.respondWithError(ctx, fasthttp.StatusServiceUnavailable, fmt.Sprintf("Servicio no disponible: %v", err))
		return
	}

	questionsStatus := "loaded"
	if !h.questionService.Loaded() {
		questionsStatus = "missing"
	}

	h.respondWithSuccess(ctx, map[string]interface{}{
		"status":    "healthy",
		"redis":     "connected",
		"questions": questionsStatus,
	}, "Servicio funcionando correctamente")
}

// Métodos auxiliares para respuestas HTTP
func (h *QuestionHandler) respondWithJSON(ctx *fasthttp.RequestCtx, statusCode int, response interface{}) {
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

func (h *QuestionHandler) respondWithError(ctx *fasthttp.RequestCtx, statusCode int, message string) {
	response := models.APIResponse{
		Success: false,
		Error:   message,
	}
	h.respondWithJSON(ctx, statusCode, response)
}

func (h *QuestionHandler) respondWithSuccess(ctx *fasthttp.RequestCtx, data interface{}, message string) {
	response := models.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
	h.respondWithJSON(ctx, fasthttp.StatusOK, response)
}
