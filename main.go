package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/backsoul/quest/pkg/handlers"
	"github.com/backsoul/quest/pkg/redis"
	"github.com/backsoul/quest/pkg/services"
	"github.com/backsoul/quest/pkg/timer"
	"github.com/backsoul/quest/pkg/websocket"
	"github.com/valyala/fasthttp"
)

var (
	redisClient     *redis.RedisClient
	questionService *services.QuestionService
	progressService *services.ProgressService
	gameService     *services.GameService
	questionHandler *handlers.QuestionHandler
	gameHandler     *handlers.GameHandler
	hub             *websocket.Hub
	quizDataFile    string
)

func main() {
	log.Println("🚀 Iniciando servidor del Quiz del Maou")
	initRedis()

	// Inicializar servicios y cargar preguntas
	initServices()

	// Configurar el servidor
	server := &fasthttp.Server{
		Handler: requestHandler,
		Name:    "Quest Quiz Server",
	}

	listenAddr := getEnv("LISTEN_ADDR", ":8080")
	log.Println("🎮 Servidor del Quiz del Maou iniciado")
	log.Printf("📱 Juego principal: http://localhost%s", listenAddr)
	log.Printf("🔧 API Health: http://localhost%s/api/health", listenAddr)
	log.Println("🔄 Presiona Ctrl+C para detener el servidor")

	if err := server.ListenAndServe(listenAddr); err != nil {
		log.Fatalf("Error al iniciar el servidor: %v", err)
	}
}

func initRedis() {
	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	redisPassword := getEnv("REDIS_PASSWORD", "")
	redisDB := 0

	log.Printf("🔌 Conectando a Redis en %s...", redisAddr)
	redisClient = redis.NewRedisClient(redisAddr, redisPassword, redisDB)
}

func initServices() {
	log.Println("⚙️  Inicializando servicios...")

	// Banco de preguntas: documento estático cargado una vez por proceso
	quizDataFile = getEnv("QUIZ_DATA_FILE", "quizData.json")
	questionService = services.NewQuestionService()
	if err := questionService.LoadFromFile(quizDataFile); err != nil {
		log.Printf("⚠️ Error cargando preguntas iniciales: %v", err)
		log.Println("💡 El servidor continuará funcionando. Puedes cargar preguntas usando POST /api/questions/reload")
	}

	// Progreso persistente en Redis
	progressService = services.NewProgressService(redisClient)

	// Hub de WebSocket hacia la presentación
	hub = websocket.NewHub()
	go hub.Run()

	// Máquina de sesiones
	var err error
	gameService, err = services.NewGameService(
		questionService,
		progressService,
		websocket.NewHubNotifier(hub),
		timer.NewCountdown(),
		services.DefaultGameConfig(),
	)
	if err != nil {
		log.Fatalf("❌ Error cargando el progreso guardado: %v", err)
	}

	// Inicializar handlers
	questionHandler = handlers.NewQuestionHandler(questionService, gameService, redisClient, quizDataFile)
	gameHandler = handlers.NewGameHandler(gameService, hub)
}

func requestHandler(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	method := string(ctx.Method())

	log.Printf("📡 %s %s", method, path)

	ctx.Response.Header.Set("Server", "Quest-FastHTTP/1.0")
	ctx.Response.Header.Set("Cache-Control", "no-cache")

	// Headers CORS para desarrollo
	ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
	ctx.Response.Header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	ctx.Response.Header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	// Manejar preflight requests
	if method == "OPTIONS" {
		ctx.SetStatusCode(fasthttp.StatusOK)
		return
	}

	switch {
	// Página principal
	case path == "/":
		serveFile(ctx, "index.html")
	case path == "/favicon.ico":
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		ctx.SetBodyString("🎮")

	// API Routes - Health y banco de preguntas
	case path == "/api/health":
		questionHandler.HealthCheck(ctx)
	case path == "/api/categories" && method == "GET":
		questionHandler.GetCategories(ctx)
	case path == "/api/progress" && method == "GET":
		questionHandler.GetProgress(ctx)
	case path == "/api/questions/reload" && method == "POST":
		questionHandler.ReloadQuestions(ctx)

	// API Routes - Comandos de la máquina de sesiones
	case path == "/api/game/state" && method == "GET":
		gameHandler.GetGameState(ctx)
	case path == "/api/game/start" && method == "POST":
		gameHandler.StartSession(ctx)
	case path == "/api/game/answer" && method == "POST":
		gameHandler.SubmitAnswer(ctx)
	case path == "/api/game/skip" && method == "POST":
		gameHandler.SkipQuestion(ctx)
	case path == "/api/game/cancel" && method == "POST":
		gameHandler.CancelSession(ctx)
	case path == "/api/game/back" && method == "POST":
		gameHandler.ReturnToMain(ctx)
	case path == "/api/game/reset" && method == "POST":
		gameHandler.ResetProgress(ctx)
	case path == "/api/game/restart" && method == "POST":
		gameHandler.RestartGame(ctx)

	// WebSocket Route
	case path == "/ws":
		gameHandler.HandleWebSocket(ctx)

	default:
		serve404(ctx)
	}
}

func serveFile(ctx *fasthttp.RequestCtx, filename string) {
	filePath := filepath.Join(".", filename)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		ctx.SetContentType("text/html; charset=utf-8")
		ctx.SetBodyString(`
			<!DOCTYPE html>
			<html>
			<head><title>Archivo no encontrado</title></head>
			<body>
				<h1>⚠️ Archivo no encontrado</h1>
				<p>El archivo <strong>` + filename + `</strong> no existe en el servidor.</p>
			</body>
			</html>
		`)
		return
	}

	if filepath.Ext(filename) == ".html" {
		ctx.SetContentType("text/html; charset=utf-8")
	}

	fasthttp.ServeFile(ctx, filePath)
}

func serve404(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(fasthttp.StatusNotFound)
	ctx.SetContentType("text/html; charset=utf-8")
	ctx.SetBodyString(`
		<!DOCTYPE html>
		<html>
		<head><title>404 - Página no encontrada</title></head>
		<body>
			<h1>🎮 404 - Página no encontrada</h1>
			<p>La página que buscas no existe en este servidor.</p>
			<div class="api-info">
				<h3>🔧 Endpoints API disponibles:</h3>
				<div class="endpoint">GET /api/health</div>
				<div class="endpoint">GET /api/categories</div>
				<div class="endpoint">GET /api/progress</div>
				<div class="endpoint">GET /api/game/state</div>
				<div class="endpoint">POST /api/game/start</div>
				<div class="endpoint">POST /api/game/answer</div>
				<div class="endpoint">POST /api/game/skip</div>
				<div class="endpoint">POST /api/game/cancel</div>
				<div class="endpoint">POST /api/game/back</div>
				<div class="endpoint">POST /api/game/reset</div>
				<div class="endpoint">POST /api/game/restart</div>
				<div class="endpoint">POST /api/questions/reload</div>
			</div>
		</body>
		</html>
	`)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
