package services

import "errors"

// Errores de precondición y de estado de la máquina de sesiones.
// Ninguno de ellos modifica el estado: el llamador recibe el rechazo
// y la máquina sigue donde estaba.
var (
	// ErrDataUnavailable la fuente de preguntas no está disponible;
	// fatal para el inicio de sesión, nunca se crea una sesión parcial
	ErrDataUnavailable = errors.New("datos del quiz no disponibles")

	// ErrNoQuestions la categoría no existe o no tiene preguntas
	ErrNoQuestions = errors.New("la categoría no tiene preguntas")

	// ErrCategoryTooSmall la categoría tiene menos preguntas de las necesarias
	ErrCategoryTooSmall = errors.New("la categoría no tiene suficientes preguntas")

	// ErrCategoryLocked la categoría ya fue superada y está bloqueada
	ErrCategoryLocked = errors.New("la categoría ya fue superada")

	// ErrNotUnlocked todavía no hay puntos suficientes para desafiar al Maou
	ErrNotUnlocked = errors.New("puntos insuficientes para desafiar al Maou")

	// ErrSessionActive ya hay una sesión en curso
	ErrSessionActive = errors.New("ya hay una sesión en curso")

	// ErrNoActiveSession no hay ninguna sesión en curso
	ErrNoActiveSession = errors.New("no hay sesión en curso")

	// ErrNoActiveQuestion no hay pregunta pendiente de respuesta
	// (respuesta tardía o duplicada: la puntuación no se ve afectada)
	ErrNoActiveQuestion = errors.New("no hay pregunta pendiente de respuesta")
)
