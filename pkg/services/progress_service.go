package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/backsoul/quest/pkg/models"
	"github.com/backsoul/quest/pkg/redis"
)

// Claves del progreso persistente
const (
	keyTotalPoints       = "quiz:total_points"
	keyClearedCategories = "quiz:cleared_categories"
	keyMaouDefeated      = "quiz:maou_defeated"
)

// KeyValueStore almacenamiento clave-valor usado por el progreso.
// Lo implementa el cliente Redis; los tests usan una versión en memoria.
type KeyValueStore interface {
	Get(key string) (string, error)
	Set(key, value string, expiration time.Duration) error
}

// ProgressStore contrato del almacén de progreso persistente.
// Load nunca falla por "no existe": devuelve un progreso a cero.
// Save sobrescribe el registro completo.
type ProgressStore interface {
	Load() (models.Progress, error)
	Save(progress models.Progress) error
}

// ProgressService guarda el progreso acumulado (puntos, categorías
// superadas y estado del Maou) en el almacén clave-valor.
type ProgressService struct {
	store KeyValueStore
}

// NewProgressService crea una nueva instancia del servicio de progreso
func NewProgressService(store KeyValueStore) *ProgressService {
	return &ProgressService{store: store}
}

// Load carga el progreso guardado. Las claves ausentes valen cero.
func (s *ProgressService) Load() (models.Progress, error) {
	var progress models.Progress

	pointsStr, err := s.store.Get(keyTotalPoints)
	switch {
	case err == nil:
		points, convErr := strconv.Atoi(pointsStr)
		if convErr != nil {
			return progress, fmt.Errorf("puntos guardados inválidos: %v", convErr)
		}
		progress.TotalPoints = points
	case errors.Is(err, redis.ErrNotFound):
		// sin registro previo: empezar de cero
	default:
		return progress, fmt.Errorf("error cargando puntos: %v", err)
	}

	clearedStr, err := s.store.Get(keyClearedCategories)
	switch {
	case err == nil:
		if convErr := json.Unmarshal([]byte(clearedStr), &progress.ClearedCategories); convErr != nil {
			return progress, fmt.Errorf("categorías superadas inválidas: %v", convErr)
		}
	case errors.Is(err, redis.ErrNotFound):
	default:
		return progress, fmt.Errorf("error cargando categorías superadas: %v", err)
	}

	defeatedStr, err := s.store.Get(keyMaouDefeated)
	switch {
	case err == nil:
		progress.MaouDefeated = defeatedStr == "true"
	case errors.Is(err, redis.ErrNotFound):
	default:
		return progress, fmt.Errorf("error cargando estado del Maou: %v", err)
	}

	return progress, nil
}

// Save sobrescribe el registro completo del progreso
func (s *ProgressService) Save(progress models.Progress) error {
	if err := s.store.Set(keyTotalPoints, strconv.Itoa(progress.TotalPoints), 0); err != nil {
		return fmt.Errorf("error guardando puntos: %v", err)
	}

	cleared := progress.ClearedCategories
	if cleared == nil {
		cleared = []string{}
	}
	clearedJSON, err := json.Marshal(cleared)
	if err != nil {
		return fmt.Errorf("error serializando categorías superadas: %v", err)
	}
	if err := s.store.Set(keyClearedCategories, string(clearedJSON), 0); err != nil {
		return fmt.Errorf("error guardando categorías superadas: %v", err)
	}

	if err := s.store.Set(keyMaouDefeated, strconv.FormatBool(progress.MaouDefeated), 0); err != nil {
		return fmt.Errorf("error guardando estado del Maou: %v", err)
	}

	return nil
}
