package timer

import (
	"sync"
	"time"
)

// Countdown temporizador de cuenta atrás para la pregunta actual.
// Llama a onTick una vez por segundo desde duration-1 hasta 0 y después
// a onExpire exactamente una vez. Start sobre un temporizador activo
// cancela el anterior: nunca hay dos cuentas atrás a la vez.
type Countdown struct {
	mu       sync.Mutex
	interval time.Duration
	stop     chan struct{}
}

// NewCountdown crea un temporizador con el intervalo estándar de un segundo
func NewCountdown() *Countdown {
	return NewCountdownWithInterval(time.Second)
}

// NewCountdownWithInterval permite ajustar el intervalo entre ticks
func NewCountdownWithInterval(interval time.Duration) *Countdown {
	return &Countdown{interval: interval}
}

// Start inicia una cuenta atrás de seconds segundos
func (c *Countdown) Start(seconds int, onTick func(remaining int), onExpire func()) {
	c.mu.Lock()
	if c.stop != nil {
		close(c.stop)
	}
	stop := make(chan struct{})
	c.stop = stop
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		remaining := seconds
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				// Si se canceló justo mientras llegaba el tick, no notificar
				select {
				case <-stop:
					return
				default:
				}

				remaining--
				if onTick != nil {
					onTick(remaining)
				}
				if remaining <= 0 {
					if onExpire != nil {
						onExpire()
					}
					return
				}
			}
		}
	}()
}

// Cancel detiene la cuenta atrás activa, si la hay
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}
