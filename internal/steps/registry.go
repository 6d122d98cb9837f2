package steps

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shaiso/stepflow/internal/telemetry"
)

// Registry — реестр шагов.
//
// Позволяет регистрировать и получать Unit по имени.
// Потокобезопасен.
type Registry struct {
	mu    sync.RWMutex
	units map[string]Unit
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		units: make(map[string]Unit),
	}
}

// Options — параметры стандартных шагов.
type Options struct {
	// Log — базовый журнал шагов. nil — записи только валидируются.
	Log *telemetry.StepLogger

	// MultiplyFactor — множитель шага multiply (default: 5).
	MultiplyFactor int64

	// Draw — источник случайных чисел для generator (default: math/rand/v2).
	Draw DrawFunc
}

// DefaultRegistry создаёт реестр со всеми стандартными шагами.
func DefaultRegistry(opts Options) *Registry {
	log := opts.Log
	if log == nil {
		log = telemetry.DiscardStepLogger("steps")
	}

	r := NewRegistry()

	r.Register(NewGeneratorStep(opts.Draw, log))
	r.Register(NewMultiplyStep(opts.MultiplyFactor, log))
	r.Register(NewSqrtStep(log))
	r.Register(NewExceptionStep(log))
	r.Register(NewLoopbackGetStep(log))

	return r
}

// Register регистрирует шаг в реестре.
// Если шаг с таким именем уже существует, он будет перезаписан.
func (r *Registry) Register(unit Unit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units[unit.Name()] = unit
}

// Get возвращает шаг по имени.
// Возвращает ErrStepNotFound, если шаг не найден.
func (r *Registry) Get(name string) (Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	unit, exists := r.units[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrStepNotFound, name)
	}

	return unit, nil
}

// Has проверяет, зарегистрирован ли шаг.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.units[name]
	return exists
}

// Names возвращает отсортированный список имён шагов.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.units))
	for n := range r.units {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Count возвращает количество зарегистрированных шагов.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.units)
}

// Unregister удаляет шаг из реестра.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.units, name)
}
