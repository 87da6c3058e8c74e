// Пакет editor — контроллеры редакторов Compose Suite.
//
// Каждая открытая сессия редактора проходит через конечный автомат:
//
//	editing → name_prompt → editing          (cancel)
//	editing → name_prompt → persisted        (confirm, цель persist; сессия закрыта)
//	editing → name_prompt → exported → editing (confirm, цель export)
//
// Правки содержимого допустимы только в editing и меняют рабочую копию;
// в реестр содержимое попадает лишь при явном сохранении.
package editor

import (
	"fmt"
	"sync"
	"time"
)

// State — состояние сессии редактора.
type State string

const (
	// StateEditing — рабочий режим, правки разрешены
	StateEditing State = "editing"
	// StateNamePrompt — открыт диалог имени перед сохранением
	StateNamePrompt State = "name_prompt"
	// StatePersisted — файл сохранён в реестр, сессия закрыта
	StatePersisted State = "persisted"
	// StateExported — артефакт выгружен, сессия сразу возвращается в editing
	StateExported State = "exported"
)

// Target — цель сохранения.
type Target string

const (
	// TargetPersist — сохранение в реестр файлов
	TargetPersist Target = "persist"
	// TargetExport — выгрузка файла через конвейер экспорта
	TargetExport Target = "export"
)

// Коды ошибок переходов.
const (
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeSessionClosed     = "SESSION_CLOSED"
)

// TransitionRecord — запись о переходе между состояниями.
type TransitionRecord struct {
	From      State     `json:"from"`
	To        State     `json:"to"`
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
}

// StateMachine — конечный автомат сессии редактора.
type StateMachine struct {
	mu      sync.RWMutex
	current State
	history []TransitionRecord
}

// validTransitions — матрица допустимых переходов.
var validTransitions = map[State]map[State]bool{
	StateEditing:    {StateNamePrompt: true},
	StateNamePrompt: {StateEditing: true, StatePersisted: true, StateExported: true},
	StateExported:   {StateEditing: true},
	StatePersisted:  {}, // Конечное состояние
}

// NewStateMachine создаёт автомат в состоянии editing.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StateEditing,
		history: make([]TransitionRecord, 0),
	}
}

// Current возвращает текущее состояние.
func (sm *StateMachine) Current() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.current
}

// CanTransitionTo проверяет, допустим ли переход.
func (sm *StateMachine) CanTransitionTo(target State) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return validTransitions[sm.current][target]
}

// TransitionTo выполняет переход. event — имя события для истории.
//
// Ошибки:
//   - SESSION_CLOSED — сессия уже в persisted
//   - INVALID_TRANSITION — переход недопустим
func (sm *StateMachine) TransitionTo(target State, event string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.current == StatePersisted {
		return &TransitionError{
			Code:    CodeSessionClosed,
			Message: "сессия редактора уже закрыта сохранением",
		}
	}

	if !validTransitions[sm.current][target] {
		return &TransitionError{
			Code:    CodeInvalidTransition,
			Message: fmt.Sprintf("%s: переход %s → %s недопустим", event, sm.current, target),
		}
	}

	sm.history = append(sm.history, TransitionRecord{
		From:      sm.current,
		To:        target,
		Event:     event,
		Timestamp: time.Now().UTC(),
	})
	sm.current = target

	return nil
}

// History возвращает историю переходов (копия).
func (sm *StateMachine) History() []TransitionRecord {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	result := make([]TransitionRecord, len(sm.history))
	copy(result, sm.history)
	return result
}

// TransitionError — ошибка перехода между состояниями.
type TransitionError struct {
	Code    string // Машиночитаемый код (INVALID_TRANSITION, SESSION_CLOSED)
	Message string // Человекочитаемое описание
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ParseTarget преобразует строку в Target.
func ParseTarget(s string) (Target, error) {
	switch t := Target(s); t {
	case TargetPersist, TargetExport:
		return t, nil
	default:
		return "", fmt.Errorf("недопустимая цель сохранения: %q, допустимые: persist, export", s)
	}
}
