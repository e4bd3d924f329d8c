package app

import (
	"github.com/jsamuelsen/verse-service/internal/domain"
)

// EditStatus is the state of an edit session.
type EditStatus string

const (
	EditIdle    EditStatus = "idle"
	EditEditing EditStatus = "editing"
)

// EditSession describes the edit form of one variant.
type EditSession struct {
	Variant domain.Variant
	Status  EditStatus

	// ID is the item being edited; zero when idle.
	ID int64
}

// Editing reports whether the session targets id.
func (s EditSession) Editing(id int64) bool {
	return s.Status == EditEditing && s.ID == id
}

// editSessions holds at most one active session per variant. Not safe for
// concurrent use; the orchestrator guards it.
type editSessions struct {
	active map[domain.Variant]int64
}

func newEditSessions() *editSessions {
	return &editSessions{active: make(map[domain.Variant]int64, len(domain.Variants))}
}

func (e *editSessions) get(v domain.Variant) EditSession {
	id, ok := e.active[v]
	if !ok {
		return EditSession{Variant: v, Status: EditIdle}
	}

	return EditSession{Variant: v, Status: EditEditing, ID: id}
}

func (e *editSessions) begin(v domain.Variant, id int64) {
	e.active[v] = id
}

func (e *editSessions) reset(v domain.Variant) {
	delete(e.active, v)
}

// forget resets the variant's session if it targets id.
func (e *editSessions) forget(v domain.Variant, id int64) bool {
	if cur, ok := e.active[v]; ok && cur == id {
		delete(e.active, v)
		return true
	}

	return false
}

func (e *editSessions) clear() {
	clear(e.active)
}
