package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/iwvelando/consultorio/internal/records"
	"github.com/iwvelando/consultorio/pkg/validation"
)

// indexedVisit exposes a visit together with the position used to edit it.
type indexedVisit struct {
	Index int `json:"indice"`
	records.Visit
}

type activeRequest struct {
	Active *bool `json:"activo"`
}

func pathInt(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", validation.ErrInvalidInput, name, raw)
	}
	return n, nil
}

func (h *handler) handleListVisits(w http.ResponseWriter, r *http.Request) {
	doc := h.session(r).Records.Snapshot()
	out := make([]indexedVisit, 0, len(doc.Visits))
	for i, v := range doc.Visits {
		out = append(out, indexedVisit{Index: i, Visit: v})
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *handler) handleAddVisit(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAddVisit"

	var v records.Visit
	if err := decodeJSON(r, &v); err != nil {
		h.respondErr(w, err, op)
		return
	}
	saved, err := h.session(r).Records.AddVisit(v)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.metrics.visits.WithLabelValues("api").Inc()
	h.writeJSON(w, http.StatusCreated, saved)
}

func (h *handler) handleUpdateVisit(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpdateVisit"

	index, err := pathInt(r, "index")
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	var v records.Visit
	if err := decodeJSON(r, &v); err != nil {
		h.respondErr(w, err, op)
		return
	}
	saved, err := h.session(r).Records.UpdateVisit(index, v)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, indexedVisit{Index: index, Visit: saved})
}

func (h *handler) handleDeleteVisit(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDeleteVisit"

	index, err := pathInt(r, "index")
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	if err := h.session(r).Records.DeleteVisit(index); err != nil {
		h.respondErr(w, err, op)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleDeleteAllVisits(w http.ResponseWriter, r *http.Request) {
	removed, err := h.session(r).Records.DeleteAllVisits()
	if err != nil {
		h.respondErr(w, err, "server.handleDeleteAllVisits")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"eliminadas": removed})
}

func (h *handler) handleListEquipment(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.session(r).Records.Snapshot().Equipment)
}

func (h *handler) handleAddEquipment(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAddEquipment"

	var e records.Equipment
	if err := decodeJSON(r, &e); err != nil {
		h.respondErr(w, err, op)
		return
	}
	saved, err := h.session(r).Records.AddEquipment(e)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusCreated, saved)
}

func (h *handler) handleDeleteEquipment(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDeleteEquipment"

	id, err := pathInt(r, "id")
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	if err := h.session(r).Records.DeleteEquipment(id); err != nil {
		h.respondErr(w, err, op)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleSetEquipmentActive(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSetEquipmentActive"

	id, active, err := h.activeToggle(r)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	if err := h.session(r).Records.SetEquipmentActive(id, active); err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "activo": active})
}

func (h *handler) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.session(r).Records.Snapshot().FixedExpenses)
}

func (h *handler) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAddExpense"

	var f records.FixedExpense
	if err := decodeJSON(r, &f); err != nil {
		h.respondErr(w, err, op)
		return
	}
	saved, err := h.session(r).Records.AddFixedExpense(f)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusCreated, saved)
}

func (h *handler) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDeleteExpense"

	id, err := pathInt(r, "id")
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	if err := h.session(r).Records.DeleteFixedExpense(id); err != nil {
		h.respondErr(w, err, op)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleSetExpenseActive(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSetExpenseActive"

	id, active, err := h.activeToggle(r)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	if err := h.session(r).Records.SetFixedExpenseActive(id, active); err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "activo": active})
}

func (h *handler) activeToggle(r *http.Request) (int, bool, error) {
	id, err := pathInt(r, "id")
	if err != nil {
		return 0, false, err
	}
	var req activeRequest
	if err := decodeJSON(r, &req); err != nil {
		return 0, false, err
	}
	if req.Active == nil {
		return 0, false, fmt.Errorf("%w: activo is required", validation.ErrInvalidInput)
	}
	return id, *req.Active, nil
}

func (h *handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.session(r).Records.Settings())
}

// handleUpdateSettings applies a partial update: fields missing from the
// body keep their current values.
func (h *handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpdateSettings"

	store := h.session(r).Records
	settings := store.Settings()
	if err := decodeJSON(r, &settings); err != nil {
		h.respondErr(w, err, op)
		return
	}
	if err := store.UpdateSettings(settings); err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, settings)
}
