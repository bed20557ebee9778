package web

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okramsen/staffdir/internal/employee"
	"github.com/okramsen/staffdir/internal/logging"
)

// handleCreate adds a new employee. Every field is required; the id is
// assigned by the store.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var f employee.Fields
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !f.Complete() {
		writeError(r.Context(), w, http.StatusBadRequest, "all fields are required")
		return
	}

	created := s.store.Create(f)

	logging.FromContext(r.Context()).Info("employee created", "id", created.ID)
	writeJSON(r.Context(), w, http.StatusCreated, created)
}

// handleList returns the full record set in insertion order.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, s.store.List())
}

// handleGet returns a single employee by id.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	e, err := s.store.Get(id)
	if err != nil {
		writeError(r.Context(), w, http.StatusNotFound, "Employee not found")
		return
	}

	writeJSON(r.Context(), w, http.StatusOK, e)
}

// handleUpdate merges a partial update onto an existing employee.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var p employee.Patch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := s.store.Update(id, p)
	if err != nil {
		writeError(r.Context(), w, http.StatusNotFound, "Employee not found")
		return
	}

	logging.FromContext(r.Context()).Info("employee updated", "id", id)
	writeJSON(r.Context(), w, http.StatusOK, updated)
}

// handleDeleteAll clears the directory. Deleting from an empty directory is
// reported as its own outcome, mirrored as 404 on the wire.
func (s *Server) handleDeleteAll(w http.ResponseWriter, r *http.Request) {
	removed, err := s.store.DeleteAll()
	if err != nil {
		if errors.Is(err, employee.ErrNothingToDelete) {
			writeError(r.Context(), w, http.StatusNotFound, "No employees to delete")
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, err.Error())
		return
	}

	logging.FromContext(r.Context()).Info("all employees deleted", "count", removed)
	writeJSON(r.Context(), w, http.StatusOK, map[string]interface{}{
		"message": "All employees deleted successfully",
		"deleted": removed,
	})
}

// handleCheckEmail reports whether an email address is already in use.
func (s *Server) handleCheckEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "missing email parameter")
		return
	}

	writeJSON(r.Context(), w, http.StatusOK, s.store.EmailExists(email))
}

// exportColumns is the CSV header row for directory exports.
var exportColumns = []string{"id", "firstName", "lastName", "position", "phone", "email"}

// handleExport streams the directory as a CSV download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("employees_%s.csv", timestamp)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(exportColumns); err != nil {
		// Can't change status code after writing, just stop
		return
	}

	for _, e := range s.store.List() {
		record := []string{e.ID, e.FirstName, e.LastName, e.Position, e.Phone, e.Email}
		if err := csvWriter.Write(record); err != nil {
			return
		}
	}

	csvWriter.Flush()
}
