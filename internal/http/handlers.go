package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"notaspese/internal/core"
	applog "notaspese/internal/log"
	"notaspese/internal/middleware/security"
	"notaspese/internal/services"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// handleReady reports templates and every registered dependency check.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	for name, check := range s.readyChecks {
		if err := check(r.Context()); err != nil {
			checks[name] = "failed: " + err.Error()
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		} else {
			checks[name] = "ok"
		}
	}

	stats := make(map[string]any, len(s.readyStats))
	for name, stat := range s.readyStats {
		v, err := stat(r.Context())
		if err != nil {
			checks[name] = "failed: " + err.Error()
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
		stats[name] = v
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":         status,
		"timestamp":      time.Now().Format(time.RFC3339),
		"checks":         checks,
		"requests":       s.trace.Requests(),
		"rate_limited":   s.rateLimiter.Rejected(),
		"active_clients": s.rateLimiter.ActiveClients(),
		"stats":          stats,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded",
			applog.FieldPath, r.URL.Path,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		InternalServerError("templates not loaded").Write(w)
		return
	}

	data := struct {
		Today         string
		PhotosEnabled bool
		Categories    []core.Category
		Ledger        ledgerView
	}{
		Today:         core.Today().ISO(),
		PhotosEnabled: s.photosEnabled,
		Categories:    core.Categories(),
		Ledger:        newLedgerView(s.ledger.Snapshot()),
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Index template execution failed",
			applog.FieldError, err, "template", "index.html")
		InternalServerError("Errore di rendering").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleLedgerPartial(w http.ResponseWriter, r *http.Request) {
	s.writeLedger(w, r, NewHTMXResponse(), s.ledger.Snapshot())
}

// writeLedger renders the ledger partial into b and sends it.
func (s *Server) writeLedger(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, snap services.Snapshot) {
	if s.templates == nil {
		InternalServerError("templates not loaded").Write(w)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "ledger", newLedgerView(snap)); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Ledger template execution failed",
			applog.FieldError, err, "template", "ledger")
		InternalServerError("Errore di rendering").Write(w)
		return
	}
	b.BodyHTML(buf.String()).Write(w)
}

// afterMutation sends the fresh ledger to HTMX clients and redirects plain
// form posts back to the page.
func (s *Server) afterMutation(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, snap services.Snapshot) {
	if !isHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	b.TriggerLedgerChanged(len(snap.Entries), snap.Total.Display())
	s.writeLedger(w, r, b, snap)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	in, err := ParseExpenseForm(w, r)
	if err != nil {
		s.writeFailure(w, r, applog.OpParse, err)
		return
	}

	e, err := s.ledger.AddExpense(r.Context(), in)
	if err != nil {
		s.writeFailure(w, r, applog.OpAdd, err)
		return
	}

	snap := s.ledger.Snapshot()
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogEntryAdded(r.Context(), len(snap.Entries)-1, e.Description, e.Amount.Cents, e.Category.Key(), e.HasPhoto())

	b := NewHTMXResponse().
		TriggerFormReset().
		TriggerSuccessNotification(fmt.Sprintf("Spesa registrata: %s, %s", e.Description, e.Amount.Display()))
	s.afterMutation(w, r, b, snap)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	index, err := ParseIndex(r)
	if err != nil {
		s.writeFailure(w, r, applog.OpRemove, err)
		return
	}

	e, err := s.ledger.RemoveExpense(r.Context(), index)
	if err != nil {
		s.writeFailure(w, r, applog.OpRemove, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Entry removed",
		applog.NewFields().
			WithEntry(index, e.Description, e.Amount.Cents, e.Category.Key(), e.HasPhoto()).
			WithOperation(applog.OpRemove).
			ToSlice()...)

	b := NewHTMXResponse().TriggerSuccessNotification("Spesa eliminata: " + e.Description)
	s.afterMutation(w, r, b, s.ledger.Snapshot())
}

func (s *Server) handleNewWeek(w http.ResponseWriter, r *http.Request) {
	closed, err := s.ledger.StartNewWeek(r.Context())
	if err != nil {
		s.writeFailure(w, r, applog.OpNewWeek, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Week closed",
		applog.NewFields().
			WithWeek(closed.Week, closed.Year).
			WithOperation(applog.OpNewWeek).
			ToSlice()...)

	b := NewHTMXResponse().TriggerSuccessNotification("Nuova settimana iniziata")
	if !closed.Empty() {
		b.TriggerWeekClosed(closed.Week, closed.Year)
	}
	s.afterMutation(w, r, b, s.ledger.Snapshot())
}

func (s *Server) handleExportSpreadsheet(w http.ResponseWriter, r *http.Request) {
	d, err := s.ledger.ExportSpreadsheet(r.Context())
	if err != nil {
		s.writeFailure(w, r, applog.OpExport, err)
		return
	}
	s.writeDownload(w, r, d)
}

func (s *Server) handleExportPhotos(w http.ResponseWriter, r *http.Request) {
	d, err := s.ledger.ExportPhotoSheet(r.Context())
	if err != nil {
		s.writeFailure(w, r, applog.OpExport, err)
		return
	}
	for _, warning := range d.Warnings {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Photo sheet placeholder",
			applog.FieldFilename, d.Filename, "warning", warning)
	}
	s.writeDownload(w, r, d)
}

func (s *Server) writeDownload(w http.ResponseWriter, r *http.Request, d services.Download) {
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogExport(r.Context(), d.Filename, len(d.Data), len(s.ledger.Snapshot().Entries))

	security.NoStore(w)
	w.Header().Set("Content-Type", d.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, d.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(d.Data)))
	if len(d.Warnings) > 0 {
		w.Header().Set("X-Export-Warnings", strconv.Itoa(len(d.Warnings)))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(d.Data)
}
