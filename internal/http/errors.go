package http

import (
	"errors"
	"net/http"

	"notaspese/internal/core"
	applog "notaspese/internal/log"
	"notaspese/internal/services"
)

// failure is how an operation error is shown to the user.
type failure struct {
	status    int
	message   string
	errorType string
}

func classify(err error) failure {
	var (
		validation *core.ValidationError
		persist    *core.PersistenceError
		upload     *core.PhotoUploadError
		template   *core.TemplateNotFoundError
	)
	switch {
	case errors.As(err, &validation):
		return failure{http.StatusUnprocessableEntity, validationMessage(validation), applog.ErrorTypeValidation}
	case errors.Is(err, core.ErrIndexOutOfRange):
		return failure{http.StatusNotFound, "Spesa non trovata", applog.ErrorTypeNotFound}
	case errors.As(err, &upload):
		if errors.Is(err, services.ErrPhotoUploadDisabled) {
			return failure{http.StatusBadGateway, "Caricamento foto non configurato", applog.ErrorTypeConfiguration}
		}
		return failure{http.StatusBadGateway, "Caricamento foto non riuscito, spesa non registrata", networkType(err)}
	case errors.As(err, &persist):
		return failure{http.StatusBadGateway, "Salvataggio non riuscito, modifica annullata", networkType(err)}
	case errors.As(err, &template):
		return failure{http.StatusInternalServerError, "Modello del foglio spese non trovato", applog.ErrorTypeConfiguration}
	case errors.Is(err, core.ErrEmptyLedger):
		return failure{http.StatusConflict, "Nessuna spesa registrata questa settimana", applog.ErrorTypeConflict}
	case errors.Is(err, core.ErrNoPhotos):
		return failure{http.StatusConflict, "Nessuna spesa con foto questa settimana", applog.ErrorTypeConflict}
	case errors.Is(err, core.ErrTooManyEntries):
		return failure{http.StatusConflict, "Troppe spese per il modello del foglio", applog.ErrorTypeConflict}
	default:
		return failure{http.StatusInternalServerError, "Errore interno", applog.ErrorTypeInternal}
	}
}

func networkType(err error) string {
	if core.IsTimeout(err) {
		return applog.ErrorTypeTimeout
	}
	return applog.ErrorTypeNetwork
}

func validationMessage(v *core.ValidationError) string {
	switch v.Field {
	case "description":
		return "Descrizione obbligatoria"
	case "amount":
		return "Importo non valido"
	case "category":
		return "Categoria non valida"
	case "date":
		return "Data non valida"
	case "photo":
		return "Foto troppo grande"
	default:
		return "Dati non validi"
	}
}

// writeFailure logs err and writes the matching error response.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, operation string, err error) {
	f := classify(err)
	ctx := r.Context()
	sl := applog.NewStructuredLogger(applog.FromContext(ctx))
	if f.status >= http.StatusInternalServerError {
		sl.LogError(ctx, "Operation failed", err, f.errorType, applog.ComponentHTTP, operation, nil)
	} else {
		applog.FromContext(ctx).WarnContext(ctx, "Operation rejected",
			applog.FieldOperation, operation,
			applog.FieldError, err.Error(),
			applog.FieldErrorType, f.errorType)
	}
	resp := ErrorResponse(f.status, f.message)
	if isHTMX(r) {
		resp.TriggerErrorNotification(f.message)
	}
	resp.Write(w)
}
