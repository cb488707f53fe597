package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	domerrors "github.com/xamogh/medxz/internal/domain/errors"
)

// errorBody is the wire shape of every failure: a short machine code plus a
// human message.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy to HTTP exactly once. Internal causes
// are logged here and never written to the response.
func writeError(w http.ResponseWriter, log zerolog.Logger, err error) {
	kind := domerrors.KindOf(err)
	if kind == domerrors.KindInternal {
		log.Error().Err(err).Msg("internal error")
	}
	writeJSON(w, statusForKind(kind), errorBody{
		Code:    string(kind),
		Message: domerrors.MessageOf(err),
	})
}

func statusForKind(kind domerrors.Kind) int {
	switch kind {
	case domerrors.KindBadRequest:
		return http.StatusBadRequest
	case domerrors.KindUnauthorized:
		return http.StatusUnauthorized
	case domerrors.KindForbidden:
		return http.StatusForbidden
	case domerrors.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
