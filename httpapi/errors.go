// SPDX-License-Identifier: LGPL-3.0-or-later

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hashrand-project/hashrand/envelope"
	"github.com/hashrand-project/hashrand/fingerprint"
	"github.com/hashrand-project/hashrand/secret"
)

// errorResponse is the unsigned error body every handler falls back to.
// User-visible messages carry a translatable key, never raw internal
// text (spec.md §7).
type errorResponse struct {
	Kind    string `json:"kind"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Kind: kind, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeSecretError maps a secret.Error (or generic error) to spec.md §7's
// status codes.
func writeSecretError(w http.ResponseWriter, err error) {
	var secErr *secret.Error
	if errors.As(err, &secErr) {
		switch secErr.Kind {
		case secret.KindValidation:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(errorResponse{Kind: "ValidationError", Field: secErr.Field, Message: secErr.Msg})
			return
		case secret.KindForbidden:
			writeError(w, http.StatusForbidden, "Forbidden", secErr.Msg)
		case secret.KindNotFound:
			writeError(w, http.StatusNotFound, "NotFound", secErr.Msg)
		case secret.KindGone:
			writeError(w, http.StatusGone, "Gone", secErr.Msg)
		case secret.KindConflict:
			writeError(w, http.StatusConflict, "Conflict", secErr.Msg)
		case secret.KindOTPRequired:
			writeError(w, http.StatusBadRequest, "OTP_REQUIRED", secErr.Msg)
		case secret.KindInvalidOTP:
			writeError(w, http.StatusBadRequest, "INVALID_OTP", secErr.Msg)
		case secret.KindTransientStorage:
			writeError(w, http.StatusServiceUnavailable, "TransientStorage", secErr.Msg)
		default:
			writeError(w, http.StatusBadRequest, "ValidationError", secErr.Msg)
		}
		return
	}

	var fpErr *fingerprint.Error
	if errors.As(err, &fpErr) {
		switch fpErr.Kind {
		case fingerprint.KindInvalidChecksum:
			writeError(w, http.StatusUnauthorized, "InvalidChecksum", fpErr.Msg)
		default:
			writeError(w, http.StatusBadRequest, "InvalidEncoding", fpErr.Msg)
		}
		return
	}

	writeError(w, http.StatusServiceUnavailable, "TransientStorage", err.Error())
}

// writeEnvelopeError maps an envelope verification failure to a 400/401.
func writeEnvelopeError(w http.ResponseWriter, err error) {
	var envErr *envelope.Error
	if errors.As(err, &envErr) {
		switch envErr.Kind {
		case envelope.KindInvalidSignature:
			writeError(w, http.StatusUnauthorized, "InvalidSignature", envErr.Msg)
			return
		default:
			writeError(w, http.StatusBadRequest, "InvalidEncoding", envErr.Msg)
			return
		}
	}
	writeError(w, http.StatusBadRequest, "InvalidEncoding", err.Error())
}
