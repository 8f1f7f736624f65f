// SPDX-License-Identifier: LGPL-3.0-or-later

// Package secret implements the zero-knowledge shared-secret engine
// (spec.md §4.E): creating a secret produces two unlinkable URL
// fingerprints (sender, receiver), each role views it under strict
// checksum/user/expiry/read-count gating, and either role can delete its
// own access without ever exposing the sender's or receiver's email to
// the other.
package secret

import (
	"fmt"
	"time"
)

// Kind classifies a secret-engine failure so the HTTP layer can map it
// to the right status code (spec.md §7) without string matching.
type Kind int

const (
	KindValidation Kind = iota
	KindForbidden
	KindNotFound
	KindGone
	KindConflict
	KindOTPRequired
	KindInvalidOTP
	KindTransientStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindGone:
		return "gone"
	case KindConflict:
		return "conflict"
	case KindOTPRequired:
		return "otp_required"
	case KindInvalidOTP:
		return "invalid_otp"
	case KindTransientStorage:
		return "transient_storage"
	default:
		return "unknown"
	}
}

// Error wraps a secret-engine failure with its classification and, for
// ValidationError, the offending field.
type Error struct {
	Kind  Kind
	Field string
	Msg   string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("secret: %s (%s): %s", e.Kind, e.Field, e.Msg)
	}
	return fmt.Sprintf("secret: %s: %s", e.Kind, e.Msg)
}

func newError(kind Kind, msg string) *Error           { return &Error{Kind: kind, Msg: msg} }
func newFieldError(field, msg string) *Error          { return &Error{Kind: KindValidation, Field: field, Msg: msg} }

const (
	MaxSecretTextBytes = 512
	MinExpiresHours    = 1
	MaxExpiresHours    = 72
	MinMaxReads        = 1
	MaxMaxReads        = 10
	otpDigits          = 9
)

// CreateInput carries a Create request's fields (spec.md §4.E Create).
type CreateInput struct {
	SenderEmail      string
	ReceiverEmail    string
	SecretText       string
	ExpiresHours     int
	MaxReads         int
	RequireOTP       bool
	SendCopyToSender bool
	ReceiverLanguage string
	SenderLanguage   string
	UIHost           string
}

func (in CreateInput) validate() error {
	if in.SenderEmail == "" {
		return newFieldError("sender_email_cleartext", "must not be empty")
	}
	if in.ReceiverEmail == "" {
		return newFieldError("receiver_email_cleartext", "must not be empty")
	}
	if len(in.SecretText) == 0 || len(in.SecretText) > MaxSecretTextBytes {
		return newFieldError("secret_text", fmt.Sprintf("must be 1..%d bytes", MaxSecretTextBytes))
	}
	if in.ExpiresHours < MinExpiresHours || in.ExpiresHours > MaxExpiresHours {
		return newFieldError("expires_hours", fmt.Sprintf("must be %d..%d", MinExpiresHours, MaxExpiresHours))
	}
	if in.MaxReads < MinMaxReads || in.MaxReads > MaxMaxReads {
		return newFieldError("max_reads", fmt.Sprintf("must be %d..%d", MinMaxReads, MaxMaxReads))
	}
	return nil
}

// CreateResult is returned to the sender on success.
type CreateResult struct {
	URLSender   string
	URLReceiver string
	Reference   string
	OTP         string // empty unless RequireOTP
}

// payloadPlain is the canonical JSON structure sealed under payload_key.
type payloadPlain struct {
	SenderEmail   string    `json:"sender_email"`
	ReceiverEmail string    `json:"receiver_email"`
	SecretText    string    `json:"secret_text"`
	OTP           string    `json:"otp,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ViewInput carries a View request's fields (spec.md §4.E View).
type ViewInput struct {
	URLHash         string
	AccessUserID    [16]byte
	PresentedOTP    string
}

// ViewResult is returned to a caller on a successful view.
type ViewResult struct {
	SecretText    string
	SenderEmail   string
	ReceiverEmail string
	PendingReads  int
	MaxReads      int
	ExpiresAt     time.Time
	Reference     string
	Role          string
}

// DeleteInput carries a Delete request's fields (spec.md §4.E Delete).
type DeleteInput struct {
	URLHash      string
	AccessUserID [16]byte
}
