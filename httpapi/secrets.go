// SPDX-License-Identifier: LGPL-3.0-or-later

package httpapi

import (
	"net/http"

	"github.com/hashrand-project/hashrand/internal/email"
	"github.com/hashrand-project/hashrand/internal/logger"
	"github.com/hashrand-project/hashrand/secret"
)

// createSecretRequest is POST /shared-secret's envelope payload
// (spec.md §4.E Create).
type createSecretRequest struct {
	SenderEmail      string `json:"sender_email_cleartext"`
	ReceiverEmail    string `json:"receiver_email_cleartext"`
	SecretText       string `json:"secret_text"`
	ExpiresHours     int    `json:"expires_hours"`
	MaxReads         int    `json:"max_reads"`
	RequireOTP       bool   `json:"require_otp"`
	SendCopyToSender bool   `json:"send_copy_to_sender"`
	ReceiverLanguage string `json:"receiver_language"`
	SenderLanguage   string `json:"sender_language"`
	UIHost           string `json:"ui_host"`
}

type createSecretResponse struct {
	URLSender   string `json:"url_sender"`
	URLReceiver string `json:"url_receiver"`
	Reference   string `json:"reference"`
	OTP         string `json:"otp,omitempty"`
}

// handleCreateSecret builds a shared secret and, optionally, emails a copy
// to the sender.
func (s *Server) handleCreateSecret(w http.ResponseWriter, r *http.Request) {
	ac, err := s.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "InvalidSignature", err.Error())
		return
	}

	var req createSecretRequest
	if err := openAuthenticated(r, ac, &req); err != nil {
		writeEnvelopeError(w, err)
		return
	}

	result, err := s.Secrets.Create(r.Context(), secret.CreateInput{
		SenderEmail:      req.SenderEmail,
		ReceiverEmail:    req.ReceiverEmail,
		SecretText:       req.SecretText,
		ExpiresHours:     req.ExpiresHours,
		MaxReads:         req.MaxReads,
		RequireOTP:       req.RequireOTP,
		SendCopyToSender: req.SendCopyToSender,
		ReceiverLanguage: req.ReceiverLanguage,
		SenderLanguage:   req.SenderLanguage,
		UIHost:           req.UIHost,
	})
	if err != nil {
		writeSecretError(w, err)
		return
	}

	if req.SendCopyToSender {
		s.sendSenderCopy(r, req, result)
	}

	signer, err := s.Sessions.ServerSigningKey(ac.RefreshToken)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "TransientStorage", err.Error())
		return
	}
	if err := sealResponse(w, signer, createSecretResponse{
		URLSender:   result.URLSender,
		URLReceiver: result.URLReceiver,
		Reference:   result.Reference,
		OTP:         result.OTP,
	}); err != nil {
		writeError(w, http.StatusServiceUnavailable, "TransientStorage", err.Error())
	}
}

// sendSenderCopy best-effort emails the sender both URLs and, when the
// secret requires one, the same OTP the receiver must present.
// A failure here never fails the Create call: the secret already exists.
func (s *Server) sendSenderCopy(r *http.Request, req createSecretRequest, result *secret.CreateResult) {
	body := "Receiver link: " + result.URLReceiver + "\nSender link: " + result.URLSender
	if result.OTP != "" {
		body += "\nOTP: " + result.OTP
	}
	msg := email.Message{
		To:      req.SenderEmail,
		Subject: "Your HashRand shared secret",
		Body:    body,
	}
	if err := s.Mailer.Send(r.Context(), msg); err != nil {
		s.Log.Warn("send sender copy email failed", logger.String("error", err.Error()))
	}
}

type viewSecretResponse struct {
	SecretText    string `json:"secret_text"`
	SenderEmail   string `json:"sender_email_cleartext"`
	ReceiverEmail string `json:"receiver_email_cleartext"`
	PendingReads  int    `json:"pending_reads"`
	MaxReads      int    `json:"max_reads"`
	ExpiresAt     int64  `json:"expires_at"`
	Reference     string `json:"reference"`
	Role          string `json:"role"`
}

// handleViewSecret decrypts and returns a shared secret, gating and
// decrementing reads per spec.md §4.E View.
func (s *Server) handleViewSecret(w http.ResponseWriter, r *http.Request) {
	ac, err := s.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "InvalidSignature", err.Error())
		return
	}

	urlHash := r.PathValue("url_hash")
	otp := r.URL.Query().Get("otp")

	result, err := s.Secrets.View(r.Context(), secret.ViewInput{
		URLHash:      urlHash,
		AccessUserID: ac.UserID,
		PresentedOTP: otp,
	})
	if err != nil {
		writeSecretError(w, err)
		return
	}

	signer, err := s.Sessions.ServerSigningKey(ac.RefreshToken)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "TransientStorage", err.Error())
		return
	}
	if err := sealResponse(w, signer, viewSecretResponse{
		SecretText:    result.SecretText,
		SenderEmail:   result.SenderEmail,
		ReceiverEmail: result.ReceiverEmail,
		PendingReads:  result.PendingReads,
		MaxReads:      result.MaxReads,
		ExpiresAt:     result.ExpiresAt.Unix(),
		Reference:     result.Reference,
		Role:          result.Role,
	}); err != nil {
		writeError(w, http.StatusServiceUnavailable, "TransientStorage", err.Error())
	}
}

type deleteSecretResponse struct {
	Deleted bool `json:"deleted"`
}

// handleDeleteSecret deletes per role: sender cascades, receiver requires
// pending reads remaining (spec.md §4.E Delete).
func (s *Server) handleDeleteSecret(w http.ResponseWriter, r *http.Request) {
	ac, err := s.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "InvalidSignature", err.Error())
		return
	}

	urlHash := r.PathValue("url_hash")

	if err := s.Secrets.Delete(r.Context(), secret.DeleteInput{
		URLHash:      urlHash,
		AccessUserID: ac.UserID,
	}); err != nil {
		writeSecretError(w, err)
		return
	}

	signer, err := s.Sessions.ServerSigningKey(ac.RefreshToken)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "TransientStorage", err.Error())
		return
	}
	if err := sealResponse(w, signer, deleteSecretResponse{Deleted: true}); err != nil {
		writeError(w, http.StatusServiceUnavailable, "TransientStorage", err.Error())
	}
}
