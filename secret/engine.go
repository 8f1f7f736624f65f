// SPDX-License-Identifier: LGPL-3.0-or-later

package secret

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"time"

	hrcrypto "github.com/hashrand-project/hashrand/crypto"
	"github.com/hashrand-project/hashrand/envelope"
	"github.com/hashrand-project/hashrand/fingerprint"
	"github.com/hashrand-project/hashrand/identity"
	"github.com/hashrand-project/hashrand/storage"
)

// Engine implements Create/View/Delete against a storage.Store, entirely
// in terms of the master key and the typed store interfaces; it never
// touches email delivery or HTTP concerns directly.
type Engine struct {
	store  storage.Store
	master [hrcrypto.MasterKeySize]byte
}

// NewEngine builds an Engine over store, keyed by master.
func NewEngine(store storage.Store, master [hrcrypto.MasterKeySize]byte) *Engine {
	return &Engine{store: store, master: master}
}

// Create implements spec.md §4.E Create.
func (e *Engine) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var referenceHash [32]byte
	if _, err := rand.Read(referenceHash[:]); err != nil {
		return nil, err
	}

	payloadKey, err := hrcrypto.KDF32(e.master, "payload_key", referenceHash[:])
	if err != nil {
		return nil, err
	}

	var otp string
	if in.RequireOTP {
		otp, err = generateOTP()
		if err != nil {
			return nil, err
		}
	}

	plain := payloadPlain{
		SenderEmail:   in.SenderEmail,
		ReceiverEmail: in.ReceiverEmail,
		SecretText:    in.SecretText,
		OTP:           otp,
		CreatedAt:     time.Now(),
	}
	plainBytes, err := envelope.Canonical(plain)
	if err != nil {
		return nil, err
	}

	nonce, err := hrcrypto.NonceFromPrefix(referenceHash[:])
	if err != nil {
		return nil, err
	}
	encryptedPayload, err := hrcrypto.AEADSeal(payloadKey, nonce, []byte("secret_v1"), plainBytes)
	if err != nil {
		return nil, err
	}

	senderUserID, err := identity.UserID(e.master, in.SenderEmail)
	if err != nil {
		return nil, err
	}
	receiverUserID, err := identity.UserID(e.master, in.ReceiverEmail)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(time.Duration(in.ExpiresHours) * time.Hour)

	senderDBIndex, err := hrcrypto.KDF32(e.master, "db_index", append(append([]byte{}, referenceHash[:]...), senderUserID[:]...))
	if err != nil {
		return nil, err
	}
	receiverDBIndex, err := hrcrypto.KDF32(e.master, "db_index", append(append([]byte{}, referenceHash[:]...), receiverUserID[:]...))
	if err != nil {
		return nil, err
	}

	senderRow := &storage.SecretRow{
		DBIndex:          senderDBIndex,
		ReferenceHash:    referenceHash,
		EncryptedPayload: encryptedPayload,
		ExpiresAt:        expiresAt,
		Role:             storage.RoleSender,
	}
	receiverRow := &storage.SecretRow{
		DBIndex:          receiverDBIndex,
		ReferenceHash:    referenceHash,
		EncryptedPayload: encryptedPayload,
		ExpiresAt:        expiresAt,
		Role:             storage.RoleReceiver,
	}
	tracking := &storage.TrackingRow{
		ReferenceHash: referenceHash,
		PendingReads:  in.MaxReads,
		MaxReads:      in.MaxReads,
		ExpiresAt:     expiresAt,
		CreatedAt:     time.Now(),
	}

	if err := e.store.SecretStore().CreatePair(ctx, senderRow, receiverRow, tracking); err != nil {
		return nil, newError(KindTransientStorage, err.Error())
	}

	urlSender, err := fingerprint.Encode(e.master, referenceHash, senderUserID, fingerprint.RoleSender)
	if err != nil {
		return nil, err
	}
	urlReceiver, err := fingerprint.Encode(e.master, referenceHash, receiverUserID, fingerprint.RoleReceiver)
	if err != nil {
		return nil, err
	}

	return &CreateResult{
		URLSender:   urlSender,
		URLReceiver: urlReceiver,
		Reference:   hrcrypto.Base58Encode(referenceHash[:]),
		OTP:         otp,
	}, nil
}

// SenderCopyCiphertext encrypts a copy of the secret for delivery to the
// sender's own inbox when send_copy_to_sender is set. It is sealed under
// a key distinct from payload_key so a leaked sender-copy email cannot be
// used to derive the shared payload_key.
func (e *Engine) SenderCopyCiphertext(referenceHash [32]byte, plainBytes []byte) ([]byte, error) {
	key, err := hrcrypto.KDF32(e.master, "sender_copy_key", referenceHash[:])
	if err != nil {
		return nil, err
	}
	nonce, err := hrcrypto.NonceFromPrefix(referenceHash[:])
	if err != nil {
		return nil, err
	}
	return hrcrypto.AEADSeal(key, nonce, []byte("secret_copy_v1"), plainBytes)
}

// View implements spec.md §4.E View.
func (e *Engine) View(ctx context.Context, in ViewInput) (*ViewResult, error) {
	fp, err := fingerprint.Decode(e.master, in.URLHash)
	if err != nil {
		return nil, newError(KindForbidden, "invalid url hash")
	}
	if !hrcrypto.ConstantTimeEqual(fp.UserID[:], in.AccessUserID[:]) {
		return nil, newError(KindForbidden, "user_id mismatch")
	}

	dbIndex, err := hrcrypto.KDF32(e.master, "db_index", append(append([]byte{}, fp.ReferenceHash[:]...), fp.UserID[:]...))
	if err != nil {
		return nil, err
	}

	tracking, err := e.store.SecretStore().GetTracking(ctx, fp.ReferenceHash)
	if errors.Is(err, storage.ErrNotFound) {
		_ = e.store.SecretStore().DeleteRow(ctx, dbIndex)
		return nil, newError(KindGone, "secret no longer exists")
	}
	if err != nil {
		return nil, newError(KindTransientStorage, err.Error())
	}

	row, err := e.store.SecretStore().GetRow(ctx, dbIndex)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newError(KindGone, "secret no longer exists")
	}
	if err != nil {
		return nil, newError(KindTransientStorage, err.Error())
	}

	now := time.Now()
	if !tracking.ExpiresAt.After(now) {
		_ = e.store.SecretStore().DeleteCascade(ctx, fp.ReferenceHash)
		return nil, newError(KindGone, "secret expired")
	}

	payloadKey, err := hrcrypto.KDF32(e.master, "payload_key", fp.ReferenceHash[:])
	if err != nil {
		return nil, err
	}
	nonce, err := hrcrypto.NonceFromPrefix(fp.ReferenceHash[:])
	if err != nil {
		return nil, err
	}
	plainBytes, err := hrcrypto.AEADOpen(payloadKey, nonce, []byte("secret_v1"), row.EncryptedPayload)
	if err != nil {
		return nil, newError(KindGone, "secret payload unreadable")
	}
	var plain payloadPlain
	if err := json.Unmarshal(plainBytes, &plain); err != nil {
		return nil, newError(KindGone, "secret payload corrupt")
	}

	pendingReads := tracking.PendingReads
	if fp.Role == fingerprint.RoleReceiver {
		if tracking.PendingReads == 0 {
			return nil, newError(KindGone, "no reads remaining")
		}
		if plain.OTP != "" {
			if in.PresentedOTP == "" {
				return nil, newError(KindOTPRequired, "otp required")
			}
			if !hrcrypto.ConstantTimeEqual([]byte(in.PresentedOTP), []byte(plain.OTP)) {
				return nil, newError(KindInvalidOTP, "otp mismatch")
			}
		}

		pendingReads, err = e.store.SecretStore().DecrementPendingReads(ctx, fp.ReferenceHash)
		if err != nil {
			return nil, newError(KindTransientStorage, err.Error())
		}
		if err := e.store.SecretStore().MarkRead(ctx, fp.ReferenceHash, now); err != nil {
			return nil, newError(KindTransientStorage, err.Error())
		}
	}

	return &ViewResult{
		SecretText:    plain.SecretText,
		SenderEmail:   plain.SenderEmail,
		ReceiverEmail: plain.ReceiverEmail,
		PendingReads:  pendingReads,
		MaxReads:      tracking.MaxReads,
		ExpiresAt:     tracking.ExpiresAt,
		Reference:     hrcrypto.Base58Encode(fp.ReferenceHash[:]),
		Role:          roleName(fp.Role),
	}, nil
}

// Delete implements spec.md §4.E Delete.
func (e *Engine) Delete(ctx context.Context, in DeleteInput) error {
	fp, err := fingerprint.Decode(e.master, in.URLHash)
	if err != nil {
		return newError(KindForbidden, "invalid url hash")
	}
	if !hrcrypto.ConstantTimeEqual(fp.UserID[:], in.AccessUserID[:]) {
		return newError(KindForbidden, "user_id mismatch")
	}

	if fp.Role == fingerprint.RoleSender {
		if err := e.store.SecretStore().DeleteCascade(ctx, fp.ReferenceHash); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return newError(KindGone, "secret no longer exists")
			}
			return newError(KindTransientStorage, err.Error())
		}
		return nil
	}

	tracking, err := e.store.SecretStore().GetTracking(ctx, fp.ReferenceHash)
	if errors.Is(err, storage.ErrNotFound) {
		return newError(KindGone, "secret no longer exists")
	}
	if err != nil {
		return newError(KindTransientStorage, err.Error())
	}
	if tracking.PendingReads <= 0 {
		return newError(KindForbidden, "no reads remaining")
	}

	dbIndex, err := hrcrypto.KDF32(e.master, "db_index", append(append([]byte{}, fp.ReferenceHash[:]...), fp.UserID[:]...))
	if err != nil {
		return err
	}
	if err := e.store.SecretStore().DeleteRow(ctx, dbIndex); err != nil {
		return newError(KindTransientStorage, err.Error())
	}
	return nil
}

func roleName(r fingerprint.Role) string {
	if r == fingerprint.RoleReceiver {
		return "receiver"
	}
	return "sender"
}
