// SPDX-License-Identifier: LGPL-3.0-or-later

package secret

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hashrand-project/hashrand/identity"
	"github.com/hashrand-project/hashrand/storage/memory"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	var master [32]byte
	for i := range master {
		master[i] = byte(i * 3)
	}
	return NewEngine(memory.NewStore(), master)
}

func baseInput() CreateInput {
	return CreateInput{
		SenderEmail:   "sender@example.com",
		ReceiverEmail: "receiver@example.com",
		SecretText:    "the launch code is 1234",
		ExpiresHours:  1,
		MaxReads:      2,
	}
}

func userIDFor(t *testing.T, e *Engine, email string) [16]byte {
	t.Helper()
	id, err := identity.UserID(e.master, email)
	require.NoError(t, err)
	return id
}

func TestCreateValidatesBounds(t *testing.T) {
	e := testEngine(t)
	in := baseInput()
	in.MaxReads = 0
	_, err := e.Create(context.Background(), in)
	require.Error(t, err)
	var secErr *Error
	require.ErrorAs(t, err, &secErr)
	require.Equal(t, KindValidation, secErr.Kind)
}

func TestCreateAndReceiverViewDecrementsPendingReads(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	res, err := e.Create(ctx, baseInput())
	require.NoError(t, err)
	require.Empty(t, res.OTP)

	receiverID := userIDFor(t, e, "receiver@example.com")

	v1, err := e.View(ctx, ViewInput{URLHash: res.URLReceiver, AccessUserID: receiverID})
	require.NoError(t, err)
	require.Equal(t, "the launch code is 1234", v1.SecretText)
	require.Equal(t, 1, v1.PendingReads)

	v2, err := e.View(ctx, ViewInput{URLHash: res.URLReceiver, AccessUserID: receiverID})
	require.NoError(t, err)
	require.Equal(t, 0, v2.PendingReads)

	_, err = e.View(ctx, ViewInput{URLHash: res.URLReceiver, AccessUserID: receiverID})
	require.Error(t, err)
	var secErr *Error
	require.ErrorAs(t, err, &secErr)
	require.Equal(t, KindGone, secErr.Kind)
}

func TestSenderViewNeverDecrements(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	res, err := e.Create(ctx, baseInput())
	require.NoError(t, err)

	senderID := userIDFor(t, e, "sender@example.com")

	for i := 0; i < 5; i++ {
		v, err := e.View(ctx, ViewInput{URLHash: res.URLSender, AccessUserID: senderID})
		require.NoError(t, err)
		require.Equal(t, 2, v.PendingReads)
	}
}

func TestViewRejectsWrongUser(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	res, err := e.Create(ctx, baseInput())
	require.NoError(t, err)

	var wrongID [16]byte
	wrongID[0] = 0xFF

	_, err = e.View(ctx, ViewInput{URLHash: res.URLReceiver, AccessUserID: wrongID})
	require.Error(t, err)
	var secErr *Error
	require.ErrorAs(t, err, &secErr)
	require.Equal(t, KindForbidden, secErr.Kind)
}

func TestOTPGating(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	in := baseInput()
	in.RequireOTP = true
	res, err := e.Create(ctx, in)
	require.NoError(t, err)
	require.Len(t, res.OTP, 9)

	receiverID := userIDFor(t, e, "receiver@example.com")

	_, err = e.View(ctx, ViewInput{URLHash: res.URLReceiver, AccessUserID: receiverID})
	require.Error(t, err)
	var secErr *Error
	require.ErrorAs(t, err, &secErr)
	require.Equal(t, KindOTPRequired, secErr.Kind)

	_, err = e.View(ctx, ViewInput{URLHash: res.URLReceiver, AccessUserID: receiverID, PresentedOTP: "000000000"})
	require.ErrorAs(t, err, &secErr)
	require.Equal(t, KindInvalidOTP, secErr.Kind)

	v, err := e.View(ctx, ViewInput{URLHash: res.URLReceiver, AccessUserID: receiverID, PresentedOTP: res.OTP})
	require.NoError(t, err)
	require.Equal(t, 1, v.PendingReads)
}

func TestSenderDeleteCascades(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	res, err := e.Create(ctx, baseInput())
	require.NoError(t, err)

	senderID := userIDFor(t, e, "sender@example.com")
	receiverID := userIDFor(t, e, "receiver@example.com")

	require.NoError(t, e.Delete(ctx, DeleteInput{URLHash: res.URLSender, AccessUserID: senderID}))

	_, err = e.View(ctx, ViewInput{URLHash: res.URLReceiver, AccessUserID: receiverID})
	require.Error(t, err)
	var secErr *Error
	require.ErrorAs(t, err, &secErr)
	require.Equal(t, KindGone, secErr.Kind)
}

func TestReceiverDeleteRequiresPendingReads(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	in := baseInput()
	in.MaxReads = 1
	res, err := e.Create(ctx, in)
	require.NoError(t, err)

	receiverID := userIDFor(t, e, "receiver@example.com")
	senderID := userIDFor(t, e, "sender@example.com")

	_, err = e.View(ctx, ViewInput{URLHash: res.URLReceiver, AccessUserID: receiverID})
	require.NoError(t, err)

	err = e.Delete(ctx, DeleteInput{URLHash: res.URLReceiver, AccessUserID: receiverID})
	require.Error(t, err)
	var secErr *Error
	require.ErrorAs(t, err, &secErr)
	require.Equal(t, KindForbidden, secErr.Kind)

	// Sender view still works: tracking/sender row untouched by the
	// rejected receiver delete.
	v, err := e.View(ctx, ViewInput{URLHash: res.URLSender, AccessUserID: senderID})
	require.NoError(t, err)
	require.Equal(t, 0, v.PendingReads)
}
