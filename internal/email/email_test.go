// SPDX-License-Identifier: LGPL-3.0-or-later

package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDryRunSenderRecordsMessages(t *testing.T) {
	s := NewDryRunSender()
	ctx := context.Background()

	require.NoError(t, s.Send(ctx, Message{To: "alice@example.com", Subject: "hi", Body: "body"}))
	require.NoError(t, s.Send(ctx, Message{To: "bob@example.com", Subject: "hi2", Body: "body2"}))

	sent := s.Sent()
	require.Len(t, sent, 2)
	require.Equal(t, "alice@example.com", sent[0].To)
	require.Equal(t, "bob@example.com", sent[1].To)

	require.NoError(t, s.Ping(ctx))

	s.Reset()
	require.Empty(t, s.Sent())
}
