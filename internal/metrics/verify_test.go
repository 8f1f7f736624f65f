// SPDX-License-Identifier: LGPL-3.0-or-later

package metrics

import (
	"testing"
)

func TestMetricsRegistration(t *testing.T) {
	if CryptoOperations == nil {
		t.Error("CryptoOperations metric is nil")
	}
	if CryptoErrors == nil {
		t.Error("CryptoErrors metric is nil")
	}
	if EnvelopeVerifyFailures == nil {
		t.Error("EnvelopeVerifyFailures metric is nil")
	}

	if RefreshRecordsCreated == nil {
		t.Error("RefreshRecordsCreated metric is nil")
	}
	if RefreshRecordsActive == nil {
		t.Error("RefreshRecordsActive metric is nil")
	}
	if SessionKeyRotations == nil {
		t.Error("SessionKeyRotations metric is nil")
	}
	if MagicLinksIssued == nil {
		t.Error("MagicLinksIssued metric is nil")
	}
	if MagicLinksConsumed == nil {
		t.Error("MagicLinksConsumed metric is nil")
	}

	if SecretsCreated == nil {
		t.Error("SecretsCreated metric is nil")
	}
	if SecretsViewed == nil {
		t.Error("SecretsViewed metric is nil")
	}
	if SecretsDeleted == nil {
		t.Error("SecretsDeleted metric is nil")
	}
}

func TestMetricsIncrement(t *testing.T) {
	CryptoOperations.WithLabelValues("sign", "ed25519").Inc()
	CryptoErrors.WithLabelValues("verify").Inc()
	EnvelopeVerifyFailures.WithLabelValues("bad_signature").Inc()

	RefreshRecordsCreated.WithLabelValues("success").Inc()
	RefreshRecordsActive.Inc()
	SessionKeyRotations.WithLabelValues("rotated").Inc()
	MagicLinksIssued.Inc()
	MagicLinksConsumed.WithLabelValues("success").Inc()

	SecretsCreated.WithLabelValues("success").Inc()
	SecretsViewed.WithLabelValues("receiver", "success").Inc()
	SecretsDeleted.WithLabelValues("explicit").Inc()

	families, err := Registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected at least one metric family registered")
	}
}
