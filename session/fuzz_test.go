package session

import (
	"context"
	"testing"
	"time"

	"github.com/hashrand-project/hashrand/storage"
	"github.com/hashrand-project/hashrand/storage/memory"
)

// FuzzRefreshSlidingWindow fuzzes the age-based rotation decision across a
// range of refresh TTLs and elapsed times.
func FuzzRefreshSlidingWindow(f *testing.F) {
	f.Add(uint64(3600000), uint64(100))
	f.Add(uint64(600000), uint64(599999))
	f.Add(uint64(1000), uint64(0))
	f.Add(uint64(86400000), uint64(28800000))

	f.Fuzz(func(t *testing.T, ttlMillis, elapsedMillis uint64) {
		if ttlMillis == 0 || ttlMillis > 7*24*60*60*1000 {
			t.Skip()
		}
		if elapsedMillis > 2*ttlMillis {
			t.Skip()
		}

		ttl := time.Duration(ttlMillis) * time.Millisecond
		ctx := context.Background()
		mgr := NewManager(memory.NewStore(), Config{RefreshTTL: ttl})
		defer mgr.Close()

		userID := [16]byte{1}
		clientEd, clientX := [32]byte{1}, [32]byte{2}

		tokens, err := mgr.BeginSession(ctx, userID, clientEd, clientX)
		if err != nil {
			t.Fatalf("BeginSession: %v", err)
		}

		// Backdate the record instead of sleeping, so the fuzz loop stays fast.
		record, err := mgr.store.RefreshStore().Get(ctx, tokens.RefreshToken)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		record.IssuedAt = time.Now().Add(-time.Duration(elapsedMillis) * time.Millisecond)
		if err := mgr.store.RefreshStore().Delete(ctx, tokens.RefreshToken); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if err := mgr.store.RefreshStore().Create(ctx, record); err != nil {
			t.Fatalf("Create: %v", err)
		}

		result, err := mgr.Refresh(ctx, tokens.RefreshToken, clientEd, clientX)
		if err != nil {
			t.Fatalf("Refresh: %v", err)
		}

		age := time.Duration(elapsedMillis) * time.Millisecond
		third := ttl / 3

		switch {
		case age >= ttl:
			if result.Decision != Expired {
				t.Fatalf("age=%v ttl=%v: got %v, want Expired", age, ttl, result.Decision)
			}
		case age < third:
			if result.Decision != NoRotation {
				t.Fatalf("age=%v ttl=%v: got %v, want NoRotation", age, ttl, result.Decision)
			}
		default:
			if result.Decision != Rotate {
				t.Fatalf("age=%v ttl=%v: got %v, want Rotate", age, ttl, result.Decision)
			}
		}
	})
}

// FuzzMagicLinkConsumeIsSingleUse fuzzes that a consumed token never succeeds twice,
// regardless of the email/next values it carries.
func FuzzMagicLinkConsumeIsSingleUse(f *testing.F) {
	f.Add("user@example.com", "/dashboard")
	f.Add("", "")
	f.Add("a@b.co", string(make([]byte, 256)))

	f.Fuzz(func(t *testing.T, email, next string) {
		ctx := context.Background()
		mgr := NewManager(memory.NewStore(), Config{})
		defer mgr.Close()

		token, err := mgr.CreateMagicLink(ctx, email, "https://app.example.com", next, "en", [32]byte{}, [32]byte{})
		if err != nil {
			t.Fatalf("CreateMagicLink: %v", err)
		}

		link, err := mgr.ConsumeMagicLink(ctx, token)
		if err != nil {
			t.Fatalf("first Consume: %v", err)
		}
		if link.Email != email || link.Next != next {
			t.Fatalf("round-trip mismatch: got email=%q next=%q", link.Email, link.Next)
		}

		if _, err := mgr.ConsumeMagicLink(ctx, token); err != storage.ErrNotFound {
			t.Fatalf("second Consume = %v, want ErrNotFound", err)
		}
	})
}
