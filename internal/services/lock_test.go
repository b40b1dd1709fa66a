package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/oceanml-backend/internal/domain"
)

func TestAcquireGrantsUnleasedVideo(t *testing.T) {
	h := newHarness(t, AnnotationConfig{})
	ctx := context.Background()
	v := h.seedVideo(t)

	res, err := h.lock.Acquire(ctx, v.ID, "annotator-a", 30*time.Minute)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !res.Granted || res.Holder != "annotator-a" {
		t.Fatalf("Acquire: want granted to annotator-a got=%+v", res)
	}
	wantExp := h.clock.Now().Add(30 * time.Minute)
	if !res.ExpiresAt.Equal(wantExp) {
		t.Fatalf("ExpiresAt: want=%v got=%v", wantExp, res.ExpiresAt)
	}
	if res.AcquiredAt == nil || !res.AcquiredAt.Equal(h.clock.Now()) {
		t.Fatalf("AcquiredAt: got=%v", res.AcquiredAt)
	}
	if !strings.HasSuffix(res.DownloadURL, v.StoragePath) {
		t.Fatalf("DownloadURL: want suffix %q got=%q", v.StoragePath, res.DownloadURL)
	}

	row := h.reload(t, v.ID)
	if row.LockedBy == nil || *row.LockedBy != "annotator-a" {
		t.Fatalf("LockedBy: got=%v", row.LockedBy)
	}
	if !contains(h.actions(t, v.ID), types.ActionAnnotationStarted) {
		t.Fatalf("activity: want %s", types.ActionAnnotationStarted)
	}
	if !contains(h.published.seen(), types.ActionAnnotationStarted) {
		t.Fatalf("publish: want %s", types.ActionAnnotationStarted)
	}
}

func TestAcquireDeniesWhileLeaseActive(t *testing.T) {
	h := newHarness(t, AnnotationConfig{})
	ctx := context.Background()
	v := h.seedVideo(t)

	if _, err := h.lock.Acquire(ctx, v.ID, "annotator-a", time.Hour); err != nil {
		t.Fatalf("Acquire a: %v", err)
	}
	h.clock.Advance(10 * time.Minute)

	res, err := h.lock.Acquire(ctx, v.ID, "annotator-b", time.Hour)
	if err != nil {
		t.Fatalf("Acquire b: %v", err)
	}
	if res.Granted {
		t.Fatalf("Acquire b: want denied got=%+v", res)
	}
	if res.Holder != "annotator-a" {
		t.Fatalf("Holder: want=annotator-a got=%q", res.Holder)
	}
	if res.DownloadURL != "" || res.AcquiredAt != nil {
		t.Fatalf("denied result leaks grant fields: %+v", res)
	}

	same, err := h.lock.Acquire(ctx, v.ID, "annotator-a", time.Hour)
	if err != nil {
		t.Fatalf("Acquire same holder: %v", err)
	}
	if same.Granted {
		t.Fatalf("same holder re-acquire: want denied")
	}
}

func TestAcquireAfterExpiry(t *testing.T) {
	h := newHarness(t, AnnotationConfig{})
	ctx := context.Background()
	v := h.seedVideo(t)

	if _, err := h.lock.Acquire(ctx, v.ID, "annotator-a", 5*time.Minute); err != nil {
		t.Fatalf("Acquire a: %v", err)
	}
	h.clock.Advance(5 * time.Minute)

	res, err := h.lock.Acquire(ctx, v.ID, "annotator-b", time.Hour)
	if err != nil {
		t.Fatalf("Acquire b: %v", err)
	}
	if !res.Granted || res.Holder != "annotator-b" {
		t.Fatalf("expired lease: want granted to b got=%+v", res)
	}
}

func TestAcquireZeroDurationFreesImmediately(t *testing.T) {
	h := newHarness(t, AnnotationConfig{})
	ctx := context.Background()
	v := h.seedVideo(t)

	first, err := h.lock.Acquire(ctx, v.ID, "annotator-a", 0)
	if err != nil || !first.Granted {
		t.Fatalf("Acquire zero: res=%+v err=%v", first, err)
	}
	second, err := h.lock.Acquire(ctx, v.ID, "annotator-b", 0)
	if err != nil {
		t.Fatalf("Acquire second: %v", err)
	}
	if !second.Granted {
		t.Fatalf("zero-length lease: want second requester granted got=%+v", second)
	}
}

func TestAcquireValidation(t *testing.T) {
	h := newHarness(t, AnnotationConfig{})
	ctx := context.Background()
	v := h.seedVideo(t)

	if _, err := h.lock.Acquire(ctx, v.ID, "  ", time.Minute); !errors.Is(err, ErrIdentityRequired) {
		t.Fatalf("blank requester: want=%v got=%v", ErrIdentityRequired, err)
	}
	if _, err := h.lock.Acquire(ctx, v.ID, "a", -time.Second); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("negative duration: want=%v got=%v", ErrInvalidFormat, err)
	}
	if _, err := h.lock.Acquire(ctx, v.ID, "a", 25*time.Hour); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("over max: want=%v got=%v", ErrInvalidFormat, err)
	}
	if _, err := h.lock.Acquire(ctx, uuid.New(), "a", time.Minute); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown video: want=%v got=%v", ErrNotFound, err)
	}
}

func TestAcquireConcurrentGrantsExactlyOnce(t *testing.T) {
	h := newHarness(t, AnnotationConfig{})
	v := h.seedVideo(t)

	const n = 12
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted []string
		errs    []error
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		who := "annotator-" + string(rune('a'+i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			res, err := h.lock.Acquire(context.Background(), v.ID, who, time.Hour)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if res.Granted {
				granted = append(granted, who)
			}
		}()
	}
	close(start)
	wg.Wait()

	if len(errs) != 0 {
		t.Fatalf("concurrent acquire errors: %v", errs)
	}
	if len(granted) != 1 {
		t.Fatalf("grants: want=1 got=%d (%v)", len(granted), granted)
	}
	row := h.reload(t, v.ID)
	if row.LockedBy == nil || *row.LockedBy != granted[0] {
		t.Fatalf("stored holder: want=%s got=%v", granted[0], row.LockedBy)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	h := newHarness(t, AnnotationConfig{})
	ctx := context.Background()
	v := h.seedVideo(t)

	if _, err := h.lock.Acquire(ctx, v.ID, "annotator-a", time.Hour); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := h.lock.Release(ctx, v.ID, "annotator-b"); err != nil {
			t.Fatalf("Release #%d: %v", i+1, err)
		}
	}
	row := h.reload(t, v.ID)
	if row.LockedBy != nil || row.LockedAt != nil || row.LockExpiresAt != nil {
		t.Fatalf("lease fields not cleared: %+v", row)
	}

	released := 0
	for _, a := range h.actions(t, v.ID) {
		if a == types.ActionAnnotationReleased {
			released++
		}
	}
	if released != 1 {
		t.Fatalf("annotation_released entries: want=1 got=%d", released)
	}

	if err := h.lock.Release(ctx, uuid.New(), "annotator-b"); err != nil {
		t.Fatalf("Release unknown video: %v", err)
	}
	if err := h.lock.Release(ctx, v.ID, ""); !errors.Is(err, ErrIdentityRequired) {
		t.Fatalf("Release without actor: want=%v got=%v", ErrIdentityRequired, err)
	}
}
