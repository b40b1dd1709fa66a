package keylock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLocalSerializesSameKey(t *testing.T) {
	l := NewLocal()
	var inside int32
	var maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), VideoKey("a"))
			if err != nil {
				t.Errorf("Lock: %v", err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()
	if maxInside != 1 {
		t.Fatalf("max concurrent holders: want=1 got=%d", maxInside)
	}
	if got := l.size(); got != 0 {
		t.Fatalf("entries after release: want=0 got=%d", got)
	}
}

func TestLocalDifferentKeysDoNotBlock(t *testing.T) {
	l := NewLocal()
	unlockA, err := l.Lock(context.Background(), "a")
	if err != nil {
		t.Fatalf("Lock a: %v", err)
	}
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := l.Lock(ctx, "b")
	if err != nil {
		t.Fatalf("Lock b: %v", err)
	}
	unlockB()
}

func TestLocalRespectsContext(t *testing.T) {
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), "a")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "a"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Lock while held: want=%v got=%v", context.DeadlineExceeded, err)
	}

	unlock()
	unlock() // second call is a no-op
	if got := l.size(); got != 0 {
		t.Fatalf("entries after release: want=0 got=%d", got)
	}
}
