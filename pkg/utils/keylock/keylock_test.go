package keylock_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ahammadshawki8/chimera/pkg/utils/keylock"
	"github.com/m-mizutani/gt"
)

func TestLocker(t *testing.T) {
	t.Run("same key is serialized", func(t *testing.T) {
		locker := keylock.New()
		ctx := context.Background()

		var active, maxActive int32
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock, err := locker.Lock(ctx, "conv-1")
				if err != nil {
					t.Error(err)
					return
				}
				defer unlock()

				n := atomic.AddInt32(&active, 1)
				for {
					cur := atomic.LoadInt32(&maxActive)
					if n <= cur || atomic.CompareAndSwapInt32(&maxActive, cur, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&active, -1)
			}()
		}
		wg.Wait()

		gt.Value(t, atomic.LoadInt32(&maxActive)).Equal(int32(1))
		gt.Value(t, locker.Len()).Equal(0)
	})

	t.Run("different keys do not block each other", func(t *testing.T) {
		locker := keylock.New()
		ctx := context.Background()

		unlockA, err := locker.Lock(ctx, "a")
		gt.NoError(t, err).Required()
		defer unlockA()

		done := make(chan struct{})
		go func() {
			unlockB, err := locker.Lock(ctx, "b")
			if err == nil {
				unlockB()
			}
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("lock on another key was blocked")
		}
	})

	t.Run("waiting is cancelled with context", func(t *testing.T) {
		locker := keylock.New()

		unlock, err := locker.Lock(context.Background(), "k")
		gt.NoError(t, err).Required()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(ctx, "k")
		gt.Error(t, err)

		unlock()
		unlock()
		gt.Value(t, locker.Len()).Equal(0)
	})
}
