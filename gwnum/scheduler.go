package gwnum

import (
	"sync"
	"sync/atomic"
)

// scheduler spreads block work (NormalizeThreaded's carry blocks; the transforms
// themselves do not use it) across goroutines, grounded on
// kcp-go/v5/timedsched.go's worker-pool shape and sess.go's work_to_do /
// all_helpers_done cooperative-barrier pattern. Where kcp-go's TimedSched routes
// deferred tasks through a shared heap and a fixed pool of long-lived goroutines,
// this scheduler is simpler because every call is a full fan-out/fan-in barrier:
// RunRange/RunBlocks only return once every worker has finished, which is exactly
// the all_helpers_done rendezvous the carry-section state machine needs between
// pass 1 and pass 2.
type scheduler struct {
	workers int
	cs      carrySection
}

func newScheduler(n int) *scheduler {
	if n < 1 {
		n = 1
	}
	return &scheduler{workers: n}
}

// carrySection implements the carry-section split/merge state machine carry.go's
// NormalizeThreaded drives: a CAS loop over a single packed (epoch, nextBlock) word
// lets a pool of workers dynamically claim carry-propagation blocks instead of each
// owning a fixed slice up front. The packed epoch exists to fix the atomic-counter
// reset race a naive design has: if nextBlock were simply reset to 0 at the start of
// every pass, a goroutine still spinning on a stale pass (e.g. a slow claimBlock
// retry loop that hadn't yet noticed the pass ended) could claim a block belonging
// to the new pass and corrupt it. Packing epoch and nextBlock into one word and
// requiring both to match inside the same compare-and-swap makes a stale claim fail
// outright instead of silently succeeding against the wrong pass.
type carrySection struct {
	epoch  int64
	packed int64
}

// beginPass starts a new claimable pass and returns the epoch callers must present
// to claimBlock. Only one pass may be in flight on a carrySection at a time; RunBlocks
// enforces that with its fan-out/fan-in barrier.
func (c *carrySection) beginPass() int32 {
	epoch := int32(atomic.AddInt64(&c.epoch, 1))
	atomic.StoreInt64(&c.packed, int64(epoch)<<32)
	return epoch
}

// claimBlock atomically claims the next unclaimed block index in [0,numBlocks) for
// epoch. ok is false once every block has been claimed, or once epoch has gone
// stale because a later beginPass has already run.
func (c *carrySection) claimBlock(epoch int32, numBlocks int) (block int, ok bool) {
	for {
		old := atomic.LoadInt64(&c.packed)
		oldEpoch := int32(old >> 32)
		if oldEpoch != epoch {
			return 0, false
		}
		next := int32(old & 0xffffffff)
		if int(next) >= numBlocks {
			return 0, false
		}
		updated := (int64(epoch) << 32) | int64(next+1)
		if atomic.CompareAndSwapInt64(&c.packed, old, updated) {
			return int(next), true
		}
	}
}

// RunBlocks runs fn over every block index in [0,numBlocks), claimed dynamically by
// s.workers goroutines through the carry-section CAS loop rather than a static
// up-front partition. Dynamic claiming matters here because per-block cost is
// uneven: a carry that cascades past a block boundary costs far more to fix up than
// one that doesn't, so a worker that finishes an easy block should immediately pick
// up the next unclaimed one instead of sitting idle while another worker is still
// stuck on an expensive block. Blocks until every claimed block has run.
func (s *scheduler) RunBlocks(numBlocks int, fn func(block int)) {
	if numBlocks <= 0 {
		return
	}
	epoch := s.cs.beginPass()
	if s.workers <= 1 || numBlocks < s.workers {
		for b := 0; b < numBlocks; b++ {
			fn(b)
		}
		return
	}

	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				block, ok := s.cs.claimBlock(epoch, numBlocks)
				if !ok {
					return
				}
				fn(block)
			}
		}()
	}
	wg.Wait()
}

// RunRange partitions [0,total) into up to s.workers contiguous slices and runs fn
// on each slice concurrently, blocking until every slice has completed. fn must be
// safe to call concurrently with other slices touching disjoint index ranges.
func (s *scheduler) RunRange(total int, fn func(start, end int)) {
	if total <= 0 {
		return
	}
	if s.workers <= 1 || total < s.workers {
		fn(0, total)
		return
	}

	chunk := (total + s.workers - 1) / s.workers
	var wg sync.WaitGroup
	for start := 0; start < total; start += chunk {
		end := start + chunk
		if end > total {
			end = total
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)
	}
	wg.Wait()
}

// Threads reports the configured worker count.
func (s *scheduler) Threads() int { return s.workers }
