package canvas

import "github.com/inkhaven/easel/types"

// pendingQueue is the bounded pending-stroke queue. Eviction on overflow
// is strictly per-batch: a batch executes as one atomic unit, so partial
// batches are never left behind. Callers hold the workspace mutex.
type pendingQueue struct {
	entries    []types.PendingStroke
	nextBatch  int
	maxBatches int
}

func newPendingQueue(maxBatches int) *pendingQueue {
	if maxBatches < 1 {
		maxBatches = 1
	}
	return &pendingQueue{maxBatches: maxBatches}
}

// push appends a batch of strokes sharing a fresh batch id, evicting the
// oldest batches first when the cap would be exceeded. Returns the batch
// id and the number of whole batches dropped.
func (q *pendingQueue) push(path []types.Path, points [][]types.Point) (batchID, dropped int) {
	batchID = q.nextBatch
	q.nextBatch++

	for q.batchCount() >= q.maxBatches {
		q.dropOldestBatch()
		dropped++
	}

	for i := range path {
		q.entries = append(q.entries, types.PendingStroke{
			BatchID: batchID,
			Path:    path[i],
			Points:  points[i],
		})
	}
	return batchID, dropped
}

// restore reloads queued entries from a snapshot. The batch counter only
// moves forward so restored ids are never reissued.
func (q *pendingQueue) restore(entries []types.PendingStroke, nextBatch int) {
	q.entries = entries
	if nextBatch > q.nextBatch {
		q.nextBatch = nextBatch
	}
}

// popAll returns and clears the entire queue in FIFO order.
func (q *pendingQueue) popAll() []types.PendingStroke {
	out := q.entries
	q.entries = nil
	return out
}

// batchCount counts distinct batches currently queued.
func (q *pendingQueue) batchCount() int {
	count := 0
	last := -1
	for _, e := range q.entries {
		if e.BatchID != last {
			count++
			last = e.BatchID
		}
	}
	return count
}

// dropOldestBatch removes every entry sharing the oldest batch id.
func (q *pendingQueue) dropOldestBatch() {
	if len(q.entries) == 0 {
		return
	}
	oldest := q.entries[0].BatchID
	i := 0
	for i < len(q.entries) && q.entries[i].BatchID == oldest {
		i++
	}
	q.entries = q.entries[i:]
}

func (q *pendingQueue) len() int {
	return len(q.entries)
}
