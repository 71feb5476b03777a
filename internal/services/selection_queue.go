package services

import (
	"fmt"
	"sync"

	"github.com/mroshb/astro_bot/internal/models"
	"github.com/mroshb/astro_bot/pkg/errors"
	"github.com/mroshb/astro_bot/pkg/logger"
)

// RandSource is satisfied by *rand.Rand from math/rand/v2.
type RandSource interface {
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

type modeQueue struct {
	mu       sync.Mutex
	mode     Mode
	eligible []*models.CatalogEntry
	pending  []*models.CatalogEntry
	cycles   int
}

// QueueManager hands out catalog entries per mode as shuffled permutations,
// so nothing repeats inside one cycle through a mode's eligible set.
type QueueManager struct {
	entries []*models.CatalogEntry
	queues  map[string]*modeQueue
	order   []string

	rngMu sync.Mutex
	rng   RandSource
}

func NewQueueManager(entries []*models.CatalogEntry, modes []Mode, rng RandSource) *QueueManager {
	qm := &QueueManager{
		entries: entries,
		queues:  make(map[string]*modeQueue, len(modes)),
		rng:     rng,
	}
	for _, m := range modes {
		qm.queues[m.Key] = &modeQueue{mode: m}
		qm.order = append(qm.order, m.Key)
	}
	qm.ResetAll()
	return qm
}

// ResetAll recomputes every mode's eligible subset and replaces its queue
// with a fresh permutation. Modes are shuffled in configuration order so a
// seeded source gives the same queues every run.
func (qm *QueueManager) ResetAll() {
	for _, key := range qm.order {
		q := qm.queues[key]
		q.mu.Lock()
		q.eligible = q.eligible[:0]
		for _, e := range qm.entries {
			if e.Eligible() && q.mode.Filter(e) {
				q.eligible = append(q.eligible, e)
			}
		}
		q.pending = qm.permutation(q.eligible)
		q.cycles = 0
		q.mu.Unlock()

		logger.Debug("Selection queue reset", "mode", key, "eligible", len(q.eligible))
	}
}

// TakeNext pops the front of mode's queue, reshuffling first when the
// current cycle is used up.
func (qm *QueueManager) TakeNext(mode string) (*models.CatalogEntry, error) {
	q, ok := qm.queues[mode]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownMode, fmt.Sprintf("unknown mode %q", mode))
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.eligible) == 0 {
		return nil, errors.New(errors.ErrCodeNoEligibleObjects, MsgNoEligibleObjects)
	}

	if len(q.pending) == 0 {
		q.pending = qm.permutation(q.eligible)
		q.cycles++
		logger.Debug("Selection queue reshuffled", "mode", mode, "cycle", q.cycles)
	}

	next := q.pending[0]
	q.pending[0] = nil
	q.pending = q.pending[1:]
	return next, nil
}

// Remaining reports how many entries are left in mode's current cycle.
func (qm *QueueManager) Remaining(mode string) int {
	q, ok := qm.queues[mode]
	if !ok {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// EligibleCount reports the size of mode's eligible subset.
func (qm *QueueManager) EligibleCount(mode string) int {
	q, ok := qm.queues[mode]
	if !ok {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.eligible)
}

func (qm *QueueManager) permutation(eligible []*models.CatalogEntry) []*models.CatalogEntry {
	out := append([]*models.CatalogEntry(nil), eligible...)

	qm.rngMu.Lock()
	qm.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	qm.rngMu.Unlock()

	return out
}
