package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/nlaurent/cadence/internal/log"
	"github.com/nlaurent/cadence/internal/queue"
)

// errHydrationTimeout marks a collection whose item IDs never arrived.
var errHydrationTimeout = errors.New("collection item IDs not available before ceiling")

// placeholderPrefix marks the synthetic track queued while a collection
// hydrates.
const placeholderPrefix = "collection:"

func isPlaceholderID(id string) bool {
	return strings.HasPrefix(id, placeholderPrefix)
}

// LoadCollection asks the device to load an externally-identified
// collection, then hydrates the resulting item IDs into display-ready
// tracks through the metadata resolver.
//
// The call returns immediately. A placeholder track is queued so
// observers have something to show; the queue then grows batch by batch
// as metadata resolves. A failed lookup yields a fallback record instead
// of failing the batch. If the device never reports item IDs before the
// ceiling the engine ends idle with the queue as it stands; the only
// signal is an ErrorEvent with Op "hydrate".
//
// Starting a new LoadCollection supersedes any hydration still in flight.
func (e *Engine) LoadCollection(collectionID, label string) {
	e.mu.Lock()
	e.cancelHydrationLocked()
	ctx, cancel := context.WithCancel(context.Background())
	e.hydrateCancel = cancel

	e.command("load-collection", collectionID, func() error {
		return e.dev.LoadCollection(collectionID)
	})

	placeholder := queue.Track{
		ID:     placeholderPrefix + collectionID,
		Title:  "Loading…",
		Artist: label,
	}
	prev := e.currentTrackLocked()
	prevIndex := e.queue.CurrentIndex()
	e.queue.Replace([]queue.Track{placeholder}, 0)
	e.invalidatePollLocked()
	e.setStateLocked(StateLoading)
	e.publishQueue(QueueChange{Tracks: e.queue.Tracks(), Index: 0})
	e.publishTrack(TrackChange{
		Previous:      prev,
		Current:       e.currentTrackLocked(),
		PreviousIndex: prevIndex,
		Index:         0,
	})
	e.mu.Unlock()

	go e.hydrate(ctx, collectionID, label)
}

// cancelHydrationLocked supersedes any in-flight hydration.
func (e *Engine) cancelHydrationLocked() {
	if e.hydrateCancel != nil {
		e.hydrateCancel()
		e.hydrateCancel = nil
	}
}

func (e *Engine) hydrate(ctx context.Context, collectionID, label string) {
	ids, ok := e.awaitItemIDs(ctx, collectionID)
	if !ok {
		return
	}
	log.Infof("engine: hydrating collection %s: %d items", collectionID, len(ids))

	var accumulated []queue.Track
	batches := lo.Chunk(ids, e.opts.HydrationBatchSize)
	for _, batch := range batches {
		if ctx.Err() != nil {
			return
		}
		accumulated = append(accumulated, e.resolveBatch(ctx, batch, label)...)
		done := len(accumulated) == len(ids)
		if !e.publishHydrated(ctx, collectionID, accumulated, len(ids), done) {
			return
		}
	}
}

// awaitItemIDs polls the device for the resolved item ID list, bounded by
// the hydration ceiling. On ceiling expiry the engine goes idle silently
// apart from the hydrate ErrorEvent.
func (e *Engine) awaitItemIDs(ctx context.Context, collectionID string) ([]string, bool) {
	ceiling := time.NewTimer(e.opts.HydrationCeiling)
	defer ceiling.Stop()
	ticker := time.NewTicker(e.opts.HydrationPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, false
		case <-ceiling.C:
			// A superseding call may have cancelled this hydration just as
			// the ceiling fired; a dead hydration stays silent.
			e.mu.Lock()
			superseded := ctx.Err() != nil
			if !superseded {
				e.hydrateCancel = nil
				e.setStateLocked(StateIdle)
			}
			e.mu.Unlock()
			if !superseded {
				log.Warnf("engine: collection %s produced no item IDs before ceiling", collectionID)
				e.publishError(ErrorEvent{Op: "hydrate", TrackID: collectionID, Err: errHydrationTimeout})
			}
			return nil, false
		case <-ticker.C:
			ids, err := e.dev.CollectionItemIDs()
			if err != nil {
				continue
			}
			if len(ids) > 0 {
				return ids, true
			}
		}
	}
}

// resolveBatch looks up metadata for one batch of IDs concurrently, each
// lookup bounded by its own timeout. Order within the batch is preserved;
// failures become fallback records.
func (e *Engine) resolveBatch(ctx context.Context, ids []string, label string) []queue.Track {
	tracks := make([]queue.Track, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			lookupCtx, cancel := context.WithTimeout(ctx, e.opts.HydrationItemTimeout)
			defer cancel()
			meta, err := e.resolver.Resolve(lookupCtx, id)
			if err != nil {
				log.Debugf("engine: metadata lookup failed for %s: %v", id, err)
				tracks[i] = e.fallbackTrack(id, label)
				return
			}
			tracks[i] = queue.Track{
				ID:           id,
				Title:        meta.Title,
				Artist:       meta.AuthorName,
				ThumbnailURL: meta.ThumbnailURL,
			}
		}(i, id)
	}
	wg.Wait()
	return tracks
}

// publishHydrated replaces the queue with the accumulated tracks and
// notifies subscribers. Returns false when the hydration was superseded.
func (e *Engine) publishHydrated(ctx context.Context, collectionID string, tracks []queue.Track, total int, done bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ctx.Err() != nil {
		return false
	}

	prev := e.currentTrackLocked()
	prevIndex := e.queue.CurrentIndex()

	// The first publication swaps the placeholder for the first real
	// track. Later ones only grow the tail: if the user navigated in the
	// meantime the cursor follows the selected track's ID, so a batch
	// landing never moves playback off the track the device is on.
	index := 0
	if prev != nil && !isPlaceholderID(prev.ID) {
		for i := range tracks {
			if tracks[i].ID == prev.ID {
				index = i
				break
			}
		}
	}
	e.queue.Replace(tracks, index)
	e.publishQueue(QueueChange{Tracks: e.queue.Tracks(), Index: index})
	e.publishHydration(HydrationChange{
		CollectionID: collectionID,
		Resolved:     len(tracks),
		Total:        total,
		Done:         done,
	})

	cur := e.currentTrackLocked()
	if prev != nil && cur != nil && prev.ID != cur.ID {
		e.publishTrack(TrackChange{
			Previous:      prev,
			Current:       cur,
			PreviousIndex: prevIndex,
			Index:         index,
		})
	}

	if done {
		e.hydrateCancel = nil
		// The device usually confirms playback on its own; if it has not
		// yet, the selection is complete but unconfirmed.
		if e.state == StateLoading {
			e.setStateLocked(StatePaused)
		}
		log.Infof("engine: collection %s hydrated: %d tracks", collectionID, len(tracks))
	}
	return true
}

// fallbackTrack builds a degraded record for an item whose metadata
// lookup failed: title derived from the ID, collection label as artist,
// thumbnail generated from the raw ID.
func (e *Engine) fallbackTrack(id, label string) queue.Track {
	return queue.Track{
		ID:           id,
		Title:        "Track " + id,
		Artist:       label,
		ThumbnailURL: fmt.Sprintf(e.opts.FallbackThumbnail, id),
	}
}
