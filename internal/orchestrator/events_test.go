package orchestrator

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockIsMonotonic(t *testing.T) {
	var c Clock
	assert.EqualValues(t, 0, c.Current())
	assert.EqualValues(t, 1, c.Next())
	assert.EqualValues(t, 2, c.Next())
	assert.EqualValues(t, 2, c.Current())
}

func TestEventLogStampsDenseSequence(t *testing.T) {
	log := newEventLog(nil)
	log.emit(Event{Kind: EventPhaseStarted, Phase: PhaseConfiguration})
	log.emit(Event{Kind: EventPhaseCompleted, Phase: PhaseConfiguration})

	events := log.all()
	require.Len(t, events, 2)
	assert.EqualValues(t, 1, events[0].Seq)
	assert.EqualValues(t, 2, events[1].Seq)
}

func TestEventLogObserverSeesSeqOrder(t *testing.T) {
	var delivered []int64
	log := newEventLog(func(e Event) {
		delivered = append(delivered, e.Seq)
	})

	// Job updates arrive from concurrent workers; the observer must
	// still see every event exactly once and in Seq order.
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			log.emit(Event{Kind: EventJobUpdated, Phase: PhaseImageGeneration, JobIndex: idx})
		}(i)
	}
	wg.Wait()

	require.Len(t, delivered, 32)
	for i, seq := range delivered {
		assert.EqualValues(t, i+1, seq)
	}

	// Retained log and delivery agree.
	events := log.all()
	require.Len(t, events, 32)
	for i, e := range events {
		assert.Equal(t, delivered[i], e.Seq)
	}
}
