package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSide(t *testing.T) {
	assert.True(t, SideA.IsValid())
	assert.True(t, SideB.IsValid())
	assert.False(t, Side("a").IsValid())
	assert.False(t, Side("").IsValid())

	assert.Equal(t, SideB, SideA.Opposite())
	assert.Equal(t, SideA, SideB.Opposite())
}

func TestEvent_Resolve(t *testing.T) {
	event := &Event{Kind: EventKindWager}
	first := time.Now().UTC()

	assert.False(t, event.IsResolved())
	assert.Equal(t, Side(""), event.WinningSide())

	event.Resolve(SideB, first)
	event.Resolve(SideA, first.Add(time.Hour))

	require.True(t, event.IsResolved())
	assert.Equal(t, SideB, event.WinningSide())
	assert.Equal(t, first, event.Resolution.ResolvedAt)
}

func TestEvent_IsClosedAt(t *testing.T) {
	closesAt := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	event := &Event{ClosesAt: closesAt}

	assert.False(t, event.IsClosedAt(closesAt.Add(-time.Nanosecond)))
	assert.True(t, event.IsClosedAt(closesAt))
	assert.True(t, event.IsClosedAt(closesAt.Add(time.Minute)))
}

func TestEvent_Pools(t *testing.T) {
	event := &Event{SideA: "Yes", SideB: "No", PoolA: 100, PoolB: 250}

	assert.Equal(t, int64(100), event.Pool(SideA))
	assert.Equal(t, int64(250), event.Pool(SideB))
	assert.Equal(t, int64(350), event.TotalPool())
	assert.Equal(t, "No", event.SideLabel(SideB))
}

func TestPlacement_StatusFor(t *testing.T) {
	now := time.Now().UTC()
	placement := &Placement{Side: SideA}

	open := &Event{ClosesAt: now.Add(time.Hour)}
	closed := &Event{ClosesAt: now.Add(-time.Hour)}
	won := &Event{ClosesAt: now.Add(-time.Hour), Resolution: &Resolution{WinningSide: SideA}}
	lost := &Event{ClosesAt: now.Add(time.Hour), Resolution: &Resolution{WinningSide: SideB}}

	assert.Equal(t, PlacementStatusOpen, placement.StatusFor(open, now))
	assert.Equal(t, PlacementStatusClosed, placement.StatusFor(closed, now))
	assert.Equal(t, PlacementStatusWon, placement.StatusFor(won, now))
	assert.Equal(t, PlacementStatusLost, placement.StatusFor(lost, now))
}

func TestPlacement_PlacedBefore(t *testing.T) {
	at := time.Now().UTC()
	first := &Placement{ID: 2, PlacedAt: at}
	second := &Placement{ID: 1, PlacedAt: at.Add(time.Second)}
	tie := &Placement{ID: 3, PlacedAt: at}

	assert.True(t, first.PlacedBefore(second))
	assert.False(t, second.PlacedBefore(first))
	assert.True(t, first.PlacedBefore(tie))
	assert.False(t, tie.PlacedBefore(first))
}

func TestRejection_Message(t *testing.T) {
	assert.Equal(t, "maximum stake for this event is 12.05", RejectMaxStake(1205).Message())
	assert.Equal(t, "event name cannot be empty", RejectInvalidEvent("event name cannot be empty").Message())
	assert.Equal(t, "side must be A or B", Reject(RejectionInvalidSide).Message())
}
