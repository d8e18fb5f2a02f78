package server

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerd/internal/broker"
	"github.com/lox/pokerd/internal/game"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func newEndpoint(b *broker.MemoryBroker, id string, chips int) *game.PlayerEndpoint {
	ch := broker.NewChannel(b, "poker:player-"+id+":session-1:I", "poker:player-"+id+":session-1:O")
	return game.NewPlayerEndpoint(game.NewPlayer(id, "Player "+id, chips, 0), ch, quartz.NewReal(), testLogger())
}

func TestSeatTableAdd(t *testing.T) {
	b := broker.NewMemoryBroker()
	table := NewSeatTable(3)

	seat, err := table.Add(newEndpoint(b, "a", 1000))
	require.NoError(t, err)
	assert.Equal(t, 0, seat)
	assert.Equal(t, "a", table.Owner(), "first joiner owns the room")

	seat, err = table.Add(newEndpoint(b, "b", 1000))
	require.NoError(t, err)
	assert.Equal(t, 1, seat)
	assert.Equal(t, "a", table.Owner())
	assert.Equal(t, 2, table.Count())
}

func TestSeatTableAddDuplicate(t *testing.T) {
	b := broker.NewMemoryBroker()
	table := NewSeatTable(3)

	_, err := table.Add(newEndpoint(b, "a", 1000))
	require.NoError(t, err)

	_, err = table.Add(newEndpoint(b, "a", 500))
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestSeatTableFull(t *testing.T) {
	b := broker.NewMemoryBroker()
	table := NewSeatTable(2)

	_, err := table.Add(newEndpoint(b, "a", 1000))
	require.NoError(t, err)
	_, err = table.Add(newEndpoint(b, "b", 1000))
	require.NoError(t, err)

	_, err = table.Add(newEndpoint(b, "c", 1000))
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestSeatTableRemoveTransfersOwnership(t *testing.T) {
	b := broker.NewMemoryBroker()
	table := NewSeatTable(3)

	for _, id := range []string{"a", "b", "c"} {
		_, err := table.Add(newEndpoint(b, id, 1000))
		require.NoError(t, err)
	}

	changed, err := table.Remove("b")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "a", table.Owner())

	changed, err = table.Remove("a")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "c", table.Owner())

	changed, err = table.Remove("c")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "", table.Owner())

	_, err = table.Remove("c")
	assert.ErrorIs(t, err, ErrUnknownPlayer)
}

func TestSeatTableFreedSeatIsReused(t *testing.T) {
	b := broker.NewMemoryBroker()
	table := NewSeatTable(3)

	for _, id := range []string{"a", "b", "c"} {
		_, err := table.Add(newEndpoint(b, id, 1000))
		require.NoError(t, err)
	}
	_, err := table.Remove("b")
	require.NoError(t, err)

	seat, err := table.Add(newEndpoint(b, "d", 1000))
	require.NoError(t, err)
	assert.Equal(t, 1, seat, "lowest empty seat")
}

func TestSeatTableSeatIDs(t *testing.T) {
	b := broker.NewMemoryBroker()
	table := NewSeatTable(3)

	_, err := table.Add(newEndpoint(b, "a", 1000))
	require.NoError(t, err)
	_, err = table.Add(newEndpoint(b, "b", 1000))
	require.NoError(t, err)
	_, err = table.Remove("a")
	require.NoError(t, err)

	ids := table.SeatIDs()
	require.Len(t, ids, 3)
	assert.Nil(t, ids[0])
	require.NotNil(t, ids[1])
	assert.Equal(t, "b", *ids[1])
	assert.Nil(t, ids[2])
}
