package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRowInt64Coercions(t *testing.T) {
	r := Row{
		"a": int64(5),
		"b": int32(6),
		"c": 7,
		"d": float64(8),
		"e": " 9 ",
		"f": "not a number",
		"g": nil,
	}

	assert.Equal(t, int64(5), r.Int64("a"))
	assert.Equal(t, int64(6), r.Int64("b"))
	assert.Equal(t, int64(7), r.Int64("c"))
	assert.Equal(t, int64(8), r.Int64("d"))
	assert.Equal(t, int64(9), r.Int64("e"))
	assert.Equal(t, int64(0), r.Int64("f"))
	assert.Equal(t, int64(0), r.Int64("g"))
	assert.Equal(t, int64(0), r.Int64("missing"))
}

func TestRowStringAndStatus(t *testing.T) {
	r := Row{
		"name":   "  Dr. Rao  ",
		"raw":    []byte("bytes"),
		"status": "scheduled",
		"count":  int64(3),
	}

	assert.Equal(t, "Dr. Rao", r.String("name"))
	assert.Equal(t, "bytes", r.String("raw"))
	assert.Equal(t, "", r.String("count"))
	assert.Equal(t, "", r.String("missing"))
	assert.Equal(t, "SCHEDULED", r.Status())
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StatusCancelled))
	assert.True(t, IsTerminal(StatusCompleted))
	assert.True(t, IsTerminal(StatusNoShow))
	assert.False(t, IsTerminal(StatusScheduled))
	assert.False(t, IsTerminal("DELAYED"))
}
