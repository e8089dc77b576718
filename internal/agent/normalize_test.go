package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeProcedureType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{" root canal ", "ROOT_CANAL"},
		{"check-up", "CHECK_UP"},
		{"FILLING", "FILLING"},
		{"deep  scaling", "DEEP__SCALING"},
		{"", "CONSULTATION"},
		{"   ", "CONSULTATION"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeProcedureType(tt.in), "input %q", tt.in)
	}
}

func TestNormalizeProcedureTypeTruncates(t *testing.T) {
	long := strings.Repeat("a", 80)
	got := NormalizeProcedureType(long)
	assert.Len(t, got, 50)
	assert.Equal(t, strings.Repeat("A", 50), got)
}
