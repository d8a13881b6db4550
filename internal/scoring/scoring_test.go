package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name  string
		flags Flags
		want  float64
	}{
		{
			name:  "503 overrides everything",
			flags: Flags{Error404: true, Error503: true, Warning: true},
			want:  0,
		},
		{
			name:  "503 alone still zero",
			flags: Flags{Error503: true},
			want:  0,
		},
		{
			// Max score is 0.7, not 1.0: the 503 signal carries no additive
			// weight. Pinned on purpose.
			name:  "clean domain",
			flags: Flags{},
			want:  0.7,
		},
		{
			name:  "404 only",
			flags: Flags{Error404: true},
			want:  0.3,
		},
		{
			name:  "warning only",
			flags: Flags{Warning: true},
			want:  0.4,
		},
		{
			name:  "404 and warning",
			flags: Flags{Error404: true, Warning: true},
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Compute(tt.flags), 1e-9)
		})
	}
}
