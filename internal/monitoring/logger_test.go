package monitoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLogger(t *testing.T) {
	orig := Logf
	t.Cleanup(func() { Logf = orig })

	var got []string
	SetLogger(func(format string, v ...interface{}) {
		got = append(got, fmt.Sprintf(format, v...))
	})
	Logf("[player] t=%.1f", 2.5)
	assert.Equal(t, []string{"[player] t=2.5"}, got)

	SetLogger(nil)
	Logf("muted")
	assert.Len(t, got, 1)
}
