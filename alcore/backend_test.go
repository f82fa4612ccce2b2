package alcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAvailableBackendsReturnsTableInOrder(t *testing.T) {
	backends := AvailableBackends()
	wantOrder := []string{"malgo", "loopback", "null"}
	names := make([]string, len(backends))
	for i, b := range backends {
		names[i] = b.Name()
	}
	assert.Equal(t, wantOrder, names)
}

func TestSelectBackendFiltersByDriverOrder(t *testing.T) {
	selected := SelectBackend([]string{"null", "loopback"})
	names := make([]string, len(selected))
	for i, b := range selected {
		names[i] = b.Name()
	}
	assert.Equal(t, []string{"null", "loopback"}, names)
}

func TestSelectBackendUnknownNameIsSkipped(t *testing.T) {
	selected := SelectBackend([]string{"nonexistent", "null"})
	assert.Len(t, selected, 1)
	assert.Equal(t, "null", selected[0].Name())
}

func TestSelectBackendEmptyOrderReturnsEverything(t *testing.T) {
	selected := SelectBackend(nil)
	assert.Len(t, selected, len(AvailableBackends()))
}
