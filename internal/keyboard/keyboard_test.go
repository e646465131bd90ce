package keyboard

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPlayer struct {
	id    int
	mu    sync.Mutex
	slots []int
}

func (p *recordingPlayer) ID() int { return p.id }

func (p *recordingPlayer) OfferInput(slot int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slots = append(p.slots, slot)
	return true
}

func (p *recordingPlayer) offered() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.slots...)
}

func TestNew(t *testing.T) {
	p0, p1 := &recordingPlayer{id: 0}, &recordingPlayer{id: 1}

	tests := []struct {
		name    string
		layouts []string
		wantErr string
	}{
		{name: "valid", layouts: []string{"qwer", "uiop"}},
		{name: "missing layout", layouts: []string{"qwer"}, wantErr: "need 2 key layouts"},
		{name: "short layout", layouts: []string{"qwe", "uiop"}, wantErr: "has 3 keys"},
		{name: "shared key", layouts: []string{"qwer", "uiow"}, wantErr: "bound to both"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(4, tt.layouts, []Offerer{p0, p1})
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, r)
		})
	}
}

func TestPress(t *testing.T) {
	p0, p1 := &recordingPlayer{id: 0}, &recordingPlayer{id: 1}
	r, err := New(4, []string{"qwer", "uiop"}, []Offerer{p0, p1})
	require.NoError(t, err)

	assert.True(t, r.Press('w'))
	assert.True(t, r.Press('p'))
	assert.False(t, r.Press('z'))

	assert.Equal(t, []int{1}, p0.offered())
	assert.Equal(t, []int{3}, p1.offered())
}

func TestRun(t *testing.T) {
	p0, p1 := &recordingPlayer{id: 0}, &recordingPlayer{id: 1}
	r, err := New(4, []string{"qwer", "uiop"}, []Offerer{p0, p1})
	require.NoError(t, err)

	err = r.Run(context.Background(), strings.NewReader("qrx\nio"))
	require.NoError(t, err)

	assert.Equal(t, []int{0, 3}, p0.offered())
	assert.Equal(t, []int{1, 2}, p1.offered())
}

func TestRun_StopsOnCancel(t *testing.T) {
	p0 := &recordingPlayer{id: 0}
	r, err := New(2, []string{"ab"}, []Offerer{p0})
	require.NoError(t, err)

	blocked, w := io.Pipe()
	defer w.Close()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, blocked) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
