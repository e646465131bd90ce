package docker

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextFreePort(t *testing.T) {
	always := func(int) bool { return true }

	tests := []struct {
		name     string
		used     map[int]bool
		bindable func(int) bool
		want     int
		wantErr  bool
	}{
		{name: "nothing used", used: nil, bindable: always, want: FirstFeedPort},
		{name: "skips labelled ports", used: map[int]bool{6379: true, 6380: true}, bindable: always, want: 6381},
		{
			name:     "skips ports held by other processes",
			bindable: func(p int) bool { return p > 6390 },
			want:     6391,
		},
		{name: "range exhausted", bindable: func(int) bool { return false }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port, err := nextFreePort(tt.used, tt.bindable)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "exhausted")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, port)
		})
	}
}

func TestIsPortBindable(t *testing.T) {
	listener, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	defer listener.Close()

	port := listener.Addr().(*net.TCPAddr).Port
	assert.False(t, isPortBindable(port))
}
