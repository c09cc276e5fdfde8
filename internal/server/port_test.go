package server

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func checkFree(free ...int) PortChecker {
	set := make(map[int]bool, len(free))
	for _, p := range free {
		set[p] = true
	}
	return func(host string, port int) error {
		if set[port] {
			return nil
		}
		return &PortUnavailableError{Host: host, Port: port, Err: errors.New("address already in use")}
	}
}

func TestSelectPort(t *testing.T) {
	tests := []struct {
		name       string
		candidates []int
		free       []int
		want       int
		wantErr    error
	}{
		{"all free picks last", []int{3030, 8888, 8080, 80}, []int{3030, 8888, 8080, 80}, 80, nil},
		{"privileged port unavailable", []int{3030, 8888, 8080, 80}, []int{3030, 8888, 8080}, 8080, nil},
		{"only first free", []int{3030, 8888, 8080, 80}, []int{3030}, 3030, nil},
		{"none free", []int{3030, 8888, 8080, 80}, nil, 0, ErrPortExhaustion},
		{"empty list", nil, []int{3030}, 0, ErrPortExhaustion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectPort("127.0.0.1", tt.candidates, checkFree(tt.free...))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectPort_LastFreeCandidateWins(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		candidates := rapid.SliceOfNDistinct(rapid.IntRange(1, 65535), 0, 8, rapid.ID[int]).Draw(t, "candidates")
		freeMask := rapid.SliceOfN(rapid.Bool(), len(candidates), len(candidates)).Draw(t, "free")

		var free []int
		want := -1
		for i, p := range candidates {
			if freeMask[i] {
				free = append(free, p)
				want = p
			}
		}

		got, err := SelectPort("127.0.0.1", candidates, checkFree(free...))
		if want < 0 {
			if !errors.Is(err, ErrPortExhaustion) {
				t.Fatalf("expected ErrPortExhaustion, got port=%d err=%v", got, err)
			}
			return
		}
		if err != nil || got != want {
			t.Fatalf("expected %d, got %d (err=%v)", want, got, err)
		}
	})
}

func TestCheckPort_InUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	err = CheckPort("127.0.0.1", port)
	require.Error(t, err)

	var unavailable *PortUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, port, unavailable.Port)
	assert.True(t, unavailable.InUse())
	assert.Contains(t, unavailable.Error(), "already in use")
}

func TestCheckPort_FreeAndReleased(t *testing.T) {
	port := freePort(t)

	require.NoError(t, CheckPort("127.0.0.1", port))

	// The check must not keep the port.
	ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	require.NoError(t, err)
	_ = ln.Close()
}

func TestFailureMessage(t *testing.T) {
	assert.Equal(t, "No open ports to bind to", FailureMessage(ErrPortExhaustion))
	assert.Equal(t, "No open ports to bind to", FailureMessage(fmt.Errorf("select: %w", ErrPortExhaustion)))
	assert.Equal(t, "boom", FailureMessage(errors.New("boom")))
}

// freePort asks the OS for an ephemeral port and releases it.
func freePort(t testing.TB) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}
