package infrastructure

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResolver(t *testing.T, body string, status int, local []net.IP, localErr error) *AddressResolver {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return &AddressResolver{
		HTTPClient: srv.Client(),
		URL:        srv.URL,
		Hostname:   func() (string, error) { return "workstation", nil },
		LookupIP: func(context.Context, string, string) ([]net.IP, error) {
			return local, localErr
		},
	}
}

func TestClientCIDRs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		status   int
		local    []net.IP
		localErr error
		want     []string
		wantErr  bool
	}{
		{
			name:   "local and public",
			body:   "203.0.113.7\n",
			status: http.StatusOK,
			local:  []net.IP{net.ParseIP("192.168.1.10")},
			want:   []string{"192.168.1.10/32", "203.0.113.7/32"},
		},
		{
			name:   "same address collapses",
			body:   "203.0.113.7",
			status: http.StatusOK,
			local:  []net.IP{net.ParseIP("203.0.113.7")},
			want:   []string{"203.0.113.7/32"},
		},
		{
			name:     "unresolvable hostname is skipped",
			body:     "203.0.113.7",
			status:   http.StatusOK,
			localErr: errors.New("no such host"),
			want:     []string{"203.0.113.7/32"},
		},
		{
			name:   "ipv6 local addresses are ignored",
			body:   "203.0.113.7",
			status: http.StatusOK,
			local:  []net.IP{net.ParseIP("2001:db8::1"), net.ParseIP("10.1.2.3")},
			want:   []string{"10.1.2.3/32", "203.0.113.7/32"},
		},
		{
			name:    "public lookup failure",
			body:    "oops",
			status:  http.StatusServiceUnavailable,
			local:   []net.IP{net.ParseIP("192.168.1.10")},
			wantErr: true,
		},
		{
			name:    "garbage public address",
			body:    "<html>",
			status:  http.StatusOK,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := testResolver(t, tt.body, tt.status, tt.local, tt.localErr)

			got, err := r.ClientCIDRs(context.Background())

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPublicIP_Unreachable(t *testing.T) {
	t.Parallel()
	r := NewAddressResolver()
	r.URL = "http://127.0.0.1:1/"

	_, err := r.PublicIP(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to look up public address")
}
