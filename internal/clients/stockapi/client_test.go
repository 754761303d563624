package stockapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_ResolvedSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"companyName":"Apple Inc","latestPrice":189.84,"symbol":"AAPL","extraField":true}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zerolog.Nop())

	quote := client.Lookup("aapl")
	require.NotNil(t, quote)
	assert.Equal(t, "AAPL", quote.Symbol)
	assert.Equal(t, "Apple Inc", quote.Name)
	assert.Equal(t, "189.84", quote.Price.String())
}

func TestLookup_UpperCasesAndTrimsSymbol(t *testing.T) {
	var requested string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Query().Get("symbol")
		_, _ = w.Write([]byte(`{"companyName":"Netflix Inc","latestPrice":500,"symbol":"NFLX"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zerolog.Nop())

	quote := client.Lookup("  nflx ")
	require.NotNil(t, quote)
	assert.Equal(t, "NFLX", requested)
}

// Every failure mode downgrades to nil - the caller treats "not found" and
// "transient upstream issue" identically.
func TestLookup_FailureModesReturnNil(t *testing.T) {
	testCases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "Unresolved symbol (no echoed symbol field)",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"companyName":"","latestPrice":0}`))
			},
		},
		{
			name: "Non-OK status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "not found", http.StatusNotFound)
			},
		},
		{
			name: "Malformed payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"companyName": not json`))
			},
		},
		{
			name: "Empty body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			client := NewClient(srv.URL, zerolog.Nop())
			assert.Nil(t, client.Lookup("ZZZZ"))
		})
	}
}

func TestLookup_NetworkErrorReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // Connection refused from here on

	client := NewClient(srv.URL, zerolog.Nop())
	assert.Nil(t, client.Lookup("AAPL"))
}

func TestLookup_BlankSymbolSkipsRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zerolog.Nop())

	assert.Nil(t, client.Lookup("   "))
	assert.False(t, called, "blank symbol should not hit the API")
}
