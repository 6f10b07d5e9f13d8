package providers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFearGreed(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantIndex int
		wantLabel string
		wantErr   bool
	}{
		{"valid", `{"data":[{"value":"23","value_classification":"Extreme Fear"}]}`, 23, "Extreme Fear", false},
		{"blank label", `{"data":[{"value":"50","value_classification":""}]}`, 50, "Neutral", false},
		{"empty data", `{"data":[]}`, 0, "", true},
		{"non integer", `{"data":[{"value":"4.5"}]}`, 0, "", true},
		{"out of range", `{"data":[{"value":"101"}]}`, 0, "", true},
		{"negative", `{"data":[{"value":"-1"}]}`, 0, "", true},
		{"malformed", `[`, 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFearGreed([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantIndex, got.FearGreedIndex)
			assert.Equal(t, tt.wantLabel, got.FearGreedLabel)
		})
	}
}

func TestFearGreedClient_GetSentiment(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fng/", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"name":"Fear and Greed Index","data":[{"value":"78","value_classification":"Extreme Greed","timestamp":"1700000000"}]}`))
	})

	got, err := NewFearGreedClient(providerConfig(server.URL)).GetSentiment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 78, got.FearGreedIndex)
	assert.Equal(t, "Extreme Greed", got.FearGreedLabel)
}
