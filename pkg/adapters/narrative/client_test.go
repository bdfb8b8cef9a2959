package narrative_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/boletim/pkg/adapters/narrative"
	"github.com/aretw0/boletim/pkg/domain"
	"github.com/aretw0/boletim/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.NarrativeGenerator = (*narrative.Client)(nil)
var _ ports.NarrativeGenerator = narrative.Func(nil)

func TestClient_Generate(t *testing.T) {
	// 1. Fake collaborator echoing the request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body struct {
			SectionID string `json:"sectionId"`
			Answers   []struct {
				StepID string `json:"stepId"`
				Text   string `json:"text"`
			} `json:"answers"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "1", body.SectionID)
		require.Len(t, body.Answers, 2)
		assert.Equal(t, "1.1", body.Answers[0].StepID)

		_ = json.NewEncoder(w).Encode(map[string]string{"text": "Na praça central, houve vítimas."})
	}))
	defer srv.Close()

	// 2. Generate
	client := narrative.New(srv.URL)
	text, err := client.Generate(context.Background(), "1", []domain.AnswerEntry{
		{StepID: "1.1", Text: "Praça central"},
		{StepID: "1.2", Text: "SIM"},
	})

	// 3. Verify
	require.NoError(t, err)
	assert.Equal(t, "Na praça central, houve vítimas.", text)
}

func TestClient_Failures(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		contains string
		target   error
	}{
		{
			name: "Server Error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "model overloaded", http.StatusServiceUnavailable)
			},
			contains: "status 503: model overloaded",
		},
		{
			name: "Invalid Body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
			contains: "decode response",
		},
		{
			name: "Empty Text",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"text":"  "}`))
			},
			target: narrative.ErrEmptyNarrative,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := narrative.New(srv.URL).Generate(context.Background(), "1", nil)
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestClient_NoRetryAndDeadline(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := narrative.New(srv.URL, narrative.WithHTTPClient(srv.Client())).Generate(ctx, "1", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), calls.Load())
}
