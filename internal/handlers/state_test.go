package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReader() *fakeReader {
	return &fakeReader{
		view: state.View{
			Active:           true,
			Phase:            state.PhaseWaitingForChoice,
			Scene:            "intro",
			Speaker:          "Peter Griffin",
			Text:             "Want a beer?",
			WaitingForChoice: true,
			Choices:          []string{"Sure", "No thanks"},
			LogLength:        3,
		},
		log: []state.LogEntry{
			{Kind: state.LogEntryLine, Speaker: "Glenn Quagmire", Text: "Alright!"},
			{Kind: state.LogEntryChoice, Options: []dialogue.Choice{{Text: "Sure"}, {Text: "No thanks"}}, Selected: 0},
			{Kind: state.LogEntryLine, Speaker: "Joe Swanson", Text: "Sure"},
		},
	}
}

func TestStateHandler(t *testing.T) {
	handler := NewStateHandler(sampleReader(), testLogger())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/state", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var view state.View
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, state.PhaseWaitingForChoice, view.Phase)
	assert.Equal(t, []string{"Sure", "No thanks"}, view.Choices)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/v1/state", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, http.MethodGet, rr.Header().Get("Allow"))
}

func TestLogHandler(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedLen    int
	}{
		{name: "all", query: "", expectedStatus: http.StatusOK, expectedLen: 3},
		{name: "since", query: "?since=2", expectedStatus: http.StatusOK, expectedLen: 1},
		{name: "since past end", query: "?since=10", expectedStatus: http.StatusOK, expectedLen: 0},
		{name: "negative since", query: "?since=-1", expectedStatus: http.StatusBadRequest},
		{name: "garbage since", query: "?since=two", expectedStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewLogHandler(sampleReader(), testLogger())
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/log"+tt.query, nil))

			require.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedStatus != http.StatusOK {
				return
			}
			var resp LogResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Len(t, resp.Entries, tt.expectedLen)
			assert.NotNil(t, resp.Entries)
			assert.Equal(t, 3, resp.Total)
		})
	}
}

func TestLogHandler_Text(t *testing.T) {
	handler := NewLogHandler(sampleReader(), testLogger())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/log?format=text", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, "Glenn Quagmire: Alright!\n> Sure\n  No thanks\nJoe Swanson: Sure\n", rr.Body.String())
}
