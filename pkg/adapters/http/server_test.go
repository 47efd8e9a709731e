package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/screener"
	"github.com/aretw0/screener/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	eng, err := screener.New()
	require.NoError(t, err)
	h, err := NewHandler(eng, opts...)
	require.NoError(t, err)
	return h
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeTurn(t *testing.T, w *httptest.ResponseRecorder) Turn {
	t.Helper()
	var turn Turn
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &turn), w.Body.String())
	return turn
}

func complete(t *testing.T, h http.Handler, sess *domain.Session, data map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	body := map[string]any{"session": sess}
	if data != nil {
		body["data"] = data
	}
	return do(t, h, http.MethodPost, "/v1/complete", body)
}

func TestLoadSpec(t *testing.T) {
	doc, err := LoadSpec()
	require.NoError(t, err)
	assert.Equal(t, "Screener API", doc.Info.Title)
	for _, name := range []string{"Turn", "CompleteRequest", "EnterRequest", "Error"} {
		assert.Contains(t, doc.Components.Schemas, name)
	}
}

func TestHealthAndInfo(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/info", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var info map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, screener.Version, info["version"])
	assert.Equal(t, "Commotion", info["company"])
	assert.Equal(t, "50", info["threshold"])
}

func TestCreateSession(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodPost, "/v1/sessions", map[string]any{"id": "cand-1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	turn := decodeTurn(t, w)
	assert.Equal(t, "cand-1", turn.Session.ID)
	assert.Equal(t, domain.StageGreeting, turn.Stage)
	assert.Equal(t, domain.ShapeNone, turn.Expects)
	assert.Equal(t, "start_interview", turn.Function)
	assert.NotEmpty(t, turn.Prompt)

	// No body at all.
	w = do(t, h, http.MethodPost, "/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, decodeTurn(t, w).Session.ID)
}

func TestCompleteStage_Accepted(t *testing.T) {
	h := newTestHandler(t)
	turn := decodeTurn(t, do(t, h, http.MethodPost, "/v1/sessions", nil))

	steps := []struct {
		data map[string]any
		next domain.StageID
	}{
		{nil, domain.StageCollectName},
		{map[string]any{"name": "Priya"}, domain.StageCollectSalary},
		{map[string]any{"salary": 30}, domain.StageMotivation},
		{map[string]any{"motivation": "I like the product"}, domain.StageResolution},
		{nil, domain.StageClosing},
	}
	for _, step := range steps {
		w := complete(t, h, turn.Session, step.data)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		turn = decodeTurn(t, w)
		assert.Equal(t, step.next, turn.Stage)
	}

	assert.True(t, turn.Terminal)
	assert.Contains(t, turn.Prompt, "Priya")
	assert.Equal(t, domain.OutcomeAccepted, turn.Session.State.Outcome)

	w := complete(t, h, turn.Session, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "terminal_stage")
}

func TestCompleteStage_ExtractionFailure(t *testing.T) {
	h := newTestHandler(t)
	turn := decodeTurn(t, do(t, h, http.MethodPost, "/v1/sessions", nil))
	turn = decodeTurn(t, complete(t, h, turn.Session, nil))
	turn = decodeTurn(t, complete(t, h, turn.Session, map[string]any{"name": "Ravi"}))
	require.Equal(t, domain.StageCollectSalary, turn.Stage)

	w := complete(t, h, turn.Session, map[string]any{"salary": "a lot"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "extraction_failed", resp.Code)
	assert.Equal(t, "salary", resp.Field)
	assert.NotEmpty(t, resp.Reprompt)
	require.NotNil(t, resp.Turn)
	assert.Equal(t, domain.StageCollectSalary, resp.Turn.Stage)
	assert.Equal(t, 1, resp.Turn.Session.Attempts)
	assert.Nil(t, resp.Turn.Session.State.Salary)

	// The returned session carries on normally.
	w = complete(t, h, resp.Turn.Session, map[string]any{"salary": "75"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	turn = decodeTurn(t, w)
	assert.Equal(t, domain.StageRejection, turn.Stage)
	assert.Equal(t, 0, turn.Session.Attempts)
	assert.Equal(t, domain.OutcomeRejected, turn.Session.State.Outcome)
}

func TestCompleteStage_Errors(t *testing.T) {
	h := newTestHandler(t)
	turn := decodeTurn(t, do(t, h, http.MethodPost, "/v1/sessions", nil))

	t.Run("mismatch", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/v1/complete", map[string]any{
			"session": turn.Session, "stage": "collect_salary", "data": map[string]any{"salary": 10},
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "stage_mismatch")
	})

	t.Run("unknown stage", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/v1/complete", map[string]any{"session": turn.Session, "stage": "salary_negotiation"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("inconsistent session", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/v1/complete", map[string]any{
			"session": map[string]any{
				"id":      "forged",
				"current": "motivation",
				"state":   map[string]any{"salary": 75, "outcome": "rejected"},
				"history": []string{"greeting"},
			},
			"data": map[string]any{"motivation": "let me in"},
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "inconsistent_session")
	})

	t.Run("malformed body", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/v1/complete", `{"session":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing session", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/v1/complete", `{"data":{}}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCompleteStage_InputTooLarge(t *testing.T) {
	h := newTestHandler(t, WithMaxInputSize(8))
	turn := decodeTurn(t, do(t, h, http.MethodPost, "/v1/sessions", nil))
	turn = decodeTurn(t, complete(t, h, turn.Session, nil))

	w := complete(t, h, turn.Session, map[string]any{"name": "Bartholomew Fitzgerald"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_input")
}

func TestEnterStage_DoesNotChangeSession(t *testing.T) {
	h := newTestHandler(t)
	created := decodeTurn(t, do(t, h, http.MethodPost, "/v1/sessions", nil))

	w := do(t, h, http.MethodPost, "/v1/enter", map[string]any{"session": created.Session})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	entered := decodeTurn(t, w)
	assert.Equal(t, created.Prompt, entered.Prompt)
	assert.Equal(t, created.Session, entered.Session)

	w = do(t, h, http.MethodPost, "/v1/enter", map[string]any{"session": created.Session, "stage": "closing"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestStages(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodGet, "/v1/stages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var views []StageView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	require.Len(t, views, len(domain.StageOrder))
	assert.Equal(t, domain.StageGreeting, views[0].ID)
	assert.True(t, views[len(views)-1].Terminal)

	w = do(t, h, http.MethodGet, "/v1/stages/collect_salary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view StageView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, domain.ShapeSalary, view.Expects)
	assert.Equal(t, "collect_salary", view.Function)
	assert.NotEmpty(t, view.Description)
	require.NotNil(t, view.Transition.Branch)
	assert.Equal(t, 50.0, view.Transition.Branch.Threshold)

	w = do(t, h, http.MethodGet, "/v1/stages/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGraphAndSpec(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodGet, "/v1/graph", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "graph TD"))
	assert.Contains(t, w.Body.String(), "collect_salary -- \"salary > 50\" --> rejection")

	w = do(t, h, http.MethodGet, "/openapi.yaml", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(RawSpec()), w.Body.String())
}

func TestMetricsRoute(t *testing.T) {
	h := newTestHandler(t)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/metrics", nil).Code)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "screener_up 1\n")
	})
	h = newTestHandler(t, WithMetricsHandler(metrics))
	w := do(t, h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "screener_up 1\n", w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(t)
	w := do(t, h, http.MethodOptions, "/v1/complete", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
