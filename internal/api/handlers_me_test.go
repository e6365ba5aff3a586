package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ownerWithCycle(t *testing.T, env *testEnv) string {
	t.Helper()

	token := env.registerUser(t, "owner@example.com")
	response := env.request(t, http.MethodPut, "/api/me/cycle", map[string]any{
		"cycle_length":      28,
		"period_length":     5,
		"last_period_start": "2024-01-01",
	}, bearer(token))
	require.Equal(t, http.StatusOK, response.status, string(response.body))
	return token
}

func TestCycleOverviewRequiresCycleData(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerUser(t, "owner@example.com")

	response := env.request(t, http.MethodGet, "/api/me/cycle", nil, bearer(token))
	require.Equal(t, http.StatusConflict, response.status)
	assert.Equal(t, codeCycleDataMissing, response.json(t)["error"])
}

func TestUpdateCycleSettingsReturnsOverview(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerUser(t, "owner@example.com")

	response := env.request(t, http.MethodPut, "/api/me/cycle", map[string]any{
		"cycle_length":      28,
		"period_length":     5,
		"last_period_start": "2024-01-01",
	}, bearer(token))
	require.Equal(t, http.StatusOK, response.status, string(response.body))

	payload := response.json(t)
	assert.Equal(t, "ovulation", payload["phase"])
	assert.Equal(t, "Ovulation", payload["phase_label"])
	assert.Equal(t, float64(14), payload["cycle_day"])
	assert.Equal(t, float64(15), payload["days_until_next_period"])
	assert.Equal(t, false, payload["rollover_due"])
	assert.Equal(t, "Peak fertility", payload["band_label"])
	assert.Equal(t, float64(95), payload["fertility"].(map[string]any)["score"])
	assert.Len(t, payload["forecast"], 3)
	assert.Len(t, payload["flow"], 5)

	overview := env.request(t, http.MethodGet, "/api/me/cycle", nil, bearer(token))
	require.Equal(t, http.StatusOK, overview.status)
	assert.Equal(t, "2024-01-29T00:00:00Z", overview.json(t)["next_period_start"])
}

func TestUpdateCycleSettingsValidation(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerUser(t, "owner@example.com")

	tests := []struct {
		name     string
		body     map[string]any
		wantCode string
	}{
		{name: "cycle too long", body: map[string]any{"cycle_length": 40, "period_length": 5, "last_period_start": "2024-01-01"}, wantCode: codeCycleLength},
		{name: "period too long", body: map[string]any{"cycle_length": 28, "period_length": 11, "last_period_start": "2024-01-01"}, wantCode: codePeriodLength},
		{name: "future start", body: map[string]any{"cycle_length": 28, "period_length": 5, "last_period_start": "2024-02-01"}, wantCode: codeCycleStart},
		{name: "end before start", body: map[string]any{"cycle_length": 28, "period_length": 5, "last_period_start": "2024-01-05", "last_period_end": "2024-01-02"}, wantCode: codePeriodEnd},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			response := env.request(t, http.MethodPut, "/api/me/cycle", tc.body, bearer(token))
			require.Equal(t, http.StatusUnprocessableEntity, response.status, string(response.body))
			assert.Equal(t, tc.wantCode, response.json(t)["error"])
		})
	}
}

func TestRolloverPersistsOnlyOnRequest(t *testing.T) {
	env := newTestEnv(t)
	token := ownerWithCycle(t, env)

	env.handler.now = func() time.Time { return time.Date(2024, time.February, 27, 8, 0, 0, 0, time.UTC) }

	pending := env.request(t, http.MethodGet, "/api/me/cycle", nil, bearer(token))
	require.Equal(t, http.StatusOK, pending.status, string(pending.body))
	payload := pending.json(t)
	assert.Equal(t, true, payload["rollover_due"])
	assert.Equal(t, "menstruation", payload["phase"])
	assert.Equal(t, float64(2), payload["cycle_day"])
	assert.Equal(t, "2024-02-26", payload["parameters"].(map[string]any)["period_start"])

	rolled := env.request(t, http.MethodPost, "/api/me/cycle/rollover", nil, bearer(token))
	require.Equal(t, http.StatusOK, rolled.status, string(rolled.body))
	rolledPayload := rolled.json(t)
	assert.Equal(t, true, rolledPayload["rolled_over"])
	assert.Equal(t, "2024-02-26", rolledPayload["parameters"].(map[string]any)["period_start"])

	again := env.request(t, http.MethodPost, "/api/me/cycle/rollover", nil, bearer(token))
	require.Equal(t, http.StatusOK, again.status)
	assert.Equal(t, false, again.json(t)["rolled_over"])

	settled := env.request(t, http.MethodGet, "/api/me/cycle", nil, bearer(token))
	require.Equal(t, http.StatusOK, settled.status)
	assert.Equal(t, false, settled.json(t)["rollover_due"])
}

func TestCalendarMonth(t *testing.T) {
	env := newTestEnv(t)
	token := ownerWithCycle(t, env)

	response := env.request(t, http.MethodGet, "/api/me/calendar?month=2024-02", nil, bearer(token))
	require.Equal(t, http.StatusOK, response.status, string(response.body))

	payload := response.json(t)
	assert.Equal(t, "2024-02", payload["month"])
	days, ok := payload["days"].([]any)
	require.True(t, ok)
	require.Len(t, days, 35)

	first := days[0].(map[string]any)
	assert.Equal(t, "2024-01-28", first["date"])
	assert.Equal(t, false, first["in_month"])

	ovulationStart := days[13].(map[string]any)
	assert.Equal(t, "2024-02-10", ovulationStart["date"])
	assert.Equal(t, "ovulation", ovulationStart["phase"])
	assert.Equal(t, true, ovulationStart["is_ovulation"])
	assert.Equal(t, false, ovulationStart["is_fertile"])
	assert.Equal(t, true, days[12].(map[string]any)["is_fertile"])

	current := env.request(t, http.MethodGet, "/api/me/calendar", nil, bearer(token))
	require.Equal(t, http.StatusOK, current.status)
	assert.Equal(t, "2024-01", current.json(t)["month"])

	invalid := env.request(t, http.MethodGet, "/api/me/calendar?month=2024-13", nil, bearer(token))
	require.Equal(t, http.StatusBadRequest, invalid.status)
	assert.Equal(t, codeInvalidMonth, invalid.json(t)["error"])
}

func TestPartnerSeesSanitizedOwnerOverview(t *testing.T) {
	env := newTestEnv(t)
	ownerWithCycle(t, env)
	partner := env.registerUser(t, "partner@example.com")

	response := env.request(t, http.MethodGet, "/api/me/cycle", nil, bearer(partner))
	require.Equal(t, http.StatusOK, response.status, string(response.body))

	payload := response.json(t)
	assert.Equal(t, "ovulation", payload["phase"])
	assert.Equal(t, "2024-01-29T00:00:00Z", payload["next_period_start"])
	assert.NotContains(t, payload, "band_label")

	fertility := payload["fertility"].(map[string]any)
	assert.Equal(t, float64(0), fertility["score"])
	assert.Empty(t, fertility["band"])

	forecast := payload["forecast"].([]any)
	require.Len(t, forecast, 3)
	entry := forecast[0].(map[string]any)
	assert.Equal(t, "2024-01-01T00:00:00Z", entry["period_start"])
	assert.Equal(t, "0001-01-01T00:00:00Z", entry["ovulation_start"])

	phases := payload["phases"].([]any)
	require.Len(t, phases, 1)
	assert.Equal(t, "menstruation", phases[0].(map[string]any)["phase"])

	for _, path := range []string{"/api/me/calendar", "/api/me/cycle/rollover"} {
		method := http.MethodGet
		if path == "/api/me/cycle/rollover" {
			method = http.MethodPost
		}
		denied := env.request(t, method, path, nil, bearer(partner))
		require.Equal(t, http.StatusForbidden, denied.status, path)
		assert.Equal(t, codeForbidden, denied.json(t)["error"])
	}

	update := env.request(t, http.MethodPut, "/api/me/cycle", map[string]any{
		"cycle_length":      30,
		"period_length":     5,
		"last_period_start": "2024-01-01",
	}, bearer(partner))
	assert.Equal(t, http.StatusForbidden, update.status)
}

func TestUpdateTelegramChat(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerUser(t, "owner@example.com")

	response := env.request(t, http.MethodPut, "/api/me/telegram", map[string]any{"chat_id": 4242}, bearer(token))
	require.Equal(t, http.StatusNoContent, response.status)

	me := env.request(t, http.MethodGet, "/api/me", nil, bearer(token))
	require.Equal(t, http.StatusOK, me.status)
	assert.Equal(t, float64(4242), me.json(t)["telegram_chat_id"])
}

func TestHealthAndNotFound(t *testing.T) {
	env := newTestEnv(t)

	health := env.request(t, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, health.status)
	assert.Equal(t, "ok", health.json(t)["status"])
	assert.NotEmpty(t, health.header.Get(requestIDHeader))

	missing := env.request(t, http.MethodGet, "/api/unknown", nil, nil)
	require.Equal(t, http.StatusNotFound, missing.status)
	assert.Equal(t, codeNotFound, missing.json(t)["error"])
}
