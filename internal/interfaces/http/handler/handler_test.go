package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortscript-api/internal/application/script"
	"shortscript-api/internal/domain/entity"
	"shortscript-api/internal/domain/repository"
	apperrors "shortscript-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeScripts struct {
	genErr  error
	saveErr error
	varErr  error

	lastReq   entity.ScriptRequest
	lastUser  string
	lastCount int
	saved     int
	lastPage  repository.Pagination
	records   []*entity.ScriptRecord
}

func (f *fakeScripts) GenerateScript(_ context.Context, req entity.ScriptRequest, userID string) (*entity.GeneratedScript, error) {
	f.lastReq, f.lastUser = req, userID
	if f.genErr != nil {
		return nil, f.genErr
	}
	return &entity.GeneratedScript{Hook: "h", Bridge: "b", GoldenNugget: "g", WTA: "w"}, nil
}

func (f *fakeScripts) GenerateVariations(_ context.Context, req entity.ScriptRequest, userID string, count int) ([]*entity.GeneratedScript, error) {
	f.lastReq, f.lastUser, f.lastCount = req, userID, count
	if f.varErr != nil {
		return nil, f.varErr
	}
	out := make([]*entity.GeneratedScript, count)
	for i := range out {
		out[i] = &entity.GeneratedScript{Hook: "h"}
	}
	return out, nil
}

func (f *fakeScripts) SaveScript(_ context.Context, userID string, _ entity.ScriptRequest, s *entity.GeneratedScript) (*entity.ScriptRecord, error) {
	f.saved++
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	return &entity.ScriptRecord{ID: "rec-1", UserID: userID, Script: *s}, nil
}

func (f *fakeScripts) ListScripts(_ context.Context, _ string, p repository.Pagination) (*repository.PagedResult[*entity.ScriptRecord], error) {
	f.lastPage = p
	return repository.NewPagedResult(f.records, int64(len(f.records))+10, p), nil
}

type fakeContexts struct {
	invalidated []string
	err         error
}

func (f *fakeContexts) LoadContext(_ context.Context, userID string) (*entity.ScriptContext, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &entity.ScriptContext{UserID: userID, NegativeKeywords: []string{"crypto"}}, nil
}

func (f *fakeContexts) InvalidateUserCache(_ context.Context, userID string) error {
	f.invalidated = append(f.invalidated, userID)
	return f.err
}

type fakeProfiles struct {
	last script.ProfileUpdate
}

func (f *fakeProfiles) UpdateProfile(_ context.Context, userID string, upd script.ProfileUpdate) (*entity.UserProfile, error) {
	f.last = upd
	p := &entity.UserProfile{UserID: userID}
	if upd.Niche != nil {
		p.Niche = *upd.Niche
	}
	return p, nil
}

func newTestEngine(scripts ScriptService, contexts ContextService, profiles ProfileUpdater) *gin.Engine {
	sh := &ScriptHandler{svc: scripts}
	uh := &UserHandler{contexts: contexts, profiles: profiles}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", "user-1")
		c.Next()
	})
	r.POST("/v1/scripts/generate", sh.GenerateScript)
	r.POST("/v1/scripts/variations", sh.GenerateVariations)
	r.GET("/v1/scripts", sh.ListScripts)
	r.GET("/v1/durations", sh.Durations)
	r.GET("/v1/users/me/context", uh.GetContext)
	r.PUT("/v1/users/me/profile", uh.UpdateProfile)
	r.DELETE("/v1/users/me/context/cache", uh.ClearContextCache)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

const validBody = `{"idea":"Why you should stop highlighting books","duration":"30","type":"educational","tone":"casual"}`

func TestGenerateScript_SavesWhenRequested(t *testing.T) {
	fs := &fakeScripts{}
	r := newTestEngine(fs, &fakeContexts{}, &fakeProfiles{})

	w := do(r, http.MethodPost, "/v1/scripts/generate", strings.TrimSuffix(validBody, "}")+`,"save":true}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	data := body["data"].(map[string]any)
	assert.Equal(t, "rec-1", data["record_id"])
	assert.Equal(t, "h", data["script"].(map[string]any)["hook"])
	assert.Equal(t, "user-1", fs.lastUser)
	assert.Equal(t, entity.Duration30, fs.lastReq.Duration)
	assert.Equal(t, 1, fs.saved)
}

func TestGenerateScript_NoSaveByDefault(t *testing.T) {
	fs := &fakeScripts{}
	w := do(newTestEngine(fs, &fakeContexts{}, &fakeProfiles{}), http.MethodPost, "/v1/scripts/generate", validBody)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, fs.saved)
	assert.NotContains(t, decode(t, w)["data"], "record_id")
}

func TestGenerateScript_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   apperrors.ErrorCode
	}{
		{"validation", apperrors.ErrValidationFailed.WithDetail("idea is required"), http.StatusBadRequest, apperrors.CodeValidationFailed},
		{"template echo", apperrors.ErrTemplateEcho, http.StatusBadGateway, apperrors.CodeTemplateEcho},
		{"parse", apperrors.ErrParseFailed, http.StatusBadGateway, apperrors.CodeParseFailed},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestEngine(&fakeScripts{genErr: tc.err}, &fakeContexts{}, &fakeProfiles{})
			w := do(r, http.MethodPost, "/v1/scripts/generate", validBody)
			assert.Equal(t, tc.status, w.Code)

			body := decode(t, w)
			if tc.code == "" {
				assert.Equal(t, "internal server error", body["message"])
				assert.NotContains(t, w.Body.String(), "boom")
				return
			}
			assert.Equal(t, string(tc.code), body["error"].(map[string]any)["error_code"])
		})
	}
}

func TestGenerateScript_SaveFailureStillReturnsScript(t *testing.T) {
	fs := &fakeScripts{saveErr: errors.New("db down")}
	w := do(newTestEngine(fs, &fakeContexts{}, &fakeProfiles{}), http.MethodPost, "/v1/scripts/generate",
		strings.TrimSuffix(validBody, "}")+`,"save":true}`)
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].(map[string]any)
	assert.NotContains(t, data, "record_id")
	warnings := data["script"].(map[string]any)["metadata"].(map[string]any)["warnings"].([]any)
	assert.Contains(t, warnings, "script was generated but could not be saved")
}

func TestGenerateScript_MalformedBody(t *testing.T) {
	fs := &fakeScripts{}
	w := do(newTestEngine(fs, &fakeContexts{}, &fakeProfiles{}), http.MethodPost, "/v1/scripts/generate", `{"idea":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, fs.lastUser)
}

func TestGenerateVariations(t *testing.T) {
	fs := &fakeScripts{}
	r := newTestEngine(fs, &fakeContexts{}, &fakeProfiles{})

	w := do(r, http.MethodPost, "/v1/scripts/variations", `{"request":`+validBody+`,"count":3}`)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.EqualValues(t, 3, data["count"])
	assert.Len(t, data["scripts"], 3)
	assert.Equal(t, 3, fs.lastCount)

	w = do(r, http.MethodPost, "/v1/scripts/variations", `{"request":`+validBody+`}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	fs.varErr = apperrors.ErrInvalidParam.WithDetail("count must be between 1 and 5")
	w = do(r, http.MethodPost, "/v1/scripts/variations", `{"request":`+validBody+`,"count":9}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListScripts_Paginates(t *testing.T) {
	fs := &fakeScripts{records: []*entity.ScriptRecord{{ID: "a", Idea: "x"}}}
	w := do(newTestEngine(fs, &fakeContexts{}, &fakeProfiles{}), http.MethodGet, "/v1/scripts?page=2&page_size=5", "")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, repository.Pagination{Page: 2, PageSize: 5}, fs.lastPage)
	meta := decode(t, w)["meta"].(map[string]any)
	assert.EqualValues(t, 11, meta["total"])
	assert.EqualValues(t, 3, meta["total_pages"])
}

func TestDurations(t *testing.T) {
	w := do(newTestEngine(&fakeScripts{}, &fakeContexts{}, &fakeProfiles{}), http.MethodGet, "/v1/durations", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.InDelta(t, 2.2, data["words_per_second"], 1e-9)
	assert.Len(t, data["durations"], 6)
}

func TestUserContextEndpoints(t *testing.T) {
	fc := &fakeContexts{}
	fp := &fakeProfiles{}
	r := newTestEngine(&fakeScripts{}, fc, fp)

	w := do(r, http.MethodGet, "/v1/users/me/context", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", decode(t, w)["data"].(map[string]any)["user_id"])

	w = do(r, http.MethodPut, "/v1/users/me/profile", `{"niche":"fitness","negative_keywords":[]}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, fp.last.Niche)
	assert.Equal(t, "fitness", *fp.last.Niche)
	assert.True(t, fp.last.ReplaceKeywords)
	assert.Empty(t, fp.last.NegativeKeywords)

	w = do(r, http.MethodPut, "/v1/users/me/profile", `{"bio":"hi"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, fp.last.ReplaceKeywords)

	w = do(r, http.MethodDelete, "/v1/users/me/context/cache", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"user-1"}, fc.invalidated)
}

func TestGetContext_LoadFailure(t *testing.T) {
	fc := &fakeContexts{err: apperrors.ErrContextLoadFailed}
	w := do(newTestEngine(&fakeScripts{}, fc, &fakeProfiles{}), http.MethodGet, "/v1/users/me/context", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

type stubChecker struct{ err error }

func (s stubChecker) HealthCheck(context.Context) error { return s.err }

func TestHealthReady(t *testing.T) {
	h := NewHealthHandler("v0.1.0", nil, nil)
	r := gin.New()
	r.GET("/ready", h.Ready)
	r.GET("/health", h.Health)

	w := do(r, http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusOK, w.Code)
	checks := decode(t, w)["checks"].(map[string]any)
	assert.Equal(t, "disabled", checks["postgres"].(map[string]any)["status"])

	w = do(r, http.MethodGet, "/health", "")
	assert.Equal(t, "v0.1.0", decode(t, w)["version"])

	h.deps = []dependency{
		{name: "postgres", checker: stubChecker{}},
		{name: "redis", checker: stubChecker{err: errors.New("connection refused")}},
	}
	w = do(r, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decode(t, w)
	assert.Equal(t, "not_ready", body["status"])
	assert.Equal(t, "error", body["checks"].(map[string]any)["redis"].(map[string]any)["status"])
}
