package script

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortscript-api/internal/application/script/generator"
	"shortscript-api/internal/application/script/library"
	"shortscript-api/internal/application/script/outcheck"
	"shortscript-api/internal/application/script/rules"
	"shortscript-api/internal/application/script/scriptctx"
	"shortscript-api/internal/application/script/validate"
	"shortscript-api/internal/domain/entity"
	"shortscript-api/internal/domain/repository"
	"shortscript-api/internal/infrastructure/persistence/memory"
	wfmodel "shortscript-api/internal/workflow/model"
	apperrors "shortscript-api/pkg/errors"
)

type stubProfiles struct {
	mu      sync.Mutex
	profile *entity.UserProfile
	err     error
	upserts int
}

func (s *stubProfiles) GetByUserID(context.Context, string) (*entity.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil, s.err
	}
	cp := *s.profile
	return &cp, s.err
}

func (s *stubProfiles) Upsert(_ context.Context, p *entity.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.profile = &cp
	s.upserts++
	return nil
}

type stubVoices struct{ active *entity.VoicePersona }

func (s *stubVoices) GetActiveByUser(context.Context, string) (*entity.VoicePersona, error) {
	return s.active, nil
}
func (s *stubVoices) GetDefault(context.Context) (*entity.VoicePersona, error) { return nil, nil }

type stubKeywords struct {
	mu       sync.Mutex
	keywords []string
}

func (s *stubKeywords) ListByUser(context.Context, string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.keywords...), nil
}

func (s *stubKeywords) Replace(_ context.Context, _ string, k []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keywords = k
	return nil
}

type stubScripts struct {
	mu      sync.Mutex
	records []*entity.ScriptRecord
}

func (s *stubScripts) Create(_ context.Context, r *entity.ScriptRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	return nil
}

func (s *stubScripts) ListByUser(_ context.Context, userID string, p repository.Pagination) (*repository.PagedResult[*entity.ScriptRecord], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.ScriptRecord
	for _, r := range s.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return repository.NewPagedResult(out, int64(len(out)), p), nil
}

type recordingEvents struct {
	mu        sync.Mutex
	generated []*entity.ScriptGeneratedEvent
	profiles  []*entity.ProfileUpdatedEvent
	err       error
}

func (r *recordingEvents) PublishScriptGenerated(_ context.Context, e *entity.ScriptGeneratedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generated = append(r.generated, e)
	return r.err
}

func (r *recordingEvents) PublishProfileUpdated(_ context.Context, e *entity.ProfileUpdatedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles = append(r.profiles, e)
	return r.err
}

// budgetModel 按模板中的分段字数生成内容
type budgetModel struct {
	calls atomic.Int32
	fail  func(call int32) error
}

func words(prefix string, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return strings.Join(parts, " ") + "."
}

func (m *budgetModel) Invoke(_ context.Context, in *wfmodel.ScriptGenerateInput) (*schema.Message, error) {
	n := m.calls.Add(1)
	if m.fail != nil {
		if err := m.fail(n); err != nil {
			return nil, err
		}
	}
	body := fmt.Sprintf(`{"hook":%q,"bridge":%q,"golden_nugget":%q,"wta":%q}`,
		"Stop "+words("h", in.HookWords-1),
		words("b", in.BridgeWords),
		words("n", in.NuggetWords),
		words("w", in.WTAWords),
	)
	return schema.AssistantMessage(body, nil), nil
}

type fixture struct {
	svc      *Service
	model    *budgetModel
	profiles *stubProfiles
	voices   *stubVoices
	keywords *stubKeywords
	scripts  *stubScripts
	events   *recordingEvents
	provider *scriptctx.Provider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	lib, err := library.LoadWithRand(rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)

	f := &fixture{
		model:    &budgetModel{},
		profiles: &stubProfiles{profile: &entity.UserProfile{UserID: "u1", Niche: "productivity"}},
		voices:   &stubVoices{},
		keywords: &stubKeywords{keywords: []string{"hack"}},
		scripts:  &stubScripts{},
		events:   &recordingEvents{},
	}
	f.provider = scriptctx.NewProvider(memory.NewCache(), f.profiles, f.voices, f.keywords, scriptctx.Options{TTL: time.Minute})
	gen := generator.New(f.model, lib, generator.Options{
		Provider:    "openai",
		Temperature: 0.7,
		Backoff:     generator.Backoff{Initial: time.Millisecond, Max: time.Millisecond, Multiplier: 1},
	})
	f.svc = NewService(validate.New(), f.provider, rules.NewEngine(3), gen, outcheck.New(0.2), f.events, f.scripts, Options{MaxVariations: 4})
	return f
}

func speedRequest() entity.ScriptRequest {
	return entity.ScriptRequest{
		Idea:     "How to remember everything you read",
		Duration: entity.Duration30,
		Type:     entity.ScriptTypeSpeed,
		Tone:     entity.ToneEducational,
	}
}

func TestGenerateScript_EndToEnd(t *testing.T) {
	f := newFixture(t)

	script, err := f.svc.GenerateScript(context.Background(), speedRequest(), "u1")
	require.NoError(t, err)

	assert.NotEmpty(t, script.Hook)
	assert.NotEmpty(t, script.Bridge)
	assert.NotEmpty(t, script.GoldenNugget)
	assert.NotEmpty(t, script.WTA)

	total := entity.CountWords(script.FullText())
	assert.InDelta(t, 66, total, 66*0.2)
	assert.Equal(t, total, script.Metadata.WordCount)
	assert.Equal(t, entity.Duration30, script.Metadata.Duration)
	assert.Empty(t, script.Metadata.Warnings)

	require.Len(t, f.events.generated, 1)
	assert.Equal(t, "u1", f.events.generated[0].UserID)
	assert.True(t, f.events.generated[0].WithinBudget)
}

func TestGenerateScript_ValidationStopsBeforeIO(t *testing.T) {
	f := newFixture(t)
	req := speedRequest()
	req.Duration = "25"

	_, err := f.svc.GenerateScript(context.Background(), req, "u1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))
	assert.Zero(t, f.model.calls.Load())
	assert.Empty(t, f.events.generated)
}

func TestGenerateScript_ProfileErrorAborts(t *testing.T) {
	f := newFixture(t)
	f.profiles.profile = nil
	f.profiles.err = errors.New("connection refused")

	_, err := f.svc.GenerateScript(context.Background(), speedRequest(), "u1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeContextLoadFailed))
	assert.Zero(t, f.model.calls.Load())
}

func TestGenerateScript_WarningsReachMetadata(t *testing.T) {
	f := newFixture(t)
	req := speedRequest()
	req.Type = entity.ScriptTypeEducational
	req.Duration = entity.Duration15

	script, err := f.svc.GenerateScript(context.Background(), req, "u1")
	require.NoError(t, err)
	assert.NotEmpty(t, script.Metadata.Warnings)
}

func TestGenerateScript_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("redis down")

	_, err := f.svc.GenerateScript(context.Background(), speedRequest(), "u1")
	assert.NoError(t, err)
}

func TestGenerateScript_UsesSanitizedRequest(t *testing.T) {
	f := newFixture(t)
	req := speedRequest()
	req.Idea = "   " + req.Idea + "   "

	_, err := f.svc.GenerateScript(context.Background(), req, "u1")
	require.NoError(t, err)
}

func TestGenerateVariations_AllSucceed(t *testing.T) {
	f := newFixture(t)

	scripts, err := f.svc.GenerateVariations(context.Background(), speedRequest(), "u1", 3)
	require.NoError(t, err)
	require.Len(t, scripts, 3)
	for _, s := range scripts {
		require.NotNil(t, s)
		assert.NotEmpty(t, s.Hook)
	}
	assert.Equal(t, int32(3), f.model.calls.Load())
}

// 一条变体失败即整批失败，不返回部分结果
func TestGenerateVariations_OneFailureFailsBatch(t *testing.T) {
	f := newFixture(t)
	f.model.fail = func(call int32) error {
		if call == 2 {
			return errors.New("status code: 400, invalid request")
		}
		return nil
	}

	scripts, err := f.svc.GenerateVariations(context.Background(), speedRequest(), "u1", 3)
	require.Error(t, err)
	assert.Nil(t, scripts)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeGenerationRejected))
	assert.Contains(t, err.Error(), "variation")
}

func TestGenerateVariations_CountBounds(t *testing.T) {
	f := newFixture(t)
	for _, n := range []int{0, 5} {
		_, err := f.svc.GenerateVariations(context.Background(), speedRequest(), "u1", n)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidParam))
	}
	assert.Zero(t, f.model.calls.Load())
}

func TestSaveAndListScripts(t *testing.T) {
	f := newFixture(t)
	script, err := f.svc.GenerateScript(context.Background(), speedRequest(), "u1")
	require.NoError(t, err)

	rec, err := f.svc.SaveScript(context.Background(), "u1", speedRequest(), script)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)

	page, err := f.svc.ListScripts(context.Background(), "u1", repository.NewPagination(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestUpdateProfile_InvalidatesContextAndPublishes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	before, err := f.provider.LoadContext(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"hack"}, before.NegativeKeywords)

	ps := NewProfileService(f.profiles, f.keywords, f.provider, f.events)
	niche := " fitness "
	profile, err := ps.UpdateProfile(ctx, "u1", ProfileUpdate{
		Niche:            &niche,
		NegativeKeywords: []string{"grind", " Grind ", ""},
		ReplaceKeywords:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "fitness", profile.Niche)

	after, err := f.provider.LoadContext(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "fitness", after.Profile.Niche)
	assert.Equal(t, []string{"grind"}, after.NegativeKeywords)
	require.Len(t, f.events.profiles, 1)
}

type countingTx struct{ calls int }

func (c *countingTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	c.calls++
	return fn(ctx)
}

func TestUpdateProfile_RunsWritesInTransaction(t *testing.T) {
	f := newFixture(t)
	tx := &countingTx{}
	ps := NewProfileService(f.profiles, f.keywords, f.provider, f.events).WithTransactor(tx)

	name := "Sam"
	_, err := ps.UpdateProfile(context.Background(), "u1", ProfileUpdate{DisplayName: &name})
	require.NoError(t, err)
	assert.Equal(t, 1, tx.calls)

	_, err = ps.UpdateProfile(context.Background(), " ", ProfileUpdate{})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidParam))
	assert.Equal(t, 1, tx.calls)
}

var (
	_ Generator     = (*generator.Generator)(nil)
	_ ContextLoader = (*scriptctx.Provider)(nil)
)
