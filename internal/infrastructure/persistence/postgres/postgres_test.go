package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"shortscript-api/internal/config"
	"shortscript-api/internal/domain/entity"
	"shortscript-api/internal/domain/repository"
)

func TestProfileModelRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p := &entity.UserProfile{
		UserID:      "u1",
		DisplayName: "Sam",
		Niche:       "fitness",
		Platform:    "TikTok",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	assert.Equal(t, p, profileFromEntity(p).toEntity())
}

func TestVoiceModelToEntity(t *testing.T) {
	uid := "u1"
	m := &VoiceModel{
		ID:          "v1",
		UserID:      &uid,
		Name:        "Coach",
		Vocabulary:  []string{"reps", "form"},
		SampleLines: []string{"Let's go."},
		IsCustom:    true,
		IsActive:    true,
	}
	v := m.toEntity()
	assert.Equal(t, "u1", v.UserID)
	assert.Equal(t, []string{"reps", "form"}, v.Vocabulary)
	assert.True(t, v.IsCustom)

	m.UserID = nil
	assert.Empty(t, m.toEntity().UserID)
}

func TestScriptModelKeepsIndexedColumns(t *testing.T) {
	rec := &entity.ScriptRecord{
		ID:     "s1",
		UserID: "u1",
		Idea:   "sleep tips",
		Script: entity.GeneratedScript{
			Hook: "Stop scrolling.",
			Metadata: entity.ScriptMetadata{
				Duration:  entity.Duration30,
				Type:      entity.ScriptTypeEducational,
				Tone:      entity.ToneCasual,
				WordCount: 64,
			},
		},
	}
	m := scriptFromEntity(rec)
	assert.Equal(t, "30", m.Duration)
	assert.Equal(t, "educational", m.Type)
	assert.Equal(t, 64, m.WordCount)
	assert.Equal(t, rec, m.toEntity())
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "user_profiles", ProfileModel{}.TableName())
	assert.Equal(t, "voice_personas", VoiceModel{}.TableName())
	assert.Equal(t, "negative_keywords", NegativeKeywordModel{}.TableName())
	assert.Equal(t, "scripts", ScriptModel{}.TableName())
	assert.Len(t, allModels(), 4)
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, gormLogLevel("silent"))
	assert.Equal(t, logger.Info, gormLogLevel(" INFO "))
	assert.Equal(t, logger.Warn, gormLogLevel(""))
}

func TestGetTxFromContext(t *testing.T) {
	assert.Nil(t, getTxFromContext(context.Background()))
	ctx := context.WithValue(context.Background(), repository.TxKey{}, "not-a-tx")
	assert.Nil(t, getTxFromContext(ctx))
}

func TestNewClient_UnreachableFails(t *testing.T) {
	_, err := NewClient(&config.PostgresConfig{
		Host:     "127.0.0.1",
		Port:     1,
		User:     "shortscript",
		Database: "shortscript",
		SSLMode:  "disable",
	})
	require.Error(t, err)
}
