package postgres

import (
	"time"

	"github.com/lib/pq"

	"shortscript-api/internal/domain/entity"
)

// ProfileModel user_profiles 表
type ProfileModel struct {
	UserID      string `gorm:"primaryKey;type:varchar(64)"`
	DisplayName string `gorm:"type:varchar(128)"`
	Niche       string `gorm:"type:varchar(256)"`
	Audience    string `gorm:"type:varchar(256)"`
	Platform    string `gorm:"type:varchar(64)"`
	Bio         string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (ProfileModel) TableName() string { return "user_profiles" }

func profileFromEntity(p *entity.UserProfile) *ProfileModel {
	return &ProfileModel{
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		Niche:       p.Niche,
		Audience:    p.Audience,
		Platform:    p.Platform,
		Bio:         p.Bio,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (m *ProfileModel) toEntity() *entity.UserProfile {
	return &entity.UserProfile{
		UserID:      m.UserID,
		DisplayName: m.DisplayName,
		Niche:       m.Niche,
		Audience:    m.Audience,
		Platform:    m.Platform,
		Bio:         m.Bio,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// VoiceModel voice_personas 表；UserID 为空表示共享口吻
type VoiceModel struct {
	ID           string         `gorm:"primaryKey;type:varchar(64)"`
	UserID       *string        `gorm:"type:varchar(64);index"`
	Name         string         `gorm:"type:varchar(128);not null"`
	Tone         string         `gorm:"type:varchar(64)"`
	Vocabulary   pq.StringArray `gorm:"type:text[]"`
	AvoidPhrases pq.StringArray `gorm:"type:text[]"`
	SampleLines  pq.StringArray `gorm:"type:text[]"`
	IsCustom     bool
	IsDefault    bool `gorm:"index"`
	IsActive     bool
	UpdatedAt    time.Time
}

func (VoiceModel) TableName() string { return "voice_personas" }

func (m *VoiceModel) toEntity() *entity.VoicePersona {
	v := &entity.VoicePersona{
		ID:           m.ID,
		Name:         m.Name,
		Tone:         m.Tone,
		Vocabulary:   []string(m.Vocabulary),
		AvoidPhrases: []string(m.AvoidPhrases),
		SampleLines:  []string(m.SampleLines),
		IsCustom:     m.IsCustom,
		IsDefault:    m.IsDefault,
		IsActive:     m.IsActive,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.UserID != nil {
		v.UserID = *m.UserID
	}
	return v
}

// NegativeKeywordModel negative_keywords 表
type NegativeKeywordModel struct {
	UserID    string `gorm:"primaryKey;type:varchar(64)"`
	Keyword   string `gorm:"primaryKey;type:varchar(128)"`
	Position  int
	CreatedAt time.Time
}

func (NegativeKeywordModel) TableName() string { return "negative_keywords" }

// ScriptModel scripts 表，脚本正文以 JSONB 存储
type ScriptModel struct {
	ID        string `gorm:"primaryKey;type:varchar(64)"`
	UserID    string `gorm:"type:varchar(64);index:idx_scripts_user_created,priority:1"`
	Idea      string `gorm:"type:text"`
	Duration  string `gorm:"type:varchar(8)"`
	Type      string `gorm:"type:varchar(32)"`
	Tone      string `gorm:"type:varchar(32)"`
	WordCount int
	Content   entity.GeneratedScript `gorm:"type:jsonb;serializer:json"`
	CreatedAt time.Time              `gorm:"index:idx_scripts_user_created,priority:2,sort:desc"`
}

func (ScriptModel) TableName() string { return "scripts" }

func scriptFromEntity(r *entity.ScriptRecord) *ScriptModel {
	return &ScriptModel{
		ID:        r.ID,
		UserID:    r.UserID,
		Idea:      r.Idea,
		Duration:  string(r.Script.Metadata.Duration),
		Type:      string(r.Script.Metadata.Type),
		Tone:      string(r.Script.Metadata.Tone),
		WordCount: r.Script.Metadata.WordCount,
		Content:   r.Script,
		CreatedAt: r.CreatedAt,
	}
}

func (m *ScriptModel) toEntity() *entity.ScriptRecord {
	return &entity.ScriptRecord{
		ID:        m.ID,
		UserID:    m.UserID,
		Idea:      m.Idea,
		Script:    m.Content,
		CreatedAt: m.CreatedAt,
	}
}

// defaultVoice 共享默认口吻种子数据
func defaultVoice() *VoiceModel {
	return &VoiceModel{
		ID:           "default",
		Name:         "Conversational Creator",
		Tone:         "casual",
		Vocabulary:   pq.StringArray{"here's the thing", "real talk", "quick one"},
		AvoidPhrases: pq.StringArray{"in today's video", "without further ado"},
		SampleLines:  pq.StringArray{"Here's the thing nobody tells you about sleep.", "Try this tonight and thank me tomorrow."},
		IsDefault:    true,
		IsActive:     true,
		UpdatedAt:    time.Now().UTC(),
	}
}

func allModels() []any {
	return []any{
		&ProfileModel{},
		&VoiceModel{},
		&NegativeKeywordModel{},
		&ScriptModel{},
	}
}
