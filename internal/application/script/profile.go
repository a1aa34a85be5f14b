package script

import (
	"context"
	"strings"
	"time"

	"shortscript-api/internal/domain/entity"
	"shortscript-api/internal/domain/repository"
	"shortscript-api/internal/domain/service"
	apperrors "shortscript-api/pkg/errors"
	"shortscript-api/pkg/logger"
)

// ProfileUpdate 档案更新，nil 字段保持不变
type ProfileUpdate struct {
	DisplayName      *string
	Niche            *string
	Audience         *string
	Platform         *string
	Bio              *string
	NegativeKeywords []string
	// ReplaceKeywords 为 true 时用 NegativeKeywords 整体替换（可为空）
	ReplaceKeywords bool
}

// ProfileService 档案写入，写入后失效上下文缓存并广播变更
type ProfileService struct {
	profiles repository.ProfileRepository
	keywords repository.NegativeKeywordRepository
	contexts ContextLoader
	events   service.EventPublisher
	tx       repository.Transactor
	now      func() time.Time
}

type directTx struct{}

func (directTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func NewProfileService(
	profiles repository.ProfileRepository,
	keywords repository.NegativeKeywordRepository,
	contexts ContextLoader,
	events service.EventPublisher,
) *ProfileService {
	if events == nil {
		events = service.NopPublisher{}
	}
	return &ProfileService{
		profiles: profiles,
		keywords: keywords,
		contexts: contexts,
		events:   events,
		tx:       directTx{},
		now:      time.Now,
	}
}

// WithTransactor 档案与关键词在同一事务内写入
func (p *ProfileService) WithTransactor(tx repository.Transactor) *ProfileService {
	if tx != nil {
		p.tx = tx
	}
	return p
}

// UpdateProfile 合并更新档案
func (p *ProfileService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*entity.UserProfile, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("user id is required")
	}

	profile, err := p.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := p.now().UTC()
	if profile == nil {
		profile = &entity.UserProfile{UserID: userID, CreatedAt: now}
	}
	apply(&profile.DisplayName, upd.DisplayName)
	apply(&profile.Niche, upd.Niche)
	apply(&profile.Audience, upd.Audience)
	apply(&profile.Platform, upd.Platform)
	apply(&profile.Bio, upd.Bio)
	profile.UpdatedAt = now

	err = p.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := p.profiles.Upsert(ctx, profile); err != nil {
			return err
		}
		if upd.ReplaceKeywords {
			return p.keywords.Replace(ctx, userID, normalizeKeywords(upd.NegativeKeywords))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := p.contexts.InvalidateUserCache(ctx, userID); err != nil {
		logger.Warn(ctx, "failed to invalidate script context cache", "user_id", userID, "error", err.Error())
	}
	if err := p.events.PublishProfileUpdated(ctx, &entity.ProfileUpdatedEvent{UserID: userID, UpdatedAt: now}); err != nil {
		logger.Warn(ctx, "failed to publish profile updated event", "user_id", userID, "error", err.Error())
	}
	return profile, nil
}

func apply(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func normalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, k := range in {
		k = strings.TrimSpace(k)
		key := strings.ToLower(k)
		if k == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, k)
	}
	return out
}
