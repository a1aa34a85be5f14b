// Package scriptctx 按用户加载并缓存脚本个性化上下文（档案、口吻、负面关键词）。
package scriptctx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"shortscript-api/internal/domain/entity"
	"shortscript-api/internal/domain/repository"
	apperrors "shortscript-api/pkg/errors"
	"shortscript-api/pkg/logger"
	"shortscript-api/pkg/metrics"
	"shortscript-api/pkg/tracer"
)

const (
	DefaultTTL    = 15 * time.Minute
	DefaultPrefix = "scriptctx"

	resourceContext  = "context"
	resourceProfile  = "profile"
	resourceVoice    = "voice"
	resourceKeywords = "keywords"
)

// KVCache 带 TTL 的键值缓存端口，值以 JSON 存储
type KVCache interface {
	// Get 返回原始字节；未命中时 found 为 false 且 err 为 nil
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	InvalidatePattern(ctx context.Context, pattern string) error
}

// Options 上下文缓存选项
type Options struct {
	TTL       time.Duration
	KeyPrefix string
}

// Provider 脚本上下文提供者
//
// 缓存填充不加锁：同一用户的并发未命中可能各自回源一次。
type Provider struct {
	cache    KVCache
	profiles repository.ProfileRepository
	voices   repository.VoiceRepository
	keywords repository.NegativeKeywordRepository
	ttl      time.Duration
	prefix   string
}

// NewProvider 创建上下文提供者
func NewProvider(
	cache KVCache,
	profiles repository.ProfileRepository,
	voices repository.VoiceRepository,
	keywords repository.NegativeKeywordRepository,
	opts Options,
) *Provider {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultPrefix
	}
	return &Provider{
		cache:    cache,
		profiles: profiles,
		voices:   voices,
		keywords: keywords,
		ttl:      opts.TTL,
		prefix:   opts.KeyPrefix,
	}
}

func (p *Provider) key(userID, resource string) string {
	return fmt.Sprintf("%s:%s:%s", p.prefix, userID, resource)
}

// LoadContext 加载用户上下文。档案查询出错时返回 CodeContextLoadFailed，
// 口吻与关键词查询出错时降级为 nil / 空列表。
func (p *Provider) LoadContext(ctx context.Context, userID string) (*entity.ScriptContext, error) {
	ctx, span := tracer.Start(ctx, "scriptctx.LoadContext")
	defer span.End()

	var cached entity.ScriptContext
	if ok := p.readCache(ctx, resourceContext, p.key(userID, resourceContext), &cached); ok {
		return &cached, nil
	}

	var (
		profile  *entity.UserProfile
		voice    *entity.VoicePersona
		keywords []string

		voiceDegraded, keywordsDegraded bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = cachedLoad(gctx, p, userID, resourceProfile, func(ctx context.Context) (*entity.UserProfile, error) {
			return p.profiles.GetByUserID(ctx, userID)
		})
		return err
	})
	g.Go(func() error {
		v, err := cachedLoad(gctx, p, userID, resourceVoice, p.resolveVoice(userID))
		if err == nil {
			voice = v
			return nil
		}
		metrics.ContextDegradedLoads.WithLabelValues(resourceVoice).Inc()
		voiceDegraded = true
		if errors.Is(err, errActiveVoiceLookup) {
			logger.Warn(gctx, "active voice lookup failed, falling back to default voice", "user_id", userID, "error", err.Error())
			def, derr := p.voices.GetDefault(gctx)
			if derr == nil {
				voice = def
				return nil
			}
			err = derr
		}
		logger.Warn(gctx, "voice lookup failed, continuing without voice", "user_id", userID, "error", err.Error())
		return nil
	})
	g.Go(func() error {
		kw, err := cachedLoad(gctx, p, userID, resourceKeywords, func(ctx context.Context) ([]string, error) {
			return p.keywords.ListByUser(ctx, userID)
		})
		if err != nil {
			logger.Warn(gctx, "negative keyword lookup failed, continuing without keywords", "user_id", userID, "error", err.Error())
			metrics.ContextDegradedLoads.WithLabelValues(resourceKeywords).Inc()
			keywordsDegraded = true
			return nil
		}
		keywords = kw
		return nil
	})

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		logger.Error(ctx, "profile lookup failed", err, "user_id", userID)
		return nil, apperrors.ErrContextLoadFailed.WithError(err).WithDetail("profile lookup failed")
	}

	if keywords == nil {
		keywords = []string{}
	}
	sc := &entity.ScriptContext{
		UserID:           userID,
		Profile:          profile,
		Voice:            voice,
		NegativeKeywords: keywords,
	}

	// 降级结果不写入组合缓存，下次请求重新尝试
	if !voiceDegraded && !keywordsDegraded {
		p.writeCache(ctx, p.key(userID, resourceContext), sc)
	}
	return sc, nil
}

// errActiveVoiceLookup 用户自定义口吻查询失败，此时仍可回退到默认口吻（回退结果不缓存）
var errActiveVoiceLookup = errors.New("active voice lookup failed")

// resolveVoice 依次尝试用户启用的自定义口吻、共享默认口吻
func (p *Provider) resolveVoice(userID string) func(ctx context.Context) (*entity.VoicePersona, error) {
	return func(ctx context.Context) (*entity.VoicePersona, error) {
		active, err := p.voices.GetActiveByUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errActiveVoiceLookup, err)
		}
		if active != nil {
			return active, nil
		}
		return p.voices.GetDefault(ctx)
	}
}

// InvalidateUserCache 删除用户的全部上下文缓存条目
func (p *Provider) InvalidateUserCache(ctx context.Context, userID string) error {
	keys := []string{
		p.key(userID, resourceContext),
		p.key(userID, resourceProfile),
		p.key(userID, resourceVoice),
		p.key(userID, resourceKeywords),
	}
	if err := p.cache.Delete(ctx, keys...); err != nil {
		return apperrors.Wrap(err, apperrors.CodeCacheError, "failed to invalidate user context cache")
	}
	logger.Debug(ctx, "user context cache invalidated", "user_id", userID)
	return nil
}

// ClearCache 清空所有用户的上下文缓存
func (p *Provider) ClearCache(ctx context.Context) error {
	if err := p.cache.InvalidatePattern(ctx, p.prefix+":*"); err != nil {
		return apperrors.Wrap(err, apperrors.CodeCacheError, "failed to clear context cache")
	}
	return nil
}

// cachedLoad 读缓存，未命中时回源并写回。回源失败不写缓存。
func cachedLoad[T any](ctx context.Context, p *Provider, userID, resource string, fetch func(ctx context.Context) (T, error)) (T, error) {
	key := p.key(userID, resource)

	var out T
	if ok := p.readCache(ctx, resource, key, &out); ok {
		return out, nil
	}

	out, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	p.writeCache(ctx, key, out)
	return out, nil
}

// readCache 缓存读取失败按未命中处理
func (p *Provider) readCache(ctx context.Context, resource, key string, dest any) bool {
	raw, found, err := p.cache.Get(ctx, key)
	if err != nil {
		logger.Warn(ctx, "context cache read failed", "key", key, "error", err.Error())
		metrics.ContextCacheLookups.WithLabelValues(resource, "error").Inc()
		return false
	}
	if !found {
		metrics.ContextCacheLookups.WithLabelValues(resource, "miss").Inc()
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		logger.Warn(ctx, "context cache entry corrupted", "key", key, "error", err.Error())
		metrics.ContextCacheLookups.WithLabelValues(resource, "error").Inc()
		return false
	}
	metrics.ContextCacheLookups.WithLabelValues(resource, "hit").Inc()
	return true
}

func (p *Provider) writeCache(ctx context.Context, key string, value any) {
	if err := p.cache.Set(ctx, key, value, p.ttl); err != nil {
		logger.Warn(ctx, "context cache write failed", "key", key, "error", err.Error())
	}
}
