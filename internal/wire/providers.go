package wire

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"shortscript-api/internal/application/script"
	"shortscript-api/internal/application/script/generator"
	"shortscript-api/internal/application/script/library"
	"shortscript-api/internal/application/script/outcheck"
	"shortscript-api/internal/application/script/rules"
	"shortscript-api/internal/application/script/scriptctx"
	"shortscript-api/internal/application/script/validate"
	"shortscript-api/internal/config"
	"shortscript-api/internal/domain/entity"
	"shortscript-api/internal/domain/repository"
	"shortscript-api/internal/domain/service"
	"shortscript-api/internal/infrastructure/messaging"
	"shortscript-api/internal/infrastructure/persistence/memory"
	"shortscript-api/internal/infrastructure/persistence/postgres"
	"shortscript-api/internal/infrastructure/persistence/redis"
	"shortscript-api/internal/interfaces/http/middleware"
	"shortscript-api/internal/interfaces/http/router"
	"shortscript-api/internal/workflow/chain"
	"shortscript-api/pkg/logger"
)

// App API 进程依赖容器
type App struct {
	Router *router.Router
	// Consumer profile.updated 消费者，未启用消息时为 nil
	Consumer *messaging.Consumer
}

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// redisRequired 是否有组件需要 Redis
func redisRequired(cfg *config.Config) bool {
	return strings.EqualFold(cfg.ContextCache.Backend, "redis") ||
		cfg.Messaging.Enabled ||
		cfg.Security.RateLimit.Enabled
}

// ProvideRedisClientOptional Redis 不可达时降级（内存缓存、不发事件、不限流），不阻塞启动
func ProvideRedisClientOptional(ctx context.Context, cfg *config.Config) (*redis.Client, func(), error) {
	if !redisRequired(cfg) {
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Warn(ctx, "redis not available, falling back to in-process cache without events or rate limiting", "error", err.Error())
		return nil, func() {}, nil
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideContextCache 按配置选择上下文缓存后端
func ProvideContextCache(cfg *config.Config, client *redis.Client) scriptctx.KVCache {
	if strings.EqualFold(cfg.ContextCache.Backend, "redis") && client != nil {
		return redis.NewCache(client)
	}
	return memory.NewCache()
}

// ProvideEventPublisher 未启用消息或 Redis 不可用时返回 nil（服务内部替换为 NopPublisher）
func ProvideEventPublisher(cfg *config.Config, client *redis.Client) service.EventPublisher {
	if !cfg.Messaging.Enabled || client == nil {
		return nil
	}
	return messaging.NewProducer(client.Redis(), int64(cfg.Messaging.RedisStream.MaxLen))
}

// ProvideContextProvider 提供脚本上下文加载器
func ProvideContextProvider(
	cfg *config.Config,
	cache scriptctx.KVCache,
	profiles repository.ProfileRepository,
	voices repository.VoiceRepository,
	keywords repository.NegativeKeywordRepository,
) *scriptctx.Provider {
	return scriptctx.NewProvider(cache, profiles, voices, keywords, scriptctx.Options{
		TTL:       cfg.ContextCache.TTL,
		KeyPrefix: cfg.ContextCache.KeyPrefix,
	})
}

// ProvideLibrary 加载内置示例库
func ProvideLibrary() (*library.Library, error) {
	return library.Load()
}

// ProvideRuleEngine 提供规则引擎
func ProvideRuleEngine(cfg *config.Config) *rules.Engine {
	return rules.NewEngine(cfg.Generation.MaxRetries)
}

// ProvideChecker 提供字数检查器
func ProvideChecker(cfg *config.Config) *outcheck.Checker {
	return outcheck.New(cfg.Generation.WordCountTolerance)
}

// ProvideGenerator 提供脚本生成器
func ProvideGenerator(cfg *config.Config, c *chain.ScriptChain, lib *library.Library) *generator.Generator {
	g := cfg.Generation
	providerName := cfg.LLM.DefaultProvider
	return generator.New(c, lib, generator.Options{
		Provider:    providerName,
		Model:       cfg.LLM.Providers[providerName].Model,
		Platform:    g.Platform,
		Temperature: float32(g.Temperature),
		MaxTokens:   g.MaxTokens,
		CallTimeout: g.CallTimeout,
		Backoff: generator.Backoff{
			Initial:    g.Backoff.Initial,
			Max:        g.Backoff.Max,
			Multiplier: g.Backoff.Multiplier,
		},
		HookExampleLimit: g.HookExampleLimit,
	})
}

// ProvideScriptService 组装统一脚本服务
func ProvideScriptService(
	cfg *config.Config,
	v *validate.Validator,
	contexts script.ContextLoader,
	engine *rules.Engine,
	gen *generator.Generator,
	checker *outcheck.Checker,
	events service.EventPublisher,
	scripts repository.ScriptRepository,
) *script.Service {
	return script.NewService(v, contexts, engine, gen, checker, events, scripts, script.Options{
		MaxVariations: cfg.Generation.MaxVariations,
	})
}

// ProvideOfflineService 不保存、不发事件的脚本服务（CLI 使用）
func ProvideOfflineService(
	cfg *config.Config,
	v *validate.Validator,
	contexts script.ContextLoader,
	engine *rules.Engine,
	gen *generator.Generator,
	checker *outcheck.Checker,
) *script.Service {
	return script.NewService(v, contexts, engine, gen, checker, nil, nil, script.Options{
		MaxVariations: cfg.Generation.MaxVariations,
	})
}

// ProvideProfileService 档案写入服务，写入在同一事务内完成
func ProvideProfileService(
	profiles repository.ProfileRepository,
	keywords repository.NegativeKeywordRepository,
	contexts script.ContextLoader,
	events service.EventPublisher,
	tx repository.Transactor,
) *script.ProfileService {
	return script.NewProfileService(profiles, keywords, contexts, events).WithTransactor(tx)
}

// ProvideProfileConsumer 订阅 profile.updated 失效上下文缓存
func ProvideProfileConsumer(cfg *config.Config, client *redis.Client, invalidator script.ContextLoader) *messaging.Consumer {
	if !cfg.Messaging.Enabled || client == nil {
		return nil
	}
	rs := cfg.Messaging.RedisStream
	c := messaging.NewConsumer(client.Redis(), messaging.ConsumerConfig{
		Stream:        messaging.StreamProfileUpdated,
		Group:         messaging.ConsumerGroupContextInvalidator,
		ConsumerName:  rs.ConsumerName,
		BlockTimeout:  rs.BlockTimeout,
		ClaimInterval: rs.ClaimInterval,
		RetryLimit:    rs.RetryLimit,
		Backoff: messaging.BackoffConfig{
			Initial:    rs.RetryBackoff.Initial,
			Max:        rs.RetryBackoff.Max,
			Multiplier: rs.RetryBackoff.Multiplier,
		},
	})
	return messaging.NewProfileUpdatedConsumer(c, invalidator)
}

// ProvideRateLimit 提供限流中间件
func ProvideRateLimit(cfg *config.Config, client *redis.Client) gin.HandlerFunc {
	return middleware.NewRateLimitMiddleware(middleware.RateLimitConfig{
		Enabled:           cfg.Security.RateLimit.Enabled,
		RequestsPerMinute: cfg.Security.RateLimit.RequestsPerMinute,
	}, client)
}

// ProvideVersion 应用版本
func ProvideVersion(cfg *config.Config) string {
	return cfg.App.Version
}

// staticContexts 离线场景下的上下文来源：所有用户共享同一份上下文
type staticContexts struct {
	sc entity.ScriptContext
}

func (s staticContexts) LoadContext(_ context.Context, userID string) (*entity.ScriptContext, error) {
	sc := s.sc
	sc.UserID = userID
	return &sc, nil
}

func (staticContexts) InvalidateUserCache(context.Context, string) error { return nil }

// ProvideStaticContexts 离线上下文（无档案、无口吻、无负面关键词）
func ProvideStaticContexts(sc entity.ScriptContext) script.ContextLoader {
	return staticContexts{sc: sc}
}
