//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"shortscript-api/internal/application/script"
	"shortscript-api/internal/application/script/scriptctx"
	"shortscript-api/internal/application/script/validate"
	"shortscript-api/internal/config"
	"shortscript-api/internal/domain/entity"
	"shortscript-api/internal/domain/repository"
	"shortscript-api/internal/infrastructure/llm"
	"shortscript-api/internal/infrastructure/persistence/postgres"
	"shortscript-api/internal/interfaces/http/handler"
	"shortscript-api/internal/interfaces/http/router"
	"shortscript-api/internal/workflow/chain"
	workflowport "shortscript-api/internal/workflow/port"
)

// InitializeApp 初始化 API 进程
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		PipelineSet,
		ContextSet,
		HTTPSet,
		ProvideProfileConsumer,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

// InitializeOfflineService 初始化无数据库依赖的脚本服务（CLI 使用）
func InitializeOfflineService(ctx context.Context, cfg *config.Config, sc entity.ScriptContext) (*script.Service, error) {
	wire.Build(
		PipelineSet,
		ProvideStaticContexts,
		ProvideOfflineService,
	)
	return nil, nil
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewProfileRepository,
	postgres.NewVoiceRepository,
	postgres.NewNegativeKeywordRepository,
	postgres.NewScriptRepository,
)

// RepoSet 整合了具体实现与接口绑定的集合
var RepoSet = wire.NewSet(
	PostgresSet,
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.ProfileRepository), new(*postgres.ProfileRepository)),
	wire.Bind(new(repository.VoiceRepository), new(*postgres.VoiceRepository)),
	wire.Bind(new(repository.NegativeKeywordRepository), new(*postgres.NegativeKeywordRepository)),
	wire.Bind(new(repository.ScriptRepository), new(*postgres.ScriptRepository)),
)

// RedisSet Redis 提供者集合（可选）
var RedisSet = wire.NewSet(
	ProvideRedisClientOptional,
	ProvideContextCache,
	ProvideEventPublisher,
	ProvideRateLimit,
)

// LLMSet 模型工厂与生成链
var LLMSet = wire.NewSet(
	llm.NewEinoFactory,
	wire.Bind(new(workflowport.ChatModelFactory), new(*llm.EinoFactory)),
	chain.NewScriptChain,
)

// PipelineSet 生成流水线各阶段
var PipelineSet = wire.NewSet(
	LLMSet,
	ProvideLibrary,
	validate.New,
	ProvideRuleEngine,
	ProvideChecker,
	ProvideGenerator,
)

// ContextSet 用户上下文加载
var ContextSet = wire.NewSet(
	ProvideContextProvider,
	wire.Bind(new(script.ContextLoader), new(*scriptctx.Provider)),
)

// HTTPSet 服务、处理器与路由
var HTTPSet = wire.NewSet(
	ProvideScriptService,
	ProvideProfileService,
	ProvideVersion,
	handler.NewHealthHandler,
	handler.NewScriptHandler,
	handler.NewUserHandler,
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)
