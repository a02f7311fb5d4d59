package usecase_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fairyhunter13/lead-agent/internal/adapter/repo/memory"
	"github.com/fairyhunter13/lead-agent/internal/config"
	"github.com/fairyhunter13/lead-agent/internal/domain"
	"github.com/fairyhunter13/lead-agent/internal/usecase"
	"github.com/fairyhunter13/lead-agent/internal/usecase/tools"
)

type mockProvider struct {
	mock.Mock
	name domain.ProviderName
	key  bool
}

func newMockProvider(name domain.ProviderName, configured bool) *mockProvider {
	return &mockProvider{name: name, key: configured}
}

func (m *mockProvider) Name() domain.ProviderName { return m.name }
func (m *mockProvider) Configured() bool          { return m.key }

func (m *mockProvider) Send(ctx context.Context, conv []domain.ChatMessage, defs []domain.ToolDefinition) (domain.Turn, error) {
	args := m.Called(ctx, conv, defs)
	return args.Get(0).(domain.Turn), args.Error(1)
}

func (m *mockProvider) Continue(ctx context.Context, prev domain.Turn, results []domain.ToolResult) (domain.Turn, error) {
	args := m.Called(ctx, prev, results)
	return args.Get(0).(domain.Turn), args.Error(1)
}

func user(s string) domain.ChatMessage { return domain.ChatMessage{Role: domain.RoleUser, Content: s} }

func toolTurn(calls ...domain.ToolCall) domain.Turn { return domain.Turn{ToolCalls: calls} }

func textTurn(s string) domain.Turn { return domain.Turn{Text: s} }

type fixture struct {
	registry *tools.Registry
	quotes   *memory.QuoteLog
	resolver *usecase.InlineResolver
}

func newFixture() fixture {
	log := memory.NewQuoteLog()
	reg := tools.NewRegistry(config.DefaultProfile(), log)
	return fixture{registry: reg, quotes: log, resolver: usecase.NewInlineResolver(reg)}
}

func (f fixture) orchestrator(cfg usecase.OrchestratorConfig, openai, groq domain.Provider) *usecase.Orchestrator {
	if cfg.MaxToolRounds == 0 {
		cfg.MaxToolRounds = usecase.DefaultMaxToolRounds
	}
	return usecase.NewOrchestrator(cfg, openai, groq, f.registry, f.resolver)
}
