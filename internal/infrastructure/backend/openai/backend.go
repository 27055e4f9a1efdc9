// Package openai adapts an OpenAI-compatible chat API as the remote
// large-model backend. Requests pass a local rate limiter before hitting
// the wire, and a circuit breaker guards repeated provider failures.
package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/asklegal/engine/internal/core/domain"
	"github.com/asklegal/engine/internal/infrastructure/resilience"
)

const generateOp = "openai.chat_completion"

type Backend struct {
	client  *openai.Client
	model   string
	apiKey  string
	limiter *rate.Limiter
	runner  *resilience.Runner
}

type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	RequestsPerMinute int
}

func New(cfg Config, runner *resilience.Runner) *Backend {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 30
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Backend{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		limiter: rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), cfg.RequestsPerMinute),
		runner:  runner,
	}
}

func (b *Backend) ID() domain.BackendID { return domain.BackendRemote }

// Available reports whether the remote provider is worth attempting:
// a key must be configured and the breaker must not be rejecting calls.
func (b *Backend) Available() bool {
	if b.apiKey == "" {
		return false
	}
	return b.runner == nil || !b.runner.Open(generateOp)
}

func (b *Backend) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return "", domain.WrapError(domain.ErrTemporary, generateOp, err)
	}

	var answer string
	call := func(callCtx context.Context) error {
		resp, err := b.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model:       b.model,
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
			Messages:    buildMessages(req),
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return domain.WrapError(domain.ErrEmptyResponse, generateOp, errors.New("no completion choices"))
		}
		answer = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	}

	var err error
	if b.runner != nil {
		err = b.runner.Run(ctx, generateOp, call, classifyOpenAIError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded(generateOp, err)
	}
	return answer, nil
}

func buildMessages(req domain.GenerationRequest) []openai.ChatCompletionMessage {
	var system strings.Builder
	system.WriteString("You are a legal advisor for Indian micro, small and medium enterprises. ")
	system.WriteString("Give accurate, practical answers and cite the provided references when they apply.")
	if strings.TrimSpace(req.ContextText) != "" {
		system.WriteString("\n\nReferences:\n")
		system.WriteString(req.ContextText)
	}

	user := req.Question
	if profile := profileLine(req.Profile); profile != "" {
		user = user + "\n\n(Business context: " + profile + ")"
	}

	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: system.String()},
		{Role: openai.ChatMessageRoleUser, Content: user},
	}
}

func profileLine(p *domain.BusinessProfile) string {
	if p == nil {
		return ""
	}
	var parts []string
	if p.Industry != "" {
		parts = append(parts, p.Industry+" industry")
	}
	if p.BusinessSize != "" {
		parts = append(parts, p.BusinessSize+" business")
	}
	if p.LegalStructure != "" {
		parts = append(parts, p.LegalStructure)
	}
	if p.Location != "" {
		parts = append(parts, "based in "+p.Location)
	}
	return strings.Join(parts, ", ")
}

func classifyOpenAIError(err error) resilience.Verdict {
	if err == nil {
		return resilience.Verdict{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Verdict{Retry: false, CountAgainstBreaker: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.Verdict{Retry: true, CountAgainstBreaker: true}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return resilience.Verdict{Retry: true, CountAgainstBreaker: true}
		default:
			return resilience.Verdict{Retry: false, CountAgainstBreaker: false}
		}
	}
	if domain.IsKind(err, domain.ErrEmptyResponse) {
		return resilience.Verdict{Retry: true, CountAgainstBreaker: false}
	}

	// Transport-level failures without a structured API error.
	return resilience.Verdict{Retry: true, CountAgainstBreaker: true}
}

func wrapTemporaryIfNeeded(operation string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifyOpenAIError(err).Retry || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}
