// Package openai provides an OpenAI-compatible reasoning provider and
// embedder.
//
// Example usage:
//
//	provider, err := openai.NewProvider(
//	    os.Getenv("OPENAI_API_KEY"),
//	    openai.WithModel("gpt-3.5-turbo"),
//	    openai.WithTemperature(0),
//	)
//	if err != nil {
//	    panic(err)
//	}
//
//	stream, err := provider.StreamCompletion(ctx, messages, tools)
//	if err != nil {
//	    panic(err)
//	}
//	for chunk := range stream {
//	    fmt.Print(chunk.Content)
//	}
package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/entrhq/notes-agent/pkg/llm"
	"github.com/entrhq/notes-agent/pkg/logging"
	"github.com/entrhq/notes-agent/pkg/types"
	"github.com/openai/openai-go"
)

const (
	// DefaultBaseURL is the default OpenAI API base URL
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is the chat model used when none is configured.
	DefaultModel = "gpt-3.5-turbo"
)

var openaiLog = logging.MustComponent("openai")

// ErrMissingAPIKey is returned when neither the caller nor OPENAI_API_KEY
// supplies a key.
var ErrMissingAPIKey = errors.New("OpenAI API key is required (provide via parameter or OPENAI_API_KEY environment variable)")

// Provider implements llm.Provider for OpenAI-compatible chat APIs.
type Provider struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	modelInfo   *types.ModelInfo
}

// ProviderOption is a function that configures a Provider.
type ProviderOption func(*Provider)

// WithModel sets the model to use for completions.
func WithModel(model string) ProviderOption {
	return func(p *Provider) {
		if model != "" {
			p.model = model
		}
	}
}

// WithBaseURL sets a custom base URL for OpenAI-compatible APIs.
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) {
		if baseURL != "" {
			p.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) ProviderOption {
	return func(p *Provider) {
		p.temperature = temperature
	}
}

// WithHTTPClient replaces the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) ProviderOption {
	return func(p *Provider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// NewProvider creates a new OpenAI provider with the given API key.
//
// If apiKey is empty, it is read from OPENAI_API_KEY. If no base URL is set
// via WithBaseURL, OPENAI_BASE_URL is consulted. The default model is
// gpt-3.5-turbo at temperature 0.
func NewProvider(apiKey string, opts ...ProviderOption) (*Provider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	p := &Provider{
		model:      DefaultModel,
		apiKey:     apiKey,
		httpClient: &http.Client{},
		baseURL:    DefaultBaseURL,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.baseURL == DefaultBaseURL {
		if envBaseURL := os.Getenv("OPENAI_BASE_URL"); envBaseURL != "" {
			p.baseURL = strings.TrimRight(envBaseURL, "/")
		}
	}

	p.modelInfo = &types.ModelInfo{
		Provider:          "openai",
		Name:              p.model,
		SupportsStreaming: true,
		SupportsTools:     true,
		Metadata:          make(map[string]interface{}),
	}
	if p.baseURL != DefaultBaseURL {
		p.modelInfo.Metadata["base_url"] = p.baseURL
	}

	return p, nil
}

// StreamCompletion sends the conversation to the chat completions endpoint
// and streams back response chunks.
//
// Raw HTTP streaming is used so that SSE comments and slight format
// variations from OpenAI-compatible servers are tolerated.
func (p *Provider) StreamCompletion(ctx context.Context, messages []*types.Message, tools []llm.ToolDefinition) (<-chan *llm.StreamChunk, error) {
	resp, err := p.sendStreamRequest(ctx, messages, tools)
	if err != nil {
		return nil, err
	}

	chunks := make(chan *llm.StreamChunk, 10)
	go p.processStreamResponse(ctx, resp, chunks)
	return chunks, nil
}

// sendStreamRequest creates and sends the HTTP request for streaming
func (p *Provider) sendStreamRequest(ctx context.Context, messages []*types.Message, tools []llm.ToolDefinition) (*http.Response, error) {
	reqBody := map[string]interface{}{
		"model":       p.model,
		"messages":    convertToOpenAIMessages(messages),
		"stream":      true,
		"temperature": p.temperature,
	}
	if len(tools) > 0 {
		reqBody["tools"] = convertToOpenAITools(tools)
		reqBody["parallel_tool_calls"] = false
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := p.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Accept", "text/event-stream")

	openaiLog.Debugf("POST %s model=%s messages=%d tools=%d", url, p.model, len(messages), len(tools))

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, readErrorResponse(resp)
	}

	return resp, nil
}

func readErrorResponse(resp *http.Response) error {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("API request failed with status %d (failed to read error body: %w)", resp.StatusCode, err)
	}
	return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

// sseChunk is the subset of a chat.completion.chunk payload we consume.
type sseChunk struct {
	Choices []struct {
		Delta struct {
			Role      string `json:"role"`
			Content   string `json:"content"`
			ToolCalls []struct {
				Index    int    `json:"index"`
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// processStreamResponse processes the SSE stream and sends chunks to the channel
func (p *Provider) processStreamResponse(ctx context.Context, resp *http.Response, chunks chan<- *llm.StreamChunk) {
	defer close(chunks)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	finished := false
	for scanner.Scan() {
		line := scanner.Text()

		if !isValidSSELine(line) {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")

		if data == "[DONE]" {
			p.send(ctx, &llm.StreamChunk{Finished: true}, chunks)
			return
		}

		ok, done := p.processSSEChunk(ctx, data, chunks)
		if !ok {
			return
		}
		finished = finished || done
	}

	if err := scanner.Err(); err != nil {
		p.send(ctx, &llm.StreamChunk{Error: fmt.Errorf("stream read error: %w", err)}, chunks)
		return
	}
	// Some servers omit [DONE] after a finish_reason; EOF before either means
	// the connection dropped mid-reply.
	if !finished {
		p.send(ctx, &llm.StreamChunk{Error: llm.ErrIncompleteStream}, chunks)
	}
}

// isValidSSELine checks if a line is a valid SSE data line
func isValidSSELine(line string) bool {
	return line != "" && !strings.HasPrefix(line, ":") && strings.HasPrefix(line, "data: ")
}

// send delivers a chunk unless the context is done. Returns false if the
// consumer should stop.
func (p *Provider) send(ctx context.Context, chunk *llm.StreamChunk, chunks chan<- *llm.StreamChunk) bool {
	select {
	case chunks <- chunk:
		return true
	case <-ctx.Done():
		// chunks is buffered; a reader that is still draining will see this.
		select {
		case chunks <- &llm.StreamChunk{Error: ctx.Err()}:
		default:
		}
		return false
	}
}

// processSSEChunk processes a single SSE data chunk. It reports whether
// streaming should go on and whether the chunk carried a finish reason.
func (p *Provider) processSSEChunk(ctx context.Context, data string, chunks chan<- *llm.StreamChunk) (bool, bool) {
	var chunk sseChunk
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		openaiLog.Debugf("skipping malformed SSE chunk: %v", err)
		return true, false
	}

	if len(chunk.Choices) == 0 {
		return true, false
	}

	choice := chunk.Choices[0]
	delta := choice.Delta

	if delta.Role != "" || delta.Content != "" {
		if !p.send(ctx, &llm.StreamChunk{Role: delta.Role, Content: delta.Content}, chunks) {
			return false, false
		}
	}

	for _, tc := range delta.ToolCalls {
		d := &llm.ToolCallDelta{
			Index:     tc.Index,
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}
		if !p.send(ctx, &llm.StreamChunk{ToolCall: d}, chunks) {
			return false, false
		}
	}

	if choice.FinishReason != nil && *choice.FinishReason != "" {
		openaiLog.Debugf("finish_reason=%s", *choice.FinishReason)
		return p.send(ctx, &llm.StreamChunk{Finished: true}, chunks), true
	}

	return true, false
}

// Complete sends the conversation and returns the full response as one
// assistant message.
func (p *Provider) Complete(ctx context.Context, messages []*types.Message, tools []llm.ToolDefinition) (*types.Message, error) {
	stream, err := p.StreamCompletion(ctx, messages, tools)
	if err != nil {
		return nil, err
	}
	return llm.Accumulate(stream, nil)
}

// GetModelInfo returns information about the OpenAI model being used.
func (p *Provider) GetModelInfo() *types.ModelInfo {
	return p.modelInfo
}

// GetModel returns the model name being used.
func (p *Provider) GetModel() string {
	return p.model
}

// convertToOpenAIMessages converts conversation messages to the chat
// completions wire format.
func convertToOpenAIMessages(messages []*types.Message) []openai.ChatCompletionMessageParamUnion {
	openaiMessages := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case types.RoleSystem:
			openaiMessages = append(openaiMessages, openai.SystemMessage(msg.Content))
		case types.RoleUser:
			openaiMessages = append(openaiMessages, openai.UserMessage(msg.Content))
		case types.RoleAssistant:
			openaiMessages = append(openaiMessages, assistantMessage(msg))
		case types.RoleAction:
			if msg.ToolCallID == "" {
				// Without a call ID the API rejects a tool message.
				openaiMessages = append(openaiMessages, openai.UserMessage(fmt.Sprintf("Action '%s' result:\n%s", msg.Name, msg.Content)))
				continue
			}
			openaiMessages = append(openaiMessages, openai.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			openaiMessages = append(openaiMessages, openai.UserMessage(msg.Content))
		}
	}

	return openaiMessages
}

func assistantMessage(msg *types.Message) openai.ChatCompletionMessageParamUnion {
	if msg.ToolCall == nil {
		return openai.AssistantMessage(msg.Content)
	}

	assistant := openai.ChatCompletionAssistantMessageParam{
		ToolCalls: []openai.ChatCompletionMessageToolCallParam{{
			ID:   msg.ToolCall.ID,
			Type: "function",
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      msg.ToolCall.Name,
				Arguments: msg.ToolCall.Arguments,
			},
		}},
	}
	if msg.Content != "" {
		assistant.Content.OfString = openai.String(msg.Content)
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant}
}

// convertToOpenAITools converts tool definitions to function tools.
func convertToOpenAITools(defs []llm.ToolDefinition) []openai.ChatCompletionToolParam {
	tools := make([]openai.ChatCompletionToolParam, 0, len(defs))
	for _, def := range defs {
		tools = append(tools, openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        def.Name,
				Description: openai.String(def.Description),
				Parameters:  openai.FunctionParameters(def.Parameters),
			},
		})
	}
	return tools
}
