package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Conceptual-Machines/grammar-school-go/gs"
	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

const (
	// Role constants
	userRole      = "user"
	developerRole = "developer"

	// Reasoning effort levels
	reasoningNone    = "none"
	reasoningMinimal = "minimal"
	reasoningMin     = "min"
	reasoningLow     = "low"
	reasoningMedium  = "medium"
	reasoningMed     = "med"
	reasoningHigh    = "high"

	// Provider name
	providerNameOpenAI = "openai"

	openAIResponsesURL = "https://api.openai.com/v1/responses"
	customToolCallType = "custom_tool_call"

	// Logging limits
	maxPreviewChars = 200
)

// Only the GPT-5 family accepts reasoning parameters; it rejects temperature
var modelsWithReasoning = map[string]bool{
	"gpt-5":        true,
	"gpt-5-mini":   true,
	"gpt-5-nano":   true,
	"gpt-5.1":      true,
	"gpt-5.1-mini": true,
	"gpt-5.1-nano": true,
	"gpt-5.2":      true,
	"gpt-5.2-mini": true,
	"gpt-5.2-nano": true,
}

// OpenAIProvider implements the Provider interface using OpenAI's Responses API
type OpenAIProvider struct {
	client       *openai.Client
	apiKey       string // Store API key for raw HTTP requests when needed
	responsesURL string
	httpClient   *http.Client
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{
		client:       &client,
		apiKey:       apiKey,
		responsesURL: openAIResponsesURL,
		httpClient:   http.DefaultClient,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return providerNameOpenAI
}

// Generate implements non-streaming generation using OpenAI's Responses API
func (p *OpenAIProvider) Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error) {
	startTime := time.Now()
	log.Printf("🎵 OPENAI GENERATION REQUEST STARTED (Model: %s)", request.Model)

	transaction := sentry.StartTransaction(ctx, "openai.generate")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameOpenAI)
	transaction.SetTag("cfg_enabled", fmt.Sprintf("%t", request.CFGGrammar != nil))

	params := p.buildRequestParams(request)

	span := transaction.StartChild("openai.api_call")
	apiStartTime := time.Now()

	// The SDK has no custom tool type yet, so grammar-constrained calls go
	// through a raw HTTP request
	if request.CFGGrammar != nil {
		resp, err := p.executeRawCFGRequest(ctx, params, request.CFGGrammar)
		span.Finish()
		if err != nil {
			log.Printf("❌ OPENAI REQUEST FAILED after %v: %v", time.Since(apiStartTime), err)
			transaction.SetTag("success", "false")
			sentry.CaptureException(err)
			return nil, fmt.Errorf("openai request failed: %w", err)
		}
		transaction.SetTag("success", "true")
		log.Printf("✅ OPENAI CFG GENERATION COMPLETED in %v", time.Since(startTime))
		return resp, nil
	}

	resp, err := p.client.Responses.New(ctx, params)

	apiDuration := time.Since(apiStartTime)
	span.Finish()

	if err != nil {
		log.Printf("❌ OPENAI REQUEST FAILED after %v: %v", apiDuration, err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	log.Printf("⏱️  OPENAI API CALL COMPLETED in %v", apiDuration)

	result, err := p.processResponsePlainText(resp, startTime, transaction)
	if err != nil {
		transaction.SetTag("success", "false")
		return nil, err
	}
	transaction.SetTag("success", "true")
	transaction.SetTag("output_type", "plain_text")
	return result, nil
}

// executeRawCFGRequest handles CFG grammar requests via raw HTTP
func (p *OpenAIProvider) executeRawCFGRequest(
	ctx context.Context,
	params responses.ResponseNewParams,
	cfgGrammar *CFGConfig,
) (*GenerationResponse, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	var paramsMap map[string]any
	if err := json.Unmarshal(paramsJSON, &paramsMap); err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	p.addCFGToolToParams(paramsMap, cfgGrammar)

	body, err := p.makeRawHTTPRequest(ctx, paramsMap)
	if err != nil {
		return nil, err
	}

	return p.extractDSLFromResponse(body)
}

// addCFGToolToParams adds CFG tool configuration to request params
func (p *OpenAIProvider) addCFGToolToParams(paramsMap map[string]any, cfgGrammar *CFGConfig) {
	cleanedGrammar := gs.CleanGrammarForCFG(cfgGrammar.Grammar)
	log.Printf("📝 Grammar cleaned for CFG: %d chars (original: %d chars)", len(cleanedGrammar), len(cfgGrammar.Grammar))

	cfgTool := gs.BuildOpenAICFGTool(gs.CFGConfig{
		ToolName:    cfgGrammar.ToolName,
		Description: cfgGrammar.Description,
		Grammar:     cleanedGrammar,
		Syntax:      cfgGrammar.Syntax,
	})

	// Set text format to plain text when using CFG
	paramsMap["text"] = gs.GetOpenAITextFormatForCFG()

	tools := p.getOrInitToolsArray(paramsMap)
	tools = append(tools, cfgTool)
	paramsMap["tools"] = tools
	paramsMap["parallel_tool_calls"] = false

	log.Printf("🔧 Added CFG tool: %s (syntax: %s)", cfgGrammar.ToolName, cfgGrammar.Syntax)
}

// getOrInitToolsArray gets existing tools array or creates a new one
func (p *OpenAIProvider) getOrInitToolsArray(paramsMap map[string]any) []any {
	if tools, ok := paramsMap["tools"].([]any); ok {
		return tools
	}
	return []any{}
}

// makeRawHTTPRequest sends raw HTTP request to OpenAI
func (p *OpenAIProvider) makeRawHTTPRequest(ctx context.Context, paramsMap map[string]any) ([]byte, error) {
	payload, err := json.Marshal(paramsMap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	log.Printf("📤 Making raw HTTP request (JSON size: %d bytes)", len(payload))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.responsesURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.apiKey))
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := httpResp.Body.Close(); closeErr != nil {
			log.Printf("⚠️  Failed to close response body: %v", closeErr)
		}
	}()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error %d: %s", httpResp.StatusCode, truncateString(string(body), maxPreviewChars))
	}

	return body, nil
}

// extractDSLFromResponse extracts DSL code from raw JSON response
func (p *OpenAIProvider) extractDSLFromResponse(body []byte) (*GenerationResponse, error) {
	var rawResponse map[string]any
	if err := json.Unmarshal(body, &rawResponse); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	dsl := p.extractDSLFromOutput(rawResponse)
	if dsl == "" {
		return nil, fmt.Errorf("CFG grammar was configured but LLM did not use CFG tool to generate DSL code")
	}

	usage := usageFromRawResponse(rawResponse)
	log.Printf("📊 USAGE: input=%d, output=%d, reasoning=%d, total=%d",
		usage.InputTokens, usage.OutputTokens, usage.ReasoningTokens, usage.TotalTokens)

	return &GenerationResponse{
		RawOutput: dsl,
		Usage:     usage,
	}, nil
}

// extractDSLFromOutput extracts DSL code from output array
func (p *OpenAIProvider) extractDSLFromOutput(rawResponse map[string]any) string {
	output, ok := rawResponse["output"].([]any)
	if !ok {
		log.Printf("⚠️  No output array found in raw response")
		return ""
	}

	for _, item := range output {
		itemMap, ok := item.(map[string]any)
		if !ok {
			continue
		}

		if itemType, ok := itemMap["type"].(string); ok && itemType == customToolCallType {
			if input, ok := itemMap["input"].(string); ok && input != "" {
				log.Printf("✅ Found DSL code: %s", truncateString(input, maxPreviewChars))
				return input
			}
		}
	}

	return ""
}

// buildRequestParams converts GenerationRequest to OpenAI-specific ResponseNewParams
func (p *OpenAIProvider) buildRequestParams(request *GenerationRequest) responses.ResponseNewParams {
	inputItems := responses.ResponseInputParam{}

	for _, item := range request.InputArray {
		role, hasRole := item["role"].(string)
		content, hasContent := item["content"].(string)

		if !hasRole || !hasContent {
			log.Printf("⚠️  Skipping invalid input item (missing role or content): %v", item)
			continue
		}

		roleEnum := responses.EasyInputMessageRoleUser
		if role == developerRole {
			roleEnum = responses.EasyInputMessageRoleDeveloper
		}

		inputItems = append(inputItems,
			responses.ResponseInputItemParamOfMessage(content, roleEnum),
		)
	}

	params := responses.ResponseNewParams{
		Model: request.Model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: inputItems,
		},
		Instructions:      openai.String(request.SystemPrompt),
		ParallelToolCalls: openai.Bool(request.CFGGrammar == nil),
	}

	if request.MaxOutputTokens > 0 {
		params.MaxOutputTokens = openai.Int(int64(request.MaxOutputTokens))
	}

	if modelsWithReasoning[request.Model] {
		params.Reasoning = shared.ReasoningParam{
			Effort: reasoningEffort(request.ReasoningMode),
		}
	} else if request.Temperature > 0 {
		params.Temperature = openai.Float(request.Temperature)
	}

	return params
}

func reasoningEffort(mode string) shared.ReasoningEffort {
	switch mode {
	case reasoningMinimal, reasoningMin, reasoningLow:
		return responses.ReasoningEffortLow
	case reasoningMedium, reasoningMed:
		return responses.ReasoningEffortMedium
	case reasoningHigh:
		return responses.ReasoningEffortHigh
	case reasoningNone:
		return shared.ReasoningEffort(reasoningNone)
	}
	// lowest latency
	return shared.ReasoningEffort(reasoningNone)
}

// truncateString truncates a string to a maximum length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// extractAndCleanTextOutput extracts and cleans text output from response
func (p *OpenAIProvider) extractAndCleanTextOutput(resp *responses.Response) string {
	return stripCodeFences(resp.OutputText())
}

// stripCodeFences removes a surrounding markdown code block
func stripCodeFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	cleaned = strings.TrimPrefix(cleaned, "```")
	if nl := strings.IndexByte(cleaned, '\n'); nl >= 0 {
		// drop the info string (```json, ```dsl)
		cleaned = cleaned[nl+1:]
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}

// processResponsePlainText extracts plain text output from OpenAI response (no grammar)
func (p *OpenAIProvider) processResponsePlainText(
	resp *responses.Response,
	startTime time.Time,
	transaction *sentry.Span,
) (*GenerationResponse, error) {
	span := transaction.StartChild("process_response_plaintext")
	defer span.Finish()

	textOutput := p.extractAndCleanTextOutput(resp)
	log.Printf("📥 OPENAI PLAIN TEXT RESPONSE: output_length=%d, tokens=%d",
		len(textOutput), resp.Usage.TotalTokens)

	if textOutput == "" {
		return nil, fmt.Errorf("openai response did not include any output text")
	}

	p.logUsageStats(resp.Usage)

	log.Printf("✅ OPENAI PLAIN TEXT COMPLETED in %v", time.Since(startTime))

	return &GenerationResponse{
		RawOutput: textOutput,
		Usage: Usage{
			InputTokens:     resp.Usage.InputTokens,
			OutputTokens:    resp.Usage.OutputTokens,
			ReasoningTokens: resp.Usage.OutputTokensDetails.ReasoningTokens,
			TotalTokens:     resp.Usage.TotalTokens,
		},
	}, nil
}

// usageFromRawResponse reads token usage from a raw JSON response
func usageFromRawResponse(rawResponse map[string]any) Usage {
	usageMap, ok := rawResponse["usage"].(map[string]any)
	if !ok {
		return Usage{}
	}
	number := func(m map[string]any, key string) int64 {
		if v, ok := m[key].(float64); ok {
			return int64(v)
		}
		return 0
	}
	usage := Usage{
		InputTokens:  number(usageMap, "input_tokens"),
		OutputTokens: number(usageMap, "output_tokens"),
		TotalTokens:  number(usageMap, "total_tokens"),
	}
	if details, ok := usageMap["output_tokens_details"].(map[string]any); ok {
		usage.ReasoningTokens = number(details, "reasoning_tokens")
	}
	return usage
}

// logUsageStats logs token usage statistics
func (p *OpenAIProvider) logUsageStats(usage responses.ResponseUsage) {
	log.Printf("📊 USAGE: input=%d, output=%d, reasoning=%d, total=%d",
		usage.InputTokens, usage.OutputTokens,
		usage.OutputTokensDetails.ReasoningTokens, usage.TotalTokens)
}
