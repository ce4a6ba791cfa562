package openai_provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/opencitylabs/tripdash/models"
)

const defaultAPIURL = "https://api.openai.com/v1/chat/completions"

// Client calls OpenAI's chat completions API to translate user text into
// dashboard commands.
type Client struct {
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	apiURL      string
	httpClient  *http.Client
}

// Message represents a message in a conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// request represents a request to the OpenAI API
type request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// response represents a response from the OpenAI API
type response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewClient creates a new OpenAI-backed command translator.
func NewClient(apiKey, model string, temperature float64, maxTokens int, timeout time.Duration) *Client {
	return &Client{
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		apiURL:      defaultAPIURL,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

const systemPrompt = `
You are the command agent of a bike-share analytics dashboard. You turn user
requests into exactly one dashboard command.

AVAILABLE TOOLS:
1. "show_menu" - list the widget catalog. No other fields.
2. "preview_widget" - render a catalog widget without pinning it. Requires "widget_id".
3. "add_widget" - render a catalog widget and pin it to the dashboard. Requires "widget_id".
4. "pin_payload" - pin a widget you assembled yourself. Requires "payload":
   {"kind": "chart|table", "chart": {"labels": [string], "series": [{"name": string, "data": [number]}]}, "table": {"columns": [string], "rows": [[string]]}}.
   Optional "title" and "kind".
5. "remote_query" - run a read query against the trip database. Requires "query":
   {"table": string, "columns": [string], "filters": [{"column": string, "operator": "eq|neq|gt|gte|lt|lte|like", "value": string}], "order_by": {"column": string, "ascending": bool}, "limit": number}.
   Set "pin": true when the user wants the result kept on the dashboard.

RULES:
1. Respond ONLY with valid JSON in the following format:
{
  "command": {"tool": "...", ...},
  "message": "Your conversational response to the user"
}
2. Pick widget_id values only from the catalog below.
3. When the user just wants to know what is available, use show_menu.
4. Never invent table or column names; ask in "message" when unsure and use show_menu.
Do not include any other text or explanation.
`

// TranslateCommand asks the model for a single structured command. The
// returned command is untrusted and must still pass router validation.
func (c *Client) TranslateCommand(ctx context.Context, message string, history []string, menu []models.MenuEntry) (models.Command, string, error) {
	var catalog strings.Builder
	for _, e := range menu {
		fmt.Fprintf(&catalog, "- %s (%s): %s\n", e.ID, e.Kind, e.Title)
	}
	userPrompt := fmt.Sprintf(`
CONTEXT HISTORY:
[%s]

WIDGET CATALOG:
%s
USER MESSAGE: %q
`, strings.Join(history, ","), catalog.String(), message)

	messages := []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}

	responseStr, err := c.sendRequest(ctx, messages)
	if err != nil {
		return models.Command{}, "", err
	}

	var resp struct {
		Command models.Command `json:"command"`
		Message string         `json:"message"`
	}
	if err := json.Unmarshal([]byte(responseStr), &resp); err != nil {
		return models.Command{}, "", fmt.Errorf("failed to parse agent command: %w", err)
	}
	return resp.Command, resp.Message, nil
}

// sendRequest sends a request to the OpenAI API
func (c *Client) sendRequest(ctx context.Context, messages []Message) (string, error) {
	requestBody := request{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status: %d", resp.StatusCode)
	}

	var openaiResp response
	if err := json.NewDecoder(resp.Body).Decode(&openaiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(openaiResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return openaiResp.Choices[0].Message.Content, nil
}
