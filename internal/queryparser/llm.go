package queryparser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/i474232898/weatherai/internal/weather"
)

const systemPrompt = `You are a weather query understanding system. Extract the following from the user's question:
- location: the city or place mentioned (e.g. London, Mumbai, Tokyo); empty when none is mentioned.
- duration: number of days (e.g. 3, 7, 30). Use 1 for current weather questions.
- direction: past, future or current.
- intent: forecast, historical or current. Use current when the question asks about present weather.
- format: table when a table is asked for or several days of data are involved; chart when
  visualization, charts, graphs, trends or patterns are mentioned; summary when a summary is asked
  for; text for current weather or an explicit text answer.
Today's date is %s.
Output strictly in JSON.`

// maxParsedDays bounds the model's duration before it reaches the service.
const maxParsedDays = 3650

// parsedQuery is the structured output requested from the model.
type parsedQuery struct {
	Location  string `json:"location" jsonschema_description:"The city or place the user is asking about, empty if none"`
	Duration  int    `json:"duration" jsonschema_description:"Number of days of weather information"`
	Direction string `json:"direction" jsonschema:"enum=past,enum=future,enum=current" jsonschema_description:"Whether the question is about past, future or current weather"`
	Intent    string `json:"intent" jsonschema:"enum=forecast,enum=historical,enum=current" jsonschema_description:"Type of weather information requested"`
	Format    string `json:"format" jsonschema:"enum=text,enum=table,enum=chart,enum=summary" jsonschema_description:"Preferred output format"`
}

// GenerateSchema generates a JSON schema for a given type.
func GenerateSchema[T any]() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// LLMParser asks an OpenAI-compatible chat model (OpenRouter by default) to
// structure the question. Any model failure falls back to another parser.
type LLMParser struct {
	client   openai.Client
	model    string
	schema   interface{}
	fallback weather.QueryParser
	now      func() time.Time
}

// NewLLMParser creates a parser for model behind baseURL. fallback must not be nil.
func NewLLMParser(apiKey, baseURL, model string, fallback weather.QueryParser, opts ...option.RequestOption) *LLMParser {
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	reqOpts = append(reqOpts, opts...)

	return &LLMParser{
		client:   openai.NewClient(reqOpts...),
		model:    model,
		schema:   GenerateSchema[parsedQuery](),
		fallback: fallback,
		now:      time.Now,
	}
}

func (p *LLMParser) Parse(ctx context.Context, text string) (weather.Query, error) {
	parsed, err := p.complete(ctx, text)
	if err != nil {
		slog.Warn("llm query parsing failed, using fallback", "model", p.model, "error", err)
		return p.fallback.Parse(ctx, text)
	}

	q := weather.Query{
		Location:  parsed.Location,
		Days:      min(parsed.Duration, maxParsedDays),
		Direction: weather.Direction(parsed.Direction),
		Intent:    weather.Intent(parsed.Intent),
		Format:    weather.ParseFormat(parsed.Format),
	}
	if q.Location == "" || q.Days < 0 {
		fq, ferr := p.fallback.Parse(ctx, text)
		if ferr == nil {
			if q.Location == "" {
				q.Location = fq.Location
			}
			if q.Days < 0 {
				q.Days = fq.Days
			}
		}
	}
	return q, nil
}

func (p *LLMParser) complete(ctx context.Context, text string) (*parsedQuery, error) {
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "weather_query",
		Description: openai.String("Structured weather question: location, duration, direction, intent and format"),
		Schema:      p.schema,
		Strict:      openai.Bool(true),
	}

	chat, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(fmt.Sprintf(systemPrompt, p.now().UTC().Format(weather.DateLayout))),
			openai.UserMessage(text),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schemaParam},
		},
		Model: openai.ChatModel(p.model),
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return nil, errors.New("empty response from model")
	}

	var out parsedQuery
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &out); err != nil {
		slog.Debug("unparsable model output", "content", chat.Choices[0].Message.Content)
		return nil, fmt.Errorf("decode model output: %w", err)
	}
	return &out, nil
}
