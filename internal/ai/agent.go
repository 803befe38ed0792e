package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"docflow/internal/core"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
)

type AgentService interface {
	// DraftDocument turns a free-text request ("2 fenêtres PVC à 450 € pour la
	// SARL Dupont, TVA 20 %") into an unsaved draft of docType.
	DraftDocument(ctx context.Context, text string, docType core.DocumentType) (*DraftProposal, error)
}

type Agent struct {
	client *openai.Client
	model  string
}

func NewAgent(apiKey, model string) *Agent {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	if model == "" {
		model = string(shared.ChatModelGPT4o)
	}
	return &Agent{client: &client, model: model}
}

func (a *Agent) DraftDocument(ctx context.Context, text string, docType core.DocumentType) (*DraftProposal, error) {
	prompt := fmt.Sprintf(`You prepare business documents for a small French company.
Your goal is to turn the request below into the lines of a %s.
Rules:
1. One line per distinct product or service; quantities are whole numbers ≥ 1.
2. Prices are tax-excluded unit prices as exact strings (e.g. "450.00"); use "0" when unknown.
3. discount_percent is between "0" and "100"; option and option_price describe a paid add-on, "" and "0" when absent.
4. client_category is "business" for companies (SARL, SAS, EURL, association...) and "individual" otherwise.
5. tax_rate is the VAT percentage quoted in the request, "20" for a business client when none is given, "0" for an individual.
6. Provide a confidence score (0.0-1.0) and explain your reasoning.

Request: %s`, docType.Label(), text)

	schemaMap, err := draftSchema()
	if err != nil {
		return nil, err
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(a.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "document_draft",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("Line items and client details for a business document draft"),
				},
			},
		},
	}

	resp, err := a.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return nil, fmt.Errorf("empty response content")
	}
	return ParseDraft([]byte(content))
}

// ParseDraft decodes and validates a model answer.
func ParseDraft(content []byte) (*DraftProposal, error) {
	var proposal DraftProposal
	if err := json.Unmarshal(content, &proposal); err != nil {
		return nil, fmt.Errorf("failed to parse completion: %w", err)
	}
	proposal.Normalize()
	if err := proposal.Validate(); err != nil {
		return nil, fmt.Errorf("draft validation failed: %w", err)
	}
	return &proposal, nil
}

func draftSchema() (map[string]any, error) {
	schemaJSON, err := json.Marshal(generateSchema())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}
	return schemaMap, nil
}

func generateSchema() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v DraftProposal
	return reflector.Reflect(v)
}
