package upstream

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient adapts the Gemini API to the LiveConnector and ChatBackend
// interfaces. One client is shared by the relay and the drafter.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient builds a client against the Gemini API backend.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

// Connect opens a live session configured per cfg.
func (g *GeminiClient) Connect(ctx context.Context, cfg LiveConfig) (LiveChannel, error) {
	lc := &genai.LiveConnectConfig{}
	if cfg.SystemInstruction != "" {
		lc.SystemInstruction = genai.NewContentFromText(cfg.SystemInstruction, genai.RoleUser)
	}
	for _, m := range cfg.ResponseModalities {
		lc.ResponseModalities = append(lc.ResponseModalities, genai.Modality(m))
	}
	if cfg.VoiceName != "" {
		lc.SpeechConfig = &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: cfg.VoiceName},
			},
		}
	}
	if len(cfg.Tools) > 0 {
		lc.Tools = []*genai.Tool{{FunctionDeclarations: toFunctionDeclarations(cfg.Tools)}}
	}

	session, err := g.client.Live.Connect(ctx, cfg.Model, lc)
	if err != nil {
		return nil, fmt.Errorf("connecting live session: %w", err)
	}
	return &geminiChannel{session: session}, nil
}

// Generate runs a one-shot completion over the supplied history and prompt.
func (g *GeminiClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	contents := toContents(req.History, req.Prompt)

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](req.Temperature),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSONOutput {
		cfg.ResponseMIMEType = "application/json"
	}
	if req.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = req.MaxOutputTokens
	}

	res, err := g.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return res.Text(), nil
}

// toContents converts a chat history plus the current prompt into SDK
// contents, preserving turn order.
func toContents(history []Turn, prompt string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, t := range history {
		var role genai.Role = genai.RoleUser
		if t.Role == "model" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Text, role))
	}
	return append(contents, genai.NewContentFromText(prompt, genai.RoleUser))
}

func toFunctionDeclarations(decls []ToolDeclaration) []*genai.FunctionDeclaration {
	out := make([]*genai.FunctionDeclaration, 0, len(decls))
	for _, d := range decls {
		props := make(map[string]*genai.Schema, len(d.Params))
		for name, p := range d.Params {
			s := &genai.Schema{
				Type:        genai.Type(strings.ToUpper(p.Type)),
				Description: p.Description,
			}
			if len(p.Enum) > 0 {
				s.Enum = p.Enum
			}
			props[name] = s
		}
		out = append(out, &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: props,
				Required:   d.Required,
			},
		})
	}
	return out
}

// geminiChannel wraps a live session behind the LiveChannel interface.
type geminiChannel struct {
	session *genai.Session
}

func (c *geminiChannel) SendText(ctx context.Context, text string, endOfTurn bool) error {
	err := c.session.SendClientContent(genai.LiveClientContentInput{
		Turns:        []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		TurnComplete: genai.Ptr(endOfTurn),
	})
	if err != nil {
		return fmt.Errorf("send client content: %w", err)
	}
	return nil
}

func (c *geminiChannel) SendMedia(ctx context.Context, data []byte, mimeType string, endOfTurn bool) error {
	if strings.HasPrefix(mimeType, "audio/") {
		err := c.session.SendRealtimeInput(genai.LiveRealtimeInput{
			Media: &genai.Blob{Data: data, MIMEType: mimeType},
		})
		if err != nil {
			return fmt.Errorf("send realtime input: %w", err)
		}
		return nil
	}

	content := &genai.Content{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{genai.NewPartFromBytes(data, mimeType)},
	}
	err := c.session.SendClientContent(genai.LiveClientContentInput{
		Turns:        []*genai.Content{content},
		TurnComplete: genai.Ptr(endOfTurn),
	})
	if err != nil {
		return fmt.Errorf("send media content: %w", err)
	}
	return nil
}

func (c *geminiChannel) SendToolResponse(ctx context.Context, responses []ToolResponse) error {
	frs := make([]*genai.FunctionResponse, 0, len(responses))
	for _, r := range responses {
		frs = append(frs, &genai.FunctionResponse{
			ID:       r.ID,
			Name:     r.Name,
			Response: r.Result,
		})
	}
	err := c.session.SendToolResponse(genai.LiveToolResponseInput{FunctionResponses: frs})
	if err != nil {
		return fmt.Errorf("send tool response: %w", err)
	}
	return nil
}

func (c *geminiChannel) Receive() (*ServerEvent, error) {
	msg, err := c.session.Receive()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamClosed, err)
	}

	ev := &ServerEvent{}
	if sc := msg.ServerContent; sc != nil {
		ev.TurnComplete = sc.TurnComplete
		ev.Interrupted = sc.Interrupted
		if sc.ModelTurn != nil {
			for _, part := range sc.ModelTurn.Parts {
				if part == nil {
					continue
				}
				if part.Text != "" {
					ev.Parts = append(ev.Parts, ContentPart{Text: part.Text})
				}
				if part.InlineData != nil && len(part.InlineData.Data) > 0 {
					ev.Parts = append(ev.Parts, ContentPart{
						Audio:    part.InlineData.Data,
						MIMEType: part.InlineData.MIMEType,
					})
				}
			}
		}
	}
	if tc := msg.ToolCall; tc != nil {
		for _, fc := range tc.FunctionCalls {
			if fc == nil {
				continue
			}
			ev.ToolCalls = append(ev.ToolCalls, ToolCall{
				ID:   fc.ID,
				Name: fc.Name,
				Args: fc.Args,
			})
		}
	}
	return ev, nil
}

func (c *geminiChannel) Close() error {
	return c.session.Close()
}
