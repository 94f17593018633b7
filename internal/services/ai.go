package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"family-tree-backend/internal/config"
	"family-tree-backend/internal/models"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// AI error taxonomy: "not configured" is actionable by the operator and maps
// to a 400-class response; an invalid key is reported distinctly; anything
// else is a generic upstream failure the client may retry.
var (
	ErrAINotConfigured = errors.New("AI API key not configured")
	ErrAIUnauthorized  = errors.New("invalid AI API key")
)

const analyzePrompt = "Analyze this family photo. Describe the people, their apparent " +
	"relationships, the setting, and any notable details about the photograph. " +
	"Keep the analysis concise and factual."

// knowledgeStore is the slice of the knowledge repository the AI service needs.
type knowledgeStore interface {
	List(ctx context.Context) ([]*models.KnowledgeDocument, error)
}

// memberPictureUpdater updates a member's profile picture after portrait
// generation.
type memberPictureUpdater interface {
	Update(ctx context.Context, id string, patch *models.FamilyMemberPatch) (*models.FamilyMember, error)
	List(ctx context.Context) ([]*models.FamilyMember, error)
}

// AIService proxies image analysis, portrait generation, transcription and
// chat to the OpenAI API.
type AIService struct {
	client    *resty.Client
	cfg       config.OpenAIConfig
	members   memberPictureUpdater
	photos    photoStore
	knowledge knowledgeStore
}

// NewAIService creates a new AI service
func NewAIService(cfg config.OpenAIConfig, members memberPictureUpdater, photos photoStore, knowledge knowledgeStore) *AIService {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetAuthToken(cfg.APIKey)

	return &AIService{
		client:    client,
		cfg:       cfg,
		members:   members,
		photos:    photos,
		knowledge: knowledge,
	}
}

// Configured reports whether an API key is present
func (s *AIService) Configured() bool {
	return s.cfg.APIKey != ""
}

// ChatMessage is one turn of the assistant conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model     string        `json:"model"`
	Messages  []wireMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

// wireMessage content is either a plain string or a list of content parts
// (for image input).
type wireMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type imageGenerationRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	N       int    `json:"n"`
	Size    string `json:"size"`
	Quality string `json:"quality"`
}

type imageGenerationResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// AnalyzeImage sends an image to the vision model and returns the analysis text
func (s *AIService) AnalyzeImage(ctx context.Context, data []byte, mediaType string) (string, error) {
	if !s.Configured() {
		return "", ErrAINotConfigured
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mediaType, base64.StdEncoding.EncodeToString(data))
	req := chatCompletionRequest{
		Model: s.cfg.ChatModel,
		Messages: []wireMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
				{Type: "text", Text: analyzePrompt},
			},
		}},
		MaxTokens: 1024,
	}

	var result chatCompletionResponse
	if err := s.post(ctx, "/chat/completions", req, &result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("AI returned no choices")
	}
	return result.Choices[0].Message.Content, nil
}

// GeneratePortrait asks the image model for a portrait and, when a member id
// is given, stores the resulting URL as that member's profile picture.
// The member update is best effort: its failure never fails the request.
func (s *AIService) GeneratePortrait(ctx context.Context, memberID, description string) (string, error) {
	if !s.Configured() {
		return "", ErrAINotConfigured
	}
	if description == "" {
		return "", fmt.Errorf("%w: description is required", ErrValidation)
	}

	req := imageGenerationRequest{
		Model: s.cfg.ImageModel,
		Prompt: fmt.Sprintf("Create a portrait of a family member. %s. "+
			"Make it realistic and formal, suitable for a family tree display.", description),
		N:       1,
		Size:    "1024x1024",
		Quality: "standard",
	}

	var result imageGenerationResponse
	if err := s.post(ctx, "/images/generations", req, &result); err != nil {
		return "", err
	}
	if len(result.Data) == 0 {
		return "", fmt.Errorf("AI returned no images")
	}
	url := result.Data[0].URL

	if memberID != "" {
		if _, err := s.members.Update(ctx, memberID, &models.FamilyMemberPatch{ProfilePicture: &url}); err != nil {
			log.Warn().Err(err).Str("member_id", memberID).
				Msg("Failed to update member profile picture after portrait generation")
		}
	}
	return url, nil
}

// Transcribe sends an audio file to the transcription model
func (s *AIService) Transcribe(ctx context.Context, data []byte, filename, mediaType string) (string, error) {
	if !s.Configured() {
		return "", ErrAINotConfigured
	}
	if filename == "" {
		filename = "audio.mp3"
	}

	var result transcriptionResponse
	var apiErr apiError
	resp, err := s.client.R().
		SetContext(ctx).
		SetFileReader("file", filename, bytes.NewReader(data)).
		SetFormData(map[string]string{
			"model":    s.cfg.AudioModel,
			"language": "en",
		}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/audio/transcriptions")
	if err != nil {
		return "", fmt.Errorf("AI request failed: %w", err)
	}
	if err := checkAPIResponse(resp, &apiErr); err != nil {
		return "", err
	}
	return result.Text, nil
}

// Chat answers a conversation with the family data and knowledge documents
// as context. List-fetch failures degrade to an empty context rather than
// failing the chat.
func (s *AIService) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	if !s.Configured() {
		return "", ErrAINotConfigured
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("%w: messages are required", ErrValidation)
	}

	members, err := s.members.List(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Chat context: failed to load members")
	}
	photos, err := s.photos.List(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Chat context: failed to load photos")
	}
	docs, err := s.knowledge.List(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Chat context: failed to load knowledge documents")
	}

	wire := make([]wireMessage, 0, len(messages)+1)
	wire = append(wire, wireMessage{
		Role:    "system",
		Content: buildFamilyContext(members, photos, docs),
	})
	for _, m := range messages {
		wire = append(wire, wireMessage{Role: m.Role, Content: m.Content})
	}

	req := chatCompletionRequest{
		Model:     s.cfg.ChatModel,
		Messages:  wire,
		MaxTokens: 1024,
	}

	var result chatCompletionResponse
	if err := s.post(ctx, "/chat/completions", req, &result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("AI returned no choices")
	}
	return result.Choices[0].Message.Content, nil
}

func (s *AIService) post(ctx context.Context, path string, body, result any) error {
	var apiErr apiError
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(result).
		SetError(&apiErr).
		Post(path)
	if err != nil {
		return fmt.Errorf("AI request failed: %w", err)
	}
	return checkAPIResponse(resp, &apiErr)
}

func checkAPIResponse(resp *resty.Response, apiErr *apiError) error {
	if !resp.IsError() {
		return nil
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return ErrAIUnauthorized
	}
	if apiErr.Error.Message != "" {
		return fmt.Errorf("AI request failed: %s", apiErr.Error.Message)
	}
	return fmt.Errorf("AI request failed with status %d", resp.StatusCode())
}

// buildFamilyContext renders the member list, relationships and gallery
// summary into the system prompt for the assistant.
func buildFamilyContext(members []*models.FamilyMember, photos []*models.FamilyPhoto, docs []*models.KnowledgeDocument) string {
	byID := indexByID(members)

	var b strings.Builder
	b.WriteString("You are a family assistant. Answer questions about the family below.\n\n")
	b.WriteString("Family members:\n")

	alive := 0
	for _, m := range members {
		if m.IsAlive {
			alive++
		}
		b.WriteString("- " + m.FirstName + " " + m.Surname + ":")
		if m.DateOfBirth != nil {
			b.WriteString(" born " + *m.DateOfBirth)
		}
		if !m.IsAlive && m.DateOfDeath != nil {
			b.WriteString(", died " + *m.DateOfDeath)
		}
		if m.IsAlive {
			b.WriteString(", alive")
		} else {
			b.WriteString(", deceased")
		}
		if m.BirthPlace != nil && *m.BirthPlace != "" {
			b.WriteString(", birthplace: " + *m.BirthPlace)
		}
		if m.FatherID != nil {
			if f, ok := byID[*m.FatherID]; ok {
				b.WriteString(", father: " + f.FirstName + " " + f.Surname)
			}
		}
		if m.MotherID != nil {
			if mo, ok := byID[*m.MotherID]; ok {
				b.WriteString(", mother: " + mo.FirstName + " " + mo.Surname)
			}
		}
		if m.SpouseID != nil {
			if sp, ok := byID[*m.SpouseID]; ok {
				b.WriteString(", spouse: " + sp.FirstName + " " + sp.Surname)
			}
		}
		var children []string
		for _, c := range members {
			if (c.FatherID != nil && *c.FatherID == m.ID) || (c.MotherID != nil && *c.MotherID == m.ID) {
				children = append(children, c.FirstName+" "+c.Surname)
			}
		}
		if len(children) > 0 {
			b.WriteString(", children: " + strings.Join(children, ", "))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nTotal: %d members, %d alive, %d deceased.\n",
		len(members), alive, len(members)-alive)
	fmt.Fprintf(&b, "Gallery: %d photos.\n", len(photos))

	if len(docs) > 0 {
		b.WriteString("\nAdditional family knowledge:\n")
		for _, d := range docs {
			b.WriteString("## " + d.Title + "\n" + d.Content + "\n")
		}
	}
	return b.String()
}
