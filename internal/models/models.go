package models

// LegacyRequest is the older evaluation-client body: {"inputs": "..."}.
type LegacyRequest struct {
	Inputs string `json:"inputs"`
}

// ChatRequest is the chat-style body; only the first message is read.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GeneratedText is one element of the legacy response array.
type GeneratedText struct {
	GeneratedText string `json:"generated_text"`
}

type ChatResponse struct {
	Choices []Choice `json:"choices"`
}

type Choice struct {
	Message ChoiceMessage `json:"message"`
}

type ChoiceMessage struct {
	Content string `json:"content"`
}

// ErrorItem is one element of the error envelope array.
type ErrorItem struct {
	Error string `json:"error"`
}

func NewLegacyResponse(text string) []GeneratedText {
	return []GeneratedText{{GeneratedText: text}}
}

func NewChatResponse(text string) ChatResponse {
	return ChatResponse{
		Choices: []Choice{{Message: ChoiceMessage{Content: text}}},
	}
}

func UserMessage(content string) ChatMessage {
	return ChatMessage{Role: "user", Content: content}
}
