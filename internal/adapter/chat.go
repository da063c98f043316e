package adapter

import (
	"fmt"

	apierrors "moonshot-ollama-adapter/internal/errors"
	"moonshot-ollama-adapter/internal/models"
)

// ChatAdapter handles {"messages": [{"role", "content"}, ...]} and answers
// {"choices": [{"message": {"content": "..."}}]}. Only messages[0] is read.
type ChatAdapter struct{}

func NewChatAdapter() *ChatAdapter {
	return &ChatAdapter{}
}

func (a *ChatAdapter) Variant() Variant {
	return VariantChat
}

func (a *ChatAdapter) ExtractPrompt(body []byte) (string, error) {
	root, err := parseObject(body)
	if err != nil {
		return "", err
	}

	messages := member(root, "messages")
	if !messages.Exists() {
		return "", apierrors.Extraction(fmt.Errorf("missing messages"))
	}
	if !messages.IsArray() {
		return "", apierrors.Extraction(fmt.Errorf("messages must be an array"))
	}
	items := messages.Array()
	if len(items) == 0 {
		return "", apierrors.Extraction(fmt.Errorf("messages must not be empty"))
	}
	if !items[0].IsObject() {
		return "", apierrors.Extraction(fmt.Errorf("messages[0] must be an object"))
	}
	return stringField(items[0], "content", "messages[0].content")
}

func (a *ChatAdapter) BuildResponse(text string) any {
	return models.NewChatResponse(text)
}
