package advisor

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/codeGROOVE-dev/agrovision/pkg/llm"
	"github.com/codeGROOVE-dev/agrovision/pkg/normalize"
)

// ErrEmptyMessage is returned by Chat for a blank message.
var ErrEmptyMessage = errors.New("message is empty")

const emptyReply = "Sorry, I couldn't understand."

// ChatReply is the assistant's answer. Failed is set when Reply is a
// localized error message rather than model output.
type ChatReply struct {
	Reply  string `json:"reply"`
	Failed bool   `json:"failed,omitempty"`
}

// Greeting returns the opening chat message for a language.
func Greeting(lang string) string {
	return lookupLanguage(lang).Greeting
}

// Chat answers a free-form farming question. Replies are not cached.
func (s *Service) Chat(ctx context.Context, message, lang string) (ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return ChatReply{}, ErrEmptyMessage
	}
	language := lookupLanguage(lang)

	text, err := s.gateway.Complete(ctx, chatPrompt(message, language))
	if err != nil {
		s.logger.Warn("chat request failed", "lang", lang, "error", err)
		return ChatReply{Reply: chatError(err, language), Failed: true}, nil
	}

	reply := normalize.PlainText(text)
	if reply == "" {
		reply = emptyReply
	}
	return ChatReply{Reply: reply}, nil
}

func chatError(err error, lang Language) string {
	switch llm.StatusCode(err) {
	case http.StatusForbidden:
		return lang.invalidKey
	case http.StatusUnauthorized:
		return lang.unauthorized
	default:
		return lang.cannotConnect
	}
}
