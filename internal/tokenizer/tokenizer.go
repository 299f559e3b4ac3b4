// Package tokenizer estimates token counts for digest content.
package tokenizer

import (
	"errors"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates token counts for text content.
type Counter interface {
	Name() string
	CountString(input string) (int, error)
}

const (
	defaultModel        = "gpt-4o"
	defaultEncodingName = "cl100k_base"

	// approximateCharactersPerToken backs the estimate when no encoder is available.
	approximateCharactersPerToken = 4
)

type openAICounter struct {
	encoding *tiktoken.Tiktoken
	name     string
}

func (counter openAICounter) Name() string {
	return counter.name
}

func (counter openAICounter) CountString(input string) (int, error) {
	if counter.encoding == nil {
		return 0, errors.New("nil tiktoken encoder")
	}
	tokenIdentifiers := counter.encoding.Encode(input, nil, nil)
	return len(tokenIdentifiers), nil
}

// NewCounter returns a Counter for the requested model, falling back to the
// default encoding when the model is unknown. The second return value names
// the encoding actually selected.
func NewCounter(model string) (Counter, string, error) {
	selectedModel := strings.ToLower(strings.TrimSpace(model))
	if selectedModel == "" {
		selectedModel = defaultModel
	}

	encoding, encodingError := tiktoken.EncodingForModel(selectedModel)
	if encodingError == nil && encoding != nil {
		return openAICounter{encoding: encoding, name: selectedModel}, selectedModel, nil
	}

	fallbackEncoding, fallbackError := tiktoken.GetEncoding(defaultEncodingName)
	if fallbackError != nil {
		return nil, "", errors.Join(errors.New("initialize fallback tokenizer"), fallbackError)
	}
	return openAICounter{encoding: fallbackEncoding, name: defaultEncodingName}, defaultEncodingName, nil
}

// Estimate counts tokens with the provided counter, approximating from the
// text length when the counter is absent or fails.
func Estimate(counter Counter, text string) int {
	if counter != nil {
		tokenCount, countError := counter.CountString(text)
		if countError == nil {
			return tokenCount
		}
	}
	return len(text) / approximateCharactersPerToken
}
