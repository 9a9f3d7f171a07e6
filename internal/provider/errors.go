package provider

import (
	"encoding/json"

	"github.com/dsablic/anchoraudit/internal/model"
)

// errorBody matches both {"error":{"message":...}} and {"message":...}.
type errorBody struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

// messageFromBody extracts the provider's own error message from a JSON body.
func messageFromBody(raw []byte) string {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Error != nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return body.Message
}

func providerError(name, message string, err error) *model.ProviderError {
	if message == "" {
		message = name + " API error"
	}
	return &model.ProviderError{Provider: name, Message: message, Err: err}
}
