package wagateway

import (
	"errors"
	"strings"
)

// SendTextRequest is the payload for a text send.
type SendTextRequest struct {
	Number        string `json:"number"`
	Text          string `json:"text"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

func (r SendTextRequest) validate() error {
	if strings.TrimSpace(r.Number) == "" {
		return errors.New("wagateway: destination number is required")
	}
	if strings.TrimSpace(r.Text) == "" {
		return errors.New("wagateway: message text is required")
	}
	return nil
}

// SendResponse is the gateway's acknowledgment of a send.
type SendResponse struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// ErrorText returns the failure detail, falling back to the status.
func (r SendResponse) ErrorText() string {
	if r.Error != "" {
		return r.Error
	}
	if r.Status != "" {
		return r.Status
	}
	return "unknown gateway error"
}

type connectionStateResponse struct {
	Instance struct {
		Name  string `json:"instanceName"`
		State string `json:"state"`
	} `json:"instance"`
}
