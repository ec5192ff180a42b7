package fcm

import (
	"firebase.google.com/go/v4/messaging"
)

// ErrorKind is the closed taxonomy for per-recipient send failures. Provider
// SDK error types never leak past this classification.
type ErrorKind string

const (
	ErrorNone            ErrorKind = ""
	ErrorInvalidArgument ErrorKind = "invalid-argument"
	ErrorUnregistered    ErrorKind = "unregistered"
	ErrorQuotaExceeded   ErrorKind = "quota-exceeded"
	ErrorUnknown         ErrorKind = "unknown"
)

// ClassifyError maps an Admin SDK send error onto the closed taxonomy.
func ClassifyError(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorNone
	case messaging.IsInvalidArgument(err):
		return ErrorInvalidArgument
	case messaging.IsRegistrationTokenNotRegistered(err):
		return ErrorUnregistered
	case messaging.IsQuotaExceeded(err):
		return ErrorQuotaExceeded
	default:
		return ErrorUnknown
	}
}

// SendResult is the normalized outcome of one send to one recipient.
type SendResult struct {
	Success     bool      `json:"success"`
	MessageID   string    `json:"message_id,omitempty"`
	ErrorKind   ErrorKind `json:"error_kind,omitempty"`
	ErrorDetail string    `json:"error_detail,omitempty"`
}

// ResultFromSend normalizes a provider acknowledgment or exception into a
// SendResult. The error is consumed here; it never propagates further.
func ResultFromSend(messageID string, err error) SendResult {
	if err != nil {
		return SendResult{
			Success:     false,
			ErrorKind:   ClassifyError(err),
			ErrorDetail: err.Error(),
		}
	}
	return SendResult{Success: true, MessageID: messageID}
}

// BatchResult aggregates per-recipient outcomes for a batch or multicast
// send. Results holds one entry per input recipient, in input order.
type BatchResult struct {
	Results      []SendResult `json:"results"`
	SuccessCount int          `json:"success_count"`
	FailureCount int          `json:"failure_count"`
}

// BatchResultFromResponse converts the provider's batch response, preserving
// positional alignment with the request. Counts are derived by summing over
// the per-item results rather than trusting the provider's summary fields.
func BatchResultFromResponse(br *messaging.BatchResponse) BatchResult {
	if br == nil {
		return BatchResult{Results: []SendResult{}}
	}
	result := BatchResult{Results: make([]SendResult, 0, len(br.Responses))}
	for _, resp := range br.Responses {
		var item SendResult
		if resp.Success {
			item = SendResult{Success: true, MessageID: resp.MessageID}
		} else {
			item = ResultFromSend("", resp.Error)
		}
		result.Results = append(result.Results, item)
		if item.Success {
			result.SuccessCount++
		} else {
			result.FailureCount++
		}
	}
	return result
}

// TopicError identifies one token that failed a topic management call, by its
// position in the request token list.
type TopicError struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// TopicResult is the outcome of a topic subscribe/unsubscribe call.
type TopicResult struct {
	SuccessCount int          `json:"success_count"`
	FailureCount int          `json:"failure_count"`
	Errors       []TopicError `json:"errors,omitempty"`
}

// TopicResultFromResponse converts the provider's topic management response.
func TopicResultFromResponse(tr *messaging.TopicManagementResponse) TopicResult {
	if tr == nil {
		return TopicResult{}
	}
	result := TopicResult{
		SuccessCount: tr.SuccessCount,
		FailureCount: tr.FailureCount,
	}
	for _, e := range tr.Errors {
		result.Errors = append(result.Errors, TopicError{Index: e.Index, Reason: e.Reason})
	}
	return result
}
