package domain

import (
	"errors"
	"fmt"
)

type ErrCode string

const (
	CodeMalformedPayload ErrCode = "malformed_payload"
	CodeValidation       ErrCode = "validation_failed"
	CodeGigNotFound      ErrCode = "gig_not_found"
	CodePublishFailed    ErrCode = "publish_failed"
	CodeReceiveFailed    ErrCode = "queue_receive_failed"
	CodeMessageParse     ErrCode = "message_parse_failed"
	CodeSendFailed       ErrCode = "notification_send_failed"
	CodeDeleteFailed     ErrCode = "delete_failed"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type AppError struct {
	Code    ErrCode
	Message string
	Fields  []FieldError
	Err     error
}

func (e *AppError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if len(e.Fields) > 0 {
		msg = fmt.Sprintf("%s %v", msg, e.Fields)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Err)
	}
	return msg
}

func (e *AppError) Unwrap() error { return e.Err }

// Is matches any AppError carrying the same code, so callers can write
// errors.Is(err, domain.ErrGigNotFound).
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrMalformedPayload = &AppError{Code: CodeMalformedPayload, Message: "payload is not a JSON object"}
	ErrValidation       = &AppError{Code: CodeValidation, Message: "invalid request"}
	ErrGigNotFound      = &AppError{Code: CodeGigNotFound, Message: "gig not found"}
	ErrPublishFailed    = &AppError{Code: CodePublishFailed, Message: "notification undeliverable"}
	ErrReceiveFailed    = &AppError{Code: CodeReceiveFailed, Message: "queue receive failed"}
	ErrMessageParse     = &AppError{Code: CodeMessageParse, Message: "message body is not a purchase event"}
	ErrSendFailed       = &AppError{Code: CodeSendFailed, Message: "notification send failed"}
	ErrDeleteFailed     = &AppError{Code: CodeDeleteFailed, Message: "queue delete failed"}
)

func MalformedPayload(cause error) error {
	return &AppError{Code: CodeMalformedPayload, Message: ErrMalformedPayload.Message, Err: cause}
}

func ValidationFailed(fields []FieldError) error {
	return &AppError{Code: CodeValidation, Message: ErrValidation.Message, Fields: fields}
}

func GigNotFound(slug string) error {
	return &AppError{Code: CodeGigNotFound, Message: fmt.Sprintf("gig %q not found", slug)}
}

func PublishFailed(ticketID string, cause error) error {
	return &AppError{Code: CodePublishFailed, Message: "notification undeliverable for ticket " + ticketID, Err: cause}
}

func ReceiveFailed(cause error) error {
	return &AppError{Code: CodeReceiveFailed, Message: ErrReceiveFailed.Message, Err: cause}
}

func MessageParseFailed(cause error) error {
	return &AppError{Code: CodeMessageParse, Message: ErrMessageParse.Message, Err: cause}
}

func SendFailed(ticketID string, cause error) error {
	return &AppError{Code: CodeSendFailed, Message: "confirmation for ticket " + ticketID + " not sent", Err: cause}
}

func DeleteFailed(receiptHandle string, cause error) error {
	return &AppError{Code: CodeDeleteFailed, Message: "delete " + receiptHandle, Err: cause}
}

// FieldErrors returns the validation errors carried by err, if any.
func FieldErrors(err error) []FieldError {
	var ae *AppError
	if errors.As(err, &ae) && ae.Code == CodeValidation {
		return ae.Fields
	}
	return nil
}
