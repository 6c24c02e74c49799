package email

import "errors"

// TemporaryError marks a retriable failure (e.g., network timeout, SMTP 4xx).
type TemporaryError struct{ msg string }

func (e TemporaryError) Error() string   { return e.msg }
func (e TemporaryError) Temporary() bool { return true }
func (e TemporaryError) Permanent() bool { return false }

// PermanentError marks a failure redelivery cannot fix (bad address, auth rejected).
type PermanentError struct{ msg string }

func (e PermanentError) Error() string   { return e.msg }
func (e PermanentError) Permanent() bool { return true }

func IsPermanent(err error) bool {
	var pm interface{ Permanent() bool }
	return errors.As(err, &pm) && pm.Permanent()
}
