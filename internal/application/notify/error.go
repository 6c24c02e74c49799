package notify

import "errors"

type TemporaryError struct{ msg string }

func (e TemporaryError) Error() string   { return e.msg }
func (e TemporaryError) Temporary() bool { return true }
func (e TemporaryError) Permanent() bool { return false }

// errClaimHeld is returned while another worker owns the send lease for a ticket.
var errClaimHeld = TemporaryError{msg: "confirmation send already in progress"}

func isPermanent(err error) bool {
	var pm interface{ Permanent() bool }
	return errors.As(err, &pm) && pm.Permanent()
}
