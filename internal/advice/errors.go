package advice

import "errors"

// UserMessage is the only failure text ever shown to the user.
const UserMessage = "AIからのアドバイス取得中にエラーが発生しました。しばらくしてから再度お試しください。"

// ErrUnavailable matches every advice failure via errors.Is.
var ErrUnavailable = errors.New(UserMessage)

// Error is returned for any advice failure. Error() is always UserMessage;
// the underlying cause is reachable through Unwrap for logging only.
type Error struct {
	Cause error
}

func (e *Error) Error() string {
	return UserMessage
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrUnavailable.
func (e *Error) Is(target error) bool {
	return target == ErrUnavailable
}
