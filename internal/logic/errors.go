package logic

import "errors"

var (
	ErrNotFound  = errors.New("record not found")
	ErrForbidden = errors.New("not allowed for acting user")
)

// ValidationError 写库前的输入校验失败，可直接展示给用户
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(message string) error {
	return &ValidationError{Message: message}
}

// IsValidation 是否为校验错误
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
