package exam

import "errors"

// ErrEmptyPool is returned when a session is started without any questions.
var ErrEmptyPool = errors.New("exam: question pool is empty")
