// guardian/pkg/logging/errors.go

package logging

import (
	"fmt"

	"github.com/rs/zerolog"
)

type ErrorType string

const (
	ErrorTypeParse   ErrorType = "PARSE"
	ErrorTypeCompile ErrorType = "COMPILE"
	ErrorTypeRuntime ErrorType = "RUNTIME"
	ErrorTypeStore   ErrorType = "STORE"
)

type GuardianError struct {
	Type    ErrorType
	Message string
	Err     error
	Fields  map[string]interface{}
}

func (e *GuardianError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *GuardianError) Unwrap() error {
	return e.Err
}

func NewError(errType ErrorType, message string, err error, fields map[string]interface{}) *GuardianError {
	return &GuardianError{
		Type:    errType,
		Message: message,
		Err:     err,
		Fields:  fields,
	}
}

func LogError(logger zerolog.Logger, err error) {
	guardianErr, ok := err.(*GuardianError)
	if !ok {
		logger.Error().Err(err).Msg(err.Error())
		return
	}

	event := logger.Error().Err(guardianErr.Err).
		Str("error_type", string(guardianErr.Type)).
		Str("message", guardianErr.Message)

	for k, v := range guardianErr.Fields {
		event = event.Interface(k, v)
	}

	event.Msg(guardianErr.Message)
}
