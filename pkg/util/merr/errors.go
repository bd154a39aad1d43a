// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package merr

import (
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

const (
	CanceledCode int32 = 10000
	TimeoutCode  int32 = 10001
)

type ErrorType int32

const (
	SystemError ErrorType = 0
	InputError  ErrorType = 1
)

var ErrorTypeName = map[ErrorType]string{
	SystemError: "system_error",
	InputError:  "input_error",
}

func (err ErrorType) String() string {
	return ErrorTypeName[err]
}

// Define leaf errors here,
// WARN: take care to add new error,
// check whether you can use the errors below before adding a new one.
// Name: Err + related prefix + error name
var (
	// Service related
	ErrServiceNotReady             = newGameError("service not ready", 1, true)
	ErrServiceUnavailable          = newGameError("service unavailable", 2, true)
	ErrServiceInternal             = newGameError("service internal error", 5, false)
	ErrServiceRateLimit            = newGameError("rate limit exceeded", 8, true)
	ErrServiceResourceInsufficient = newGameError("service resource insufficient", 12, true)

	// Session related
	ErrSessionClosed  = newGameError("session closed", 100, false)
	ErrSessionStage   = newGameError("unexpected session stage", 101, false)
	ErrSessionTimeout = newGameError("session idle timeout", 102, false)

	// Login related
	ErrLoginInvalidCredentials = newGameError("invalid credentials", 200, false)
	ErrLoginAccountOnline      = newGameError("account already online", 201, false)
	ErrLoginWorldFull          = newGameError("world full", 202, true)
	ErrLoginLimitExceeded      = newGameError("login limit exceeded", 203, true)
	ErrLoginAttemptsExceeded   = newGameError("login attempts exceeded", 204, true)
	ErrLoginClientVersion      = newGameError("client version not supported", 205, false)
	ErrLoginAccountDisabled    = newGameError("account disabled", 206, false)

	// Player & identity related
	ErrPlayerInvalidName     = newGameError("invalid player name", 300, false)
	ErrPlayerInvalidPassword = newGameError("invalid password format", 301, false)
	ErrPlayerNotFound        = newGameError("player not found", 302, false)
	ErrPlayerOffline         = newGameError("player offline", 303, false)

	// Relation related
	ErrRelationListFull = newGameError("relation list full", 400, false)
	ErrRelationSelf     = newGameError("relation target is self", 401, false)
	ErrRelationConflict = newGameError("relation target on the other list", 402, false)
	ErrRelationNotFound = newGameError("relation not found", 403, false)

	// Storage related
	ErrProfileNotFound = newGameError("profile not found", 500, false)
	ErrStorageFailed   = newGameError("storage failed", 501, true)

	// Network related
	ErrNetworkFrameTooLarge = newGameError("frame too large", 600, false)
	ErrNetworkUnknownOp     = newGameError("unknown op", 601, false)
	ErrNetworkCodec         = newGameError("codec failed", 602, false)

	// Event related
	ErrEventHandlerPanic = newGameError("event handler panicked", 700, false)

	// Parameter related
	ErrParameterInvalid  = newGameError("invalid parameter", 1100, false)
	ErrParameterMissing  = newGameError("missing parameter", 1101, false)
	ErrParameterTooLarge = newGameError("parameter too large", 1102, false)

	// General
	ErrOperationNotSupported = newGameError("unsupported operation", 3000, false)

	// Do NOT export this,
	// never allow programmer using this, keep only for converting unknown error to gameError
	errUnexpected = newGameError("unexpected error", (1<<16)-1, false)
)

type errorOption func(*gameError)

func WithDetail(detail string) errorOption {
	return func(err *gameError) {
		err.detail = detail
	}
}

func WithErrorType(etype ErrorType) errorOption {
	return func(err *gameError) {
		err.errType = etype
	}
}

type gameError struct {
	msg       string
	detail    string
	retriable bool
	errCode   int32
	errType   ErrorType
}

func newGameError(msg string, code int32, retriable bool, options ...errorOption) gameError {
	err := gameError{
		msg:       msg,
		detail:    msg,
		retriable: retriable,
		errCode:   code,
	}

	for _, option := range options {
		option(&err)
	}
	return err
}

func (e gameError) code() int32 {
	return e.errCode
}

func (e gameError) Error() string {
	return e.msg
}

func (e gameError) Detail() string {
	return e.detail
}

func (e gameError) Is(err error) bool {
	cause := errors.Cause(err)
	if cause, ok := cause.(gameError); ok {
		return e.errCode == cause.errCode
	}
	return false
}

type multiErrors struct {
	errs []error
}

func (e multiErrors) Unwrap() error {
	if len(e.errs) <= 1 {
		return nil
	}
	// To make merr work for multi errors,
	// we need cause of multi errors, which defined as the last error
	if len(e.errs) == 2 {
		return e.errs[1]
	}

	return multiErrors{
		errs: e.errs[1:],
	}
}

func (e multiErrors) Error() string {
	final := e.errs[0]
	for i := 1; i < len(e.errs); i++ {
		final = errors.Wrap(e.errs[i], final.Error())
	}
	return final.Error()
}

func (e multiErrors) Is(err error) bool {
	for _, item := range e.errs {
		if errors.Is(item, err) {
			return true
		}
	}
	return false
}

func Combine(errs ...error) error {
	errs = lo.Filter(errs, func(err error, _ int) bool { return err != nil })
	if len(errs) == 0 {
		return nil
	}
	return multiErrors{
		errs,
	}
}
