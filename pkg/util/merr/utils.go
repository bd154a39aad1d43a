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
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/rs-world-go/pkg/log"
)

const InputErrorFlagKey string = "is_input_error"

// Status 是发往客户端的错误描述，Code 为 0 表示成功。
type Status struct {
	Code int32  `json:"code"`
	Msg  string `json:"msg,omitempty"`
}

// Code 返回给定错误对应的错误码。
func Code(err error) int32 {
	if err == nil {
		return 0
	}

	cause := errors.Cause(err)
	switch specificErr := cause.(type) {
	case gameError:
		return specificErr.code()

	default:
		if errors.Is(specificErr, context.Canceled) {
			return CanceledCode
		} else if errors.Is(specificErr, context.DeadlineExceeded) {
			return TimeoutCode
		} else {
			return errUnexpected.code()
		}
	}
}

func IsRetryableErr(err error) bool {
	if err, ok := errors.Cause(err).(gameError); ok {
		return err.retriable
	}

	return false
}

func IsCanceledOrTimeout(err error) bool {
	return errors.IsAny(err, context.Canceled, context.DeadlineExceeded)
}

// ToStatus 根据给定错误构造 Status。
// 当 err 为空时，返回一个表示成功的 Status。
func ToStatus(err error) *Status {
	if err == nil {
		return &Status{}
	}

	return &Status{
		Code: Code(err),
		Msg:  previousLastError(err).Error(),
	}
}

func previousLastError(err error) error {
	lastErr := err
	for {
		nextErr := errors.Unwrap(err)
		if nextErr == nil {
			break
		}
		lastErr = err
		err = nextErr
	}
	return lastErr
}

func Success(reason ...string) *Status {
	status := ToStatus(nil)
	// NOLINT
	status.Msg = strings.Join(reason, " ")
	return status
}

func Ok(status *Status) bool {
	return status != nil && status.Code == 0
}

// Error returns a error according to the given status,
// returns nil if the status is a success status
func Error(status *Status) error {
	if Ok(status) {
		return nil
	}
	return newGameError(status.Msg, status.Code, false)
}

func WrapErrAsInputError(err error) error {
	if merr, ok := err.(gameError); ok {
		WithErrorType(InputError)(&merr)
		return merr
	}
	return err
}

func WrapErrAsInputErrorWhen(err error, targets ...gameError) error {
	if merr, ok := err.(gameError); ok {
		for _, target := range targets {
			if target.errCode == merr.errCode {
				log.Info("mark error as input error", zap.Error(err))
				WithErrorType(InputError)(&merr)
				return merr
			}
		}
	}
	return err
}

func GetErrorType(err error) ErrorType {
	if merr, ok := errors.Cause(err).(gameError); ok {
		return merr.errType
	}

	return SystemError
}

func wrapMsg(err error, msg []string) error {
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Service related
func WrapErrServiceNotReady(role string, state string, msg ...string) error {
	return wrapMsg(wrapFieldsWithDesc(ErrServiceNotReady, state, value("role", role)), msg)
}

func WrapErrServiceUnavailable(reason string, msg ...string) error {
	return wrapMsg(wrapFieldsWithDesc(ErrServiceUnavailable, reason), msg)
}

func WrapErrServiceInternal(reason string, msg ...string) error {
	return wrapMsg(wrapFieldsWithDesc(ErrServiceInternal, reason), msg)
}

func WrapErrServiceRateLimit(rate float64, msg ...string) error {
	return wrapMsg(wrapFields(ErrServiceRateLimit, value("rate", rate)), msg)
}

func WrapErrServiceResourceInsufficient(reason string, msg ...string) error {
	return wrapMsg(wrapFieldsWithDesc(ErrServiceResourceInsufficient, reason), msg)
}

// Session related
func WrapErrSessionClosed(sessionID uint64, msg ...string) error {
	return wrapMsg(wrapFields(ErrSessionClosed, value("session", sessionID)), msg)
}

func WrapErrSessionStage(expected, actual any, msg ...string) error {
	return wrapMsg(wrapFields(ErrSessionStage, value("expected", expected), value("actual", actual)), msg)
}

func WrapErrSessionTimeout(player string, idle any, msg ...string) error {
	return wrapMsg(wrapFields(ErrSessionTimeout, value("player", player), value("idle", idle)), msg)
}

// Login related
func WrapErrLoginInvalidCredentials(player string, msg ...string) error {
	return wrapMsg(wrapFields(ErrLoginInvalidCredentials, value("player", player)), msg)
}

func WrapErrLoginAccountOnline(player string, msg ...string) error {
	return wrapMsg(wrapFields(ErrLoginAccountOnline, value("player", player)), msg)
}

func WrapErrLoginWorldFull(online, limit int, msg ...string) error {
	return wrapMsg(wrapFields(ErrLoginWorldFull, bound("online", online, 0, limit)), msg)
}

func WrapErrLoginLimitExceeded(host string, conns, limit int, msg ...string) error {
	return wrapMsg(wrapFields(ErrLoginLimitExceeded, value("host", host), bound("conns", conns, 0, limit)), msg)
}

func WrapErrLoginAttemptsExceeded(host string, msg ...string) error {
	return wrapMsg(wrapFields(ErrLoginAttemptsExceeded, value("host", host)), msg)
}

func WrapErrLoginClientVersion(version string, constraint string, msg ...string) error {
	return wrapMsg(wrapFieldsWithDesc(ErrLoginClientVersion, constraint, value("version", version)), msg)
}

func WrapErrLoginAccountDisabled(player string, msg ...string) error {
	return wrapMsg(wrapFields(ErrLoginAccountDisabled, value("player", player)), msg)
}

// Player related
func WrapErrPlayerInvalidName(name string, msg ...string) error {
	return wrapMsg(wrapFields(ErrPlayerInvalidName, value("name", name)), msg)
}

func WrapErrPlayerInvalidPassword(reason string, msg ...string) error {
	return wrapMsg(wrapFieldsWithDesc(ErrPlayerInvalidPassword, reason), msg)
}

func WrapErrPlayerNotFound(player any, msg ...string) error {
	return wrapMsg(wrapFields(ErrPlayerNotFound, value("player", player)), msg)
}

func WrapErrPlayerOffline(player any, msg ...string) error {
	return wrapMsg(wrapFields(ErrPlayerOffline, value("player", player)), msg)
}

// Relation related
func WrapErrRelationListFull(list string, limit int, msg ...string) error {
	return wrapMsg(wrapFields(ErrRelationListFull, value("list", list), value("limit", limit)), msg)
}

func WrapErrRelationSelf(player string, msg ...string) error {
	return wrapMsg(wrapFields(ErrRelationSelf, value("player", player)), msg)
}

func WrapErrRelationConflict(target string, list string, msg ...string) error {
	return wrapMsg(wrapFields(ErrRelationConflict, value("target", target), value("list", list)), msg)
}

func WrapErrRelationNotFound(target string, list string, msg ...string) error {
	return wrapMsg(wrapFields(ErrRelationNotFound, value("target", target), value("list", list)), msg)
}

// Storage related
func WrapErrProfileNotFound(player string, msg ...string) error {
	return wrapMsg(wrapFields(ErrProfileNotFound, value("player", player)), msg)
}

func WrapErrStorageFailed(err error, msg ...string) error {
	return wrapMsg(wrapFieldsWithDesc(ErrStorageFailed, err.Error()), msg)
}

// Network related
func WrapErrNetworkFrameTooLarge(size, limit int, msg ...string) error {
	return wrapMsg(wrapFields(ErrNetworkFrameTooLarge, bound("size", size, 0, limit)), msg)
}

func WrapErrNetworkUnknownOp(op uint32, msg ...string) error {
	return wrapMsg(wrapFields(ErrNetworkUnknownOp, value("op", op)), msg)
}

func WrapErrNetworkCodec(err error, msg ...string) error {
	return wrapMsg(wrapFieldsWithDesc(ErrNetworkCodec, err.Error()), msg)
}

// Event related
func WrapErrEventHandlerPanic(handler string, recovered any, msg ...string) error {
	return wrapMsg(wrapFields(ErrEventHandlerPanic, value("handler", handler), value("recovered", recovered)), msg)
}

// Parameter related
func WrapErrParameterInvalid[T any](expected, actual T, msg ...string) error {
	return wrapMsg(wrapFields(ErrParameterInvalid, value("expected", expected), value("actual", actual)), msg)
}

func WrapErrParameterInvalidRange[T any](lower, upper, actual T, msg ...string) error {
	return wrapMsg(wrapFields(ErrParameterInvalid, bound("value", actual, lower, upper)), msg)
}

func WrapErrParameterInvalidMsg(fmtMsg string, args ...any) error {
	return errors.Wrapf(ErrParameterInvalid, fmtMsg, args...)
}

func WrapErrParameterMissing[T any](param T, msg ...string) error {
	return wrapMsg(wrapFields(ErrParameterMissing, value("missing_param", param)), msg)
}

func WrapErrParameterTooLarge(name string, msg ...string) error {
	return wrapMsg(wrapFields(ErrParameterTooLarge, value("message", name)), msg)
}

func WrapErrOperationNotSupported(operation string, msg ...string) error {
	return wrapMsg(wrapFields(ErrOperationNotSupported, value("operation", operation)), msg)
}

func wrapFields(err gameError, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.detail = err.msg
	return err
}

func wrapFieldsWithDesc(err gameError, desc string, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.msg += ": " + desc
	err.detail = err.msg
	return err
}

type errorField interface {
	String() string
}

type valueField struct {
	name  string
	value any
}

func value(name string, value any) valueField {
	return valueField{
		name,
		value,
	}
}

func (f valueField) String() string {
	return fmt.Sprintf("%s=%v", f.name, f.value)
}

type boundField struct {
	name  string
	value any
	lower any
	upper any
}

func bound(name string, value, lower, upper any) boundField {
	return boundField{
		name,
		value,
		lower,
		upper,
	}
}

func (f boundField) String() string {
	return fmt.Sprintf("%v out of range %v <= %s <= %v", f.value, f.lower, f.name, f.upper)
}
