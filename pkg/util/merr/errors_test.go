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
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
)

type ErrSuite struct {
	suite.Suite
}

func (s *ErrSuite) TestCode() {
	err := WrapErrPlayerNotFound("zezima")
	err = errors.Wrap(err, "failed to find player")
	s.ErrorIs(err, ErrPlayerNotFound)
	s.Equal(Code(ErrPlayerNotFound), Code(err))
	s.Equal(TimeoutCode, Code(context.DeadlineExceeded))
	s.Equal(CanceledCode, Code(context.Canceled))
	s.Equal(errUnexpected.errCode, Code(errUnexpected))
	s.Equal(errUnexpected.errCode, Code(errors.New("plain")))
	s.Equal(int32(0), Code(nil))

	sameCodeErr := newGameError("new error", ErrPlayerNotFound.errCode, false)
	s.True(sameCodeErr.Is(ErrPlayerNotFound))
}

func (s *ErrSuite) TestStatus() {
	err := WrapErrPlayerNotFound("zezima")
	status := ToStatus(err)
	restoredErr := Error(status)

	s.ErrorIs(err, restoredErr)
	s.Equal(int32(0), ToStatus(nil).Code)
	s.Nil(Error(&Status{}))
	s.True(Ok(Success("done")))
	s.Equal("done", Success("done").Msg)
	s.False(Ok(nil))
}

func (s *ErrSuite) TestRetryable() {
	s.True(IsRetryableErr(WrapErrStorageFailed(errors.New("disk"))))
	s.True(IsRetryableErr(errors.Wrap(WrapErrLoginWorldFull(10, 10), "login")))
	s.False(IsRetryableErr(WrapErrLoginInvalidCredentials("zezima")))
	s.False(IsRetryableErr(errors.New("plain")))
	s.True(IsCanceledOrTimeout(errors.Wrap(context.Canceled, "stop")))
}

func (s *ErrSuite) TestErrorType() {
	err := WrapErrAsInputError(WrapErrPlayerInvalidName("a-b"))
	s.Equal(InputError, GetErrorType(err))
	s.Equal(SystemError, GetErrorType(WrapErrServiceInternal("boom")))
	s.Equal("input_error", InputError.String())

	marked := WrapErrAsInputErrorWhen(ErrRelationListFull, ErrRelationListFull)
	s.Equal(InputError, GetErrorType(marked))
	unmarked := WrapErrAsInputErrorWhen(ErrRelationSelf, ErrRelationListFull)
	s.Equal(SystemError, GetErrorType(unmarked))
}

func (s *ErrSuite) TestWrap() {
	// Service 相关错误。
	s.ErrorIs(WrapErrServiceNotReady("world", "starting"), ErrServiceNotReady)
	s.ErrorIs(WrapErrServiceUnavailable("stopping", "shutdown"), ErrServiceUnavailable)
	s.ErrorIs(WrapErrServiceInternal("never throw out"), ErrServiceInternal)
	s.ErrorIs(WrapErrServiceRateLimit(5), ErrServiceRateLimit)
	s.ErrorIs(WrapErrServiceResourceInsufficient("pool exhausted"), ErrServiceResourceInsufficient)

	// Session 相关错误。
	s.ErrorIs(WrapErrSessionClosed(1), ErrSessionClosed)
	s.ErrorIs(WrapErrSessionStage("LoggedIn", "Connecting"), ErrSessionStage)
	s.ErrorIs(WrapErrSessionTimeout("zezima", "5s"), ErrSessionTimeout)

	// Login 相关错误。
	s.ErrorIs(WrapErrLoginInvalidCredentials("zezima"), ErrLoginInvalidCredentials)
	s.ErrorIs(WrapErrLoginAccountOnline("zezima"), ErrLoginAccountOnline)
	s.ErrorIs(WrapErrLoginWorldFull(2000, 2000), ErrLoginWorldFull)
	s.ErrorIs(WrapErrLoginLimitExceeded("127.0.0.1", 6, 5), ErrLoginLimitExceeded)
	s.ErrorIs(WrapErrLoginAttemptsExceeded("127.0.0.1"), ErrLoginAttemptsExceeded)
	s.ErrorIs(WrapErrLoginClientVersion("316.0.0", ">=317.0.0"), ErrLoginClientVersion)
	s.ErrorIs(WrapErrLoginAccountDisabled("zezima"), ErrLoginAccountDisabled)

	// Player 相关错误。
	s.ErrorIs(WrapErrPlayerInvalidName("bad-name"), ErrPlayerInvalidName)
	s.ErrorIs(WrapErrPlayerInvalidPassword("too short"), ErrPlayerInvalidPassword)
	s.ErrorIs(WrapErrPlayerNotFound(uint64(42)), ErrPlayerNotFound)
	s.ErrorIs(WrapErrPlayerOffline("zezima"), ErrPlayerOffline)

	// Relation 相关错误。
	s.ErrorIs(WrapErrRelationListFull("friends", 100), ErrRelationListFull)
	s.ErrorIs(WrapErrRelationSelf("zezima"), ErrRelationSelf)
	s.ErrorIs(WrapErrRelationConflict("bob", "ignores"), ErrRelationConflict)
	s.ErrorIs(WrapErrRelationNotFound("bob", "friends"), ErrRelationNotFound)

	// Storage 相关错误。
	s.ErrorIs(WrapErrProfileNotFound("zezima"), ErrProfileNotFound)
	s.ErrorIs(WrapErrStorageFailed(errors.New("locked")), ErrStorageFailed)

	// Network 相关错误。
	s.ErrorIs(WrapErrNetworkFrameTooLarge(2<<20, 1<<20), ErrNetworkFrameTooLarge)
	s.ErrorIs(WrapErrNetworkUnknownOp(999), ErrNetworkUnknownOp)
	s.ErrorIs(WrapErrNetworkCodec(errors.New("bad json")), ErrNetworkCodec)

	// Event 相关错误。
	s.ErrorIs(WrapErrEventHandlerPanic("presence", "boom"), ErrEventHandlerPanic)

	// 参数相关错误。
	s.ErrorIs(WrapErrParameterInvalid(8, 1, "failed to create"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterInvalidRange(1, 12, 0, "name length"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterInvalidMsg("bad %s", "thing"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterMissing("username", "no username"), ErrParameterMissing)
	s.ErrorIs(WrapErrParameterTooLarge("unit test"), ErrParameterTooLarge)
	s.ErrorIs(WrapErrOperationNotSupported("trade"), ErrOperationNotSupported)
}

func (s *ErrSuite) TestWrapMessage() {
	err := WrapErrLoginAccountOnline("zezima", "login", "register")
	s.Contains(err.Error(), "login->register")
	s.Contains(err.Error(), "player=zezima")
}

func (s *ErrSuite) TestCombine() {
	var (
		errFirst  = errors.New("first")
		errSecond = errors.New("second")
		errThird  = errors.New("third")
	)

	err := Combine(errFirst, errSecond)
	s.True(errors.Is(err, errFirst))
	s.True(errors.Is(err, errSecond))
	s.False(errors.Is(err, errThird))

	s.Equal("first: second", err.Error())
}

func (s *ErrSuite) TestCombineWithNil() {
	err := errors.New("non-nil")

	err = Combine(nil, err)
	s.NotNil(err)
}

func (s *ErrSuite) TestCombineOnlyNil() {
	err := Combine(nil, nil)
	s.Nil(err)
}

func (s *ErrSuite) TestCombineCode() {
	err := Combine(WrapErrRelationNotFound("bob", "friends"), WrapErrPlayerNotFound("bob"))
	s.Equal(Code(ErrPlayerNotFound), Code(err))
}

func TestErrors(t *testing.T) {
	suite.Run(t, new(ErrSuite))
}
