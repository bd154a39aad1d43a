// Copyright (C) 2019-2020 Zilliz. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License
// is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express
// or implied. See the License for the specific language governing permissions and limitations under the License.

package retry

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"

	"github.com/lk2023060901/rs-world-go/pkg/util/merr"
)

func TestDoSucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("busy")
		}
		return nil
	}, Attempts(5), Sleep(time.Millisecond))
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoReachMaxAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return errors.New("busy")
	}, Attempts(3), Sleep(time.Millisecond))
	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoUnrecoverable(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return Unrecoverable(merr.ErrProfileNotFound)
	}, Attempts(5), Sleep(time.Millisecond))
	assert.ErrorIs(t, err, merr.ErrProfileNotFound)
	assert.False(t, IsRecoverable(err))
	assert.Equal(t, 1, calls)
}

func TestDoRetryErrFilter(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return merr.ErrLoginInvalidCredentials
	}, Attempts(5), Sleep(time.Millisecond), RetryErr(merr.IsRetryableErr))
	assert.ErrorIs(t, err, merr.ErrLoginInvalidCredentials)
	assert.Equal(t, 1, calls)
}

func TestDoCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Do(ctx, func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHandle(t *testing.T) {
	calls := 0
	err := Handle(context.Background(), func() (bool, error) {
		calls++
		return false, errors.New("stop")
	}, Attempts(5), Sleep(time.Millisecond))
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
