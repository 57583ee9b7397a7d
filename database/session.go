/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"sync"

	"github.com/uptrace/bun"
)

// Session is a dedicated pool connection owned by one caller. The embedded
// bun.Conn exposes the query builders and RunInTx.
type Session struct {
	bun.Conn

	provider *Provider
	once     sync.Once
	closeErr error
}

// Close returns the connection to the pool. Only the first call has an
// effect; later calls return the first result.
func (s *Session) Close() error {
	s.once.Do(func() {
		s.closeErr = s.Conn.Close()
		s.provider.release()
	})
	return s.closeErr
}
