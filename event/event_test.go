// Copyright 2020-2025 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package event

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKinds_AreDistinctAndMatchConstructors(t *testing.T) {
	var events []Event = []Event{
		Rotate{},
		Query{},
		TableMap{},
		WriteRows{},
		UpdateRows{},
		DeleteRows{},
	}

	seen := make(map[Kind]bool)
	for _, e := range events {
		require.False(t, seen[e.Kind()], "duplicate kind %v", e.Kind())
		seen[e.Kind()] = true
	}
	require.Len(t, seen, 6)
}
