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

package topic

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultSelector_WithPrefix(t *testing.T) {
	sel := DefaultSelector("inventory")
	require.Equal(t, "inventory.shop.orders", sel("server1", "shop", "orders"))
}

func TestDefaultSelector_NoPrefix(t *testing.T) {
	sel := DefaultSelector("")
	require.Equal(t, "shop.orders", sel("server1", "shop", "orders"))
}

func TestDefaultSelector_IsPure(t *testing.T) {
	sel := DefaultSelector("inventory")
	a := sel("server1", "shop", "orders")
	b := sel("server1", "shop", "orders")
	require.Equal(t, a, b)
}

func TestDefaultSchemaChangeSelector(t *testing.T) {
	sel := DefaultSchemaChangeSelector("inventory")
	require.Equal(t, "inventory-schema-changes", sel("server1"))
}
