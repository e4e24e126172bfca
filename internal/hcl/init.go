// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package hcl

import "github.com/Azure/golden"

func init() {
	golden.RegisterBlock(new(PlanBlock))
	golden.AddCustomTypeMapping[*GroupingBlock](groupingBlockCtyType())
}
