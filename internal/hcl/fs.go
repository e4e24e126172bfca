// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package hcl

import "github.com/spf13/afero"

// FsFactory returns the filesystem configuration files are read from.
// Tests replace it with a memory-backed filesystem.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}
