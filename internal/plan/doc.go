// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package plan defines the work specification consumed by the orchestrator:
// a set of named folder groupings, each analyzed by one worker process.
// Plans are built from YAML or HCL files and are immutable once handed to
// the orchestrator.
package plan
