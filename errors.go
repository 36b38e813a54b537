// Copyright (C) The GRAPE Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package grape

import "errors"

// Errors returned by the analysis pipeline wrap one of these, so
// callers can use errors.Is to distinguish a bad invocation from bad
// input data.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrData          = errors.New("data error")
	ErrNumericDomain = errors.New("numeric domain error")
)
