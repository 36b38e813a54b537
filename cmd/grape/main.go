// Copyright (C) The GRAPE Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package main

import "github.com/grape-screen/grape"

func main() {
	grape.Main()
}
