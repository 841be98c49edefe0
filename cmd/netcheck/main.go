// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.

package main

import (
	"github.com/netcheck/netcheck/cmd"
)

func main() {
	cmd.Execute()
}
