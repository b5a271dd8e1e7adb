// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/barkvcs/bark/internal/cmd/exitstatus"
	"github.com/barkvcs/bark/internal/cmd/root"
)

func main() {
	rootCmd := root.New()
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitstatus.ForError(err))
}
