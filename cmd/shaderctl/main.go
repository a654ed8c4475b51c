// Command shaderctl inspects texture naming, UDIM patterns and shader
// family profiles without a running host.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
