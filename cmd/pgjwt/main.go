// Command pgjwt is the operator tool for the pg_jwt_validator module.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		if !errors.Is(err, errDenied) {
			fmt.Fprintf(os.Stderr, "pgjwt: %v\n", err)
		} else {
			fmt.Fprintln(os.Stderr, "denied")
		}
		os.Exit(1)
	}
}
