// Command tokengate runs the token authentication gate and its admin tasks.
//
//	tokengate serve [--config path]
//	tokengate hash-password [--cost n] < password
//	tokengate user add --username u --roles USER,ADMIN < password
//	tokengate migrate
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
