// Command aesdsocketd runs the byte-logging appliance: a TCP record
// logger, its timestamp scheduler, the local in-process handle, and the
// admin API, all wired together by internal/cli.
package main

import "github.com/aesdsocketd/aesdsocketd/internal/cli"

func main() {
	cli.Execute()
}
