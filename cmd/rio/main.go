// Command rio reads and writes resources through the rio handle layer.
//
// Usage:
//
//	rio [-config file] [-log-level level] [-json] [-metrics] <command> [args]
//
// Commands:
//
//	cat URI            copy a resource to stdout
//	put URI            replace a resource with stdin
//	append URI         append stdin to a resource
//	stat URI           describe a resource
//	truncate URI SIZE  resize a resource, zero filling growth
//	cp SRC DST         copy one resource over another
//	config             print the effective configuration
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
