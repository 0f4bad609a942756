// Switchboard routes prompts to LLM providers by task label.
//
// Every task label ("think", "coding", "longContext", ...) maps to a
// provider and model in the configuration file. Providers without
// credentials, and providers that fail, answer with a simulated reply
// instead of an error.
//
// Usage:
//
//	# Send a prompt through the route for "coding"
//	switchboard dispatch coding "write a binary search in Go"
//
//	# Show the route table and the registered providers
//	switchboard routes
//	switchboard providers
//
//	# Point a task at another provider
//	switchboard routes set think anthropic,claude-3-opus-20240229
//
//	# Serve the HTTP API
//	switchboard serve --listen 127.0.0.1:8080
package main

import (
	"fmt"
	"os"

	"mercator-hq/switchboard/pkg/cli"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.ExitCode(err))
	}
}
