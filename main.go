// ABOUTME: Entry point for the portal CLI, MCP server and TUI
// ABOUTME: Delegates to the cobra command tree in cli
package main

import "github.com/duoproservices/portal/cli"

func main() {
	cli.Execute()
}
