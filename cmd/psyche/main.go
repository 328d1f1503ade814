// cmd/psyche/main.go
package main

import (
	"fmt"
	"os"

	"github.com/maroar/psyche-harness/cmd/psyche/commands"
)

const version = "0.1.0"

var commandAliases = map[string]string{
	"g": "gen",
	"l": "list",
	"v": "version",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		os.Exit(1)
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	var err error
	switch cmd {
	case "gen":
		err = commands.GenCommand(args[1:])
	case "list":
		err = commands.ListCommand(args[1:])
	case "version", "--version", "-v":
		showVersion()
		return
	case "help", "--help", "-h":
		showUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
		showUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`psyche: generate fuzz-harness main files for a C source file

Usage:
  psyche gen <file.c> [--csv] [--dot]   analyze every function and emit a harness
  psyche list <file.c>                  list the functions found in a file
  psyche version                        print the tool version

Aliases: g=gen, l=list, v=version`)
}

func showVersion() {
	fmt.Printf("psyche version %s\n", version)
}
