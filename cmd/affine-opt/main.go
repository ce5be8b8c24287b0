package main

import (
	"context"
	"flag"
	"fmt"
	"os"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err == flag.ErrHelp {
		os.Exit(1)
	} else if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	var cmd string
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "", "-h", "--help", "help":
		usage()
		return flag.ErrHelp
	case "opt":
		return NewOptCommand().Run(ctx, args)
	case "scev":
		return NewScevCommand().Run(ctx, args)
	default:
		return fmt.Errorf(`affine-opt %s: unknown command`, cmd)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `
Affine-opt analyzes and optimizes textual IR modules.

Usage:

	affine-opt <command> [arguments]

The commands are:

	opt         run optimization passes over a module
	scev        print scalar evolutions of a module
	help        this screen
`[1:])
}
