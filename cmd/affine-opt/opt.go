package main

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/scevlab/affine/ir"
	"github.com/scevlab/affine/opt"
)

// OptCommand represents a command for running passes over a module.
type OptCommand struct{}

// NewOptCommand returns a new instance of OptCommand.
func NewOptCommand() *OptCommand {
	return &OptCommand{}
}

// Run executes the "opt" subcommand.
func (cmd *OptCommand) Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("affine-opt-opt", flag.ContinueOnError)
	passList := fs.String("p", "", "comma-separated pass list (default: full pipeline)")
	output := fs.String("o", "", "output file (default: stdout)")
	fs.Usage = cmd.usage
	if err := fs.Parse(args); err != nil {
		return err
	} else if fs.NArg() == 0 {
		return fmt.Errorf("input file required")
	} else if fs.NArg() > 1 {
		return fmt.Errorf("too many input files specified")
	}

	buf, err := ioutil.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	m, err := ir.Assemble(string(buf))
	if err != nil {
		return err
	}

	passes := opt.All()
	if *passList != "" {
		passes = passes[:0]
		for _, name := range strings.Split(*passList, ",") {
			p, err := opt.Lookup(strings.TrimSpace(name))
			if err != nil {
				return err
			}
			passes = append(passes, p)
		}
	}
	if _, err := opt.Run(m, passes...); err != nil {
		return err
	}

	out := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	_, err = fmt.Fprint(out, m.String())
	return err
}

func (cmd *OptCommand) usage() {
	fmt.Fprintln(os.Stderr, `
usage: affine-opt opt [arguments] [file]

Arguments:

	-p passes
	    Comma-separated list of passes to run.
	-o file
	    Write the transformed module to file.
`[1:])
}
