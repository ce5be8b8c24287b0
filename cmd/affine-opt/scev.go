package main

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/scevlab/affine"
	"github.com/scevlab/affine/ir"
)

// ScevCommand represents a command for printing scalar evolutions.
type ScevCommand struct{}

// NewScevCommand returns a new instance of ScevCommand.
func NewScevCommand() *ScevCommand {
	return &ScevCommand{}
}

// Run executes the "scev" subcommand.
func (cmd *ScevCommand) Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("affine-opt-scev", flag.ContinueOnError)
	raw := fs.Bool("raw", false, "print unsimplified evolutions")
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

	for _, fn := range m.Funcs {
		if fn.Entry() == nil {
			continue
		}
		doms := ir.NewDomTree(fn)
		loops := ir.AnalyzeLoops(fn, doms)
		a := affine.NewAnalysis(m, loops)

		fmt.Printf("; function %s\n", fn.Def.Result)
		for _, b := range fn.Blocks {
			for _, inst := range b.Insts {
				if inst.Result == 0 || inst.Op.IsType() {
					continue
				}
				n := a.AnalyzeInstruction(inst)
				if !*raw {
					n = a.Simplify(n)
				}
				if affine.IsCanNotCompute(n) {
					continue
				}
				fmt.Printf("%s: %s\n", inst.Result, n)
			}
		}
	}
	return nil
}

func (cmd *ScevCommand) usage() {
	fmt.Fprintln(os.Stderr, `
usage: affine-opt scev [arguments] [file]

Arguments:

	-raw
	    Print evolutions as built, without simplification.
`[1:])
}
