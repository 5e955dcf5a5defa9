// Command tacoc drives the index-notation middle end end to end: it reads
// one einsum-form statement, validates and normalizes it through the
// forms pipeline, and lowers the result against a chosen Target, the way
// a real compiler driver exercises a library rather than reimplementing
// it.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ABaaaC/taco/forms"
	"github.com/ABaaaC/taco/lower"
	"github.com/ABaaaC/taco/notation"
)

// errLog reports diagnostics the way a driver's Logger field does, but
// without a prefix timestamp: tacoc's exit code already tells a caller
// what failed, so the message just needs to say why.
var errLog = log.New(os.Stderr, "tacoc: ", 0)

const (
	exitOK              = 0
	exitUsage           = 2
	exitMalformedFlag   = 3
	exitVarNotFound     = 4
	exitTooManyParts    = 5
	exitParseError      = 6
	exitVerifyMismatch  = 7
)

// multiFlag collects every occurrence of a repeatable flag verbatim;
// validation happens after flag.Parse so tacoc controls the exit code
// instead of flag's own "flag provided but not defined" path (which
// always exits 2).
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }
func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	var formatFlags, dimFlags, inputFlags, fillFlags multiFlag
	flag.Var(&formatFlags, "f", "tensor:format, e.g. -f A=ds")
	flag.Var(&dimFlags, "d", "var:size, e.g. -d i=100")
	flag.Var(&inputFlags, "i", "tensor:file to load")
	flag.Var(&fillFlags, "g", "tensor:fill generator name")
	var timeOpt repeatCountFlag
	flag.Var(&timeOpt, "time", "time the lowering pass; optional =N repeat count")
	printCompute := flag.Bool("print-compute", false, "print the lowered loop nest")
	printAssembly := flag.Bool("print-assembly", false, "print pseudo-assembly for the lowered loop nest")
	printLattice := flag.String("print-lattice", "", "print the merge lattice built for the named index variable")
	writeSource := flag.String("write-source", "", "write the concretized program to this file")
	readSource := flag.String("read-source", "", "read the source program from this file instead of argv/stdin")
	verify := flag.Bool("verify", false, "re-run the pipeline and check it reproduces the same concrete program")
	flag.Parse()
	timeSet := timeOpt.set

	src, err := sourceText(*readSource)
	if err != nil {
		errLog.Println(err)
		return exitUsage
	}

	bnd := newBindings()
	for _, spec := range dimFlags {
		key, val, code := splitKV(spec)
		if code != exitOK {
			errLog.Printf("-d=%s: malformed\n", spec)
			return code
		}
		size, err := strconv.Atoi(val)
		if err != nil || size < 0 {
			errLog.Printf("-d=%s: size must be a non-negative integer\n", spec)
			return exitMalformedFlag
		}
		bnd.sizes[key] = size
	}
	for _, spec := range formatFlags {
		key, val, code := splitKV(spec)
		if code != exitOK {
			errLog.Printf("-f=%s: malformed\n", spec)
			return code
		}
		format, err := parseFormatSpec(val)
		if err != nil {
			errLog.Printf("-f=%s: %s\n", spec, err)
			return exitMalformedFlag
		}
		bnd.formats[key] = format
	}
	// -i and -g select input data sources tacoc has no storage collaborator
	// to act on (TNS/MTX loaders are unrelated to the core); they
	// are still parsed so a value without the key=value shape is reported
	// with the right exit code. The tensor name in the key is not checked.
	for _, spec := range inputFlags {
		if _, _, code := splitKV(spec); code != exitOK {
			errLog.Printf("-i=%s: malformed\n", spec)
			return code
		}
	}
	for _, spec := range fillFlags {
		if _, _, code := splitKV(spec); code != exitOK {
			errLog.Printf("-g=%s: malformed\n", spec)
			return code
		}
	}

	prog, err := parseProgram(src)
	if err != nil {
		errLog.Println("parse error:", err)
		return exitParseError
	}

	assign, indexVars, err := buildProgram(prog, bnd)
	if err != nil {
		switch err.(type) {
		case *varNotFoundError:
			errLog.Println(err)
			return exitVarNotFound
		case *malformedFlagError:
			errLog.Println(err)
			return exitMalformedFlag
		default:
			errLog.Println("parse error:", err)
			return exitParseError
		}
	}

	concrete, code := compile(assign)
	if code != exitOK {
		return code
	}

	if *printLattice != "" {
		v, ok := indexVars[*printLattice]
		if !ok {
			errLog.Printf("-print-lattice=%s: %q is not used by the program\n", *printLattice, *printLattice)
			return exitVarNotFound
		}
		if code := reportLattice(concrete, v, *printCompute, *printAssembly); code != exitOK {
			return code
		}
	} else if *printCompute {
		if err := lower.Lower(concrete, &lower.TraceTarget{W: os.Stdout}, buildTrees(concrete)); err != nil {
			errLog.Println(err)
			return exitParseError
		}
	} else if *printAssembly {
		if err := lower.Lower(concrete, &asmTarget{w: os.Stdout}, buildTrees(concrete)); err != nil {
			errLog.Println(err)
			return exitParseError
		}
	}

	if timeSet {
		n := timeOpt.n
		trees := buildTrees(concrete)
		start := time.Now()
		for i := 0; i < n; i++ {
			if err := lower.Lower(concrete, nullTarget{}, trees); err != nil {
				errLog.Println(err)
				return exitParseError
			}
		}
		elapsed := time.Since(start)
		fmt.Fprintf(os.Stdout, "%d run(s), %s total, %s/run\n", n, elapsed, elapsed/time.Duration(n))
	}

	if *writeSource != "" {
		if err := os.WriteFile(*writeSource, []byte(concrete.String()+"\n"), 0o644); err != nil {
			errLog.Println(err)
			return exitUsage
		}
	}

	if *verify {
		second, code := compile(assign)
		if code != exitOK {
			return code
		}
		if !concrete.Equals(second) {
			errLog.Println("verification failed: recompiling the same program produced a different concrete statement")
			return exitVerifyMismatch
		}
	}

	if !*printCompute && !*printAssembly && *printLattice == "" && !timeSet {
		fmt.Fprintln(os.Stdout, concrete.String())
	}
	return exitOK
}

// compile runs the einsum -> reduction -> concrete pipeline and the
// dimension/form invariant checks over assign.
func compile(assign *notation.Assignment) (notation.Stmt, int) {
	if ok, err := forms.IsEinsum(assign); !ok {
		errLog.Println("not in einsum form:", err)
		return nil, exitParseError
	}
	concrete, err := forms.Concretize(assign)
	if err != nil {
		errLog.Println(err)
		return nil, exitParseError
	}
	concrete = forms.PropagateZeroStmt(concrete, nil)
	if err := forms.CheckDimensions(concrete); err != nil {
		errLog.Println(err)
		return nil, exitParseError
	}
	if ok, err := forms.IsConcrete(concrete); !ok {
		errLog.Println("internal error: lowering did not reach concrete form:", err)
		return nil, exitParseError
	}
	return concrete, exitOK
}

func reportLattice(concrete notation.Stmt, v notation.IndexVar, alsoCompute, alsoAssembly bool) int {
	var inner lower.Target = discardTarget{}
	if alsoAssembly {
		inner = &asmTarget{w: os.Stdout}
	} else if alsoCompute {
		inner = &lower.TraceTarget{W: os.Stdout}
	}
	ct := &captureTarget{inner: inner, want: v}
	if err := lower.Lower(concrete, ct, buildTrees(concrete)); err != nil {
		errLog.Println(err)
		return exitParseError
	}
	if !ct.hit {
		errLog.Printf("-print-lattice: %s does not bind a Forall in the lowered program\n", v)
		return exitVarNotFound
	}
	for i, lat := range ct.found {
		fmt.Fprintf(os.Stdout, "lattice %d for %s:\n", i, v)
		for _, p := range lat.Points {
			fmt.Fprintf(os.Stdout, "  %s\n", p)
		}
	}
	return exitOK
}

func sourceText(readSource string) (string, error) {
	if readSource != "" {
		data, err := os.ReadFile(readSource)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	args := flag.Args()
	switch len(args) {
	case 0:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case 1:
		return args[0], nil
	default:
		return "", fmt.Errorf("expected at most one source argument, got %d", len(args))
	}
}

// splitKV splits a repeatable flag's "key=value" argument, returning
// exitTooManyParts if it contains more than one '=' and exitMalformedFlag
// if it contains none.
func splitKV(spec string) (key, value string, exitCode int) {
	parts := strings.Split(spec, "=")
	switch {
	case len(parts) > 2:
		return "", "", exitTooManyParts
	case len(parts) != 2 || parts[0] == "" || parts[1] == "":
		return "", "", exitMalformedFlag
	default:
		return parts[0], parts[1], exitOK
	}
}

// repeatCountFlag implements flag.Value with IsBoolFlag so that -time
// behaves like a boolean flag when given bare (one run) and like a
// valued flag when given -time=N (N runs), matching -time[=N].
type repeatCountFlag struct {
	set bool
	n   int
}

func (r *repeatCountFlag) String() string {
	if r.n == 0 {
		return ""
	}
	return strconv.Itoa(r.n)
}

func (r *repeatCountFlag) IsBoolFlag() bool { return true }

func (r *repeatCountFlag) Set(v string) error {
	r.set = true
	if v == "" || v == "true" {
		r.n = 1
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fmt.Errorf("repeat count must be a positive integer, got %q", v)
	}
	r.n = n
	return nil
}
