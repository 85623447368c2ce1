package lint

import (
	"fmt"
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
	"golang.org/x/tools/go/types/typeutil"
)

// Analyzer reports direct task-queue dispatch calls that bypass airlock
// scopes. By default it flags (*asynq.Client).Enqueue and EnqueueContext;
// more methods can be added with -targets. A line comment containing
// airlock:allow suppresses the report for that line.
var Analyzer = &analysis.Analyzer{
	Name:     "airlockcheck",
	Doc:      "report direct task-queue enqueues that bypass airlock scopes",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

var targetsFlag string

func init() {
	Analyzer.Flags.StringVar(&targetsFlag, "targets", "",
		"comma-separated importpath.Type.Method entries to flag in addition to the asynq defaults")
}

const allowMarker = "airlock:allow"

var defaultTargets = []string{
	"github.com/hibiken/asynq.Client.Enqueue",
	"github.com/hibiken/asynq.Client.EnqueueContext",
}

func run(pass *analysis.Pass) (any, error) {
	targets, err := targetSet(targetsFlag)
	if err != nil {
		return nil, err
	}
	allowed := allowLines(pass)

	ins := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
	ins.Preorder([]ast.Node{(*ast.CallExpr)(nil)}, func(n ast.Node) {
		call := n.(*ast.CallExpr)
		fn, ok := typeutil.Callee(pass.TypesInfo, call).(*types.Func)
		if !ok {
			return
		}
		key, display, ok := methodKey(fn)
		if !ok || !targets[key] {
			return
		}
		pos := pass.Fset.Position(call.Lparen)
		if allowed[lineKey(pos.Filename, pos.Line)] {
			return
		}
		pass.Reportf(call.Lparen,
			"%s bypasses airlock scopes; buffer the task with airlock.Enqueue or mark the line %s",
			display, allowMarker)
	})
	return nil, nil
}

// targetSet merges the default method targets with -targets entries.
func targetSet(extra string) (map[string]bool, error) {
	targets := make(map[string]bool, len(defaultTargets))
	for _, entry := range defaultTargets {
		targets[entry] = true
	}
	for _, entry := range strings.Split(extra, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Count(entry, ".") < 2 {
			return nil, fmt.Errorf("lint: target %q wants importpath.Type.Method", entry)
		}
		targets[entry] = true
	}
	return targets, nil
}

// methodKey resolves a called method to its importpath.Type.Method key and
// a short pkg.Type.Method display form. Plain functions are not targets.
func methodKey(fn *types.Func) (key, display string, ok bool) {
	sig, ok := fn.Type().(*types.Signature)
	if !ok || sig.Recv() == nil {
		return "", "", false
	}
	recv := sig.Recv().Type()
	if ptr, isPtr := recv.(*types.Pointer); isPtr {
		recv = ptr.Elem()
	}
	named, ok := recv.(*types.Named)
	if !ok {
		return "", "", false
	}
	obj := named.Obj()
	if obj.Pkg() == nil {
		return "", "", false
	}
	key = obj.Pkg().Path() + "." + obj.Name() + "." + fn.Name()
	display = obj.Pkg().Name() + "." + obj.Name() + "." + fn.Name()
	return key, display, true
}

// allowLines collects the file:line positions carrying an allow comment.
func allowLines(pass *analysis.Pass) map[string]bool {
	allowed := make(map[string]bool)
	for _, file := range pass.Files {
		for _, group := range file.Comments {
			for _, comment := range group.List {
				if !strings.Contains(comment.Text, allowMarker) {
					continue
				}
				pos := pass.Fset.Position(comment.Pos())
				allowed[lineKey(pos.Filename, pos.Line)] = true
			}
		}
	}
	return allowed
}

func lineKey(filename string, line int) string {
	return fmt.Sprintf("%s:%d", filename, line)
}
