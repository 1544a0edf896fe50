package projector

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// GuardTable holds one compiled CEL program per task per declared guard
// expression. Compilation happens once, here, never on the hot path —
// the guard expressions themselves come from TaskConfig.GuardExprs, the
// same small-expression shape ("confidence >= 0.8", "duration < 60")
// used elsewhere in this codebase family for post-condition checks.
type GuardTable struct {
	env      *cel.Env
	programs map[uint32][]cel.Program
}

func newGuardEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("data", cel.DynType),
	)
}

// CompileGuards compiles every task's guard expression list. A task with
// no guards gets an empty (always-true) program list.
func CompileGuards(guardsByTask map[uint32][]string) (*GuardTable, error) {
	env, err := newGuardEnv()
	if err != nil {
		return nil, fmt.Errorf("projector: building CEL environment: %w", err)
	}

	gt := &GuardTable{env: env, programs: make(map[uint32][]cel.Program, len(guardsByTask))}
	for taskID, exprs := range guardsByTask {
		progs := make([]cel.Program, 0, len(exprs))
		for _, expr := range exprs {
			ast, iss := env.Compile(expr)
			if iss != nil && iss.Err() != nil {
				return nil, fmt.Errorf("projector: compiling guard %q for task %d: %w", expr, taskID, iss.Err())
			}
			prg, err := env.Program(ast)
			if err != nil {
				return nil, fmt.Errorf("projector: building program for guard %q on task %d: %w", expr, taskID, err)
			}
			progs = append(progs, prg)
		}
		gt.programs[taskID] = progs
	}
	return gt, nil
}

// Evaluate runs every compiled guard for taskID against data and returns
// true only if all of them evaluate to true (conjunctive semantics,
// matching how invariant lists are evaluated elsewhere in this engine).
// A task with no guards always passes.
func (gt *GuardTable) Evaluate(taskID uint32, data map[string]interface{}) (bool, error) {
	progs := gt.programs[taskID]
	for _, prg := range progs {
		out, _, err := prg.Eval(map[string]interface{}{"data": data})
		if err != nil {
			return false, fmt.Errorf("projector: evaluating guard for task %d: %w", taskID, err)
		}
		result, ok := out.Value().(bool)
		if !ok || !result {
			return false, nil
		}
	}
	return true, nil
}
