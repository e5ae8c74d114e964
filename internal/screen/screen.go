// Package screen provides CEL-based ingest-time transaction screening.
package screen

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/opensource-finance/harrier/internal/domain"
)

// Screener evaluates the configured flag expressions against each incoming
// transaction. Programs are compiled once at construction; Screen itself is
// safe for concurrent use.
type Screener struct {
	amountProg   cel.Program
	timeProg     cel.Program
	velocityProg cel.Program
}

// Input holds the variables available to flag expressions.
type Input struct {
	Amount        float64
	Hour          int
	VelocityCount int64
}

// Flags is the screening outcome stored on the transaction.
type Flags struct {
	Amount   bool
	Time     bool
	Velocity bool
}

// New compiles the configured flag expressions into a Screener.
func New(cfg domain.ScreenConfig) (*Screener, error) {
	env, err := cel.NewEnv(
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("hour", cel.IntType),
		cel.Variable("velocity_count", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	s := &Screener{}

	if s.amountProg, err = compile(env, "amount_flag", cfg.AmountFlagExpr); err != nil {
		return nil, err
	}
	if s.timeProg, err = compile(env, "time_flag", cfg.TimeFlagExpr); err != nil {
		return nil, err
	}
	if s.velocityProg, err = compile(env, "velocity_flag", cfg.VelocityFlagExpr); err != nil {
		return nil, err
	}

	return s, nil
}

// Screen evaluates all three flag expressions. A failing expression leaves
// its flag false; screening never blocks ingestion.
func (s *Screener) Screen(in Input) Flags {
	activation := map[string]any{
		"amount":         in.Amount,
		"hour":           in.Hour,
		"velocity_count": in.VelocityCount,
	}

	return Flags{
		Amount:   evalBool(s.amountProg, activation),
		Time:     evalBool(s.timeProg, activation),
		Velocity: evalBool(s.velocityProg, activation),
	}
}

func compile(env *cel.Env, name, expr string) (cel.Program, error) {
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile %s expression: %w", name, issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("%s expression must return bool, got %s", name, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for %s: %w", name, err)
	}
	return program, nil
}

func evalBool(program cel.Program, activation map[string]any) bool {
	out, _, err := program.Eval(activation)
	if err != nil {
		return false
	}
	return toBool(out)
}

func toBool(val ref.Val) bool {
	if b, ok := val.(types.Bool); ok {
		return bool(b)
	}
	return false
}
