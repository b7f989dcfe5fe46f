package errors

import (
	"fmt"
	"strings"

	"cfgmid/internal/ast"
)

// Concrete diagnostic constructors for the codes in codes.go. Each builds a
// CompilerError ready to hand to an ErrorReporter.

// Unreachable reports an AST shape the frontend should never have produced.
func Unreachable(detail string, pos ast.Loc) CompilerError {
	return NewCoreError(ErrorUnreachable, fmt.Sprintf("internal compiler error: %s", detail), pos).
		WithNote("the core assumes a well-typed, already-resolved input (spec §7)").
		WithHelp("this is a bug in the frontend or an earlier pass, not in the program being compiled").
		Build()
}

// MissingTerminator reports a block whose last instruction is not a
// terminator.
func MissingTerminator(blockName string, pos ast.Loc) CompilerError {
	return NewCoreError(ErrorMissingTerminator, fmt.Sprintf("block %q does not end in a terminator", blockName), pos).
		WithNote("every block must end in Branch, BranchCond, Switch, Return, AssertFailure, ReturnCode, SelfDestruct, or Unreachable").
		Build()
}

// UndefinedBlock reports a reference to a nonexistent block id.
func UndefinedBlock(blockID int, context string, pos ast.Loc) CompilerError {
	return NewCoreError(ErrorUndefinedBlock, fmt.Sprintf("%s references block %d, which does not exist", context, blockID), pos).
		Build()
}

// UndefinedVariable reports a Variable expression naming a varno absent from
// the function's variable table.
func UndefinedVariable(varno int, pos ast.Loc) CompilerError {
	return NewCoreError(ErrorUndefinedVariable, fmt.Sprintf("variable %%%d is not defined in vars", varno), pos).
		Build()
}

// TypeMismatch reports a Set whose declared result type disagrees with its
// expression's type.
func TypeMismatch(resType, exprType string, pos ast.Loc) CompilerError {
	return NewCoreError(ErrorTypeMismatch, fmt.Sprintf("Set declares type %s but its expression has type %s", resType, exprType), pos).
		Build()
}

// InvalidPhi reports a phi whose inputs don't match the block's predecessors.
func InvalidPhi(blockName string, pos ast.Loc) CompilerError {
	return NewCoreError(ErrorInvalidPhi, fmt.Sprintf("phi in block %q does not have exactly one input per predecessor", blockName), pos).
		Build()
}

// NotThreeAddress reports a lowered instruction deeper than the LIR grammar
// allows.
func NotThreeAddress(detail string, pos ast.Loc) CompilerError {
	return NewCoreError(ErrorNotThreeAddress, fmt.Sprintf("not in three-address form: %s", detail), pos).
		WithNote("every Set's expression must be at most one operator applied to Operands").
		Build()
}

// UndefinedFunction reports a reachability closure step that named a
// function number absent from the namespace.
func UndefinedFunction(funcNo int, pos ast.Loc) CompilerError {
	return NewCoreError(ErrorUndefinedFunction, fmt.Sprintf("no function with id %d", funcNo), pos).
		Build()
}

// NoEntryPoints reports a contract with no externally reachable functions.
func NoEntryPoints(contractName string, pos ast.Loc) CompilerError {
	return NewCoreError(ErrorNoEntryPoints, fmt.Sprintf("contract %q declares no entry points", contractName), pos).
		WithNote("nothing in this contract is ever reachable").
		Build()
}

// UnknownTarget reports an unsupported compile target, suggesting the
// closest valid one by edit distance.
func UnknownTarget(name string, valid []string) CompilerError {
	builder := NewCoreError(ErrorUnknownTarget, fmt.Sprintf("unknown compile target %q", name), ast.Loc{})
	if similar := findSimilarNames(name, valid); len(similar) > 0 {
		builder = builder.WithSuggestion(fmt.Sprintf("did you mean %q?", similar[0]))
	}
	builder = builder.WithNote("valid targets: " + strings.Join(valid, ", "))
	return builder.Build()
}

// InvalidConfig reports a config file that failed to parse.
func InvalidConfig(path string, cause error) CompilerError {
	return NewCoreError(ErrorInvalidConfig, fmt.Sprintf("failed to load config %q: %v", path, cause), ast.Loc{}).
		Build()
}

// PassDependency reports a pass whose declared dependencies the configured
// pipeline does not satisfy.
func PassDependency(passName, missing string) CompilerError {
	return NewCoreError(ErrorPassDependency, fmt.Sprintf("pass %q requires %q to have already run", passName, missing), ast.Loc{}).
		Build()
}

// PassFailed reports a pass that returned an error.
func PassFailed(passName string, cause error) CompilerError {
	return NewCoreError(ErrorPassFailed, fmt.Sprintf("pass %q failed: %v", passName, cause), ast.Loc{}).
		Build()
}

// findSimilarNames returns candidates within edit distance 2 of target,
// closest first. Shared by config flag/target-name suggestions.
func findSimilarNames(target string, candidates []string) []string {
	var similar []string
	for _, c := range candidates {
		if levenshteinDistance(target, c) <= 2 {
			similar = append(similar, c)
		}
	}
	for i := 1; i < len(similar); i++ {
		for j := i; j > 0 && levenshteinDistance(target, similar[j]) < levenshteinDistance(target, similar[j-1]); j-- {
			similar[j], similar[j-1] = similar[j-1], similar[j]
		}
	}
	return similar
}

// levenshteinDistance is the standard edit-distance dynamic program.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
	}
	for i := 0; i <= len(a); i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			matrix[i][j] = min3(
				matrix[i-1][j]+1,
				matrix[i][j-1]+1,
				matrix[i-1][j-1]+cost,
			)
		}
	}
	return matrix[len(a)][len(b)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
