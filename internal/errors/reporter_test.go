package errors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"cfgmid/internal/ast"
)

func TestErrorReporter(t *testing.T) {
	source := `block0:
  %0 = add %1, %2
  return %0`

	reporter := NewErrorReporter("f.lir", source)

	err := UndefinedVariable(3, ast.Loc{File: "f.lir", Line: 2, Col: 12})
	formatted := reporter.FormatError(err)

	assert.Contains(t, formatted, "error["+ErrorUndefinedVariable+"]")
	assert.Contains(t, formatted, "%3")
	assert.Contains(t, formatted, "f.lir:2:12")
}

func TestUndefinedVariableError(t *testing.T) {
	err := UndefinedVariable(7, ast.Loc{Line: 1, Col: 5})
	assert.Equal(t, ErrorUndefinedVariable, err.Code)
	assert.Contains(t, err.Message, "%7")
}

func TestUnreachableError(t *testing.T) {
	err := Unreachable("literal width 300 exceeds 256 bits", ast.Loc{Line: 4, Col: 1})
	assert.Equal(t, ErrorUnreachable, err.Code)
	assert.Contains(t, err.Message, "300")
	assert.NotEmpty(t, err.HelpText)
}

func TestMissingTerminatorError(t *testing.T) {
	err := MissingTerminator("entry", ast.Loc{})
	assert.Equal(t, ErrorMissingTerminator, err.Code)
	assert.Contains(t, err.Message, `"entry"`)
}

func TestTypeMismatchError(t *testing.T) {
	err := TypeMismatch("uint256", "uint64", ast.Loc{Line: 1, Col: 5})
	assert.Equal(t, ErrorTypeMismatch, err.Code)
	assert.Contains(t, err.Message, "uint256")
	assert.Contains(t, err.Message, "uint64")
}

func TestNotThreeAddressError(t *testing.T) {
	err := NotThreeAddress("BranchCond.Cond still holds a Mul expression", ast.Loc{})
	assert.Equal(t, ErrorNotThreeAddress, err.Code)
	assert.Contains(t, err.Message, "BranchCond")
}

func TestUnknownTargetError(t *testing.T) {
	err := UnknownTarget("evn", []string{"evm", "account-model", "wasm"})
	assert.Equal(t, ErrorUnknownTarget, err.Code)
	assert.Contains(t, err.Suggestions[0].Message, "evm")
}

func TestUnknownTargetErrorNoSuggestion(t *testing.T) {
	err := UnknownTarget("cobol", []string{"evm", "account-model", "wasm"})
	assert.Equal(t, ErrorUnknownTarget, err.Code)
	assert.Empty(t, err.Suggestions)
}

func TestPassDependencyError(t *testing.T) {
	err := PassDependency("strength-reduction", "reach")
	assert.Equal(t, ErrorPassDependency, err.Code)
	assert.Contains(t, err.Message, "strength-reduction")
	assert.Contains(t, err.Message, "reach")
}

func TestWarningFormatting(t *testing.T) {
	source := "block0:\n  %0 = add %1, %2"
	reporter := NewErrorReporter("f.lir", source)

	err := NewCoreWarning(WarningPrecisionLost, "reaching-values lattice collapsed to unknown for %1", ast.Loc{Line: 1, Col: 1}).
		WithNote("exceeded the evaluation budget").
		Build()
	formatted := reporter.FormatError(err)

	assert.Contains(t, formatted, "warning["+WarningPrecisionLost+"]")
	assert.Contains(t, formatted, "collapsed to unknown")
}

func TestErrorMarkerCreation(t *testing.T) {
	source := `let variable = value;`
	reporter := NewErrorReporter("test.ka", source)

	marker := reporter.createMarker(5, 8, Error) // "variable" is 8 chars at column 5

	spaces := strings.Count(marker, " ")
	assert.Equal(t, 4, spaces) // column 5 means 4 spaces before
	carets := strings.Count(marker, "^")
	assert.Equal(t, 8, carets) // 8 character length
}

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, levenshteinDistance("hello", "hello"))
	assert.Equal(t, 1, levenshteinDistance("hello", "hallo"))
	assert.Equal(t, 1, levenshteinDistance("hello", "helo")) // deletion is 1, not 2
	assert.Equal(t, 5, levenshteinDistance("hello", ""))
	assert.Equal(t, 3, levenshteinDistance("kitten", "sitting"))
}

func TestSimilarNameFinding(t *testing.T) {
	candidates := []string{"evm", "account-model", "wasm"}

	similar := findSimilarNames("evn", candidates)
	assert.Contains(t, similar, "evm")
	assert.NotContains(t, similar, "wasm")

	similar = findSimilarNames("cobol", candidates)
	assert.Empty(t, similar)
}

func TestErrorLevels(t *testing.T) {
	source := `test`
	reporter := NewErrorReporter("test.ka", source)
	pos := ast.Loc{Line: 1, Col: 1}

	errorErr := CompilerError{Level: Error, Message: "test error", Position: pos}
	warningErr := CompilerError{Level: Warning, Message: "test warning", Position: pos}

	errorFormatted := reporter.FormatError(errorErr)
	warningFormatted := reporter.FormatError(warningErr)

	assert.Contains(t, errorFormatted, "error:")
	assert.Contains(t, warningFormatted, "warning:")
}
