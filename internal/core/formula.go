package core

// formula.go translates formula text between rows.
//
// Row 2 of every formula column is the canonical template; regeneration
// rewrites each data row's cell with the template translated to that row's
// coordinate. Translation shifts the row component of every relative
// reference and leaves absolute rows, columns and sheet prefixes alone.

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/efp"
)

var cellRefPattern = regexp.MustCompile(`(\$?)([A-Za-z]{1,3})(\$?)([0-9]+)`)

// TranslateFormula shifts the relative row references of formula by
// rowDelta. Only range operands are touched; function names, literals and
// quoted text pass through the tokenizer unchanged.
func TranslateFormula(formula string, rowDelta int) string {
	if formula == "" || rowDelta == 0 {
		return formula
	}

	ps := efp.ExcelParser()
	ps.Parse(formula)
	for i, tok := range ps.Tokens.Items {
		if tok.TType == efp.TokenTypeOperand && tok.TSubType == efp.TokenSubTypeRange {
			ps.Tokens.Items[i].TValue = shiftRowRefs(tok.TValue, rowDelta)
		}
	}
	return ps.Render()
}

// shiftRowRefs rewrites each cell reference in a range operand. A leading
// sheet qualifier ("Sheet 1"!A2) is preserved verbatim.
func shiftRowRefs(ref string, delta int) string {
	prefix := ""
	if i := strings.LastIndex(ref, "!"); i >= 0 {
		prefix, ref = ref[:i+1], ref[i+1:]
	}

	shifted := cellRefPattern.ReplaceAllStringFunc(ref, func(m string) string {
		parts := cellRefPattern.FindStringSubmatch(m)
		if parts[3] == "$" {
			return m // absolute row
		}
		row, err := strconv.Atoi(parts[4])
		if err != nil {
			return m
		}
		row += delta
		if row < 1 {
			row = 1
		}
		return parts[1] + parts[2] + strconv.Itoa(row)
	})
	return prefix + shifted
}
