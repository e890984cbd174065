// Package filter provides AIP-160 filter expression parsing and SQL translation.
package filter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// ErrInvalid marks filter strings that fail to parse or reference unknown
// fields.
var ErrInvalid = errors.New("invalid filter")

// FieldType describes a supported filter field type.
type FieldType string

const (
	FieldString    FieldType = "string"
	FieldInt       FieldType = "int"
	FieldBool      FieldType = "bool"
	FieldTimestamp FieldType = "timestamp"
)

// Field maps one filter identifier to a SQL column.
type Field struct {
	Column string
	Type   FieldType
}

// Fields defines filterable fields keyed by filter identifier.
type Fields map[string]Field

// SQLCondition represents a SQL WHERE clause fragment with parameters.
type SQLCondition struct {
	// Clause is the SQL WHERE clause (e.g., "category = ?").
	Clause string
	// Params are the positional parameters for the clause.
	Params []any
}

// Empty reports whether the condition has no clause.
func (c SQLCondition) Empty() bool {
	return strings.TrimSpace(c.Clause) == ""
}

// ToSQL parses an AIP-160 filter expression and returns a SQL condition.
// Returns an empty condition for an empty filter string. Timestamp values
// are bound as Unix milliseconds.
func ToSQL(filterStr string, fields Fields) (SQLCondition, error) {
	if strings.TrimSpace(filterStr) == "" {
		return SQLCondition{}, nil
	}

	decls, err := declarations(fields)
	if err != nil {
		return SQLCondition{}, err
	}

	parsed, err := filtering.ParseFilterString(filterStr, decls)
	if err != nil {
		return SQLCondition{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	t := translator{fields: fields}
	cond, err := t.expr(parsed.CheckedExpr.Expr)
	if err != nil {
		return SQLCondition{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return cond, nil
}

func declarations(fields Fields) (*filtering.Declarations, error) {
	decls := []filtering.DeclarationOption{filtering.DeclareStandardFunctions()}
	for name, field := range fields {
		switch field.Type {
		case FieldString:
			decls = append(decls, filtering.DeclareIdent(name, filtering.TypeString))
		case FieldInt:
			decls = append(decls, filtering.DeclareIdent(name, filtering.TypeInt))
		case FieldBool:
			decls = append(decls, filtering.DeclareIdent(name, filtering.TypeBool))
		case FieldTimestamp:
			decls = append(decls, filtering.DeclareIdent(name, filtering.TypeTimestamp))
		default:
			return nil, fmt.Errorf("unsupported field type for %s", name)
		}
	}
	return filtering.NewDeclarations(decls...)
}

type translator struct {
	fields Fields
}

func (t translator) expr(e *expr.Expr) (SQLCondition, error) {
	if e == nil {
		return SQLCondition{}, nil
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_CallExpr:
		return t.call(kind.CallExpr)
	case *expr.Expr_IdentExpr:
		// A bare boolean identifier such as `active`.
		field, ok := t.fields[kind.IdentExpr.Name]
		if !ok || field.Type != FieldBool {
			return SQLCondition{}, fmt.Errorf("unsupported bare identifier: %s", kind.IdentExpr.Name)
		}
		return SQLCondition{Clause: field.Column + " = ?", Params: []any{true}}, nil
	default:
		return SQLCondition{}, fmt.Errorf("unsupported expression type: %T", kind)
	}
}

func (t translator) call(call *expr.Expr_Call) (SQLCondition, error) {
	switch call.Function {
	case "_&&_", filtering.FunctionAnd:
		return t.junction(call.Args, "AND")
	case "_||_", filtering.FunctionOr:
		return t.junction(call.Args, "OR")
	case "!_", filtering.FunctionNot:
		return t.not(call.Args)
	case "_==_", filtering.FunctionEquals:
		return t.comparison(call.Args, "=")
	case "_!=_", filtering.FunctionNotEquals:
		return t.comparison(call.Args, "!=")
	case "_<_", filtering.FunctionLessThan:
		return t.comparison(call.Args, "<")
	case "_<=_", filtering.FunctionLessEquals:
		return t.comparison(call.Args, "<=")
	case "_>_", filtering.FunctionGreaterThan:
		return t.comparison(call.Args, ">")
	case "_>=_", filtering.FunctionGreaterEquals:
		return t.comparison(call.Args, ">=")
	case filtering.FunctionHas:
		return t.has(call.Args)
	default:
		return SQLCondition{}, fmt.Errorf("unsupported function: %s", call.Function)
	}
}

func (t translator) junction(args []*expr.Expr, op string) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("%s requires 2 arguments", op)
	}

	left, err := t.expr(args[0])
	if err != nil {
		return SQLCondition{}, err
	}
	right, err := t.expr(args[1])
	if err != nil {
		return SQLCondition{}, err
	}

	params := make([]any, 0, len(left.Params)+len(right.Params))
	params = append(params, left.Params...)
	params = append(params, right.Params...)
	return SQLCondition{
		Clause: fmt.Sprintf("(%s %s %s)", left.Clause, op, right.Clause),
		Params: params,
	}, nil
}

func (t translator) not(args []*expr.Expr) (SQLCondition, error) {
	if len(args) != 1 {
		return SQLCondition{}, fmt.Errorf("NOT requires 1 argument")
	}
	inner, err := t.expr(args[0])
	if err != nil {
		return SQLCondition{}, err
	}
	return SQLCondition{Clause: fmt.Sprintf("(NOT %s)", inner.Clause), Params: inner.Params}, nil
}

func (t translator) comparison(args []*expr.Expr, op string) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("comparison requires 2 arguments")
	}

	field, err := t.field(args[0])
	if err != nil {
		return SQLCondition{}, err
	}

	value, err := extractValue(args[1])
	if err != nil {
		return SQLCondition{}, err
	}

	return SQLCondition{
		Clause: fmt.Sprintf("%s %s ?", field.Column, op),
		Params: []any{value},
	}, nil
}

// has translates `field:"text"` into a case-insensitive substring match.
func (t translator) has(args []*expr.Expr) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("has requires 2 arguments")
	}
	field, err := t.field(args[0])
	if err != nil {
		return SQLCondition{}, err
	}
	if field.Type != FieldString {
		return SQLCondition{}, fmt.Errorf("has requires a string field")
	}
	value, err := extractValue(args[1])
	if err != nil {
		return SQLCondition{}, err
	}
	text, ok := value.(string)
	if !ok {
		return SQLCondition{}, fmt.Errorf("has requires a string value")
	}
	return SQLCondition{
		Clause: fmt.Sprintf("%s LIKE ? ESCAPE '\\'", field.Column),
		Params: []any{"%" + escapeLike(text) + "%"},
	}, nil
}

func (t translator) field(e *expr.Expr) (Field, error) {
	if e == nil {
		return Field{}, fmt.Errorf("nil expression")
	}
	ident, ok := e.ExprKind.(*expr.Expr_IdentExpr)
	if !ok {
		return Field{}, fmt.Errorf("expected identifier, got %T", e.ExprKind)
	}
	field, ok := t.fields[ident.IdentExpr.Name]
	if !ok {
		return Field{}, fmt.Errorf("unknown field: %s", ident.IdentExpr.Name)
	}
	return field, nil
}

func extractValue(e *expr.Expr) (any, error) {
	if e == nil {
		return nil, fmt.Errorf("nil expression")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_ConstExpr:
		return extractConstValue(kind.ConstExpr)
	case *expr.Expr_CallExpr:
		if kind.CallExpr.Function == filtering.FunctionTimestamp && len(kind.CallExpr.Args) == 1 {
			return extractTimestampValue(kind.CallExpr.Args[0])
		}
		return nil, fmt.Errorf("unsupported function in value position: %s", kind.CallExpr.Function)
	default:
		return nil, fmt.Errorf("expected constant or timestamp, got %T", kind)
	}
}

func extractConstValue(c *expr.Constant) (any, error) {
	if c == nil {
		return nil, fmt.Errorf("nil constant")
	}

	switch kind := c.ConstantKind.(type) {
	case *expr.Constant_StringValue:
		return kind.StringValue, nil
	case *expr.Constant_Int64Value:
		return kind.Int64Value, nil
	case *expr.Constant_Uint64Value:
		return int64(kind.Uint64Value), nil
	case *expr.Constant_DoubleValue:
		return kind.DoubleValue, nil
	case *expr.Constant_BoolValue:
		return kind.BoolValue, nil
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", kind)
	}
}

func extractTimestampValue(e *expr.Expr) (int64, error) {
	constant, ok := e.GetExprKind().(*expr.Expr_ConstExpr)
	if !ok {
		return 0, fmt.Errorf("timestamp argument must be a constant string")
	}
	strVal, ok := constant.ConstExpr.GetConstantKind().(*expr.Constant_StringValue)
	if !ok {
		return 0, fmt.Errorf("timestamp argument must be a string")
	}
	ts, err := time.Parse(time.RFC3339Nano, strVal.StringValue)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp format: %s", strVal.StringValue)
	}
	return ts.UTC().UnixMilli(), nil
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
