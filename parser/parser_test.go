package parser

import (
	"reflect"
	"strings"
	"testing"

	"slip/ast"
	"slip/lexer"
	"slip/token"
)

func parse(t *testing.T, input string) (ast.Scope, error) {
	t.Helper()
	tokens := lexer.NewString(input).Scan()
	return Make("test.slip", tokens).Parse()
}

func parseOK(t *testing.T, input string) ast.Scope {
	t.Helper()
	root, err := parse(t, input)
	if err != nil {
		t.Fatalf("Parse(%q) raised an error: %v", input, err)
	}
	return root
}

func TestParseVarDeclRightAssociative(t *testing.T) {
	// The grammar has no precedence: the binary tail is right-recursive,
	// so "2 + 3 * 4" is "2 + (3 * 4)" and "2 * 3 + 4" is "2 * (3 + 4)".
	tests := []struct {
		name     string
		input    string
		expected ast.Expression
	}{
		{
			name:  "plus binds the multiplication tail",
			input: "var x = 2 + 3 * 4;",
			expected: ast.BinOp{
				Operator: token.ADD,
				Left:     ast.IntLit{Value: 2, Line: 1},
				Right: ast.BinOp{
					Operator: token.MULT,
					Left:     ast.IntLit{Value: 3, Line: 1},
					Right:    ast.IntLit{Value: 4, Line: 1},
					Line:     1,
				},
				Line: 1,
			},
		},
		{
			name:  "mult binds the addition tail",
			input: "var x = 2 * 3 + 4;",
			expected: ast.BinOp{
				Operator: token.MULT,
				Left:     ast.IntLit{Value: 2, Line: 1},
				Right: ast.BinOp{
					Operator: token.ADD,
					Left:     ast.IntLit{Value: 3, Line: 1},
					Right:    ast.IntLit{Value: 4, Line: 1},
					Line:     1,
				},
				Line: 1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := parseOK(t, tt.input)
			if len(root.Statements) != 1 {
				t.Fatalf("got %d statements, want 1", len(root.Statements))
			}
			decl, ok := root.Statements[0].(ast.VarDecl)
			if !ok {
				t.Fatalf("statement is %T, want ast.VarDecl", root.Statements[0])
			}
			if !reflect.DeepEqual(decl.Value, tt.expected) {
				t.Errorf("initializer = %#v, want %#v", decl.Value, tt.expected)
			}
		})
	}
}

func TestParseFunctionDecl(t *testing.T) {
	root := parseOK(t, "function add(a, b) { return a + b; }")

	fun, ok := root.Statements[0].(ast.FunctionDecl)
	if !ok {
		t.Fatalf("statement is %T, want ast.FunctionDecl", root.Statements[0])
	}
	if fun.Name != "add" {
		t.Errorf("name = %q, want %q", fun.Name, "add")
	}
	if !reflect.DeepEqual(fun.Params, []string{"a", "b"}) {
		t.Errorf("params = %v, want [a b]", fun.Params)
	}
	if len(fun.Body.Statements) != 1 {
		t.Fatalf("body has %d statements, want 1", len(fun.Body.Statements))
	}
	if _, ok := fun.Body.Statements[0].(ast.Return); !ok {
		t.Errorf("body statement is %T, want ast.Return", fun.Body.Statements[0])
	}
}

func TestParseParamCommaOptional(t *testing.T) {
	withComma := parseOK(t, "function f(a, b, c) { return; }")
	withoutComma := parseOK(t, "function f(a b c) { return; }")

	want := []string{"a", "b", "c"}
	for _, root := range []ast.Scope{withComma, withoutComma} {
		fun := root.Statements[0].(ast.FunctionDecl)
		if !reflect.DeepEqual(fun.Params, want) {
			t.Errorf("params = %v, want %v", fun.Params, want)
		}
	}
}

func TestParseReturnWithoutExpression(t *testing.T) {
	root := parseOK(t, "function f() { return; }")
	fun := root.Statements[0].(ast.FunctionDecl)
	ret := fun.Body.Statements[0].(ast.Return)
	if ret.Value != nil {
		t.Errorf("bare return carries expression %#v, want nil", ret.Value)
	}
}

func TestParseCallArguments(t *testing.T) {
	root := parseOK(t, "add(7, 5);")
	stmt := root.Statements[0].(ast.ExprStmt)
	call, ok := stmt.Expression.(ast.FunCall)
	if !ok {
		t.Fatalf("expression is %T, want ast.FunCall", stmt.Expression)
	}
	if call.Name != "add" || len(call.Args) != 2 {
		t.Fatalf("call = %#v, want add with 2 args", call)
	}
	if call.Args[0].(ast.IntLit).Value != 7 || call.Args[1].(ast.IntLit).Value != 5 {
		t.Errorf("args = %#v, want [7 5]", call.Args)
	}
}

func TestParseIdentifierDispatch(t *testing.T) {
	root := parseOK(t, "a; b(); c = 1;")

	if _, ok := root.Statements[0].(ast.ExprStmt).Expression.(ast.VarLookup); !ok {
		t.Errorf("plain identifier should parse as VarLookup")
	}
	if _, ok := root.Statements[1].(ast.ExprStmt).Expression.(ast.FunCall); !ok {
		t.Errorf("identifier followed by '(' should parse as FunCall")
	}
	assign, ok := root.Statements[2].(ast.ExprStmt).Expression.(ast.VarAssign)
	if !ok {
		t.Fatalf("identifier followed by '=' should parse as VarAssign")
	}
	if assign.Name != "c" {
		t.Errorf("assign name = %q, want %q", assign.Name, "c")
	}
}

func TestParseStraySemicolons(t *testing.T) {
	root := parseOK(t, ";; var x = 1; ;;")
	if len(root.Statements) != 1 {
		t.Errorf("got %d statements, want 1", len(root.Statements))
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "missing equals in var",
			input:    "var x 5;",
			expected: "test.slip:1: error: Invalid token INT_LITERAL, expected EQ_SIGN",
		},
		{
			name:     "missing identifier in var",
			input:    "var = 5;",
			expected: "test.slip:1: error: Invalid token EQ_SIGN, expected IDENTIFIER",
		},
		{
			name:     "unterminated function body",
			input:    "function f() { return;",
			expected: "test.slip:1: error: Invalid token EOF, expected CURLY_CLOSE",
		},
		{
			name:     "keyword in expression position",
			input:    "var x = var;",
			expected: "test.slip:1: error: Invalid token VAR, expected STR_LITERAL",
		},
		{
			name:     "return at top level",
			input:    "return 1;",
			expected: "test.slip:1: error: Invalid token RETURN",
		},
		{
			name:     "error carries the offending line",
			input:    "var x = 1;\nvar y 2;",
			expected: "test.slip:2: error: Invalid token INT_LITERAL, expected EQ_SIGN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(t, tt.input)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", tt.input)
			}
			if err.Error() != tt.expected {
				t.Errorf("error = %q, want %q", err.Error(), tt.expected)
			}
		})
	}
}

func TestParseDeterministic(t *testing.T) {
	input := `
function add(a, b) { return a + b; }
var r = add(7, 5);
r;
`
	first := parseOK(t, input)
	second := parseOK(t, input)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("two parses of identical input differ structurally")
	}
}

func TestParseFailureReturnsNoTree(t *testing.T) {
	root, err := parse(t, "var x = 1; var y 2;")
	if err == nil {
		t.Fatal("Parse succeeded, want error")
	}
	if len(root.Statements) != 0 {
		t.Errorf("failed parse returned %d statements, want none", len(root.Statements))
	}
	if !strings.Contains(err.Error(), "error:") {
		t.Errorf("error %q missing the diagnostic marker", err.Error())
	}
}
