// Package compiler lowers the AST to a flat instruction vector in two
// passes. Pass 1 walks the top-level statements in order, compiling
// everything except function declarations, which are only registered; an
// EXIT instruction then seals the top-level program. Pass 2 emits each
// registered function body in registration order. Call sites emitted
// before their callee's address is known carry a placeholder immediate; a
// final backpatch pass rewrites every CALL once all start addresses are
// recorded.
package compiler

import (
	"fmt"

	"slip/ast"
	"slip/token"
)

// retAddrSlot is the reserved locals-table entry holding the caller's
// return address. Parentheses cannot appear in an identifier run, so the
// name can never collide with a source-level variable.
const retAddrSlot = "(ra)"

// functionCtx tracks one registered function across the two passes.
//
// Fields:
//   - node: the declaration, registered in pass 1.
//   - startAddr: the function's first instruction index, recorded in
//     pass 2 and patched into call sites.
//   - raIndex: the locals slot the prelude stashes the return address in,
//     directly after the parameters.
type functionCtx struct {
	node      ast.FunctionDecl
	startAddr int64
	raIndex   int64
}

// backPatch records a CALL emitted before its target address was known,
// keyed by the textual callee name.
type backPatch struct {
	codePos    int
	identifier string
	line       int
}

// Compiler walks the AST as a visitor and appends instructions to the
// growing vector. It keeps two flat name tables: the globals table for
// top-level declarations and, while inside a function body, a per-function
// locals table. Nested braces share the enclosing function's locals
// namespace. Resolution is local-then-global.
type Compiler struct {
	filename     string
	instructions []Instruction

	// globals assigns each top-level variable its index: the order of
	// first declaration.
	globals []string

	// locals is nil at top level. Inside a function it holds the
	// parameters, the reserved return-address slot, and every var
	// declared in the body, in slot order.
	locals []string

	functions   []*functionCtx
	backPatches []backPatch

	// currentFun is the function being emitted during pass 2; Return
	// statements reload its return-address slot.
	currentFun *functionCtx
}

// New creates a Compiler. The filename is used in diagnostics only.
func New(filename string) *Compiler {
	return &Compiler{
		filename: filename,
	}
}

// fail aborts compilation with a SemanticError; the Compile boundary
// recovers it.
func (c *Compiler) fail(line int, format string, args ...any) {
	panic(SemanticError{
		Filename: c.filename,
		Line:     line,
		Message:  fmt.Sprintf(format, args...),
	})
}

// emit appends one instruction to the vector and returns its index.
func (c *Compiler) emit(op Opcode, val int64) int {
	c.instructions = append(c.instructions, Instruction{Op: op, Val: val})
	return len(c.instructions) - 1
}

// Compile lowers the program scope to its instruction vector. On any
// semantic fault the partial vector is discarded and the error returned.
func (c *Compiler) Compile(root ast.Scope) (insts []Instruction, err error) {
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case SemanticError:
				insts = nil
				err = v
			case DeveloperError:
				insts = nil
				err = v
			default:
				panic(r)
			}
		}
	}()

	// Pass 1: top-level emission and function registration.
	for _, stmt := range root.Statements {
		if fun, ok := stmt.(ast.FunctionDecl); ok {
			c.functions = append(c.functions, &functionCtx{node: fun})
			continue
		}
		stmt.Accept(c)
	}
	c.emit(EXIT, 0)

	// Pass 2: function body emission in registration order.
	for _, fun := range c.functions {
		c.compileFunction(fun)
	}

	// Backpatch pass: rewrite every CALL with its callee's start address.
	for _, bp := range c.backPatches {
		fun := c.lookupFunction(bp.identifier)
		if fun == nil {
			c.fail(bp.line, "Undeclared function %s", bp.identifier)
		}
		c.instructions[bp.codePos].Val = fun.startAddr
	}

	return c.instructions, nil
}

func (c *Compiler) lookupFunction(name string) *functionCtx {
	for _, fun := range c.functions {
		if fun.node.Name == name {
			return fun
		}
	}
	return nil
}

// compileFunction records the start address, emits the parameter-unpack
// prelude, then compiles the body against a fresh locals table.
//
// On entry the operand stack is [arg_0 … arg_{n-1}, ra]: the caller pushed
// the arguments left to right and CALL pushed the return address on top.
// The prelude stores the return address into its reserved slot first, then
// unpacks the arguments by storing indices n-1 down to 0 so that parameter
// i receives the i-th pushed argument.
func (c *Compiler) compileFunction(fun *functionCtx) {
	fun.startAddr = int64(len(c.instructions))

	c.locals = []string{}
	for _, param := range fun.node.Params {
		c.declare(param, fun.node.Line)
	}
	fun.raIndex = int64(len(c.locals))
	c.locals = append(c.locals, retAddrSlot)

	c.emit(STORE, fun.raIndex)
	for i := len(fun.node.Params) - 1; i >= 0; i-- {
		c.emit(STORE, int64(i))
	}

	c.currentFun = fun
	fun.node.Body.Accept(c)
	c.currentFun = nil
	c.locals = nil
}

// declare appends a binding to the active scope's table (globals at top
// level, the function's locals otherwise) and returns its index. A name
// already present in that table's view fails compilation.
func (c *Compiler) declare(name string, line int) int64 {
	table := &c.globals
	if c.locals != nil {
		table = &c.locals
	}
	for _, existing := range *table {
		if existing == name {
			c.fail(line, "Redefinition of variable %s", name)
		}
	}
	index := int64(len(*table))
	*table = append(*table, name)
	return index
}

// resolve finds a referenced identifier: the function's locals first when
// compiling inside a body, the globals table as fallback. The second
// return reports whether the hit was local.
func (c *Compiler) resolve(name string) (int64, bool, bool) {
	if c.locals != nil {
		for i, existing := range c.locals {
			if existing == name {
				return int64(i), true, true
			}
		}
	}
	for i, existing := range c.globals {
		if existing == name {
			return int64(i), false, true
		}
	}
	return 0, false, false
}

// GlobalCount reports how many globals pass 1 declared. The VM's globals
// table must have at least this capacity.
func (c *Compiler) GlobalCount() int {
	return len(c.globals)
}

func (c *Compiler) VisitScope(scope ast.Scope) any {
	for _, stmt := range scope.Statements {
		stmt.Accept(c)
	}
	return nil
}

func (c *Compiler) VisitFunctionDecl(fun ast.FunctionDecl) any {
	// Pass 1 intercepts declarations before they reach the visitor; the
	// parser only produces them at top level.
	panic(DeveloperError{Message: fmt.Sprintf("function %s visited outside top level", fun.Name)})
}

func (c *Compiler) VisitReturn(ret ast.Return) any {
	if c.currentFun == nil {
		panic(DeveloperError{Message: "return statement outside a function body"})
	}
	if ret.Value != nil {
		ret.Value.Accept(c)
	}
	// The return value (if any) must end up below the return address for
	// RET to pop the address and leave the value to the caller.
	c.emit(LOAD, c.currentFun.raIndex)
	c.emit(RET, 0)
	return nil
}

func (c *Compiler) VisitVarDecl(decl ast.VarDecl) any {
	decl.Value.Accept(c)
	index := c.declare(decl.Name, decl.Line)
	if c.locals != nil {
		c.emit(STORE, index)
	} else {
		c.emit(STORE_GLOBAL, index)
	}
	return nil
}

func (c *Compiler) VisitExprStmt(stmt ast.ExprStmt) any {
	// The expression's value stays on the operand stack; residuals are
	// observable through the stack dump on exit.
	stmt.Expression.Accept(c)
	return nil
}

func (c *Compiler) VisitIntLit(lit ast.IntLit) any {
	c.emit(PUSH, lit.Value)
	return nil
}

func (c *Compiler) VisitStrLit(lit ast.StrLit) any {
	// Strings exist only in the AST; nothing can flow them into the
	// untagged int64 runtime.
	c.fail(lit.Line, "String literals cannot be compiled")
	return nil
}

func (c *Compiler) VisitBinOp(binOp ast.BinOp) any {
	binOp.Left.Accept(c)
	binOp.Right.Accept(c)

	switch binOp.Operator {
	case token.ADD:
		c.emit(SUM, 0)
	case token.SUB:
		c.emit(SUB, 0)
	case token.MULT:
		c.emit(MUL, 0)
	case token.DIV:
		c.emit(DIV, 0)
	default:
		panic(DeveloperError{Message: fmt.Sprintf("unknown binary operator %q", string(binOp.Operator))})
	}
	return nil
}

func (c *Compiler) VisitVarLookup(lookup ast.VarLookup) any {
	index, isLocal, found := c.resolve(lookup.Name)
	if !found {
		c.fail(lookup.Line, "Undeclared identifier %s", lookup.Name)
	}
	if isLocal {
		c.emit(LOAD, index)
	} else {
		c.emit(LOAD_GLOBAL, index)
	}
	return nil
}

func (c *Compiler) VisitVarAssign(assign ast.VarAssign) any {
	assign.Value.Accept(c)

	index, isLocal, found := c.resolve(assign.Name)
	if !found {
		c.fail(assign.Line, "Undeclared identifier %s", assign.Name)
	}
	// STORE consumes the value; the reload makes the assignment
	// expression yield what was stored.
	if isLocal {
		c.emit(STORE, index)
		c.emit(LOAD, index)
	} else {
		c.emit(STORE_GLOBAL, index)
		c.emit(LOAD_GLOBAL, index)
	}
	return nil
}

func (c *Compiler) VisitFunCall(call ast.FunCall) any {
	for _, arg := range call.Args {
		arg.Accept(c)
	}
	pos := c.emit(CALL, 0)
	c.backPatches = append(c.backPatches, backPatch{
		codePos:    pos,
		identifier: call.Name,
		line:       call.Line,
	})
	return nil
}
