package preprocessor

// ---------------- Conditionals ----------------

// ifScope is one open #if group. Scopes are values: every transition
// replaces the top record rather than mutating it.
type ifScope struct {
	active        bool
	hasBeenActive bool
	file          string
	line          int
}

// condStack always holds a root scope that is active, so code outside any
// conditional group is never skipped.
type condStack struct {
	stack []ifScope
}

func newCondStack() *condStack {
	return &condStack{stack: []ifScope{{active: true, hasBeenActive: true}}}
}

// Depth counts the root scope, so a balanced input ends at 1.
func (c *condStack) Depth() int { return len(c.stack) }

// Active reports whether every open scope is active.
func (c *condStack) Active() bool {
	for _, s := range c.stack {
		if !s.active {
			return false
		}
	}
	return true
}

// Push opens a group. cond is only consulted when the enclosing scopes are
// active; otherwise the group starts inactive.
func (c *condStack) Push(cond bool, file string, line int) {
	active := c.Active() && cond
	c.stack = append(c.stack, ifScope{active: active, hasBeenActive: active, file: file, line: line})
}

// Elif switches the top group to its next branch. Once any branch of the
// group has been active no later branch can be. cond is evaluated lazily,
// and only when the enclosing scopes are active.
func (c *condStack) Elif(cond func() (bool, error)) error {
	if len(c.stack) == 1 {
		return structuralf(nil, "#elif without #if")
	}
	top := c.stack[len(c.stack)-1]
	if top.active || top.hasBeenActive {
		c.replaceTop(ifScope{active: false, hasBeenActive: true, file: top.file, line: top.line})
		return nil
	}
	active := false
	if c.enclosingActive() {
		v, err := cond()
		if err != nil {
			return err
		}
		active = v
	}
	c.replaceTop(ifScope{active: active, hasBeenActive: active, file: top.file, line: top.line})
	return nil
}

// Else activates the top group unless one of its branches already was.
func (c *condStack) Else() error {
	if len(c.stack) == 1 {
		return structuralf(nil, "#else without #if")
	}
	top := c.stack[len(c.stack)-1]
	if top.active || top.hasBeenActive {
		c.replaceTop(ifScope{active: false, hasBeenActive: true, file: top.file, line: top.line})
		return nil
	}
	c.replaceTop(ifScope{active: true, hasBeenActive: true, file: top.file, line: top.line})
	return nil
}

func (c *condStack) Pop() error {
	if len(c.stack) == 1 {
		return structuralf(nil, "#endif without #if")
	}
	c.stack = c.stack[:len(c.stack)-1]
	return nil
}

// Unclosed returns where the innermost still-open group started.
func (c *condStack) Unclosed() (file string, line int) {
	top := c.stack[len(c.stack)-1]
	return top.file, top.line
}

func (c *condStack) enclosingActive() bool {
	for _, s := range c.stack[:len(c.stack)-1] {
		if !s.active {
			return false
		}
	}
	return true
}

func (c *condStack) replaceTop(s ifScope) {
	c.stack[len(c.stack)-1] = s
}
