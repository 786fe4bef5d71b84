package playertest

import (
	"fmt"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Event is one player event relayed to the world.
type Event struct {
	// Name is the relayed name, e.g. "onTimeChanged".
	Name string

	NativeID string
	ViewID   string
	// Data is the encoded event: timestamp plus per-type fields.
	Data     map[string]any
	Received time.Time
}

// Float returns the numeric field key of the event data.
func (e Event) Float(key string) (float64, bool) {
	switch v := e.Data[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Expectation describes one or more events a slot should observe.
type Expectation interface {
	fmt.Stringer
	start() (tracker, error)
}

// tracker follows one registered expectation.
type tracker interface {
	// observe offers e. consumed reports whether e counted towards the
	// expectation, done whether the expectation is now satisfied.
	observe(e Event) (consumed, done bool)
	progress() string
}

type single struct {
	name    string
	label   string
	filter  func(Event) bool
	prepare func() (func(Event) bool, error)
}

// Plain expects one event with the given name.
func Plain(name string) Expectation {
	return &single{name: name, label: name}
}

// Filtered expects one event with the given name that also satisfies fn.
func Filtered(name string, fn func(Event) bool) Expectation {
	return &single{name: name, label: name + " (filtered)", filter: fn}
}

// ExprEnv is the environment of Where expressions.
type ExprEnv struct {
	Name     string         `expr:"name"`
	NativeID string         `expr:"nativeId"`
	Event    map[string]any `expr:"event"`
}

// Where expects one event with the given name for which the expr-lang
// expression holds, e.g. `event.currentTime >= 5`. A malformed expression
// fails the expectation when it is registered.
func Where(name, expression string) Expectation {
	s := &single{name: name, label: fmt.Sprintf("%s where %s", name, expression)}
	s.prepare = func() (func(Event) bool, error) {
		program, err := compileExpr(expression)
		if err != nil {
			return nil, err
		}
		return func(e Event) bool {
			out, err := expr.Run(program, ExprEnv{Name: e.Name, NativeID: e.NativeID, Event: e.Data})
			b, ok := out.(bool)
			return err == nil && ok && b
		}, nil
	}
	return s
}

func compileExpr(expression string) (*vm.Program, error) {
	if expression == "" {
		return nil, fmt.Errorf("empty expression")
	}
	program, err := expr.Compile(expression,
		expr.Env(ExprEnv{}),
		expr.AsBool(),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, fmt.Errorf("compiling %q: %w", expression, err)
	}
	return program, nil
}

func (s *single) String() string { return s.label }

func (s *single) start() (tracker, error) {
	filter := s.filter
	if s.prepare != nil {
		f, err := s.prepare()
		if err != nil {
			return nil, err
		}
		filter = f
	}
	return &singleTracker{name: s.name, filter: filter, label: s.label}, nil
}

type singleTracker struct {
	name   string
	label  string
	filter func(Event) bool
	done   bool
}

func (t *singleTracker) observe(e Event) (bool, bool) {
	if t.done || e.Name != t.name {
		return false, t.done
	}
	if t.filter != nil && !t.filter(e) {
		return false, false
	}
	t.done = true
	return true, true
}

func (t *singleTracker) progress() string {
	if t.done {
		return t.label + ": seen"
	}
	return t.label + ": pending"
}

type composite struct {
	kind  string
	parts []Expectation
	err   error
}

// Sequence expects its parts in order. Events in between are ignored.
func Sequence(parts ...Expectation) Expectation {
	return &composite{kind: "sequence", parts: parts}
}

// Bag expects all of its parts in any order.
func Bag(parts ...Expectation) Expectation {
	return &composite{kind: "bag", parts: parts}
}

// AnyOf expects whichever of its parts is satisfied first.
func AnyOf(parts ...Expectation) Expectation {
	return &composite{kind: "any", parts: parts}
}

// Repeated expects e to be satisfied n times in a row. n must be positive;
// otherwise the expectation fails when it is started.
func Repeated(e Expectation, n int) Expectation {
	if n < 1 {
		return &composite{
			kind:  fmt.Sprintf("repeated x%d", n),
			parts: []Expectation{e},
			err:   fmt.Errorf("repeated: count must be positive, got %d", n),
		}
	}
	parts := make([]Expectation, n)
	for i := range parts {
		parts[i] = e
	}
	return &composite{kind: fmt.Sprintf("repeated x%d", n), parts: parts}
}

func (c *composite) String() string {
	names := make([]string, len(c.parts))
	for i, p := range c.parts {
		names[i] = p.String()
	}
	return fmt.Sprintf("%s[%s]", c.kind, strings.Join(names, ", "))
}

func (c *composite) start() (tracker, error) {
	if c.err != nil {
		return nil, c.err
	}
	if len(c.parts) == 0 {
		return nil, fmt.Errorf("%s: no expectations", c.kind)
	}
	subs := make([]tracker, len(c.parts))
	for i, p := range c.parts {
		t, err := p.start()
		if err != nil {
			return nil, err
		}
		subs[i] = t
	}
	switch c.kind {
	case "bag":
		return &bagTracker{subs: subs, done: make([]bool, len(subs)), left: len(subs)}, nil
	case "any":
		return &anyTracker{subs: subs}, nil
	}
	return &sequenceTracker{subs: subs}, nil
}

type sequenceTracker struct {
	subs []tracker
	next int
}

func (t *sequenceTracker) observe(e Event) (bool, bool) {
	if t.next == len(t.subs) {
		return false, true
	}
	consumed, done := t.subs[t.next].observe(e)
	if done {
		t.next++
	}
	return consumed, t.next == len(t.subs)
}

func (t *sequenceTracker) progress() string {
	return fmt.Sprintf("%d of %d in order: %s", t.next, len(t.subs), describe(t.subs))
}

type bagTracker struct {
	subs []tracker
	done []bool
	left int
}

func (t *bagTracker) observe(e Event) (bool, bool) {
	if t.left == 0 {
		return false, true
	}
	for i, sub := range t.subs {
		if t.done[i] {
			continue
		}
		consumed, done := sub.observe(e)
		if done {
			t.done[i] = true
			t.left--
		}
		if consumed {
			return true, t.left == 0
		}
	}
	return false, t.left == 0
}

func (t *bagTracker) progress() string {
	n := 0
	for _, d := range t.done {
		if d {
			n++
		}
	}
	return fmt.Sprintf("%d of %d in any order: %s", n, len(t.subs), describe(t.subs))
}

type anyTracker struct {
	subs []tracker
}

func (t *anyTracker) observe(e Event) (bool, bool) {
	consumed := false
	for _, sub := range t.subs {
		c, done := sub.observe(e)
		consumed = consumed || c
		if done {
			return true, true
		}
	}
	return consumed, false
}

func (t *anyTracker) progress() string { return "none of: " + describe(t.subs) }

func describe(subs []tracker) string {
	parts := make([]string, len(subs))
	for i, s := range subs {
		parts[i] = s.progress()
	}
	return strings.Join(parts, "; ")
}
