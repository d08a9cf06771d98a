package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	json "github.com/goccy/go-json"

	"github.com/reoring/schemaform/allof"
	"github.com/reoring/schemaform/computed"
	"github.com/reoring/schemaform/conditions"
	"github.com/reoring/schemaform/nodetree"
	"github.com/reoring/schemaform/pointer"
	"github.com/reoring/schemaform/schema"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		fatalf("%v", err)
	}
}

var errUsage = errors.New("usage")

const usageText = `schemaform CLI

Usage:
  schemaform validate -schema form.json [-strict] [-refs]
  schemaform merge    -schema form.json [-o out.json]
  schemaform flatten  -schema form.json [-at /properties/x] [-oneof]
  schemaform fieldmap -schema form.json [-at /properties/x] [-parent ..]
  schemaform filter   -schema form.json -data value.json
  schemaform state    -schema form.json -data value.json
  schemaform find     -schema form.json -from /a/b -path ../c [-data value.json]

Common flags: -strict (reject duplicate keys), -refs (expand local $ref), -v (verbose)`

func usage(w io.Writer) { fmt.Fprintln(w, usageText) }

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		usage(stderr)
		return errUsage
	}
	cmds := map[string]func(*command) error{
		"validate": validateCmd,
		"merge":    mergeCmd,
		"flatten":  flattenCmd,
		"fieldmap": fieldmapCmd,
		"filter":   filterCmd,
		"state":    stateCmd,
		"find":     findCmd,
	}
	fn, ok := cmds[args[0]]
	if !ok {
		usage(stderr)
		return errUsage
	}
	c := newCommand(args[0], stdout, stderr)
	if err := c.parse(args[1:]); err != nil {
		return err
	}
	return fn(c)
}

// command carries the flags shared by every sub-command.
type command struct {
	fs             *flag.FlagSet
	stdout, stderr io.Writer

	schemaPath string
	dataPath   string
	at         string
	out        string
	parent     string
	from       string
	path       string
	strict     bool
	refs       bool
	oneOf      bool
	verbose    bool
}

func newCommand(name string, stdout, stderr io.Writer) *command {
	c := &command{fs: flag.NewFlagSet(name, flag.ContinueOnError), stdout: stdout, stderr: stderr}
	c.fs.SetOutput(stderr)
	c.fs.StringVar(&c.schemaPath, "schema", "", "schema document (JSON or YAML)")
	c.fs.StringVar(&c.dataPath, "data", "", "form value document (JSON)")
	c.fs.StringVar(&c.at, "at", "", "JSON Pointer of the sub-schema to inspect")
	c.fs.StringVar(&c.out, "o", "", "output filename (default stdout)")
	c.fs.StringVar(&c.parent, "parent", ".", "parent path prefix of rendered conditions")
	c.fs.StringVar(&c.from, "from", "", "data pointer of the node to navigate from")
	c.fs.StringVar(&c.path, "path", "", "navigation path (#, .., ., names)")
	c.fs.BoolVar(&c.strict, "strict", false, "reject duplicate keys in schema documents")
	c.fs.BoolVar(&c.refs, "refs", false, "expand local $ref before processing")
	c.fs.BoolVar(&c.oneOf, "oneof", true, "derive rules from oneOf discriminators")
	c.fs.BoolVar(&c.verbose, "v", false, "enable verbose logs")
	return c
}

func (c *command) parse(args []string) error {
	if err := c.fs.Parse(args); err != nil {
		return errUsage
	}
	if c.schemaPath == "" {
		c.fs.Usage()
		return errUsage
	}
	return nil
}

func (c *command) logf(format string, a ...any) {
	if c.verbose {
		fmt.Fprintf(c.stderr, format+"\n", a...)
	}
}

func (c *command) loadSchema() (schema.Schema, error) {
	data, err := os.ReadFile(c.schemaPath)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	s, d, err := schema.Load(data, schema.LoadOptions{Strict: c.strict, ResolveRefs: c.refs})
	c.warn(d)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", c.schemaPath, err)
	}
	c.logf("loaded schema: %s (%d keywords)", c.schemaPath, len(s))
	return s, nil
}

// subSchema returns the schema at -at, or s itself.
func (c *command) subSchema(s schema.Schema) (schema.Schema, error) {
	if c.at == "" {
		return s, nil
	}
	sub, ok := schema.As(pointer.Get(s, c.at))
	if !ok {
		return nil, fmt.Errorf("no schema at %s", c.at)
	}
	c.logf("using sub-schema at %s", c.at)
	return sub, nil
}

func (c *command) loadData() (any, error) {
	if c.dataPath == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(c.dataPath)
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	v, err := schema.DecodeValue(raw)
	if err != nil {
		return nil, err
	}
	c.logf("loaded data: %s", c.dataPath)
	return v, nil
}

func (c *command) warn(d *schema.Diag) {
	for _, w := range d.Warnings() {
		fmt.Fprintf(c.stderr, "warning: %s\n", w)
	}
}

func (c *command) writeJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	b = append(b, '\n')
	if c.out == "" {
		_, err = c.stdout.Write(b)
		return err
	}
	if err := os.WriteFile(c.out, b, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	c.logf("wrote %s", c.out)
	return nil
}

func validateCmd(c *command) error {
	s, err := c.loadSchema()
	if err != nil {
		return err
	}
	if err := schema.CheckDeep(s); err != nil {
		return err
	}
	d := &schema.Diag{}
	if _, err := allof.ResolveDeepWithDiag(s, d); err != nil {
		return err
	}
	c.warn(d)
	tree, err := nodetree.Build(s)
	if err != nil {
		return err
	}
	if _, err := nodetree.Compute(tree); err != nil {
		return err
	}
	c.logf("nodes: %d", tree.Len())
	fmt.Fprintln(c.stdout, "ok")
	return nil
}

func mergeCmd(c *command) error {
	s, err := c.loadSchema()
	if err != nil {
		return err
	}
	d := &schema.Diag{}
	merged, err := allof.ResolveDeepWithDiag(s, d)
	if err != nil {
		return err
	}
	c.warn(d)
	return c.writeJSON(merged)
}

func (c *command) rules(s schema.Schema) []conditions.Rule {
	rules := conditions.Flatten(s)
	if c.oneOf {
		rules = append(rules, conditions.FlattenOneOf(s)...)
	}
	c.logf("rules: %d", len(rules))
	return rules
}

func flattenCmd(c *command) error {
	s, err := c.loadSchema()
	if err != nil {
		return err
	}
	if s, err = c.subSchema(s); err != nil {
		return err
	}
	rules := c.rules(s)
	if rules == nil {
		rules = []conditions.Rule{}
	}
	return c.writeJSON(rules)
}

func fieldmapCmd(c *command) error {
	s, err := c.loadSchema()
	if err != nil {
		return err
	}
	if s, err = c.subSchema(s); err != nil {
		return err
	}
	fcm := conditions.BuildFieldConditionMap(c.rules(s))
	var control []string
	for f, e := range fcm {
		if e.Control {
			control = append(control, f)
		}
	}
	sort.Strings(control)
	return c.writeJSON(map[string]any{
		"control":    control,
		"conditions": conditions.ConditionsMap(fcm, c.parent),
	})
}

func filterCmd(c *command) error {
	s, err := c.loadSchema()
	if err != nil {
		return err
	}
	data, err := c.loadData()
	if err != nil {
		return err
	}
	f := conditions.NewFilter(conditions.FilterOptions{OneOf: c.oneOf, Recursive: true})
	return c.writeJSON(f.DataWithSchema(data, s))
}

func (c *command) session() (*nodetree.Session, any, error) {
	s, err := c.loadSchema()
	if err != nil {
		return nil, nil, err
	}
	data, err := c.loadData()
	if err != nil {
		return nil, nil, err
	}
	tree, err := nodetree.Build(s)
	if err != nil {
		return nil, nil, err
	}
	if err := materialize(tree, tree.Root(), data); err != nil {
		return nil, nil, err
	}
	sess, err := nodetree.Compute(tree)
	if err != nil {
		return nil, nil, err
	}
	deps := sess.Recalculate(data)
	c.logf("nodes: %d dependencies: %d", tree.Len(), len(deps))
	return sess, data, nil
}

// materialize appends array elements to the tree for every element present
// in data.
func materialize(t *nodetree.Tree, h nodetree.Handle, data any) error {
	n := t.Node(h)
	for _, sub := range n.Subnodes() {
		ch, _ := t.HandleOf(sub)
		if err := materialize(t, ch, data); err != nil {
			return err
		}
	}
	if !t.Schema(h).HasType(schema.TypeArray) {
		return nil
	}
	arr, _ := pointer.Get(data, t.Pointer(h)).([]any)
	for i := len(n.Subnodes()); i < len(arr); i++ {
		item, err := t.AppendItem(h)
		if err != nil {
			return err
		}
		if err := materialize(t, item, data); err != nil {
			return err
		}
	}
	return nil
}

func stateCmd(c *command) error {
	sess, _, err := c.session()
	if err != nil {
		return err
	}
	states := map[string]computed.State{}
	for i, n := 0, sess.Tree.Len(); i < n; i++ {
		h := nodetree.Handle(i)
		p := sess.Tree.Pointer(h)
		if p == "" {
			p = "/"
		}
		if _, seen := states[p]; seen {
			// oneOf duplicates: report the variant in scope
			if sess.Tree.Variant(h) != sess.Tree.ActiveVariant(parentOf(sess.Tree, h)) {
				continue
			}
		}
		states[p] = sess.Manager(h).State()
	}
	return c.writeJSON(map[string]any{
		"dependencies": sess.Paths.Paths(),
		"nodes":        states,
	})
}

func parentOf(t *nodetree.Tree, h nodetree.Handle) nodetree.Handle {
	p := t.Node(h).ParentNode()
	if p == nil {
		return nodetree.NoHandle
	}
	ph, _ := t.HandleOf(p)
	return ph
}

func findCmd(c *command) error {
	if c.path == "" {
		c.fs.Usage()
		return errUsage
	}
	sess, _, err := c.session()
	if err != nil {
		return err
	}
	t := sess.Tree
	from, ok := t.Find(t.Root(), c.from)
	if !ok {
		return fmt.Errorf("no node at %s", c.from)
	}
	h, ok := t.Find(from, c.path)
	if !ok {
		return fmt.Errorf("%s: no node at %s", c.from, c.path)
	}
	return c.writeJSON(map[string]any{
		"pointer": t.Pointer(h),
		"group":   t.Node(h).Group(),
		"variant": t.Variant(h),
		"schema":  t.Schema(h),
	})
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
