// Package schemaform provides the schema resolution engine of a
// JSON-Schema-driven form system:
//
// - Conditional requiredness tables from if/then/else and oneOf (conditions/)
// - Computed node state (active/visible/readOnly/disabled) from dependency paths (computed/, expr/)
// - allOf intersection into a single constraint set (allof/)
// - JSON Pointer utilities and oneOf-aware node-tree navigation (pointer/, nodetree/)
//
// Design policy:
// - Keep only the shared error model in the root package; put engine components in sub-packages.
// - Schemas are decoded documents (schema.Schema); the engine never owns the node tree it reads.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	s, err := schema.LoadJSON(data, schema.LoadOptions{ResolveRefs: true})
//	merged, err := allof.Resolve(s)
//	rules := conditions.Flatten(merged)
//	kept := conditions.ValueWithCondition(value, merged, conditions.BuildFieldConditionMap(rules))
//
//	m, err := computed.New("object", merged, s, nil)
//	m.Recalculate(deps)
package schemaform
