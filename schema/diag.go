package schema

import "fmt"

// Diag carries non-fatal warnings produced while loading or merging schemas.
type Diag struct{ ws []string }

// HasWarnings reports whether any warning was recorded.
func (d *Diag) HasWarnings() bool { return d != nil && len(d.ws) > 0 }

// Warnings returns a copy of the recorded warnings.
func (d *Diag) Warnings() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.ws...)
}

// Warnf records a warning; a nil Diag discards it.
func (d *Diag) Warnf(f string, a ...any) {
	if d == nil {
		return
	}
	d.ws = append(d.ws, fmt.Sprintf(f, a...))
}
