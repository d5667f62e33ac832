package diskimage

// Diagnostic is a structured warning surfaced by the core without resorting
// to a logging side effect. spec.md's own example warnings ("1571 BAM may
// not save correctly", "unknown geometry") are exactly the kind of thing the
// teacher's cmd/ layer prints with fmt.Println, but the core here never
// does: diagnostics accumulate on the Image and the caller decides what, if
// anything, to do with them.
type Diagnostic struct {
	Code    string
	Message string
}

// diagnostics is embedded into Image to collect events during parse/sync.
type diagnostics struct {
	events []Diagnostic
}

func (d *diagnostics) warn(code, message string) {
	d.events = append(d.events, Diagnostic{Code: code, Message: message})
}

// Diagnostics returns every warning recorded since the image was created or
// loaded.
func (d *diagnostics) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(d.events))
	copy(out, d.events)
	return out
}
