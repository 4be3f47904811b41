package model

// SignatureKind tells function selectors apart from event topics.
type SignatureKind string

const (
	KindFunction SignatureKind = "function"
	KindEvent    SignatureKind = "event"
)

// DecodedCall is a call or event payload matched against a known signature.
type DecodedCall struct {
	Name string        `json:"name"`
	Kind SignatureKind `json:"kind"`
	// Args holds argument values in declaration order.
	Args []interface{} `json:"-"`
	// Named holds the same values keyed by parameter name.
	Named map[string]interface{} `json:"-"`
	// Inner is set when a proxy wrapper was decoded and its embedded
	// payload matched the exchange signatures.
	Inner *DecodedCall `json:"inner,omitempty"`
}

// Arg returns a named argument.
func (d *DecodedCall) Arg(name string) (interface{}, bool) {
	if d == nil || d.Named == nil {
		return nil, false
	}
	v, ok := d.Named[name]
	return v, ok
}
