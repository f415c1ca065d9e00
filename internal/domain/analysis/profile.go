package analysis

// Profile is one deployment flavor: the instruction sent to the model,
// how its reply is validated, and the constant used when that fails.
type Profile interface {
	Flavor() Flavor
	Version() string
	Instruction(req Request) string
	Decode(raw string, req Request) (Report, error)
	Fallback(req Request) Report
}
