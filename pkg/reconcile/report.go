package reconcile

// Kind names the record set a Report describes.
type Kind string

// Record set kinds.
const (
	KindStocks Kind = "stocks"
	KindPrices Kind = "prices"
)

// Report summarizes one reconciliation pass.
type Report struct {
	Kind Kind `json:"kind" yaml:"kind"`

	// Matched is the number of records built from inventory items.
	Matched int `json:"matched" yaml:"matched"`

	// Zeroed is the number of remote offers given a zero stock record.
	Zeroed int `json:"zeroed,omitempty" yaml:"zeroed,omitempty"`

	// Ignored counts inventory items whose code is not in the remote catalog.
	Ignored int `json:"ignored" yaml:"ignored"`

	// Duplicates counts repeated inventory codes after the first.
	Duplicates int `json:"duplicates,omitempty" yaml:"duplicates,omitempty"`

	// Skipped lists items dropped under PolicySkip.
	Skipped []Skipped `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Skipped is an inventory item left out because it could not be normalized.
type Skipped struct {
	Code   string `json:"code" yaml:"code"`
	Field  string `json:"field" yaml:"field"`
	Value  string `json:"value" yaml:"value"`
	Reason string `json:"reason" yaml:"reason"`
}
