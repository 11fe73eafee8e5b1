// Package severity defines the ordinal risk severity scale and the single
// severity-to-presentation lookup table consumed by every view. Components
// must not duplicate per-view severity switches; they read this table.
package severity

// Level is an ordinal risk severity. The zero value is Low.
type Level string

const (
	Low      Level = "LOW"
	Medium   Level = "MEDIUM"
	High     Level = "HIGH"
	Critical Level = "CRITICAL"
)

// Attributes are the presentation attributes for one severity level.
type Attributes struct {
	Rank  int    `json:"rank"`
	Label string `json:"label"`
	Color string `json:"color"`
	Badge string `json:"badge"`
}

// table is the single source of truth for severity ordering and display.
var table = map[Level]Attributes{
	Low:      {Rank: 0, Label: "Low", Color: "#28a745", Badge: "success"},
	Medium:   {Rank: 1, Label: "Medium", Color: "#ffc107", Badge: "warning"},
	High:     {Rank: 2, Label: "High", Color: "#fd7e14", Badge: "warning"},
	Critical: {Rank: 3, Label: "Critical", Color: "#dc3545", Badge: "danger"},
}

// Valid reports whether l is one of the four defined levels.
func (l Level) Valid() bool {
	_, ok := table[l]
	return ok
}

// Rank returns the ordinal position of l (LOW=0 .. CRITICAL=3).
// Unknown levels rank below LOW so malformed input never escalates.
func (l Level) Rank() int {
	if attrs, ok := table[l]; ok {
		return attrs.Rank
	}
	return -1
}

// Attrs returns the presentation attributes for l.
func (l Level) Attrs() Attributes {
	return table[l]
}

// Max returns the higher-ranked of a and b.
func Max(a, b Level) Level {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Levels returns all levels in ascending rank order.
func Levels() []Level {
	return []Level{Low, Medium, High, Critical}
}
