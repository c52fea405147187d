package health

type Color string

const (
	Green  Color = "green"
	Yellow Color = "yellow"
	Orange Color = "orange"
	Red    Color = "red"
)

type Band struct {
	Color Color  `json:"color"`
	Label string `json:"label"`
}

// BandFor maps a score to its display band. Each band includes its lower bound.
func BandFor(score int) Band {
	switch {
	case score >= 80:
		return Band{Color: Green, Label: "excellent"}
	case score >= 50:
		return Band{Color: Yellow, Label: "good"}
	case score >= 25:
		return Band{Color: Orange, Label: "needs attention"}
	default:
		return Band{Color: Red, Label: "neglected"}
	}
}
