package ticker

import "github.com/shopspring/decimal"

// Direction is the arrow shown next to the 24h change.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Indicator returns the glyph rendered for the direction.
func (d Direction) Indicator() string {
	if d == Down {
		return "▼"
	}
	return "▲"
}

func (s Snapshot) change() decimal.Decimal {
	d, err := decimal.NewFromString(s.PriceChange24h)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Direction is Up for a non-negative change and Down otherwise.
func (s Snapshot) Direction() Direction {
	if s.change().IsNegative() {
		return Down
	}
	return Up
}

// ChangeMagnitude renders |change| with two decimals and a percent sign.
func (s Snapshot) ChangeMagnitude() string {
	return s.change().Abs().StringFixed(2) + "%"
}

// View is the render-ready form of a snapshot.
type View struct {
	Snapshot
	Direction       Direction `json:"direction"`
	Indicator       string    `json:"indicator"`
	ChangeMagnitude string    `json:"changeMagnitude"`
}

func (s Snapshot) View() View {
	dir := s.Direction()
	return View{
		Snapshot:        s,
		Direction:       dir,
		Indicator:       dir.Indicator(),
		ChangeMagnitude: s.ChangeMagnitude(),
	}
}
