package domain

// Band classifies a 0-100 score into a risk band.
type Band string

const (
	BandLowerRisk Band = "lower_risk"
	BandCaution   Band = "caution"
	BandHighRisk  Band = "high_risk"
)

// String returns the string representation of Band.
func (b Band) String() string {
	return string(b)
}

// IsValid checks if the band is a valid value.
func (b Band) IsValid() bool {
	return b == BandLowerRisk || b == BandCaution || b == BandHighRisk
}
