package generator

// Config drives the synthetic record generator.
type Config struct {
	NumRecords int
	// PIIChance is the probability that a given PII column is populated.
	PIIChance float64
	// InvalidIDChance is the probability that a populated national ID has a
	// wrong check digit.
	InvalidIDChance float64
	// SharedChance is the probability of reusing an earlier email, phone or
	// address instead of minting a new one.
	SharedChance float64
	Seed         int64
}

// DefaultConfig returns baseline settings for demos and benchmarks.
func DefaultConfig() Config {
	return Config{
		NumRecords:      1000,
		PIIChance:       0.8,
		InvalidIDChance: 0.2,
		SharedChance:    0.1,
		Seed:            42,
	}
}
