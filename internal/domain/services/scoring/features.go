package scoring

import "hash/fnv"

// Features is the scorer input extracted from one transaction plus the
// velocity outcome.
type Features struct {
	Amount           float64
	VelocityCounter  int64
	ImpossibleTravel bool
	Merchant         string
	Location         string
}

// Vector encodes the features in the order the model was trained on:
// [amount, velocity_counter, impossible_travel, merchant_bucket,
// location_bucket]. Categorical fields are hashed with FNV-1a so the
// buckets are stable across processes and restarts.
func (f Features) Vector() []float64 {
	travel := 0.0
	if f.ImpossibleTravel {
		travel = 1.0
	}
	return []float64{
		f.Amount,
		float64(f.VelocityCounter),
		travel,
		float64(hashBucket(f.Merchant, 1000)),
		float64(hashBucket(f.Location, 100)),
	}
}

func hashBucket(s string, mod uint64) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64() % mod
}
