package hashutil

import (
	"math/big"

	"github.com/google/uuid"

	"github.com/flowshard/core/pipeerr"
)

// UUIDRangeSplitter maps a UUID string into one of K shards such that
// shard() is monotone in UUID string order (spec §9's open question,
// tested in §8 item 6).
//
// It treats the 32 hex characters of a UUID (hyphens stripped) as digits
// of a base-22 numeral system, where the 22 symbols are '0'-'9', 'A'-'F',
// 'a'-'f' assigned values 0-21 in that order. That ordering of symbol
// values matches their ASCII codepoint order, so the numeral's magnitude
// order matches raw string comparison order, which is what gives the
// monotonicity property. Mixing upper and lower case within one string
// (or across strings passed to the same splitter) produces non-uniform
// shard sizes since 'A' (value 10) and 'a' (value 16) are not adjacent;
// callers must keep a consistent case convention.
type UUIDRangeSplitter struct {
	k        int
	base     *big.Int
	basePow  *big.Int // base^32, the denominator
}

func NewUUIDRangeSplitter(k int) *UUIDRangeSplitter {
	base := big.NewInt(22)
	pow := new(big.Int).Exp(base, big.NewInt(32), nil)
	return &UUIDRangeSplitter{k: k, base: base, basePow: pow}
}

func digitValue(c byte) (int64, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int64(c - '0'), true
	case c >= 'A' && c <= 'F':
		return int64(c-'A') + 10, true
	case c >= 'a' && c <= 'f':
		return int64(c-'a') + 16, true
	default:
		return 0, false
	}
}

// ShardFor returns the shard index in [0, K) for the given UUID string.
// The string must parse as a valid UUID (validated via google/uuid);
// hyphens are then stripped and its 32 hex characters read as base-22
// digits, most significant first.
func (s *UUIDRangeSplitter) ShardFor(raw string) (int, error) {
	if _, err := uuid.Parse(raw); err != nil {
		return 0, pipeerr.Wrap(pipeerr.Validation, "not a valid UUID", err)
	}
	if s.k <= 0 {
		return 0, pipeerr.New(pipeerr.Validation, "K must be positive")
	}

	value := new(big.Int)
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c == '-' {
			continue
		}
		d, ok := digitValue(c)
		if !ok {
			return 0, pipeerr.New(pipeerr.Validation, "unexpected character in UUID")
		}
		value.Mul(value, s.base)
		value.Add(value, big.NewInt(d))
	}

	// shard = floor(value * K / base^32), clamped to [0, K-1].
	num := new(big.Int).Mul(value, big.NewInt(int64(s.k)))
	shard := new(big.Int).Div(num, s.basePow)
	if shard.Cmp(big.NewInt(int64(s.k))) >= 0 {
		shard = big.NewInt(int64(s.k - 1))
	}
	return int(shard.Int64()), nil
}
