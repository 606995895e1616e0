package shuffle

// Codec encodes/decodes items to/from bytes for transport across the
// shuffler's TCP connections (spec §6).
type Codec[T any] interface {
	Encode(T) ([]byte, error)
	Decode([]byte) (T, error)
}

// identityCodec is the identity codec for raw bytes.
type identityCodec struct{}

func (identityCodec) Encode(v []byte) ([]byte, error) { return v, nil }
func (identityCodec) Decode(b []byte) ([]byte, error) { return b, nil }

// IdentityCodec returns the identity Codec[[]byte].
func IdentityCodec() Codec[[]byte] { return identityCodec{} }
