package command

// Kind is the closed set of failure classes a command bracket can end with.
type Kind uint8

const (
	KindNone Kind = iota
	// KindMalformedEvent is never carried by a Response: malformed events are
	// dropped before a bracket opens. It exists so reports on the error
	// channel share the same taxonomy.
	KindMalformedEvent
	KindCommandNotFound
	KindDomain
	KindTimeout
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindMalformedEvent:
		return "malformed_event"
	case KindCommandNotFound:
		return "command_not_found"
	case KindDomain:
		return "domain_error"
	case KindTimeout:
		return "timeout"
	case KindUnknown:
		return "unknown_error"
	default:
		return "invalid"
	}
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	*k = ParseKind(string(b))
	return nil
}

// ParseKind is the inverse of Kind.String; unrecognised names map to KindUnknown.
func ParseKind(s string) Kind {
	for k := KindNone; k <= KindUnknown; k++ {
		if k.String() == s {
			return k
		}
	}
	return KindUnknown
}

// Subkind refines KindDomain failures.
type Subkind uint8

const (
	SubkindNone Subkind = iota
	SubkindNoSequence
	SubkindInvalidFilterIndex
	SubkindDecoderNotFound
	SubkindDecodingFailed
	SubkindBitstreamNotFound
	SubkindMissingKey
	SubkindTypeMismatch
)

func (s Subkind) String() string {
	switch s {
	case SubkindNone:
		return ""
	case SubkindNoSequence:
		return "no_sequence"
	case SubkindInvalidFilterIndex:
		return "invalid_filter_index"
	case SubkindDecoderNotFound:
		return "decoder_not_found"
	case SubkindDecodingFailed:
		return "decoding_failed"
	case SubkindBitstreamNotFound:
		return "bitstream_not_found"
	case SubkindMissingKey:
		return "missing_key"
	case SubkindTypeMismatch:
		return "type_mismatch"
	default:
		return "invalid"
	}
}

// Message is the operator-facing line logged for a domain failure.
func (s Subkind) Message() string {
	switch s {
	case SubkindNoSequence:
		return "no video sequence found"
	case SubkindInvalidFilterIndex:
		return "invalid filter index"
	case SubkindDecoderNotFound:
		return "decoder not found"
	case SubkindDecodingFailed:
		return "decoding failed (illegal bitstream or bitstream/decoder mismatch?)"
	case SubkindBitstreamNotFound:
		return "bitstream not found"
	case SubkindMissingKey:
		return "missing parameter"
	case SubkindTypeMismatch:
		return "parameter type mismatch"
	default:
		return "domain error"
	}
}

func (s Subkind) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Subkind) UnmarshalText(b []byte) error {
	v, ok := ParseSubkind(string(b))
	if !ok {
		v = SubkindNone
	}
	*s = v
	return nil
}

// ParseSubkind resolves a subkind by its wire name.
func ParseSubkind(name string) (Subkind, bool) {
	for s := SubkindNoSequence; s <= SubkindTypeMismatch; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return SubkindNone, false
}
