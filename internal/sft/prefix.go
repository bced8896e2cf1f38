package sft

// PrefixLength is the fixed width of the mnemonic prefix derived from an
// application name.
const PrefixLength = 4

const prefixFiller = 'X'

// DerivePrefix reduces an application name to a fixed four character
// mnemonic. The name is uppercased and stripped to ASCII letters and
// digits first; longer cleaned names contribute their first two and last
// two characters, shorter ones are padded on the right with 'X'. The
// same name always yields the same prefix.
func DerivePrefix(name string) string {
	cleaned := make([]byte, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
			cleaned = append(cleaned, byte(r)-('a'-'A'))
		case r >= 'A' && r <= 'Z':
			cleaned = append(cleaned, byte(r))
		case r >= '0' && r <= '9':
			cleaned = append(cleaned, byte(r))
		}
	}
	if len(cleaned) > PrefixLength {
		head := cleaned[:PrefixLength/2]
		tail := cleaned[len(cleaned)-PrefixLength/2:]
		return string(head) + string(tail)
	}
	for len(cleaned) < PrefixLength {
		cleaned = append(cleaned, prefixFiller)
	}
	return string(cleaned)
}
