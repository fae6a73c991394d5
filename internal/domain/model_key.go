package domain

import "strings"

// ModelKey identifies one resident model in the resource pool.
// Variant is empty for every capability except translation, where it
// holds the ordered "<src>-<tgt>" language pair.
type ModelKey struct {
	Capability Capability
	Variant    string
}

// CapabilityKey returns the key for a capability without variants.
func CapabilityKey(c Capability) ModelKey {
	return ModelKey{Capability: c}
}

// TranslationKey returns the key for an ordered language pair.
func TranslationKey(source, target string) ModelKey {
	return ModelKey{
		Capability: CapabilityTranslation,
		Variant:    strings.ToLower(source) + "-" + strings.ToLower(target),
	}
}

// LanguagePair splits a translation variant into source and target codes.
func (k ModelKey) LanguagePair() (string, string, bool) {
	if k.Capability != CapabilityTranslation {
		return "", "", false
	}
	src, tgt, ok := strings.Cut(k.Variant, "-")
	return src, tgt, ok
}

func (k ModelKey) String() string {
	if k.Variant == "" {
		return string(k.Capability)
	}
	return string(k.Capability) + ":" + k.Variant
}
