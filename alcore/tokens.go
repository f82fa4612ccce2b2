package alcore

import ierrors "github.com/HuxyUK/openal-soft/internal/errors"

// Token identifies an attribute in the (token, value) pairs consumed by
// CreateContext/Reset and returned by Query(AllAttributes) (spec.md §4.F,
// §6).
type Token int32

const (
	TokenFormatChannels Token = 0x1990 + iota
	TokenFormatType
	TokenFrequency
	TokenAmbisonicLayout
	TokenAmbisonicScaling
	TokenAmbisonicOrder
	TokenMonoSources
	TokenStereoSources
	TokenMaxAuxiliarySends
	TokenHRTF
	TokenHRTFID
	TokenOutputLimiter
)

// AttrList is a parsed (token, value) attribute list, terminated by a zero
// token in wire form (spec.md §6).
type AttrList []AttrPair

type AttrPair struct {
	Token Token
	Value int32
}

// ParseAttrList decodes a zero-terminated int32 pair sequence.
func ParseAttrList(raw []int32) (AttrList, *ierrors.EnhancedError) {
	if len(raw) == 0 {
		return nil, nil
	}
	if len(raw)%2 != 1 || raw[len(raw)-1] != 0 {
		return nil, ierrors.New(nil).
			Component("alcore").
			Category(ierrors.CategoryValidation).
			Context("reason", "attribute list not zero-terminated").
			Build()
	}
	var out AttrList
	for i := 0; i+1 < len(raw); i += 2 {
		if raw[i] == 0 {
			return out, nil
		}
		out = append(out, AttrPair{Token: Token(raw[i]), Value: raw[i+1]})
	}
	return out, nil
}

// Get returns the last occurrence of tok in the list, matching the C API's
// "later entries win" convention for repeated tokens.
func (a AttrList) Get(tok Token) (int32, bool) {
	val := int32(0)
	found := false
	for _, p := range a {
		if p.Token == tok {
			val = p.Value
			found = true
		}
	}
	return val, found
}

// Encode serializes back to the zero-terminated wire form, used by
// Query(AllAttributes) (spec.md §4.D, §6).
func (a AttrList) Encode() []int32 {
	out := make([]int32, 0, len(a)*2+1)
	for _, p := range a {
		out = append(out, int32(p.Token), p.Value)
	}
	return append(out, 0)
}

// tokenNames backs GetEnumValue, grounded on alc.cpp's static
// alcEnumerations name-to-enum table (~alc.cpp:3350-3390): a fixed list of
// the attribute names this module actually defines, rather than the full
// ALC/ALC_SOFT catalog (this module has no extension-gated capabilities to
// name beyond its own attribute tokens).
var tokenNames = map[string]Token{
	"ALC_FORMAT_CHANNELS_SOFT":   TokenFormatChannels,
	"ALC_FORMAT_TYPE_SOFT":       TokenFormatType,
	"ALC_FREQUENCY":              TokenFrequency,
	"ALC_AMBISONIC_LAYOUT_SOFT":  TokenAmbisonicLayout,
	"ALC_AMBISONIC_SCALING_SOFT": TokenAmbisonicScaling,
	"ALC_AMBISONIC_ORDER_SOFT":   TokenAmbisonicOrder,
	"ALC_MONO_SOURCES":           TokenMonoSources,
	"ALC_STEREO_SOURCES":         TokenStereoSources,
	"ALC_MAX_AUXILIARY_SENDS":    TokenMaxAuxiliarySends,
	"ALC_HRTF_SOFT":              TokenHRTF,
	"ALC_HRTF_ID_SOFT":           TokenHRTFID,
	"ALC_OUTPUT_LIMITER_SOFT":    TokenOutputLimiter,
}

// supportedExtensions backs IsExtensionPresent: the ALC_SOFT_* extension
// strings whose token this module actually implements, in place of
// alc.cpp's full space-separated ALC_EXTENSIONS list (alc.cpp:3310-3340).
var supportedExtensions = map[string]bool{
	"ALC_SOFT_HRTF":             true,
	"ALC_SOFT_output_limiter":   true,
	"ALC_SOFT_loopback":         true,
	"ALC_SOFT_loopback_bformat": true,
	"ALC_SOFT_device_clock":     true,
}

// IsExtensionPresent implements alcIsExtensionPresent for the ALC_SOFT
// extension strings this module has a real implementation behind.
func IsExtensionPresent(name string) bool {
	return supportedExtensions[name]
}

// GetEnumValue implements alcGetEnumValue: looks up an attribute name's
// wire token the same way alc.cpp's static enum table does.
func GetEnumValue(name string) (int32, bool) {
	tok, ok := tokenNames[name]
	return int32(tok), ok
}
