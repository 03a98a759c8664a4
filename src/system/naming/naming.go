// Package naming implements the display name grammar of the container
// hierarchy. It is pure string handling, no host calls and no state.
//
// The grammar is a strict precedence list, first match wins. The chain
// pattern has to be tested before the rack pattern since a chain name is a
// superstring of a rack index prefix, and the device sub part rows have to
// be tested before the bare device row for the same reason.
package naming

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/voodooEntity/rackdaw/src/system/types"
)

// All indices are positive decimals without leading zeros. The label is free
// text behind ": " and may itself contain colons.
var (
	rxMixer = regexp.MustCompile(`^_R([1-9][0-9]*)_M$`)

	rxNestedUtil   = regexp.MustCompile(`^R([1-9][0-9]*)_C([1-9][0-9]*)_D([1-9][0-9]*)_Util$`)
	rxNestedMod    = regexp.MustCompile(`^R([1-9][0-9]*)_C([1-9][0-9]*)_D([1-9][0-9]*)_M([1-9][0-9]*): (.*)$`)
	rxNestedFX     = regexp.MustCompile(`^R([1-9][0-9]*)_C([1-9][0-9]*)_D([1-9][0-9]*)_FX: (.*)$`)
	rxNestedDevice = regexp.MustCompile(`^R([1-9][0-9]*)_C([1-9][0-9]*)_D([1-9][0-9]*): (.*)$`)

	rxChain = regexp.MustCompile(`^R([1-9][0-9]*)_C([1-9][0-9]*)(?:: (.*))?$`)
	rxRack  = regexp.MustCompile(`^R([1-9][0-9]*): (.*)$`)

	rxSoloUtil   = regexp.MustCompile(`^D([1-9][0-9]*)_Util$`)
	rxSoloMod    = regexp.MustCompile(`^D([1-9][0-9]*)_M([1-9][0-9]*): (.*)$`)
	rxSoloFX     = regexp.MustCompile(`^D([1-9][0-9]*)_FX: (.*)$`)
	rxSoloDevice = regexp.MustCompile(`^D([1-9][0-9]*): (.*)$`)
)

// plugin type prefixes the host prepends to raw effect names. Stripped case
// insensitively when computing the bare plugin label.
var pluginTypePrefixes = []string{"VST3", "VSTI", "VST", "JSFX", "JS", "AU", "CLAP", "DXI", "DX", "LV2"}

func mustInt(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// Decode parses a display name into its hierarchy path and label. Returns
// ok=false for anything that matches no grammar row, including empty and
// whitespace only names.
func Decode(name string) (types.Path, string, bool) {
	if m := rxMixer.FindStringSubmatch(name); m != nil {
		return types.Path{Rack: mustInt(m[1]), Mixer: true}, "", true
	}
	if m := rxNestedUtil.FindStringSubmatch(name); m != nil {
		return types.Path{Rack: mustInt(m[1]), Chain: mustInt(m[2]), Device: mustInt(m[3]), Part: types.PartUtil}, "", true
	}
	if m := rxNestedMod.FindStringSubmatch(name); m != nil {
		return types.Path{Rack: mustInt(m[1]), Chain: mustInt(m[2]), Device: mustInt(m[3]), Modulator: mustInt(m[4]), Part: types.PartModulator}, m[5], true
	}
	if m := rxNestedFX.FindStringSubmatch(name); m != nil {
		return types.Path{Rack: mustInt(m[1]), Chain: mustInt(m[2]), Device: mustInt(m[3]), Part: types.PartFX}, m[4], true
	}
	if m := rxNestedDevice.FindStringSubmatch(name); m != nil {
		return types.Path{Rack: mustInt(m[1]), Chain: mustInt(m[2]), Device: mustInt(m[3])}, m[4], true
	}
	// chain before rack, longer pattern wins
	if m := rxChain.FindStringSubmatch(name); m != nil {
		return types.Path{Rack: mustInt(m[1]), Chain: mustInt(m[2])}, m[3], true
	}
	if m := rxRack.FindStringSubmatch(name); m != nil {
		return types.Path{Rack: mustInt(m[1])}, m[2], true
	}
	if m := rxSoloUtil.FindStringSubmatch(name); m != nil {
		return types.Path{Device: mustInt(m[1]), Part: types.PartUtil}, "", true
	}
	if m := rxSoloMod.FindStringSubmatch(name); m != nil {
		return types.Path{Device: mustInt(m[1]), Modulator: mustInt(m[2]), Part: types.PartModulator}, m[3], true
	}
	if m := rxSoloFX.FindStringSubmatch(name); m != nil {
		return types.Path{Device: mustInt(m[1]), Part: types.PartFX}, m[2], true
	}
	if m := rxSoloDevice.FindStringSubmatch(name); m != nil {
		return types.Path{Device: mustInt(m[1])}, m[2], true
	}
	return types.Path{}, "", false
}

// Encode builds the canonical display name for a path and label. The inverse
// of Decode. Returns ok=false for path shapes the grammar cannot express.
func Encode(p types.Path, label string) (string, bool) {
	if p.Mixer {
		if p.Rack < 1 {
			return "", false
		}
		return "_R" + strconv.Itoa(p.Rack) + "_M", true
	}
	switch {
	case p.Rack > 0 && p.Chain > 0 && p.Device > 0:
		base := "R" + strconv.Itoa(p.Rack) + "_C" + strconv.Itoa(p.Chain) + "_D" + strconv.Itoa(p.Device)
		return encodeDevicePart(base, p, label)
	case p.Rack > 0 && p.Chain > 0:
		base := "R" + strconv.Itoa(p.Rack) + "_C" + strconv.Itoa(p.Chain)
		if label == "" {
			return base, true
		}
		return base + ": " + label, true
	case p.Rack > 0 && p.Device == 0:
		return "R" + strconv.Itoa(p.Rack) + ": " + label, true
	case p.Rack == 0 && p.Chain == 0 && p.Device > 0:
		return encodeDevicePart("D"+strconv.Itoa(p.Device), p, label)
	}
	return "", false
}

func encodeDevicePart(base string, p types.Path, label string) (string, bool) {
	switch p.Part {
	case types.PartNone:
		return base + ": " + label, true
	case types.PartFX:
		return base + "_FX: " + label, true
	case types.PartUtil:
		return base + "_Util", true
	case types.PartModulator:
		if p.Modulator < 1 {
			return "", false
		}
		return base + "_M" + strconv.Itoa(p.Modulator) + ": " + label, true
	}
	return "", false
}

// EncodeMixer is the canonical name of the mixer of rack n. Mixers are named
// from the rack index alone and never renumbered.
func EncodeMixer(rackIdx int) string {
	return "_R" + strconv.Itoa(rackIdx) + "_M"
}

// Classify maps a display name onto a container kind. Device shaped names,
// sub parts included, classify as Device on the name level; structural
// context refines that (see the integrity package).
func Classify(name string) types.Kind {
	p, _, ok := Decode(name)
	if !ok {
		return types.KindPlain
	}
	switch {
	case p.Mixer:
		return types.KindMixer
	case p.Device > 0:
		return types.KindDevice
	case p.Chain > 0:
		return types.KindChain
	case p.Rack > 0:
		return types.KindRack
	}
	return types.KindPlain
}

// IsMixerName reports whether the name matches the mixer row.
func IsMixerName(name string) bool {
	return rxMixer.MatchString(name)
}

// IsRackName reports whether the name matches the rack row.
func IsRackName(name string) bool {
	return !rxChain.MatchString(name) && rxRack.MatchString(name)
}

// IsChainName reports whether the name matches the chain row.
func IsChainName(name string) bool {
	return !rxNestedDevice.MatchString(name) && !rxNestedFX.MatchString(name) &&
		!rxNestedMod.MatchString(name) && !rxNestedUtil.MatchString(name) &&
		rxChain.MatchString(name)
}

// IsDeviceName reports whether the name matches a device wrapper row,
// nested or standalone. Sub part rows are excluded on purpose, they are
// children of a device and never scanned as device siblings.
func IsDeviceName(name string) bool {
	return rxNestedDevice.MatchString(name) || rxSoloDevice.MatchString(name)
}

// RackIndex extracts the rack index from a rack row name.
func RackIndex(name string) (int, bool) {
	if !IsRackName(name) {
		return 0, false
	}
	p, _, _ := Decode(name)
	return p.Rack, true
}

// ChainIndex extracts the chain index from a chain row name.
func ChainIndex(name string) (int, bool) {
	if !IsChainName(name) {
		return 0, false
	}
	p, _, _ := Decode(name)
	return p.Chain, true
}

// DeviceIndex extracts the device index from a device wrapper row name.
func DeviceIndex(name string) (int, bool) {
	if !IsDeviceName(name) {
		return 0, false
	}
	p, _, _ := Decode(name)
	return p.Device, true
}

// NextFreeIndex scans sibling names with the given extractor and returns the
// smallest index a new sibling may take. Indices are never reused after a
// deletion mid sequence, new siblings always get max+1.
func NextFreeIndex(names []string, extract func(string) (int, bool)) int {
	max := 0
	for _, name := range names {
		if idx, ok := extract(name); ok && idx > max {
			max = idx
		}
	}
	return max + 1
}

// PluginLabel reduces a raw host side plugin name to its bare label:
// "VST: ReaComp (Cockos)" becomes "ReaComp". Type prefixes are matched case
// insensitively, a trailing vendor parenthesis is dropped. Names without a
// recognized prefix pass through unchanged.
func PluginLabel(raw string) string {
	label := strings.TrimSpace(raw)
	for _, prefix := range pluginTypePrefixes {
		if len(label) > len(prefix) && strings.EqualFold(label[:len(prefix)], prefix) {
			rest := label[len(prefix):]
			if strings.HasPrefix(rest, ":") {
				label = strings.TrimSpace(rest[1:])
				break
			}
		}
	}
	// drop a trailing "(vendor)" group if present
	if strings.HasSuffix(label, ")") {
		if open := strings.LastIndex(label, " ("); open > 0 {
			label = label[:open]
		}
	}
	if label == "" {
		return raw
	}
	return label
}
