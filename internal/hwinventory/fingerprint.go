package hwinventory

import (
	"sort"
	"strings"
	"unicode"

	"github.com/yourusername/hsm-rebalance/internal/domain"
	"github.com/yourusername/hsm-rebalance/pkg/defaults"
	"github.com/yourusername/hsm-rebalance/pkg/logging"
)

// Fingerprinter reduces one ports.RawDocument to a domain.Fingerprint,
// tallying processor and accelerator model strings against a set of
// requested component keys and quantizing total memory capacity into the
// reserved "memory" bucket.
type Fingerprinter struct {
	// MemoryQuantum overrides defaults.MemoryQuantum when nonzero; exposed
	// for tests exercising non-default quantization.
	MemoryQuantum int64
}

// NewFingerprinter returns a Fingerprinter using the default memory
// quantum.
func NewFingerprinter() *Fingerprinter {
	return &Fingerprinter{MemoryQuantum: defaults.MemoryQuantum}
}

// RawDocument is the minimal surface Fingerprint needs; satisfied by
// hwinventory.Document and by ports.RawDocument implementations supplied by
// adapters.
type RawDocument interface {
	ProcessorModels() []string
	AcceleratorModels() []string
	MemoryCapacitiesMiB() []int64
}

// Fingerprint extracts a per-node component-count mapping from doc, given
// the set of component keys the caller cares about (DesiredCounts' keys).
// A model string absorbs into a requested key if that key is a
// (whitespace-insensitive) substring of the lower-cased model string;
// otherwise the full lower-cased model string itself becomes the key. A
// node whose document is missing substructure contributes an empty
// Fingerprint plus the memory bucket (possibly zero); it never fails the
// plan.
func (fp *Fingerprinter) Fingerprint(nodeID domain.NodeID, doc RawDocument, requested domain.DesiredCounts) domain.Fingerprint {
	quantum := fp.MemoryQuantum
	if quantum <= 0 {
		quantum = defaults.MemoryQuantum
	}

	out := make(domain.Fingerprint)

	for _, model := range doc.ProcessorModels() {
		key := matchComponentKey(model, requested)
		out[key]++
	}
	for _, model := range doc.AcceleratorModels() {
		key := matchComponentKey(model, requested)
		out[key]++
	}

	var totalMiB int64
	for _, cap := range doc.MemoryCapacitiesMiB() {
		totalMiB += cap
	}
	out[domain.MemoryComponentKey] = int(totalMiB / quantum)

	if len(doc.ProcessorModels()) == 0 && len(doc.AcceleratorModels()) == 0 && len(doc.MemoryCapacitiesMiB()) == 0 {
		logging.WithComponent("hwinventory").Debugw("inventory document missing expected substructure",
			"node", string(nodeID))
	}

	return out
}

// matchComponentKey lower-cases model, then tests each requested key as a
// whitespace-insensitive substring. Keys are tried in sorted order so a
// model string that matches more than one requested key always absorbs into
// the same one; otherwise the full lower-cased model string is the fallback
// key, whitespace preserved so the fallback remains human-readable in
// output.
func matchComponentKey(model string, requested domain.DesiredCounts) domain.ComponentKey {
	lowered := strings.ToLower(model)
	collapsed := collapseWhitespace(lowered)

	keys := make([]string, 0, len(requested))
	for key := range requested {
		keys = append(keys, string(key))
	}
	sort.Strings(keys)

	for _, k := range keys {
		keyCollapsed := collapseWhitespace(k)
		if keyCollapsed == "" {
			continue
		}
		if strings.Contains(collapsed, keyCollapsed) {
			return domain.ComponentKey(k)
		}
	}
	return domain.ComponentKey(lowered)
}

// collapseWhitespace removes all whitespace so "nvidia a100" and
// "nvidiaa100" compare equal to a requested key like "a100" embedded
// mid-string without a literal space.
func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
