package reconcile

import (
	"fmt"
	"hash/fnv"
	"strconv"

	"shipsync/internal/model"
)

// defaultStoreColor is used when a store id is missing.
const defaultStoreColor = "#CCCCCC"

// StoreLookup resolves a store name by id. Implementations are best-effort;
// returning ok=false leaves the name blank.
type StoreLookup func(storeID int64) (string, bool)

// MergeStoreMappings folds newly observed stores into a source's cached
// mapping list. Existing entries are preserved verbatim; an id already present
// keeps its first-seen name no matter what the batch reports. Appended entries
// with a blank name are backfilled through lookup when one is supplied, and
// every appended entry gets a deterministic color. Returns the merged list and
// the number of entries appended.
func MergeStoreMappings(existing, observed []model.StoreMapping, lookup StoreLookup) ([]model.StoreMapping, int) {
	merged := make([]model.StoreMapping, len(existing))
	copy(merged, existing)

	known := make(map[int64]bool, len(existing))
	for _, m := range existing {
		known[m.StoreID] = true
	}

	added := 0
	for _, m := range observed {
		if known[m.StoreID] {
			continue
		}
		known[m.StoreID] = true

		if m.StoreName == "" && lookup != nil {
			if name, ok := lookup(m.StoreID); ok {
				m.StoreName = name
			}
		}
		m.Color = StoreColor(m.StoreID)

		merged = append(merged, m)
		added++
	}

	return merged, added
}

// StoreColor derives a stable display color for a store id by hashing the id
// onto a hue angle at fixed saturation and lightness. Different ids may
// collide; the same id always maps to the same color.
func StoreColor(storeID int64) string {
	if storeID == 0 {
		return defaultStoreColor
	}

	h := fnv.New32a()
	h.Write([]byte(strconv.FormatInt(storeID, 10)))
	hue := float64(h.Sum32()%360) / 360.0

	r, g, b := hslToRGB(hue, 0.65, 0.65)
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// hslToRGB converts hue/saturation/lightness in [0,1] to 8-bit RGB.
func hslToRGB(h, s, l float64) (int, int, int) {
	if s == 0 {
		v := int(l * 255)
		return v, v, v
	}

	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q

	r := hueToRGB(p, q, h+1.0/3.0)
	g := hueToRGB(p, q, h)
	b := hueToRGB(p, q, h-1.0/3.0)

	return int(r * 255), int(g * 255), int(b * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
