package mathph

import (
	"strconv"
	"strings"
)

// Separator joins rendered fragments in the string form accepted by
// ApplyMathml.
const Separator = "\x1f"

const missingWarning = "COF_WARN_MISSING_PLACEHOLDER:"

// ApplyMathml splits joined on Separator and substitutes part i for the
// marker of job i. See ApplyResults.
func ApplyMathml(htmlSrc, joined string) (string, []int) {
	var parts []string
	if joined != "" {
		parts = strings.Split(joined, Separator)
	}
	return ApplyResults(htmlSrc, parts)
}

// ApplyResults substitutes results[i] for every <!--COF_TEX_i--> marker in
// htmlSrc. HTML without any marker is returned unchanged. Ids whose marker is
// absent are returned and recorded in a trailing diagnostic comment; the
// output stays usable.
func ApplyResults(htmlSrc string, results []string) (string, []int) {
	if !strings.Contains(htmlSrc, "<!--"+markerPrefix) {
		return htmlSrc, nil
	}

	pairs := make([]string, 0, 2*len(results))
	var missing []int
	for id, r := range results {
		marker := "<!--" + Marker(id) + "-->"
		if !strings.Contains(htmlSrc, marker) {
			missing = append(missing, id)
			continue
		}
		pairs = append(pairs, marker, r)
	}
	// One pass so that rendered output is never rescanned for markers.
	out := strings.NewReplacer(pairs...).Replace(htmlSrc)

	if len(missing) > 0 {
		ids := make([]string, len(missing))
		for i, id := range missing {
			ids[i] = strconv.Itoa(id)
		}
		out += "<!--" + missingWarning + strings.Join(ids, ",") + "-->"
	}
	return out, missing
}

// HasMarkers reports whether any placeholder marker remains in s.
func HasMarkers(s string) bool {
	return strings.Contains(s, "<!--"+markerPrefix)
}
