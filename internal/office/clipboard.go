package office

import (
	"fmt"
	"strings"
)

const (
	clipboardPrefix = "<html><head><meta charset=\"utf-8\"></head><body>\r\n<!--StartFragment-->"
	clipboardSuffix = "<!--EndFragment-->\r\n</body></html>"
)

// WrapForClipboard builds a CF_HTML clipboard payload around fragment.
// Offsets in the header are UTF-8 byte positions and always ten digits wide,
// so the header length does not depend on the values it carries.
func WrapForClipboard(fragment, sourceURL string) string {
	header := func(startHTML, endHTML, startFrag, endFrag int) string {
		var b strings.Builder
		b.WriteString("Version:1.0\r\n")
		fmt.Fprintf(&b, "StartHTML:%010d\r\n", startHTML)
		fmt.Fprintf(&b, "EndHTML:%010d\r\n", endHTML)
		fmt.Fprintf(&b, "StartFragment:%010d\r\n", startFrag)
		fmt.Fprintf(&b, "EndFragment:%010d\r\n", endFrag)
		if url := strings.TrimSpace(sourceURL); url != "" {
			b.WriteString("SourceURL:" + url + "\r\n")
		}
		return b.String()
	}

	startHTML := len(header(0, 0, 0, 0))
	startFrag := startHTML + len(clipboardPrefix)
	endFrag := startFrag + len(fragment)
	endHTML := endFrag + len(clipboardSuffix)

	return header(startHTML, endHTML, startFrag, endFrag) + clipboardPrefix + fragment + clipboardSuffix
}

// ClipboardOffsets are the byte positions announced in a CF_HTML header.
type ClipboardOffsets struct {
	StartHTML, EndHTML         int
	StartFragment, EndFragment int
	SourceURL                  string
}

// ParseClipboardHeader reads the CF_HTML header of payload. Unknown header
// lines are ignored; the header ends at the first line that is not a
// "Key:value" pair.
func ParseClipboardHeader(payload string) (ClipboardOffsets, error) {
	var off ClipboardOffsets
	seen := 0
	for _, line := range strings.Split(payload, "\n") {
		line = strings.TrimRight(line, "\r")
		key, val, ok := strings.Cut(line, ":")
		if !ok || strings.HasPrefix(line, "<") {
			break
		}
		var dst *int
		switch key {
		case "StartHTML":
			dst = &off.StartHTML
		case "EndHTML":
			dst = &off.EndHTML
		case "StartFragment":
			dst = &off.StartFragment
		case "EndFragment":
			dst = &off.EndFragment
		case "SourceURL":
			off.SourceURL = val
			continue
		default:
			continue
		}
		if _, err := fmt.Sscanf(val, "%d", dst); err != nil {
			return off, fmt.Errorf("clipboard header %s: %w", key, err)
		}
		seen++
	}
	if seen < 4 {
		return off, fmt.Errorf("clipboard header: expected 4 offsets, found %d", seen)
	}
	return off, nil
}

// ClipboardFragment returns the fragment announced by the header of payload.
func ClipboardFragment(payload string) (string, error) {
	off, err := ParseClipboardHeader(payload)
	if err != nil {
		return "", err
	}
	if off.StartFragment < 0 || off.EndFragment > len(payload) || off.StartFragment > off.EndFragment {
		return "", fmt.Errorf("clipboard fragment offsets %d..%d out of range", off.StartFragment, off.EndFragment)
	}
	return payload[off.StartFragment:off.EndFragment], nil
}
