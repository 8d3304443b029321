package store

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ImagePlaceholder replaces embedded image payloads dropped under quota pressure.
const ImagePlaceholder = "[image-removed]"

// IsEmbeddedImage reports whether s carries an inline data-URL image.
func IsEmbeddedImage(s string) bool {
	return strings.HasPrefix(s, "data:image/")
}

// StripEmbeddedImages rewrites a JSON document, replacing every embedded
// image string with ImagePlaceholder. It returns the input unchanged when
// nothing was replaced.
func StripEmbeddedImages(data []byte) ([]byte, int, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, 0, err
	}
	n := 0
	doc = stripValue(doc, &n)
	if n == 0 {
		return data, 0, nil
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, 0, err
	}
	return out, n, nil
}

func stripValue(v any, n *int) any {
	switch t := v.(type) {
	case string:
		if IsEmbeddedImage(t) {
			*n++
			return ImagePlaceholder
		}
	case map[string]any:
		for k, x := range t {
			t[k] = stripValue(x, n)
		}
	case []any:
		for i := range t {
			t[i] = stripValue(t[i], n)
		}
	}
	return v
}
