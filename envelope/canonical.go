// SPDX-License-Identifier: LGPL-3.0-or-later

package envelope

import "encoding/json"

// Canonical renders v as canonical JSON: object keys sorted
// lexicographically, no insignificant whitespace, UTF-8 throughout, and
// numbers in their shortest round-trip form. It works by marshaling v
// through Go's standard encoder once, decoding into a generic value, and
// re-marshaling: encoding/json already sorts map[string]interface{} keys
// and formats float64 with shortest round-trip precision, so the second
// pass is canonical regardless of the original struct's field order.
func Canonical(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}

	return json.Marshal(generic)
}
