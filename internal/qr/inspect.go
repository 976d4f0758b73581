/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package qr

import (
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"
)

// Inspect renders a human-readable view of a QR text for debugging: the
// decoded payload plus both signatures as hex, without verifying anything.
func Inspect(text string) (string, error) {
	d, err := Decode(text)
	if err != nil {
		return "", err
	}

	var payload any
	if err := cbor.Unmarshal(d.Payload, &payload); err != nil {
		// the canonical payload is JSON, not CBOR; show it as-is
		payload = string(d.Payload)
	}
	rendered, err := renderPretty(payload)
	if err != nil {
		return "", fmt.Errorf("%w: render payload: %v", ErrDecode, err)
	}

	return fmt.Sprintf("uid: %s\nvet: %d\nvetSignature: h'%x'\nclinicSignature: h'%x'\npayload: %s\n",
		d.UID, d.VetID, d.VetSignature, d.ClinicSignature, rendered), nil
}

func renderPretty(value any) (string, error) {
	switch v := value.(type) {
	case []any:
		out := "["
		for i, elem := range v {
			s, err := renderPretty(elem)
			if err != nil {
				return "", err
			}
			if i > 0 {
				out += ", "
			}
			out += s
		}
		return out + "]", nil
	case map[any]any:
		type entry struct {
			key string
			val any
		}
		entries := make([]entry, 0, len(v))
		for key, val := range v {
			entries = append(entries, entry{key: stringifyKey(key), val: val})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

		out := "{"
		for i, e := range entries {
			s, err := renderPretty(e.val)
			if err != nil {
				return "", err
			}
			if i > 0 {
				out += ", "
			}
			out += fmt.Sprintf("%s: %s", e.key, s)
		}
		return out + "}", nil
	case []byte:
		return fmt.Sprintf("h'%x'", v), nil
	case cbor.Tag:
		content, err := renderPretty(v.Content)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d(%s)", v.Number, content), nil
	case string:
		return v, nil
	default:
		return fmt.Sprint(v), nil
	}
}

func stringifyKey(key any) string {
	switch k := key.(type) {
	case string:
		return k
	case []byte:
		return fmt.Sprintf("h'%x'", k)
	default:
		return fmt.Sprint(k)
	}
}
