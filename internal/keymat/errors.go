/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package keymat

import "errors"

var (
	// ErrKeyFormat means the stream held no parsable PEM/DER key object.
	ErrKeyFormat = errors.New("malformed key material")
	// ErrUnsupportedKeyFormat means the object parsed but its shape is not
	// one of the recognized RSA key encodings.
	ErrUnsupportedKeyFormat = errors.New("unsupported key format")
	// ErrPasswordRequired means the key is encrypted and no password was
	// supplied. Callers report this as "key not configured", distinct from
	// ErrDecryptionFailed ("incorrect password").
	ErrPasswordRequired = errors.New("password required for encrypted key")
	// ErrDecryptionFailed means a password was supplied but the key could
	// not be decrypted with it.
	ErrDecryptionFailed = errors.New("key decryption failed")
)
