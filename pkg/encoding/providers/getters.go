/*
 * Copyright 2024 The Memwarden Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package providers

import (
	"github.com/memwarden/memwarden/pkg/encoding/brotli"
	"github.com/memwarden/memwarden/pkg/encoding/deflate"
	"github.com/memwarden/memwarden/pkg/encoding/gzip"
	"github.com/memwarden/memwarden/pkg/encoding/snappy"
	"github.com/memwarden/memwarden/pkg/encoding/zstd"
)

// EncodeFunc encodes the input byte slice and returns the encoded version
type EncodeFunc func([]byte) ([]byte, error)

// DecodeFunc decodes the input byte slice and returns the decoded version
type DecodeFunc func([]byte) ([]byte, error)

// GetEncoder returns an EncodeFunc for the named provider, or nil when the
// name is unknown or Identity, in which case the caller should store the
// payload unencoded
func GetEncoder(provider string) EncodeFunc {
	p := ProviderID(provider)
	if p == 0 {
		return nil
	}
	return SelectEncoder(p)
}

// SelectEncoder returns an EncodeFunc based on the provided providers bitmap
func SelectEncoder(p Provider) EncodeFunc {
	if p&Zstandard == Zstandard {
		return zstd.Encode
	}
	if p&Brotli == Brotli {
		return brotli.Encode
	}
	if p&GZip == GZip {
		return gzip.Encode
	}
	if p&Deflate == Deflate {
		return deflate.Encode
	}
	if p&Snappy == Snappy {
		return snappy.Encode
	}
	return nil
}

// GetDecoder returns a DecodeFunc for the named provider, or nil when the
// name is unknown or Identity
func GetDecoder(provider string) DecodeFunc {
	p := ProviderID(provider)
	if p == 0 {
		return nil
	}
	return SelectDecoder(p)
}

// SelectDecoder returns a DecodeFunc based on the provided providers bitmap
func SelectDecoder(p Provider) DecodeFunc {
	if p&Zstandard == Zstandard {
		return zstd.Decode
	}
	if p&Brotli == Brotli {
		return brotli.Decode
	}
	if p&GZip == GZip {
		return gzip.Decode
	}
	if p&Deflate == Deflate {
		return deflate.Decode
	}
	if p&Snappy == Snappy {
		return snappy.Decode
	}
	return nil
}
