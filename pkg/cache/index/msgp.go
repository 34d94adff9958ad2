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

package index

import (
	"sync/atomic"

	"github.com/tinylib/msgp/msgp"
)

// msgp codec methods for the Cache Index types

// EncodeMsg implements msgp.Encodable
func (o *Object) EncodeMsg(en *msgp.Writer) (err error) {
	if err = en.WriteMapHeader(6); err != nil {
		return
	}
	if err = en.WriteString("key"); err != nil {
		return
	}
	if err = en.WriteString(o.Key); err != nil {
		return
	}
	if err = en.WriteString("expiration"); err != nil {
		return
	}
	if err = o.Expiration.EncodeMsg(en); err != nil {
		return
	}
	if err = en.WriteString("lastwrite"); err != nil {
		return
	}
	if err = o.LastWrite.EncodeMsg(en); err != nil {
		return
	}
	if err = en.WriteString("lastaccess"); err != nil {
		return
	}
	if err = o.LastAccess.EncodeMsg(en); err != nil {
		return
	}
	if err = en.WriteString("size"); err != nil {
		return
	}
	if err = en.WriteInt64(o.Size); err != nil {
		return
	}
	if err = en.WriteString("value"); err != nil {
		return
	}
	if err = en.WriteBytes(o.Value); err != nil {
		return
	}
	return
}

// DecodeMsg implements msgp.Decodable
func (o *Object) DecodeMsg(dc *msgp.Reader) (err error) {
	var sz uint32
	if sz, err = dc.ReadMapHeader(); err != nil {
		return
	}
	for ; sz > 0; sz-- {
		var field []byte
		if field, err = dc.ReadMapKeyPtr(); err != nil {
			return
		}
		switch msgp.UnsafeString(field) {
		case "key":
			o.Key, err = dc.ReadString()
		case "expiration":
			err = o.Expiration.DecodeMsg(dc)
		case "lastwrite":
			err = o.LastWrite.DecodeMsg(dc)
		case "lastaccess":
			err = o.LastAccess.DecodeMsg(dc)
		case "size":
			o.Size, err = dc.ReadInt64()
		case "value":
			o.Value, err = dc.ReadBytes(o.Value)
		default:
			err = dc.Skip()
		}
		if err != nil {
			return
		}
	}
	return
}

// MarshalMsg implements msgp.Marshaler
func (o *Object) MarshalMsg(b []byte) (out []byte, err error) {
	out = msgp.Require(b, o.Msgsize())
	out = msgp.AppendMapHeader(out, 6)
	out = msgp.AppendString(out, "key")
	out = msgp.AppendString(out, o.Key)
	out = msgp.AppendString(out, "expiration")
	if out, err = o.Expiration.MarshalMsg(out); err != nil {
		return
	}
	out = msgp.AppendString(out, "lastwrite")
	if out, err = o.LastWrite.MarshalMsg(out); err != nil {
		return
	}
	out = msgp.AppendString(out, "lastaccess")
	if out, err = o.LastAccess.MarshalMsg(out); err != nil {
		return
	}
	out = msgp.AppendString(out, "size")
	out = msgp.AppendInt64(out, o.Size)
	out = msgp.AppendString(out, "value")
	out = msgp.AppendBytes(out, o.Value)
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (o *Object) UnmarshalMsg(bts []byte) (remain []byte, err error) {
	var sz uint32
	if sz, bts, err = msgp.ReadMapHeaderBytes(bts); err != nil {
		return bts, err
	}
	for ; sz > 0; sz-- {
		var field []byte
		if field, bts, err = msgp.ReadMapKeyZC(bts); err != nil {
			return bts, err
		}
		switch msgp.UnsafeString(field) {
		case "key":
			o.Key, bts, err = msgp.ReadStringBytes(bts)
		case "expiration":
			bts, err = o.Expiration.UnmarshalMsg(bts)
		case "lastwrite":
			bts, err = o.LastWrite.UnmarshalMsg(bts)
		case "lastaccess":
			bts, err = o.LastAccess.UnmarshalMsg(bts)
		case "size":
			o.Size, bts, err = msgp.ReadInt64Bytes(bts)
		case "value":
			o.Value, bts, err = msgp.ReadBytesBytes(bts, o.Value)
		default:
			bts, err = msgp.Skip(bts)
		}
		if err != nil {
			return bts, err
		}
	}
	return bts, nil
}

// Msgsize returns an upper bound estimate of the number of bytes occupied by the serialized message
func (o *Object) Msgsize() (s int) {
	s = 1 + 4 + msgp.StringPrefixSize + len(o.Key) +
		11 + o.Expiration.Msgsize() +
		10 + o.LastWrite.Msgsize() +
		11 + o.LastAccess.Msgsize() +
		5 + msgp.Int64Size +
		6 + msgp.BytesPrefixSize + len(o.Value)
	return
}

// EncodeMsg implements msgp.Encodable
func (o Objects) EncodeMsg(en *msgp.Writer) (err error) {
	if err = en.WriteMapHeader(uint32(len(o))); err != nil {
		return
	}
	for k, v := range o {
		if err = en.WriteString(k); err != nil {
			return
		}
		if err = v.EncodeMsg(en); err != nil {
			return
		}
	}
	return
}

// DecodeMsg implements msgp.Decodable
func (o *Objects) DecodeMsg(dc *msgp.Reader) (err error) {
	var sz uint32
	if sz, err = dc.ReadMapHeader(); err != nil {
		return
	}
	if *o == nil {
		*o = make(Objects, sz)
	}
	for ; sz > 0; sz-- {
		var key string
		if key, err = dc.ReadString(); err != nil {
			return
		}
		v := &Object{}
		if err = v.DecodeMsg(dc); err != nil {
			return
		}
		(*o)[key] = v
	}
	return
}

// MarshalMsg implements msgp.Marshaler
func (o Objects) MarshalMsg(b []byte) (out []byte, err error) {
	out = msgp.Require(b, o.Msgsize())
	out = msgp.AppendMapHeader(out, uint32(len(o)))
	for k, v := range o {
		out = msgp.AppendString(out, k)
		if out, err = v.MarshalMsg(out); err != nil {
			return
		}
	}
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (o *Objects) UnmarshalMsg(bts []byte) (remain []byte, err error) {
	var sz uint32
	if sz, bts, err = msgp.ReadMapHeaderBytes(bts); err != nil {
		return bts, err
	}
	if *o == nil {
		*o = make(Objects, sz)
	}
	for ; sz > 0; sz-- {
		var key string
		if key, bts, err = msgp.ReadStringBytes(bts); err != nil {
			return bts, err
		}
		v := &Object{}
		if bts, err = v.UnmarshalMsg(bts); err != nil {
			return bts, err
		}
		(*o)[key] = v
	}
	return bts, nil
}

// Msgsize returns an upper bound estimate of the number of bytes occupied by the serialized message
func (o Objects) Msgsize() (s int) {
	s = msgp.MapHeaderSize
	for k, v := range o {
		s += msgp.StringPrefixSize + len(k) + v.Msgsize()
	}
	return
}

// EncodeMsg implements msgp.Encodable
func (idx *IndexedClient) EncodeMsg(en *msgp.Writer) (err error) {
	if err = en.WriteMapHeader(3); err != nil {
		return
	}
	if err = en.WriteString("cache_size"); err != nil {
		return
	}
	if err = en.WriteInt64(atomic.LoadInt64(&idx.CacheSize)); err != nil {
		return
	}
	if err = en.WriteString("object_count"); err != nil {
		return
	}
	if err = en.WriteInt64(atomic.LoadInt64(&idx.ObjectCount)); err != nil {
		return
	}
	if err = en.WriteString("objects"); err != nil {
		return
	}
	if err = idx.Objects.EncodeMsg(en); err != nil {
		return
	}
	return
}

// DecodeMsg implements msgp.Decodable
func (idx *IndexedClient) DecodeMsg(dc *msgp.Reader) (err error) {
	var sz uint32
	if sz, err = dc.ReadMapHeader(); err != nil {
		return
	}
	for ; sz > 0; sz-- {
		var field []byte
		if field, err = dc.ReadMapKeyPtr(); err != nil {
			return
		}
		switch msgp.UnsafeString(field) {
		case "cache_size":
			var v int64
			if v, err = dc.ReadInt64(); err == nil {
				atomic.StoreInt64(&idx.CacheSize, v)
			}
		case "object_count":
			var v int64
			if v, err = dc.ReadInt64(); err == nil {
				atomic.StoreInt64(&idx.ObjectCount, v)
			}
		case "objects":
			err = idx.Objects.DecodeMsg(dc)
		default:
			err = dc.Skip()
		}
		if err != nil {
			return
		}
	}
	return
}

// MarshalMsg implements msgp.Marshaler
func (idx *IndexedClient) MarshalMsg(b []byte) (out []byte, err error) {
	out = msgp.Require(b, idx.Msgsize())
	out = msgp.AppendMapHeader(out, 3)
	out = msgp.AppendString(out, "cache_size")
	out = msgp.AppendInt64(out, atomic.LoadInt64(&idx.CacheSize))
	out = msgp.AppendString(out, "object_count")
	out = msgp.AppendInt64(out, atomic.LoadInt64(&idx.ObjectCount))
	out = msgp.AppendString(out, "objects")
	if out, err = idx.Objects.MarshalMsg(out); err != nil {
		return
	}
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (idx *IndexedClient) UnmarshalMsg(bts []byte) (remain []byte, err error) {
	var sz uint32
	if sz, bts, err = msgp.ReadMapHeaderBytes(bts); err != nil {
		return bts, err
	}
	for ; sz > 0; sz-- {
		var field []byte
		if field, bts, err = msgp.ReadMapKeyZC(bts); err != nil {
			return bts, err
		}
		switch msgp.UnsafeString(field) {
		case "cache_size":
			var v int64
			if v, bts, err = msgp.ReadInt64Bytes(bts); err == nil {
				atomic.StoreInt64(&idx.CacheSize, v)
			}
		case "object_count":
			var v int64
			if v, bts, err = msgp.ReadInt64Bytes(bts); err == nil {
				atomic.StoreInt64(&idx.ObjectCount, v)
			}
		case "objects":
			bts, err = idx.Objects.UnmarshalMsg(bts)
		default:
			bts, err = msgp.Skip(bts)
		}
		if err != nil {
			return bts, err
		}
	}
	return bts, nil
}

// Msgsize returns an upper bound estimate of the number of bytes occupied by the serialized message
func (idx *IndexedClient) Msgsize() (s int) {
	s = 1 + 11 + msgp.Int64Size + 13 + msgp.Int64Size + 8 + idx.Objects.Msgsize()
	return
}
