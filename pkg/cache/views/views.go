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

// Package views provides typed, namespaced accessors layered over a single
// governed Cache. Each view differs only in its key derivation, default TTL
// and payload encoding; retention and concurrency behavior belong entirely
// to the underlying Cache.
package views

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/memwarden/memwarden/pkg/cache"
	"github.com/memwarden/memwarden/pkg/checksum/md5"
	"github.com/memwarden/memwarden/pkg/encoding/providers"
	"github.com/memwarden/memwarden/pkg/observability/logging"
	"github.com/memwarden/memwarden/pkg/observability/logging/logger"
)

// Default TTLs for the provided views
const (
	DefaultEmbeddingTTL      = 7 * 24 * time.Hour
	DefaultEntityTTL         = 3 * 24 * time.Hour
	DefaultClassificationTTL = 7 * 24 * time.Hour
	DefaultResponseTTL       = 24 * time.Hour
)

// Embedding is a dense vector representation of a span of text
type Embedding []float32

// Entity is a single named-entity recognition result for a span of text
type Entity struct {
	Text  string  `json:"text"`
	Label string  `json:"label"`
	Begin int     `json:"begin"`
	End   int     `json:"end"`
	Score float64 `json:"score,omitempty"`
}

// Classification labels a document with a category and a confidence score
type Classification struct {
	Label string  `json:"label"`
	Score float64 `json:"score,omitempty"`
}

// View is a typed accessor over a Cache. Values are serialized with
// encoding/json and optionally compressed before storage. A View derives its
// keys from the identity of the source material, so repeated lookups for the
// same input are stable across process restarts.
type View[V any] struct {
	c     cache.Cache
	name  string
	ttl   time.Duration
	codec providers.Provider
}

// ViewOptions collects optional View behaviors
type ViewOptions struct {
	// Encoding names the payload compression applied before storage
	Encoding providers.Provider
}

// WithEncoding sets the payload compression provider for the View
func WithEncoding(p providers.Provider) func(*ViewOptions) {
	return func(o *ViewOptions) {
		o.Encoding = p
	}
}

// NewView returns a View of type V over the provided Cache, namespaced under
// name, storing entries with the provided default TTL
func NewView[V any](c cache.Cache, name string, ttl time.Duration,
	opts ...func(*ViewOptions)) *View[V] {
	vo := &ViewOptions{}
	for _, o := range opts {
		if o != nil {
			o(vo)
		}
	}
	return &View[V]{c: c, name: name, ttl: ttl, codec: vo.Encoding}
}

// Name returns the namespace of the View
func (v *View[V]) Name() string {
	return v.name
}

// TTL returns the default time-to-live for entries in the View
func (v *View[V]) TTL() time.Duration {
	return v.ttl
}

// Key derives the stable, namespaced cache key for the provided identity
// parts. Parts are whitespace-trimmed before hashing so equivalent inputs
// produce the same key.
func (v *View[V]) Key(parts ...string) string {
	trimmed := make([]string, len(parts))
	for i, p := range parts {
		trimmed[i] = strings.TrimSpace(p)
	}
	return v.name + "." + md5.Checksum(strings.Join(trimmed, "|"))
}

// Set serializes the value and stores it under the provided key with the
// View's default TTL. Writes are best-effort; a write shed under memory
// pressure returns nil.
func (v *View[V]) Set(key string, val V) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	if enc := providers.SelectEncoder(v.codec); enc != nil {
		if b, err = enc(b); err != nil {
			return err
		}
	}
	return v.c.Store(key, b, v.ttl)
}

// Get retrieves and deserializes the value stored under the provided key.
// Any miss, expiry or decode failure reports absence; an undecodable entry
// is removed so the next write can replace it.
func (v *View[V]) Get(key string) (V, bool) {
	var val V
	b, _, err := v.c.Retrieve(key)
	if err != nil {
		return val, false
	}
	if dec := providers.SelectDecoder(v.codec); dec != nil {
		if b, err = dec(b); err != nil {
			logger.Warn("cache entry decode failed",
				logging.Pairs{"view": v.name, "key": key, "error": err.Error()})
			v.c.Remove(key)
			return val, false
		}
	}
	if err = json.Unmarshal(b, &val); err != nil {
		logger.Warn("cache entry unmarshal failed",
			logging.Pairs{"view": v.name, "key": key, "error": err.Error()})
		v.c.Remove(key)
		var zero V
		return zero, false
	}
	return val, true
}

// Remove deletes the entry stored under the provided key
func (v *View[V]) Remove(key string) {
	v.c.Remove(key)
}

// Embeddings is the typed view for text embedding vectors, keyed by content
type Embeddings struct {
	view *View[Embedding]
}

// NewEmbeddings returns an embedding view over the provided Cache. Vectors
// are snappy-compressed, since embedding payloads dominate cache byte size.
func NewEmbeddings(c cache.Cache) *Embeddings {
	return &Embeddings{
		view: NewView[Embedding](c, "embedding", DefaultEmbeddingTTL,
			WithEncoding(providers.Snappy)),
	}
}

// Set stores the embedding vector for the provided content
func (e *Embeddings) Set(content string, emb Embedding) error {
	return e.view.Set(e.view.Key(content), emb)
}

// Get returns the embedding vector for the provided content, if cached
func (e *Embeddings) Get(content string) (Embedding, bool) {
	return e.view.Get(e.view.Key(content))
}

// Remove deletes the embedding cached for the provided content
func (e *Embeddings) Remove(content string) {
	e.view.Remove(e.view.Key(content))
}

// Entities is the typed view for named-entity recognition results, keyed by
// content and model name so results from different models do not collide
type Entities struct {
	view *View[[]Entity]
}

// NewEntities returns an entity-recognition view over the provided Cache
func NewEntities(c cache.Cache) *Entities {
	return &Entities{
		view: NewView[[]Entity](c, "ner", DefaultEntityTTL),
	}
}

// Set stores the recognition results for the provided content and model
func (n *Entities) Set(content, model string, ents []Entity) error {
	return n.view.Set(n.view.Key(content, model), ents)
}

// Get returns the recognition results for the provided content and model,
// if cached
func (n *Entities) Get(content, model string) ([]Entity, bool) {
	return n.view.Get(n.view.Key(content, model))
}

// Classifications is the typed view for document classification results,
// keyed by content
type Classifications struct {
	view *View[Classification]
}

// NewClassifications returns a classification view over the provided Cache
func NewClassifications(c cache.Cache) *Classifications {
	return &Classifications{
		view: NewView[Classification](c, "classification", DefaultClassificationTTL),
	}
}

// Set stores the classification for the provided content
func (cl *Classifications) Set(content string, res Classification) error {
	return cl.view.Set(cl.view.Key(content), res)
}

// Get returns the classification for the provided content, if cached
func (cl *Classifications) Get(content string) (Classification, bool) {
	return cl.view.Get(cl.view.Key(content))
}

// Responses is the typed view for model completions, keyed by model name
// and prompt
type Responses struct {
	view *View[string]
}

// NewResponses returns a model-response view over the provided Cache
func NewResponses(c cache.Cache) *Responses {
	return &Responses{
		view: NewView[string](c, "llm", DefaultResponseTTL),
	}
}

// Set stores the model response for the provided model and prompt
func (r *Responses) Set(model, prompt, response string) error {
	return r.view.Set(r.view.Key(model, prompt), response)
}

// Get returns the model response for the provided model and prompt, if cached
func (r *Responses) Get(model, prompt string) (string, bool) {
	return r.view.Get(r.view.Key(model, prompt))
}
