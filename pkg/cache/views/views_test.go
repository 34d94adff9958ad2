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

package views

import (
	"slices"
	"testing"
	"time"

	"github.com/memwarden/memwarden/pkg/cache"
	"github.com/memwarden/memwarden/pkg/cache/options"
	"github.com/memwarden/memwarden/pkg/cache/registry"
	"github.com/memwarden/memwarden/pkg/encoding/providers"
)

func newTestCache(t *testing.T) cache.Cache {
	c, err := registry.NewCache("test", options.New())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestEmbeddings(t *testing.T) {
	e := NewEmbeddings(newTestCache(t))

	emb := Embedding{0.25, -1.5, 3.75, 0}
	if err := e.Set("patient presents with", emb); err != nil {
		t.Fatal(err)
	}

	got, ok := e.Get("patient presents with")
	if !ok {
		t.Fatal("expected cached embedding")
	}
	if !slices.Equal(got, emb) {
		t.Errorf("expected %v got %v", emb, got)
	}

	// equivalent whitespace-trimmed content resolves to the same entry
	if _, ok = e.Get("  patient presents with  "); !ok {
		t.Error("expected trimmed content to hit the same entry")
	}

	if _, ok = e.Get("different content"); ok {
		t.Error("expected cache miss for different content")
	}

	e.Remove("patient presents with")
	if _, ok = e.Get("patient presents with"); ok {
		t.Error("expected cache miss after remove")
	}
}

func TestEntities(t *testing.T) {
	n := NewEntities(newTestCache(t))

	ents := []Entity{
		{Text: "metformin", Label: "MEDICATION", Begin: 10, End: 19, Score: 0.98},
		{Text: "500mg", Label: "DOSAGE", Begin: 20, End: 25, Score: 0.91},
	}
	if err := n.Set("take metformin 500mg daily", "clinical-ner-v2", ents); err != nil {
		t.Fatal(err)
	}

	got, ok := n.Get("take metformin 500mg daily", "clinical-ner-v2")
	if !ok {
		t.Fatal("expected cached entities")
	}
	if len(got) != 2 || got[0] != ents[0] || got[1] != ents[1] {
		t.Errorf("expected %v got %v", ents, got)
	}

	// a different model must not share results for the same content
	if _, ok = n.Get("take metformin 500mg daily", "clinical-ner-v3"); ok {
		t.Error("expected cache miss for different model")
	}
}

func TestClassifications(t *testing.T) {
	cl := NewClassifications(newTestCache(t))

	res := Classification{Label: "discharge_summary", Score: 0.87}
	if err := cl.Set("dictated discharge summary text", res); err != nil {
		t.Fatal(err)
	}

	got, ok := cl.Get("dictated discharge summary text")
	if !ok {
		t.Fatal("expected cached classification")
	}
	if got != res {
		t.Errorf("expected %v got %v", res, got)
	}
}

func TestResponses(t *testing.T) {
	r := NewResponses(newTestCache(t))

	if err := r.Set("summarizer-v1", "summarize this note", "the note says..."); err != nil {
		t.Fatal(err)
	}

	got, ok := r.Get("summarizer-v1", "summarize this note")
	if !ok {
		t.Fatal("expected cached response")
	}
	if got != "the note says..." {
		t.Errorf("unexpected response %q", got)
	}

	// same prompt against a different model is a distinct entry
	if _, ok = r.Get("summarizer-v2", "summarize this note"); ok {
		t.Error("expected cache miss for different model")
	}
}

func TestViewExpiry(t *testing.T) {
	v := NewView[string](newTestCache(t), "short", 10*time.Millisecond)

	key := v.Key("ephemeral")
	if err := v.Set(key, "value"); err != nil {
		t.Fatal(err)
	}
	if _, ok := v.Get(key); !ok {
		t.Fatal("expected hit before expiration")
	}

	time.Sleep(30 * time.Millisecond)
	if _, ok := v.Get(key); ok {
		t.Error("expected miss after expiration")
	}
}

func TestViewCorruptEntry(t *testing.T) {
	c := newTestCache(t)
	v := NewView[Embedding](c, "embedding", time.Minute,
		WithEncoding(providers.Snappy))

	key := v.Key("content")
	// store a payload that is not valid snappy under the view's key
	if err := c.Store(key, []byte("not a compressed payload"), time.Minute); err != nil {
		t.Fatal(err)
	}

	if _, ok := v.Get(key); ok {
		t.Fatal("expected miss for undecodable entry")
	}

	// the corrupt entry is removed so the next write can replace it
	if _, _, err := c.Retrieve(key); err == nil {
		t.Error("expected corrupt entry to have been removed")
	}
}
