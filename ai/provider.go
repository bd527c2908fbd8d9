// Copyright 2025 The pdfstash authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Kind tags which embedding variant a Provider wraps.
type Kind int

const (
	// KindRemote is the hosted embeddings API variant.
	KindRemote Kind = iota + 1
	// KindLocal is the Ollama-served variant.
	KindLocal
)

// String returns a human-readable variant name.
func (k Kind) String() string {
	switch k {
	case KindRemote:
		return "remote"
	case KindLocal:
		return "local"
	}
	return "unknown"
}

// localProbeTimeout bounds the connectivity check against the local server.
const localProbeTimeout = 5 * time.Second

// Provider is a constructed embedding backend together with the identity
// needed to partition stored vectors. Vectors produced by different
// provider identities are not comparable, so the store keys everything it
// writes under Namespace.
type Provider struct {
	Kind     Kind
	Model    string
	Embedder Embedder
}

// Namespace returns the provider identity used to partition stored vectors,
// e.g. "remote/text-embedding-3-small" or "local/all-minilm".
func (p *Provider) Namespace() string {
	return p.Kind.String() + "/" + p.Model
}

// NewProvider constructs the embedding provider selected by cfg:
//
//   - ForceLocal set: the local variant, no remote attempt.
//   - APIKey set: the remote variant; if its construction fails the error is
//     logged and the local variant is tried instead.
//   - Otherwise: the local variant.
//
// When the final choice is local and the local server is unreachable, the
// returned error wraps ErrNoBackend and names both remediations.
func NewProvider(ctx context.Context, cfg *Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.ForceLocal {
		return NewLocalProvider(ctx, cfg)
	}

	if cfg.APIKey != "" {
		provider, err := newRemoteProvider(cfg)
		if err == nil {
			return provider, nil
		}
		slog.Warn("remote embedding provider unavailable, falling back to local",
			"model", cfg.RemoteModel,
			"error", err)
	}

	return NewLocalProvider(ctx, cfg)
}

// NewLocalProvider constructs the Ollama-backed variant and verifies the
// server is actually reachable. Client construction alone never touches the
// network, so an explicit probe is the only way to fail fast here.
func NewLocalProvider(ctx context.Context, cfg *Config) (*Provider, error) {
	embedder, err := newOllamaEmbedder(cfg.LocalHost, cfg.LocalModel)
	if err != nil {
		return nil, localUnavailable(cfg, err)
	}

	pctx, cancel := context.WithTimeout(ctx, localProbeTimeout)
	defer cancel()
	if _, err := embedder.EmbedQuery(pctx, "ping"); err != nil {
		return nil, localUnavailable(cfg, err)
	}

	return &Provider{
		Kind:     KindLocal,
		Model:    cfg.LocalModel,
		Embedder: embedder,
	}, nil
}

func localUnavailable(cfg *Config, err error) error {
	return fmt.Errorf("%w: local embedding model %q unreachable at %s (%v); "+
		"set OPENAI_API_KEY to use the remote API, or start Ollama, pull the "+
		"model, and set USE_LOCAL_EMBEDDINGS=1",
		ErrNoBackend, cfg.LocalModel, cfg.LocalHost, err)
}

func newRemoteProvider(cfg *Config) (*Provider, error) {
	embedder, err := newOpenAIEmbedder(cfg.APIKey, cfg.RemoteModel)
	if err != nil {
		return nil, err
	}
	return &Provider{
		Kind:     KindRemote,
		Model:    cfg.RemoteModel,
		Embedder: embedder,
	}, nil
}
