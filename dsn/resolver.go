package dsn

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
)

// Provider resolves a secret reference.
//
// Implementations must be safe for concurrent use and must not log secret
// values.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, ref string) (string, error)
}

// EnvProvider resolves secretref:env:NAME from the environment.
type EnvProvider struct{}

// Name returns "env".
func (EnvProvider) Name() string { return "env" }

// Resolve returns the value of the named variable.
func (EnvProvider) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := os.LookupEnv(ref)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, ref)
	}
	return v, nil
}

// FileProvider resolves secretref:file:/path to the file's contents with
// trailing newlines removed.
type FileProvider struct{}

// Name returns "file".
func (FileProvider) Name() string { return "file" }

// Resolve reads the file at ref.
func (FileProvider) Resolve(_ context.Context, ref string) (string, error) {
	data, err := os.ReadFile(ref)
	if err != nil {
		return "", fmt.Errorf("read secret file: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// Resolver expands environment variables and secret refs in a DSN.
type Resolver struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewResolver creates a resolver with the env and file providers plus any
// extra providers. Later providers replace earlier ones of the same name.
func NewResolver(providers ...Provider) *Resolver {
	r := &Resolver{providers: make(map[string]Provider)}
	r.Register(EnvProvider{})
	r.Register(FileProvider{})
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds or replaces a provider.
func (r *Resolver) Register(p Provider) {
	if p == nil {
		return
	}
	r.mu.Lock()
	r.providers[p.Name()] = p
	r.mu.Unlock()
}

// ParseSecretRef parses a full secret reference of the form:
//
//	secretref:<provider>:<ref>
func ParseSecretRef(value string) (provider string, ref string, ok bool) {
	const prefix = "secretref:"
	if !strings.HasPrefix(value, prefix) {
		return "", "", false
	}
	parts := strings.SplitN(strings.TrimPrefix(value, prefix), ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// Inline refs stop at characters that delimit DSN components.
var inlineSecretRefPattern = regexp.MustCompile(`secretref:([A-Za-z0-9_-]+):([^\s@;]+)`)

// Resolve expands env vars, then replaces every secret ref in dsn.
func (r *Resolver) Resolve(ctx context.Context, dsn string) (string, error) {
	expanded, err := ExpandEnvStrict(dsn)
	if err != nil {
		return "", err
	}

	if name, ref, ok := ParseSecretRef(expanded); ok && !strings.ContainsAny(ref, "@;") {
		return r.resolveOne(ctx, name, ref)
	}

	matches := inlineSecretRefPattern.FindAllStringSubmatchIndex(expanded, -1)
	out := expanded
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		// Indexes stay valid because replacement runs from the end.
		resolved, err := r.resolveOne(ctx, out[m[2]:m[3]], out[m[4]:m[5]])
		if err != nil {
			return "", err
		}
		out = out[:m[0]] + resolved + out[m[1]:]
	}
	return out, nil
}

func (r *Resolver) resolveOne(ctx context.Context, name, ref string) (string, error) {
	r.mu.RLock()
	p, ok := r.providers[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}

	v, err := p.Resolve(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("secret provider %q: %w", name, err)
	}
	if v == "" {
		return "", fmt.Errorf("%w: provider %q", ErrEmptySecret, name)
	}
	return v, nil
}
