// Package env holds the shell's environment variable store.
package env

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

const (
	// StatusVar holds the decimal exit status of the last foreground process.
	StatusVar = "?"
	// SuccessStatus is the value of StatusVar after a successful command.
	SuccessStatus = "0"
)

// Getter looks up variables by name.
type Getter interface {
	Getenv(key string) string
}

// Store is a mutable key/value view of the environment.
type Store interface {
	Getter
	LookupEnv(key string) (string, bool)
	Setenv(key, value string) error
	// Environ returns the variables a child process should inherit.
	Environ() []string
}

// SetStatus records an exit status in StatusVar.
func SetStatus(s Store, code int) error {
	return s.Setenv(StatusVar, strconv.Itoa(code))
}

// Succeeded reports whether StatusVar holds the success sentinel.
func Succeeded(s Getter) bool {
	return s.Getenv(StatusVar) == SuccessStatus
}

// IsSynthetic reports whether the variable is shell-only and never exported
// to children.
func IsSynthetic(key string) bool {
	return key == StatusVar
}

// LoadDotenv sets every variable defined in the dotenv file at path.
func LoadDotenv(s Store, path string) error {
	vars, err := godotenv.Read(path)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := s.Setenv(k, vars[k]); err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
	}
	return nil
}

// OSEnv mirrors the process environment. Synthetic variables are kept in
// memory only.
type OSEnv struct {
	rw        sync.RWMutex
	synthetic map[string]string
}

var _ Store = (*OSEnv)(nil)

// NewOSEnv creates a store backed by the process environment.
func NewOSEnv() *OSEnv {
	return &OSEnv{synthetic: make(map[string]string)}
}

// Getenv implements Store.Getenv.
func (o *OSEnv) Getenv(key string) string {
	val, _ := o.LookupEnv(key)
	return val
}

// LookupEnv implements Store.LookupEnv.
func (o *OSEnv) LookupEnv(key string) (string, bool) {
	if IsSynthetic(key) {
		o.rw.RLock()
		defer o.rw.RUnlock()
		val, ok := o.synthetic[key]
		return val, ok
	}
	return os.LookupEnv(key)
}

// Setenv implements Store.Setenv.
func (o *OSEnv) Setenv(key, value string) error {
	if IsSynthetic(key) {
		o.rw.Lock()
		defer o.rw.Unlock()
		o.synthetic[key] = value
		return nil
	}
	return os.Setenv(key, value)
}

// Environ implements Store.Environ.
func (o *OSEnv) Environ() []string {
	return os.Environ()
}

// NewMapEnv creates a new environment backed by a map.
func NewMapEnv() *MapEnv {
	return &MapEnv{}
}

// NewMapEnvFromEnvList creates a map environment from "key=value" pairs.
func NewMapEnvFromEnvList(environ []string) *MapEnv {
	out := &MapEnv{}

	for _, e := range environ {
		split := strings.SplitN(e, "=", 2)
		key, value := split[0], ""
		if len(split) > 1 {
			value = split[1]
		}
		// Ignore error, it will never be set for MapEnv.
		_ = out.Setenv(key, value)
	}

	return out
}

// MapEnv implements an in-memory Store.
type MapEnv struct {
	rw  sync.RWMutex
	env map[string]string
}

var _ Store = (*MapEnv)(nil)

// Setenv implements Store.Setenv.
func (m *MapEnv) Setenv(key, value string) error {
	m.rw.Lock()
	defer m.rw.Unlock()

	if m.env == nil {
		m.env = make(map[string]string)
	}
	m.env[key] = value
	return nil
}

// LookupEnv implements Store.LookupEnv.
func (m *MapEnv) LookupEnv(key string) (string, bool) {
	m.rw.RLock()
	defer m.rw.RUnlock()

	val, ok := m.env[key]
	return val, ok
}

// Getenv implements Store.Getenv.
func (m *MapEnv) Getenv(key string) string {
	val, _ := m.LookupEnv(key)
	return val
}

// Environ implements Store.Environ, sorted for stable output.
func (m *MapEnv) Environ() []string {
	m.rw.RLock()
	defer m.rw.RUnlock()

	var env []string
	for k, v := range m.env {
		if IsSynthetic(k) {
			continue
		}
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(env)

	return env
}
