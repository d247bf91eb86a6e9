package config

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/magiconair/properties"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/nativeboot/errors"
	"github.com/wippyai/nativeboot/platform"
)

const (
	// Namespace prefixes every native library key.
	Namespace = "NativeLibraries"

	// DefaultLocation is the configuration path inside the bundle.
	DefaultLocation = "config/NativeLibraries.properties"

	// CategoryInitialise selects the bootstrap library set.
	CategoryInitialise = "initialise"
)

// LibrariesCategory is the category listing libraries to extract for a tier
func LibrariesCategory(tierTag string) string { return tierTag + ".libraries" }

// LoadCategory is the category listing libraries to activate for a tier
func LoadCategory(tierTag string) string { return tierTag + ".load" }

// Source selects where the configuration is read from.
// The zero value is the embedded default location.
type Source struct {
	Path string
}

// Embedded returns the bundle's default configuration source
func Embedded() Source { return Source{} }

// External returns a source reading path from the filesystem
func External(path string) Source { return Source{Path: path} }

// IsExternal reports whether the source is outside the bundle
func (s Source) IsExternal() bool { return s.Path != "" }

func (s Source) String() string {
	if s.IsExternal() {
		return s.Path
	}
	return "bundle:" + DefaultLocation
}

// Entry is a single configuration key with its raw value
type Entry struct {
	Key   string
	Value string
}

// Store is a read-only view of the configuration for one platform.
type Store struct {
	entries []Entry
	scope   *regexp.Regexp
	tag     platform.Tag
	source  Source
}

// Load reads the configuration from src. Embedded sources are read from bundle.
func Load(src Source, bundle fs.FS, tag platform.Tag) (*Store, error) {
	var (
		data []byte
		err  error
	)
	if src.IsExternal() {
		data, err = os.ReadFile(src.Path)
	} else {
		if bundle == nil {
			return nil, errors.ConfigUnavailable(src.String(), fs.ErrNotExist)
		}
		data, err = fs.ReadFile(bundle, DefaultLocation)
	}
	if err != nil {
		return nil, errors.ConfigUnavailable(src.String(), err)
	}

	var entries []Entry
	switch strings.ToLower(filepath.Ext(src.Path)) {
	case ".yaml", ".yml":
		entries, err = parseYAML(data)
	default:
		entries, err = parseProperties(data)
	}
	if err != nil {
		return nil, errors.ConfigUnavailable(src.String(), err)
	}

	return New(entries, tag, src), nil
}

// New builds a store over already parsed entries
func New(entries []Entry, tag platform.Tag, src Source) *Store {
	return &Store{
		entries: entries,
		scope:   regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(Namespace+"."+string(tag)+".")),
		tag:     tag,
		source:  src,
	}
}

// Platform returns the tag the store is scoped to
func (s *Store) Platform() platform.Tag { return s.tag }

// Source returns where the store was read from
func (s *Store) Source() Source { return s.source }

// Entries returns every entry in source order, including other platforms
func (s *Store) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// ValuesFor returns the library identifiers of every key in the current platform's
// scope that ends with category, in source order. No match yields an empty list.
func (s *Store) ValuesFor(category string) []string {
	var libs []string
	for _, e := range s.entries {
		if !s.scope.MatchString(e.Key) || !strings.HasSuffix(e.Key, category) {
			continue
		}
		for _, lib := range strings.Split(e.Value, ",") {
			if lib = strings.TrimSpace(lib); lib != "" {
				libs = append(libs, lib)
			}
		}
	}
	return libs
}

func parseProperties(data []byte) ([]Entry, error) {
	l := &properties.Loader{Encoding: properties.ISO_8859_1, DisableExpansion: true}
	p, err := l.LoadBytes(data)
	if err != nil {
		return nil, err
	}
	keys := p.Keys()
	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		v, _ := p.Get(k)
		entries = append(entries, Entry{Key: k, Value: v})
	}
	return entries, nil
}

// parseYAML flattens nested mappings into dotted keys, keeping document order.
// Sequences are joined with commas.
func parseYAML(data []byte) ([]Entry, error) {
	var doc yaml.Node
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	var entries []Entry
	if err := flatten(doc.Content[0], "", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func flatten(n *yaml.Node, prefix string, out *[]Entry) error {
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			if prefix != "" {
				key = prefix + "." + key
			}
			if err := flatten(n.Content[i+1], key, out); err != nil {
				return err
			}
		}
	case yaml.SequenceNode:
		items := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			if c.Kind != yaml.ScalarNode {
				return errors.InvalidInput(errors.PhaseConfig, "nested sequence under "+prefix)
			}
			items = append(items, c.Value)
		}
		*out = append(*out, Entry{Key: prefix, Value: strings.Join(items, ",")})
	case yaml.ScalarNode:
		*out = append(*out, Entry{Key: prefix, Value: n.Value})
	case yaml.AliasNode:
		return flatten(n.Alias, prefix, out)
	default:
		return errors.InvalidInput(errors.PhaseConfig, "unsupported yaml node under "+prefix)
	}
	return nil
}
