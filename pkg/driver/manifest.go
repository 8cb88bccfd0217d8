package driver

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestFile is the manifest's file name in a package root.
const ManifestFile = "package.yml"

// Manifest represents the parsed contents of package.yml.
type Manifest struct {
	Path         string
	Name         string
	Version      string
	License      string
	Authors      []string
	Main         string
	IncludePaths []string
	Dependencies map[string]*DependencySpec
}

// DependencySpec describes where a dependency's sources come from. Git
// dependencies pin at most one of Rev, Tag and Branch.
type DependencySpec struct {
	Git    string `yaml:"git,omitempty"`
	Rev    string `yaml:"rev,omitempty"`
	Tag    string `yaml:"tag,omitempty"`
	Branch string `yaml:"branch,omitempty"`
	Path   string `yaml:"path,omitempty"`
}

// ValidationError aggregates manifest validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "manifest: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("manifest validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

var errManifestNotFound = errors.New("package.yml not found")

// FindManifest walks upward from start looking for package.yml.
func FindManifest(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("manifest: resolve %s: %w", start, err)
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		candidate := filepath.Join(dir, ManifestFile)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("manifest: %w (searched from %s)", errManifestNotFound, start)
		}
		dir = parent
	}
}

// IsManifestNotFound reports whether err came from a failed FindManifest.
func IsManifestNotFound(err error) bool {
	return errors.Is(err, errManifestNotFound)
}

// LoadManifest parses package.yml from disk, returning a validated manifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw manifestFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest: %s is empty", absPath)
		}
		return nil, fmt.Errorf("manifest: parse %s: %w", absPath, err)
	}

	manifest := raw.toManifest(absPath)
	if err := manifest.validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

// WriteManifest validates m and writes it to path.
func WriteManifest(path string, m *Manifest) error {
	if err := m.validate(); err != nil {
		return err
	}
	raw := manifestFile{
		Name:         m.Name,
		Version:      m.Version,
		License:      m.License,
		Authors:      m.Authors,
		Main:         m.Main,
		IncludePaths: m.IncludePaths,
		Dependencies: m.Dependencies,
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(raw); err != nil {
		return fmt.Errorf("manifest: encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("manifest: encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("manifest: write %s: %w", path, err)
	}
	return nil
}

// Root is the directory holding the manifest.
func (m *Manifest) Root() string {
	return filepath.Dir(m.Path)
}

// EntryPath resolves Main against the manifest's directory.
func (m *Manifest) EntryPath() string {
	return m.resolve(m.Main)
}

// SearchPaths resolves include_paths against the manifest's directory.
func (m *Manifest) SearchPaths() []string {
	out := make([]string, 0, len(m.IncludePaths))
	for _, p := range m.IncludePaths {
		out = append(out, m.resolve(p))
	}
	return out
}

// DependencyNames lists dependencies in name order.
func (m *Manifest) DependencyNames() []string {
	names := make([]string, 0, len(m.Dependencies))
	for name := range m.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Manifest) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Root(), p)
}

var (
	namePattern    = regexp.MustCompile(`^[a-z][a-z0-9_\-]*$`)
	versionPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+){0,2}([0-9A-Za-z\-\+\.]*)?$`)
)

func (m *Manifest) validate() error {
	var errs ValidationError
	if m.Name == "" {
		errs.Issues = append(errs.Issues, "name must be provided")
	} else if !namePattern.MatchString(m.Name) {
		errs.Issues = append(errs.Issues, fmt.Sprintf("name %q must be lowercase letters, digits, '_' or '-'", m.Name))
	}
	if m.Version != "" && !versionPattern.MatchString(m.Version) {
		errs.Issues = append(errs.Issues, fmt.Sprintf("invalid version %q", m.Version))
	}
	for i, author := range m.Authors {
		if author == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("authors[%d] must be a non-empty string", i))
		}
	}
	if m.Main != "" && filepath.Ext(m.Main) != SourceExt {
		errs.Issues = append(errs.Issues, fmt.Sprintf("main %q must be a %s file", m.Main, SourceExt))
	}
	for _, name := range m.DependencyNames() {
		for _, issue := range m.Dependencies[name].validate() {
			errs.Issues = append(errs.Issues, fmt.Sprintf("dependencies.%s: %s", name, issue))
		}
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

func (d *DependencySpec) validate() []string {
	var errs []string
	if d == nil {
		return []string{"must specify git or path"}
	}
	switch {
	case d.Git == "" && d.Path == "":
		errs = append(errs, "must specify git or path")
	case d.Git != "" && d.Path != "":
		errs = append(errs, "path dependencies cannot also specify git")
	}
	pins := 0
	for _, pin := range []string{d.Rev, d.Tag, d.Branch} {
		if pin != "" {
			pins++
		}
	}
	if pins > 1 {
		errs = append(errs, "only one of rev, tag or branch may be set")
	}
	if pins > 0 && d.Git == "" {
		errs = append(errs, "rev, tag and branch apply only to git dependencies")
	}
	return errs
}

type manifestFile struct {
	Name         string        `yaml:"name"`
	Version      string        `yaml:"version,omitempty"`
	License      string        `yaml:"license,omitempty"`
	Authors      stringList    `yaml:"authors,omitempty"`
	Main         string        `yaml:"main,omitempty"`
	IncludePaths stringList    `yaml:"include_paths,omitempty"`
	Dependencies dependencyMap `yaml:"dependencies,omitempty"`
}

type dependencyMap map[string]*DependencySpec

type stringList []string

func (mf manifestFile) toManifest(path string) *Manifest {
	deps := make(map[string]*DependencySpec, len(mf.Dependencies))
	for name, dep := range mf.Dependencies {
		if dep == nil {
			deps[name] = nil
			continue
		}
		copy := *dep
		deps[name] = &copy
	}
	return &Manifest{
		Path:         path,
		Name:         strings.TrimSpace(mf.Name),
		Version:      strings.TrimSpace(mf.Version),
		License:      strings.TrimSpace(mf.License),
		Authors:      append([]string(nil), mf.Authors...),
		Main:         strings.TrimSpace(mf.Main),
		IncludePaths: mf.IncludePaths.Clone(),
		Dependencies: deps,
	}
}

func (l stringList) Clone() []string {
	if len(l) == 0 {
		return nil
	}
	out := make([]string, 0, len(l))
	for _, item := range l {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

// UnmarshalYAML accepts a single string or a sequence of strings.
func (l *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" || strings.TrimSpace(value.Value) == "" {
			*l = nil
			return nil
		}
		*l = stringList{strings.TrimSpace(value.Value)}
		return nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(value.Content))
		for _, node := range value.Content {
			var str string
			if err := node.Decode(&str); err != nil {
				return err
			}
			items = append(items, strings.TrimSpace(str))
		}
		*l = stringList(items)
		return nil
	case yaml.AliasNode:
		return l.UnmarshalYAML(value.Alias)
	case 0:
		*l = nil
		return nil
	default:
		return fmt.Errorf("manifest: expected string or sequence for list but found %s", value.ShortTag())
	}
}

// UnmarshalYAML accepts `name: <git url>` shorthand as well as a mapping per
// dependency.
func (dm *dependencyMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == 0 || (value.Kind == yaml.ScalarNode && value.Tag == "!!null") {
		*dm = make(dependencyMap)
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("manifest: dependencies must be a mapping")
	}
	result := make(dependencyMap, len(value.Content)/2)
	for i := 0; i < len(value.Content); i += 2 {
		keyNode := value.Content[i]
		valNode := value.Content[i+1]

		var key string
		if err := keyNode.Decode(&key); err != nil {
			return err
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("manifest: dependency names must be non-empty")
		}
		var dep DependencySpec
		if err := dep.unmarshalYAML(valNode); err != nil {
			return fmt.Errorf("manifest: dependency %q: %w", key, err)
		}
		result[key] = &dep
	}
	*dm = result
	return nil
}

func (d *DependencySpec) unmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*d = DependencySpec{Git: strings.TrimSpace(value.Value)}
		return nil
	case yaml.MappingNode:
		var raw struct {
			Git    string `yaml:"git"`
			Rev    string `yaml:"rev"`
			Tag    string `yaml:"tag"`
			Branch string `yaml:"branch"`
			Path   string `yaml:"path"`
		}
		if err := value.Decode(&raw); err != nil {
			return err
		}
		*d = DependencySpec{
			Git:    strings.TrimSpace(raw.Git),
			Rev:    strings.TrimSpace(raw.Rev),
			Tag:    strings.TrimSpace(raw.Tag),
			Branch: strings.TrimSpace(raw.Branch),
			Path:   strings.TrimSpace(raw.Path),
		}
		return nil
	case yaml.AliasNode:
		return d.unmarshalYAML(value.Alias)
	default:
		return fmt.Errorf("expected string or mapping, found %s", value.ShortTag())
	}
}
