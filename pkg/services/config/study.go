package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"

	"github.com/de-tools/tlf-atlas/pkg/models/domain"
	"gopkg.in/yaml.v3"
)

// Loader reads study configurations and resolves their inheritance chains.
type Loader interface {
	Load(path string) (*domain.StudyConfig, error)
}

type yamlLoader struct {
	searchDirs []string
}

// NewLoader returns a loader that looks for parent configurations next to the child
// file first and then in each of searchDirs.
func NewLoader(searchDirs ...string) Loader {
	return &yamlLoader{searchDirs: searchDirs}
}

// Load reads path, merges its parents and decodes the result into a typed
// configuration. Unknown fields and constraint violations are reported together in a
// *ValidationError.
//
// Two inheritance forms are supported. "inherits_from: <name>" names a single parent;
// the child wins on conflicts, mappings merge recursively and lists are replaced.
// "study.template: [a.yaml, b.yaml]" layers templates in order; mappings merge and
// lists are concatenated without duplicates.
func (l *yamlLoader) Load(path string) (*domain.StudyConfig, error) {
	raw, err := l.resolve(path, map[string]bool{})
	if err != nil {
		return nil, err
	}

	merged, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode merged configuration: %w", err)
	}

	var cfg domain.StudyConfig
	var fields []domain.FieldError

	dec := yaml.NewDecoder(bytes.NewReader(merged))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		var typeErr *yaml.TypeError
		if !errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: %s: %v", ErrConfigSyntax, path, err)
		}
		for _, msg := range typeErr.Errors {
			fields = append(fields, typeErrorField(msg))
		}
	}

	fields = append(fields, cfg.Validate()...)
	if len(fields) > 0 {
		return nil, &ValidationError{Path: path, Fields: fields}
	}
	cfg.InheritsFrom = ""
	return &cfg, nil
}

var (
	unknownFieldRe = regexp.MustCompile(`^line \d+: field (\S+) not found in type`)
	lineRe         = regexp.MustCompile(`^(line \d+): (.*)$`)
)

func typeErrorField(msg string) domain.FieldError {
	if m := unknownFieldRe.FindStringSubmatch(msg); m != nil {
		return domain.FieldError{Field: m[1], Msg: "unknown field"}
	}
	if m := lineRe.FindStringSubmatch(msg); m != nil {
		return domain.FieldError{Field: m[1], Msg: m[2]}
	}
	return domain.FieldError{Field: "", Msg: msg}
}

func (l *yamlLoader) resolve(path string, visiting map[string]bool) (map[string]any, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if visiting[abs] {
		return nil, fmt.Errorf("%w: cycle through %s", ErrInheritance, path)
	}
	visiting[abs] = true
	defer delete(visiting, abs)

	data, err := readYAML(path)
	if err != nil {
		return nil, err
	}

	if templates, err := templateNames(data); err != nil {
		return nil, &InheritanceError{Child: path, Parent: "study.template", Err: err}
	} else if len(templates) > 0 {
		base := map[string]any{}
		for _, name := range templates {
			parentPath, err := l.find(name, path)
			if err != nil {
				return nil, &InheritanceError{Child: path, Parent: name, Err: err}
			}
			parent, err := l.resolve(parentPath, visiting)
			if err != nil {
				return nil, err
			}
			base = mergeMaps(base, parent, true)
		}
		data = mergeMaps(base, data, true)
	}

	parentRef, ok := data["inherits_from"]
	if !ok {
		return data, nil
	}
	delete(data, "inherits_from")

	name, ok := parentRef.(string)
	if !ok || name == "" {
		return nil, &InheritanceError{Child: path, Parent: fmt.Sprint(parentRef), Err: errors.New("inherits_from must be a file name")}
	}
	parentPath, err := l.find(name, path)
	if err != nil {
		return nil, &InheritanceError{Child: path, Parent: name, Err: err}
	}
	parent, err := l.resolve(parentPath, visiting)
	if err != nil {
		return nil, err
	}
	return mergeMaps(parent, data, false), nil
}

func readYAML(path string) (map[string]any, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	data := map[string]any{}
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigSyntax, path, err)
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

func templateNames(data map[string]any) ([]string, error) {
	study, ok := data["study"].(map[string]any)
	if !ok {
		return nil, nil
	}
	switch t := study["template"].(type) {
	case nil:
		return nil, nil
	case string:
		delete(study, "template")
		return []string{t}, nil
	case []any:
		delete(study, "template")
		names := make([]string, 0, len(t))
		for _, v := range t {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("template entries must be file names, got %v", v)
			}
			names = append(names, s)
		}
		return names, nil
	}
	return nil, fmt.Errorf("template must be a file name or a list of file names")
}

// find locates a parent configuration by name relative to the child file, then in
// the loader's search directories.
func (l *yamlLoader) find(name, childPath string) (string, error) {
	candidates := []string{name, name + ".yaml", name + ".yml", filepath.Join("configs", name+".yaml")}
	dirs := append([]string{filepath.Dir(childPath)}, l.searchDirs...)
	for _, dir := range dirs {
		for _, c := range candidates {
			p := c
			if !filepath.IsAbs(p) {
				p = filepath.Join(dir, c)
			}
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				return p, nil
			}
		}
	}
	return "", fmt.Errorf("%w: parent %q", ErrConfigNotFound, name)
}

// mergeMaps returns base overlaid with override. Nested mappings merge recursively.
// With concatLists, lists are appended without duplicates instead of replaced.
func mergeMaps(base, override map[string]any, concatLists bool) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		existing, ok := out[k]
		if !ok {
			out[k] = v
			continue
		}
		switch ov := v.(type) {
		case map[string]any:
			if em, isMap := existing.(map[string]any); isMap {
				out[k] = mergeMaps(em, ov, concatLists)
				continue
			}
		case []any:
			if el, isList := existing.([]any); isList && concatLists {
				merged := append([]any{}, el...)
				for _, item := range ov {
					if !containsValue(merged, item) {
						merged = append(merged, item)
					}
				}
				out[k] = merged
				continue
			}
		}
		out[k] = v
	}
	return out
}

func containsValue(list []any, v any) bool {
	for _, item := range list {
		if reflect.DeepEqual(item, v) {
			return true
		}
	}
	return false
}
