package source

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	ErrNoLink         = errors.New("no link")
	ErrScriptMismatch = errors.New("script link does not match pattern")
)

// LinkResolver turns the raw link attribute of a listing entry into an absolute
// detail URL.
type LinkResolver interface {
	Resolve(baseURL, raw string) (string, error)
}

// HrefLink resolves plain (possibly relative) hrefs against the listing URL.
type HrefLink struct{}

func (HrefLink) Resolve(baseURL, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "#" {
		return "", ErrNoLink
	}
	if strings.HasPrefix(strings.ToLower(raw), "javascript:") {
		return "", fmt.Errorf("%w: script href %q needs a script link strategy", ErrNoLink, raw)
	}
	return absolute(baseURL, raw)
}

// ScriptLink handles boards whose entries open through a script call such as
// javascript:readArticle('recruit', '1234', ...). The call arguments are captured
// with Pattern and substituted into Template by name.
type ScriptLink struct {
	Pattern  *regexp.Regexp
	Params   []string
	Template string
}

// NewScriptLink compiles a script link strategy. Template placeholders are written
// as {name} for each entry of params, in capture group order.
func NewScriptLink(pattern, template string, params ...string) (*ScriptLink, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile pattern: %w", err)
	}
	if re.NumSubexp() != len(params) {
		return nil, fmt.Errorf("pattern has %d groups but %d params are named", re.NumSubexp(), len(params))
	}
	if template == "" {
		return nil, errors.New("template is required")
	}
	return &ScriptLink{Pattern: re, Params: params, Template: template}, nil
}

// Parse extracts the named call arguments from raw.
func (s *ScriptLink) Parse(raw string) (map[string]string, error) {
	m := s.Pattern.FindStringSubmatch(raw)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrScriptMismatch, raw)
	}
	args := make(map[string]string, len(s.Params))
	for i, name := range s.Params {
		args[name] = m[i+1]
	}
	return args, nil
}

func (s *ScriptLink) Resolve(baseURL, raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ErrNoLink
	}
	args, err := s.Parse(raw)
	if err != nil {
		return "", err
	}

	pairs := make([]string, 0, len(args)*2)
	for name, value := range args {
		pairs = append(pairs, "{"+name+"}", url.QueryEscape(value))
	}
	return absolute(baseURL, strings.NewReplacer(pairs...).Replace(s.Template))
}

// LinkSpec is the YAML form of a link strategy.
type LinkSpec struct {
	Kind     string   `yaml:"kind"` // "href" (default) or "script"
	Pattern  string   `yaml:"pattern,omitempty"`
	Params   []string `yaml:"params,omitempty"`
	Template string   `yaml:"template,omitempty"`
}

// Build compiles the link strategy.
func (l LinkSpec) Build() (LinkResolver, error) {
	switch l.Kind {
	case "", "href":
		return HrefLink{}, nil
	case "script":
		return NewScriptLink(l.Pattern, l.Template, l.Params...)
	default:
		return nil, fmt.Errorf("unknown link kind %q", l.Kind)
	}
}

func absolute(baseURL, ref string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse link %q: %w", ref, err)
	}
	abs := base.ResolveReference(u)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme in %q", ErrNoLink, abs.String())
	}
	return abs.String(), nil
}
