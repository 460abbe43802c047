package validation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"mime"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/core/ports/driven"
	"github.com/custodia-labs/docforge/internal/logger"
	"github.com/custodia-labs/docforge/internal/numfmt"
)

// Options bounds the optional embedding fetch.
type Options struct {
	// Embed enables fetch-and-embed for fields declared with Embed.
	Embed bool

	// FetchTimeout bounds each fetch independently of the caller's deadline.
	FetchTimeout time.Duration

	// MaxBytes bounds each fetched body unless the field declares its own bound.
	MaxBytes int64

	// RequireHTTPS forces https for every URL field.
	RequireHTTPS bool
}

// DefaultOptions returns the defaults used when no settings are supplied.
func DefaultOptions() Options {
	d := domain.DefaultAppSettings().Embed
	return Options{
		Embed:        d.Enabled,
		FetchTimeout: d.Timeout,
		MaxBytes:     d.MaxBytes,
		RequireHTTPS: d.RequireHTTPS,
	}
}

// Validator validates parameter maps against schemas.
// It is safe for concurrent use.
type Validator struct {
	fetcher driven.Fetcher
	opts    Options

	mu       sync.RWMutex
	patterns map[string]*regexp.Regexp
}

// New creates a validator. fetcher may be nil, in which case embedding fields fail.
func New(fetcher driven.Fetcher, opts Options) *Validator {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultOptions().FetchTimeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultOptions().MaxBytes
	}
	return &Validator{
		fetcher:  fetcher,
		opts:     opts,
		patterns: make(map[string]*regexp.Regexp),
	}
}

// Validate checks params against schema and returns the normalised map.
// On failure the error is a *domain.Error with code INVALID_PARAMETERS
// listing every offending field.
func (v *Validator) Validate(ctx context.Context, schema domain.Schema, params map[string]any) (map[string]any, error) {
	return v.ValidateAs(ctx, schema, params, domain.ErrInvalidParameters)
}

// ValidateAs is Validate reporting failures under the given code sentinel.
func (v *Validator) ValidateAs(ctx context.Context, schema domain.Schema, params map[string]any, code *domain.Error) (map[string]any, error) {
	c := &checker{v: v, ctx: ctx}
	out := c.object("", schema.Fields, params)
	if len(c.errs) > 0 {
		return nil, code.WithFields(c.errs)
	}
	return out, nil
}

// checker accumulates field errors for one Validate call.
type checker struct {
	v    *Validator
	ctx  context.Context
	errs []domain.FieldError
}

func (c *checker) fail(path, format string, args ...any) {
	c.errs = append(c.errs, domain.FieldError{Field: path, Message: fmt.Sprintf(format, args...)})
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// object validates a map against declared fields, rejecting undeclared keys.
func (c *checker) object(path string, fields []domain.Field, in map[string]any) map[string]any {
	declared := make(map[string]bool, len(fields))
	for _, f := range fields {
		declared[f.Name] = true
	}

	unknown := make([]string, 0)
	for k := range in {
		if !declared[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		c.fail(join(path, k), "unknown parameter")
	}

	out := make(map[string]any, len(fields))
	for _, f := range fields {
		fp := join(path, f.Name)
		raw, ok := in[f.Name]
		if !ok || raw == nil {
			if f.Default != nil {
				out[f.Name] = domain.CloneValue(f.Default)
				continue
			}
			if f.Required {
				c.fail(fp, "is required")
			}
			continue
		}
		if val, ok := c.value(fp, f, raw); ok {
			out[f.Name] = val
		}
	}
	return out
}

// value validates one value against its field declaration.
func (c *checker) value(path string, f domain.Field, raw any) (any, bool) {
	switch f.Type {
	case domain.FieldString:
		return c.str(path, f, raw)
	case domain.FieldInteger:
		return c.integer(path, f, raw)
	case domain.FieldNumber:
		return c.number(path, f, raw)
	case domain.FieldBoolean:
		b, ok := raw.(bool)
		if !ok {
			c.fail(path, "must be a boolean")
		}
		return b, ok
	case domain.FieldEnum:
		return c.enum(path, f, raw)
	case domain.FieldURL:
		return c.url(path, f, raw)
	case domain.FieldList:
		return c.list(path, f, raw)
	case domain.FieldObject:
		m, ok := asMap(raw)
		if !ok {
			c.fail(path, "must be an object")
			return nil, false
		}
		before := len(c.errs)
		out := c.object(path, f.Fields, m)
		return out, len(c.errs) == before
	case domain.FieldMap:
		return c.mapping(path, f, raw)
	case domain.FieldTable:
		return c.table(path, f, raw)
	case domain.FieldNumberFormat:
		s, ok := raw.(string)
		if !ok {
			c.fail(path, "must be a number format string")
			return nil, false
		}
		spec, err := numfmt.Parse(s)
		if err != nil {
			c.fail(path, "%v", err)
			return nil, false
		}
		return spec.String(), true
	default:
		c.fail(path, "has undeclared type %q", f.Type)
		return nil, false
	}
}

func (c *checker) str(path string, f domain.Field, raw any) (any, bool) {
	s, ok := raw.(string)
	if !ok {
		c.fail(path, "must be a string")
		return nil, false
	}
	n := utf8.RuneCountInString(s)
	if f.MinLength != nil && n < *f.MinLength {
		c.fail(path, "must be at least %d characters", *f.MinLength)
		return nil, false
	}
	if f.MaxLength != nil && n > *f.MaxLength {
		c.fail(path, "must be at most %d characters", *f.MaxLength)
		return nil, false
	}
	if f.Pattern != "" {
		re, err := c.v.pattern(f.Pattern)
		if err != nil {
			c.fail(path, "has an invalid pattern in its schema")
			return nil, false
		}
		if !re.MatchString(s) {
			c.fail(path, "must match %s", f.Pattern)
			return nil, false
		}
	}
	return s, true
}

// maxExactInteger is the largest magnitude a float64 holds without losing
// integer precision.
const maxExactInteger = 1 << 53

func (c *checker) integer(path string, f domain.Field, raw any) (any, bool) {
	n, ok := toFloat(raw)
	if !ok || n != math.Trunc(n) {
		c.fail(path, "must be an integer")
		return nil, false
	}
	if n > maxExactInteger || n < -maxExactInteger {
		c.fail(path, "must be between -%d and %d", int64(maxExactInteger), int64(maxExactInteger))
		return nil, false
	}
	if !c.bounds(path, f, n) {
		return nil, false
	}
	return int64(n), true
}

func (c *checker) number(path string, f domain.Field, raw any) (any, bool) {
	n, ok := toFloat(raw)
	if !ok {
		c.fail(path, "must be a number")
		return nil, false
	}
	if !c.bounds(path, f, n) {
		return nil, false
	}
	return n, true
}

func (c *checker) bounds(path string, f domain.Field, n float64) bool {
	if f.Min != nil && n < *f.Min {
		c.fail(path, "must be >= %s", trimFloat(*f.Min))
		return false
	}
	if f.Max != nil && n > *f.Max {
		c.fail(path, "must be <= %s", trimFloat(*f.Max))
		return false
	}
	return true
}

func (c *checker) enum(path string, f domain.Field, raw any) (any, bool) {
	s, ok := raw.(string)
	if ok {
		for _, e := range f.Enum {
			if s == e {
				return s, true
			}
		}
	}
	c.fail(path, "must be one of [%s]", strings.Join(f.Enum, ", "))
	return nil, false
}

func (c *checker) url(path string, f domain.Field, raw any) (any, bool) {
	s, ok := raw.(string)
	if !ok {
		c.fail(path, "must be a URL string")
		return nil, false
	}
	if f.Embed && strings.HasPrefix(s, "data:") {
		return c.dataURI(path, f, s)
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		c.fail(path, "must be an absolute http(s) URL")
		return nil, false
	}
	if (f.RequireHTTPS || c.v.opts.RequireHTTPS) && u.Scheme != "https" {
		c.fail(path, "must use https")
		return nil, false
	}
	if !f.Embed || !c.v.opts.Embed {
		return u.String(), true
	}

	dataURI, err := c.v.embed(c.ctx, u.String(), f.MaxBytes)
	if err != nil {
		c.errs = append(c.errs, domain.FieldError{
			Field:   path,
			Code:    domain.CodeEmbeddingFailed,
			Message: err.Error(),
		})
		return nil, false
	}
	return dataURI, true
}

// dataURI accepts an already-embedded image. The payload is held to the
// same bound as a fetched body.
func (c *checker) dataURI(path string, f domain.Field, s string) (any, bool) {
	meta, payload, found := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	declared, isBase64 := strings.CutSuffix(meta, ";base64")
	mediaType, _, err := mime.ParseMediaType(declared)
	if !found || !isBase64 || err != nil || !strings.HasPrefix(mediaType, "image/") {
		c.fail(path, "must be a base64 data URI with an image/* media type")
		return nil, false
	}

	limit := c.v.maxBytes(f.MaxBytes)
	if limit > 0 && int64(base64.StdEncoding.DecodedLen(len(payload))) > limit+2 {
		c.fail(path, "must not exceed %d bytes", limit)
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		c.fail(path, "has an invalid base64 payload")
		return nil, false
	}
	if limit > 0 && int64(len(data)) > limit {
		c.fail(path, "must not exceed %d bytes", limit)
		return nil, false
	}
	return "data:" + mediaType + ";base64," + payload, true
}

func (c *checker) list(path string, f domain.Field, raw any) (any, bool) {
	items, ok := asList(raw)
	if !ok {
		if !f.AcceptSingle {
			c.fail(path, "must be a list")
			return nil, false
		}
		items = []any{raw}
	}
	if !c.lengthBounds(path, f, len(items)) {
		return nil, false
	}

	out := make([]any, 0, len(items))
	valid := true
	for i, item := range items {
		ip := fmt.Sprintf("%s[%d]", path, i)
		if f.Elem == nil {
			out = append(out, item)
			continue
		}
		if item == nil {
			c.fail(ip, "must not be null")
			valid = false
			continue
		}
		val, ok := c.value(ip, *f.Elem, item)
		if !ok {
			valid = false
			continue
		}
		out = append(out, val)
	}
	return out, valid
}

func (c *checker) mapping(path string, f domain.Field, raw any) (any, bool) {
	m, ok := asMap(raw)
	if !ok {
		c.fail(path, "must be an object")
		return nil, false
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, len(m))
	valid := true
	for _, k := range keys {
		if f.Elem == nil {
			out[k] = m[k]
			continue
		}
		val, ok := c.value(join(path, k), *f.Elem, m[k])
		if !ok {
			valid = false
			continue
		}
		out[k] = val
	}
	return out, valid
}

// table normalises a list of rows into [][]string. Numeric and boolean cells
// are stringified; they are content and keep their textual form.
func (c *checker) table(path string, f domain.Field, raw any) (any, bool) {
	rows, ok := asList(raw)
	if !ok {
		c.fail(path, "must be a list of rows")
		return nil, false
	}
	if !c.lengthBounds(path, f, len(rows)) {
		return nil, false
	}

	out := make([][]string, 0, len(rows))
	valid := true
	for i, r := range rows {
		cells, ok := asList(r)
		if !ok {
			c.fail(fmt.Sprintf("%s[%d]", path, i), "must be a list of cells")
			valid = false
			continue
		}
		row := make([]string, len(cells))
		for j, cell := range cells {
			s, ok := cellString(cell)
			if !ok {
				c.fail(fmt.Sprintf("%s[%d][%d]", path, i, j), "must be a string, number or boolean")
				valid = false
			}
			row[j] = s
		}
		out = append(out, row)
	}
	return out, valid
}

func (c *checker) lengthBounds(path string, f domain.Field, n int) bool {
	if f.Min != nil && float64(n) < *f.Min {
		c.fail(path, "must have at least %s entries", trimFloat(*f.Min))
		return false
	}
	if f.Max != nil && float64(n) > *f.Max {
		c.fail(path, "must have at most %s entries", trimFloat(*f.Max))
		return false
	}
	return true
}

// pattern compiles and caches schema regular expressions.
func (v *Validator) pattern(expr string) (*regexp.Regexp, error) {
	v.mu.RLock()
	re, ok := v.patterns[expr]
	v.mu.RUnlock()
	if ok {
		return re, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	v.mu.Lock()
	v.patterns[expr] = re
	v.mu.Unlock()
	return re, nil
}

// embed fetches rawURL under the validator's own timeout and returns a data URI.
func (v *Validator) embed(ctx context.Context, rawURL string, fieldMax int64) (string, error) {
	if v.fetcher == nil {
		return "", fmt.Errorf("embedding is not available")
	}
	maxBytes := v.maxBytes(fieldMax)

	fetchCtx, cancel := context.WithTimeout(ctx, v.opts.FetchTimeout)
	defer cancel()

	logger.Debug("embedding %s (limit %d bytes, timeout %s)", rawURL, maxBytes, v.opts.FetchTimeout)
	res, err := v.fetcher.Fetch(fetchCtx, rawURL, maxBytes)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}

	mediaType, _, err := mime.ParseMediaType(res.ContentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("unsupported content type %q", res.ContentType)
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(res.Data), nil
}

// maxBytes returns the embed bound for a field: its own bound when tighter
// than the configured one.
func (v *Validator) maxBytes(fieldMax int64) int64 {
	if fieldMax > 0 && (v.opts.MaxBytes <= 0 || fieldMax < v.opts.MaxBytes) {
		return fieldMax
	}
	return v.opts.MaxBytes
}

func asMap(raw any) (map[string]any, bool) {
	switch m := raw.(type) {
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, true
	default:
		return nil, false
	}
}

func asList(raw any) ([]any, bool) {
	switch l := raw.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	case [][]string:
		out := make([]any, len(l))
		for i, row := range l {
			out[i] = row
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(l))
		for i, m := range l {
			out[i] = m
		}
		return out, true
	default:
		return nil, false
	}
}

func toFloat(raw any) (float64, bool) {
	switch n := raw.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func cellString(raw any) (string, bool) {
	switch v := raw.(type) {
	case nil:
		return "", true
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	default:
		if f, ok := toFloat(raw); ok {
			return strconv.FormatFloat(f, 'f', -1, 64), true
		}
		return "", false
	}
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
