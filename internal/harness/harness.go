package harness

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"gopkg.in/yaml.v3"

	"github.com/greentic-ai-org/greentic-types/internal/canonical"
	"github.com/greentic-ai-org/greentic-types/internal/compiler"
	"github.com/greentic-ai-org/greentic-types/internal/envelope"
	"github.com/greentic-ai-org/greentic-types/internal/schemair"
)

// Option configures Run.
type Option func(*runner)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(r *runner) { r.logger = l }
}

type runner struct {
	dir    string
	logger *slog.Logger
}

// Run executes every vector in suite and returns the result. A vector that
// does not match is recorded in the result; the returned error is reserved
// for a suite that cannot run at all.
func Run(suite *Suite, opts ...Option) (*Result, error) {
	if suite == nil {
		return nil, fmt.Errorf("suite is nil")
	}
	r := &runner{
		dir:    suite.dir,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}

	result := NewResult()
	for i := range suite.Vectors {
		v := &suite.Vectors[i]
		c := r.runVector(v)
		result.Cases = append(result.Cases, c)
		if !c.Pass {
			result.AddError(describeFailure(v, c))
		}
		r.logger.Debug("vector",
			"suite", suite.Name,
			"name", v.Name,
			"kind", v.Kind,
			"pass", c.Pass,
			"error", c.Error)
	}

	r.logger.Info("suite finished",
		"suite", suite.Name,
		"vectors", len(result.Cases),
		"failed", result.Failed())
	return result, nil
}

func (r *runner) runVector(v *Vector) CaseResult {
	c := CaseResult{Name: v.Name, Kind: v.Kind}

	var got string
	var err error
	switch v.Kind {
	case KindValue:
		got, err = r.encodeValue(v)
	case KindEnvelope:
		got, err = r.encodeEnvelope(v)
	case KindFingerprint:
		got, err = r.fingerprint(v)
	case KindCheck:
		err = checkBytes(v)
	default:
		err = fmt.Errorf("unknown kind %q", v.Kind)
	}

	if err != nil {
		c.Error = ErrorKind(err)
		c.Pass = v.Error == c.Error
		return c
	}
	c.Got = got
	switch v.Kind {
	case KindFingerprint:
		c.Pass = v.Error == "" && strings.EqualFold(v.Fingerprint, got)
	case KindCheck:
		c.Pass = v.Error == ""
	default:
		c.Pass = v.Error == "" && strings.EqualFold(v.Hex, got)
	}
	return c
}

func describeFailure(v *Vector, c CaseResult) string {
	want := v.Hex
	if v.Kind == KindFingerprint {
		want = v.Fingerprint
	}
	if v.Kind == KindCheck {
		want = "canonical"
	}
	if v.Error != "" {
		want = "error " + v.Error
	}
	got := c.Got
	if c.Error != "" {
		got = "error " + c.Error
	} else if got == "" {
		got = "canonical"
	}
	return fmt.Sprintf("%s (%s): want %s, got %s", v.Name, v.Kind, want, got)
}

func policyOf(v *Vector) canonical.FloatPolicy {
	if v.Policy == "permissive" {
		return canonical.FloatPermissive
	}
	return canonical.FloatStrict
}

// value returns the vector's authored value, inline or from its source.
func (r *runner) value(v *Vector) (any, error) {
	if v.Source != "" {
		return compiler.CompileFile(filepath.Join(r.dir, v.Source))
	}
	return nodeValue(&v.Value)
}

func (r *runner) encodeValue(v *Vector) (string, error) {
	val, err := r.value(v)
	if err != nil {
		return "", err
	}
	data, err := canonical.Encode(val, policyOf(v))
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(data), nil
}

// encodeEnvelope wraps the value, encodes the envelope, and reads it back
// to confirm the body survives the trip canonically.
func (r *runner) encodeEnvelope(v *Vector) (string, error) {
	val, err := r.value(v)
	if err != nil {
		return "", err
	}
	h := v.Envelope
	env, err := envelope.New(h.Kind, h.SchemaID, h.SchemaVersion, val)
	if err != nil {
		return "", err
	}
	data, err := env.Marshal()
	if err != nil {
		return "", err
	}
	back, err := envelope.Decode(data)
	if err != nil {
		return "", err
	}
	if err := back.Expect(h.SchemaID, h.SchemaVersion); err != nil {
		return "", err
	}
	if err := back.EnsureCanonical(); err != nil {
		return "", err
	}
	return hex.EncodeToString(data), nil
}

func (r *runner) fingerprint(v *Vector) (string, error) {
	doc, err := r.tripleDocument(v)
	if err != nil {
		return "", err
	}
	triple, err := compiler.CompileTriple(doc)
	if err != nil {
		return "", err
	}
	return triple.Fingerprint()
}

// tripleDocument loads the triple through the compiler so inline and file
// triples share one authoring path.
func (r *runner) tripleDocument(v *Vector) (cue.Value, error) {
	if v.Source != "" {
		return compiler.LoadFile(filepath.Join(r.dir, v.Source))
	}
	data, err := yaml.Marshal(&v.Triple)
	if err != nil {
		return cue.Value{}, fmt.Errorf("triple: %w", err)
	}
	return compiler.Load(v.Name+".yaml", data)
}

func checkBytes(v *Vector) error {
	data, err := hex.DecodeString(v.Hex)
	if err != nil {
		return fmt.Errorf("hex: %w", err)
	}
	return canonical.EnsureCanonical(data, policyOf(v))
}

// errorKinds maps the stable error kind names used in vectors to the
// sentinels they stand for. Order matters: the first match wins.
var errorKinds = []struct {
	name string
	err  error
}{
	{"non_finite", canonical.ErrNonFinite},
	{"integral_float", canonical.ErrIntegralFloat},
	{"invalid_utf8", canonical.ErrInvalidUTF8},
	{"int_range", canonical.ErrIntRange},
	{"non_text_key", canonical.ErrNonTextKey},
	{"unsupported", canonical.ErrUnsupported},
	{"missing_field", canonical.ErrMissingField},
	{"not_canonical", canonical.ErrNotCanonical},
	{"unknown_kind", schemair.ErrUnknownKind},
	{"fingerprint_mismatch", schemair.ErrFingerprintMismatch},
	{"schema_mismatch", envelope.ErrSchemaMismatch},
}

// ErrorKind names the kind of err as used in a vector's error field:
// one of the sentinel names above, "decode" for other decode failures,
// "compile" for authoring errors, and "error" for anything else.
func ErrorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	var decErr *canonical.DecodeError
	if errors.As(err, &decErr) {
		return "decode"
	}
	var compErr *compiler.CompileError
	if errors.As(err, &compErr) {
		return "compile"
	}
	return "error"
}
