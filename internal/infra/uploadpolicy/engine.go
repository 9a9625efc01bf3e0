package uploadpolicy

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"sort"

	"proofstamp/internal/domain"

	"github.com/open-policy-agent/opa/rego"
)

//go:embed policy.rego
var defaultPolicy string

const resultQuery = "data.proofstamp.upload.result"

// Engine evaluates the upload acceptance policy. The default policy accepts
// PDF, JSON, zip, octet-stream and any image/* or text/* media type, rejects
// empty files and enforces the configured size cap; operators can replace it
// with their own rego file.
type Engine struct {
	query rego.PreparedEvalQuery
}

func NewEngine(ctx context.Context) (*Engine, error) {
	return NewEngineFromSource(ctx, defaultPolicy)
}

func NewEngineFromSource(ctx context.Context, source string) (*Engine, error) {
	r := rego.New(
		rego.Query(resultQuery),
		rego.Module("upload.rego", source),
		rego.StrictBuiltinErrors(true),
	)
	prepared, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, err
	}
	return &Engine{query: prepared}, nil
}

func NewEngineFromPath(ctx context.Context, path string) (*Engine, error) {
	r := rego.New(
		rego.Query(resultQuery),
		rego.StrictBuiltinErrors(true),
		rego.Load([]string{path}, nil),
	)
	prepared, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, err
	}
	return &Engine{query: prepared}, nil
}

func (e *Engine) Evaluate(ctx context.Context, input domain.UploadPolicyInput) (domain.UploadPolicyResult, error) {
	if e == nil {
		return domain.UploadPolicyResult{}, errors.New("policy engine is nil")
	}
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return domain.UploadPolicyResult{}, err
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return domain.UploadPolicyResult{}, errors.New("empty policy result")
	}
	result, err := decodeResult(results[0].Expressions[0].Value)
	if err != nil {
		return domain.UploadPolicyResult{}, err
	}
	sort.Slice(result.Deny, func(i, j int) bool {
		return result.Deny[i].Code < result.Deny[j].Code
	})
	return result, nil
}

func decodeResult(value any) (domain.UploadPolicyResult, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return domain.UploadPolicyResult{}, err
	}
	var result domain.UploadPolicyResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return domain.UploadPolicyResult{}, err
	}
	return result, nil
}
