package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ericcurtin/llamanetes/internal/brick"
	"github.com/ericcurtin/llamanetes/internal/chain"
)

// Brick types accepted in a pipeline definition.
const (
	TypeModel        = "model"
	TypeGeneration   = "generation"
	TypeTokenization = "tokenization"
	TypeConfig       = "config"
)

type modelParams struct {
	ModelPath      string   `json:"model_path"`
	Model          string   `json:"model"` // accepted alias for model_path
	Host           string   `json:"host"`
	Port           int      `json:"port"`
	ServerBin      string   `json:"server_bin"`
	CLIBin         string   `json:"cli_bin"`
	TokenizeBin    string   `json:"tokenize_bin"`
	ExtraArgs      []string `json:"extra_args"`
	TimeoutSeconds int      `json:"timeout_seconds"`
	InProcess      bool     `json:"in_process"`
}

type generationParams struct {
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k"`
	Seed        int64   `json:"seed"`
}

type configParams struct {
	Path string `json:"path"`
}

// BuildPipeline instantiates every brick named in spec and pipes them in
// array order. Generation and tokenization bricks bind to the most recent
// model brick in the list.
func BuildPipeline(spec PipelineSpec) (*chain.Chain, error) {
	if len(spec.Bricks) == 0 {
		return nil, fmt.Errorf("pipeline %q has no bricks", spec.Name)
	}
	p := chain.NewPipeline(spec.Name)
	var lastModel *brick.ModelBrick
	for i, bs := range spec.Bricks {
		switch bs.Type {
		case TypeModel:
			var mp modelParams
			if err := decodeParams(bs.Params, &mp); err != nil {
				return nil, fmt.Errorf("brick %d (%s): %w", i, bs.Type, err)
			}
			path := mp.ModelPath
			if path == "" {
				path = mp.Model
			}
			mb, err := brick.NewModelBrick(brick.ModelConfig{
				ModelPath:   path,
				Host:        mp.Host,
				Port:        mp.Port,
				ServerBin:   mp.ServerBin,
				CLIBin:      mp.CLIBin,
				TokenizeBin: mp.TokenizeBin,
				ExtraArgs:   mp.ExtraArgs,
				Timeout:     time.Duration(mp.TimeoutSeconds) * time.Second,
				InProcess:   mp.InProcess,
			})
			if err != nil {
				return nil, fmt.Errorf("brick %d (%s): %w", i, bs.Type, err)
			}
			lastModel = mb
			p.Pipe(mb)
		case TypeGeneration:
			if lastModel == nil {
				return nil, fmt.Errorf("brick %d (%s): no model brick precedes it", i, bs.Type)
			}
			gp := generationParams{}
			if err := decodeParams(bs.Params, &gp); err != nil {
				return nil, fmt.Errorf("brick %d (%s): %w", i, bs.Type, err)
			}
			params := brick.DefaultGenerationParams()
			if gp.MaxTokens > 0 {
				params.MaxTokens = gp.MaxTokens
			}
			if len(bs.Params) > 0 {
				if _, ok := bs.Params["temperature"]; ok {
					params.Temperature = gp.Temperature
				}
				if _, ok := bs.Params["top_p"]; ok {
					params.TopP = gp.TopP
				}
				if _, ok := bs.Params["top_k"]; ok {
					params.TopK = gp.TopK
				}
			}
			params.Seed = gp.Seed
			gb, err := brick.NewGenerationBrick(lastModel, params)
			if err != nil {
				return nil, fmt.Errorf("brick %d (%s): %w", i, bs.Type, err)
			}
			p.Pipe(gb)
		case TypeTokenization:
			if lastModel == nil {
				return nil, fmt.Errorf("brick %d (%s): no model brick precedes it", i, bs.Type)
			}
			tb, err := brick.NewTokenizationBrick(lastModel)
			if err != nil {
				return nil, fmt.Errorf("brick %d (%s): %w", i, bs.Type, err)
			}
			p.Pipe(tb)
		case TypeConfig:
			var cp configParams
			if err := decodeParams(bs.Params, &cp); err != nil {
				return nil, fmt.Errorf("brick %d (%s): %w", i, bs.Type, err)
			}
			cb, err := brick.NewConfigBrick(cp.Path)
			if err != nil {
				return nil, fmt.Errorf("brick %d (%s): %w", i, bs.Type, err)
			}
			p.Pipe(cb)
		default:
			return nil, fmt.Errorf("brick %d: unknown brick type %q", i, bs.Type)
		}
	}
	return p, nil
}

// decodeParams maps a free-form params table onto a typed struct via a JSON
// round-trip, so YAML and TOML tables decode the same way JSON objects do.
func decodeParams(params map[string]any, dst any) error {
	if len(params) == 0 {
		return nil
	}
	b, err := json.Marshal(params)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}
