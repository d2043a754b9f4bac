package transcribe

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// WhisperConfig contains model parameters fixed at load time.
type WhisperConfig struct {
	ModelPath string
	Language  string
	Translate bool
	Logger    *slog.Logger
}

// WhisperEngine is a Transcriber backed by a local whisper.cpp model. The
// model is loaded once and a single inference context is reused across
// chunks, serialized by a mutex.
type WhisperEngine struct {
	model  whisper.Model
	logger *slog.Logger

	mu  sync.Mutex
	ctx whisper.Context
}

// NewWhisperEngine loads the model from disk and prepares an inference
// context. Loading large models can take seconds; callers typically keep the
// worker disabled until this returns.
func NewWhisperEngine(cfg WhisperConfig) (*WhisperEngine, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("model path cannot be empty")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	model, err := whisper.New(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load whisper model %s: %w", cfg.ModelPath, err)
	}

	ctx, err := model.NewContext()
	if err != nil {
		model.Close()
		return nil, fmt.Errorf("failed to create whisper context: %w", err)
	}

	if cfg.Language != "" {
		if err := ctx.SetLanguage(cfg.Language); err != nil {
			model.Close()
			return nil, fmt.Errorf("failed to set language %q: %w", cfg.Language, err)
		}
	}
	ctx.SetTranslate(cfg.Translate)

	cfg.Logger.Info("Whisper model loaded",
		slog.String("model", cfg.ModelPath),
		slog.String("language", cfg.Language),
		slog.Bool("translate", cfg.Translate),
		slog.String("system_info", ctx.SystemInfo()),
	)

	return &WhisperEngine{
		model:  model,
		logger: cfg.Logger,
		ctx:    ctx,
	}, nil
}

// Transcribe runs inference over normalized samples using the given thread
// count and returns the concatenated segment text.
func (e *WhisperEngine) Transcribe(samples []float32, threads int) (string, error) {
	if len(samples) == 0 {
		return "", nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.ctx.SetThreads(uint(threads))
	if err := e.ctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper process failed: %w", err)
	}

	var sb strings.Builder
	for {
		segment, err := e.ctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read segment: %w", err)
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strings.TrimSpace(segment.Text))
	}
	return sb.String(), nil
}

// Close releases the model and its context.
func (e *WhisperEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model.Close()
}
