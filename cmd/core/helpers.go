package core

import (
	"context"
	"fmt"

	units "github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/projecteru2/easydoc/config"
	"github.com/projecteru2/easydoc/serializer"
	"github.com/projecteru2/easydoc/serializer/bson"
	"github.com/projecteru2/easydoc/serializer/json"
	"github.com/projecteru2/easydoc/serializer/yaml"
	"github.com/projecteru2/easydoc/storage"
	"github.com/projecteru2/easydoc/storage/bolt"
	"github.com/projecteru2/easydoc/storage/file"
	"github.com/projecteru2/easydoc/storage/memory"
	"github.com/projecteru2/easydoc/storage/mongo"
	"github.com/projecteru2/easydoc/utils"
)

// BaseHandler provides shared config access for all command handlers.
type BaseHandler struct {
	ConfProvider func() *config.Config
}

// Init returns the command context and validated config in one call.
func (h BaseHandler) Init(cmd *cobra.Command) (context.Context, *config.Config, error) {
	conf, err := h.Conf()
	if err != nil {
		return nil, nil, err
	}
	return CommandContext(cmd), conf, nil
}

// Conf validates and returns the config. All handlers call this first.
func (h BaseHandler) Conf() (*config.Config, error) {
	if h.ConfProvider == nil {
		return nil, fmt.Errorf("config provider is nil")
	}
	conf := h.ConfProvider()
	if conf == nil {
		return nil, fmt.Errorf("config not initialized")
	}
	return conf, nil
}

// CommandContext returns command context, falling back to Background.
func CommandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

// Closer releases a backend opened by InitStorage.
type Closer func(context.Context) error

func nopCloser(context.Context) error { return nil }

// InitStorage opens the configured storage backend.
func InitStorage(ctx context.Context, conf *config.Config) (storage.Storage, Closer, error) {
	switch conf.Backend {
	case config.BackendMemory:
		s, err := memory.New()
		if err != nil {
			return nil, nil, fmt.Errorf("init memory backend: %w", err)
		}
		return s, nopCloser, nil
	case config.BackendFile:
		s, err := file.New(ctx, conf.DocsDir(), conf.FileSuffix)
		if err != nil {
			return nil, nil, fmt.Errorf("init file backend: %w", err)
		}
		return s, nopCloser, nil
	case config.BackendBolt:
		if err := utils.EnsureDirs(conf.RootDir); err != nil {
			return nil, nil, err
		}
		s, err := bolt.Open(ctx, conf.BoltFile(), conf.BoltBucket, conf.BoltOpenTimeoutDuration())
		if err != nil {
			return nil, nil, fmt.Errorf("init bolt backend: %w", err)
		}
		return s, func(context.Context) error { return s.Close() }, nil
	case config.BackendMongo:
		s, err := mongo.Dial(ctx, conf.Mongo)
		if err != nil {
			return nil, nil, fmt.Errorf("init mongo backend: %w", err)
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", conf.Backend)
	}
}

// InitSerializer returns the configured codec.
func InitSerializer(conf *config.Config) (serializer.Serializer, error) {
	switch conf.Codec {
	case config.CodecJSON:
		return json.New(), nil
	case config.CodecYAML:
		return yaml.New(), nil
	case config.CodecBSON:
		return bson.New(), nil
	default:
		return nil, fmt.Errorf("unknown codec %q", conf.Codec)
	}
}

func FormatSize(bytes int64) string {
	return units.HumanSize(float64(bytes))
}
