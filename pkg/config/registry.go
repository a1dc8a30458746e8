package config

import (
	"fmt"

	"github.com/nkhine/itools/internal/logger"
	"github.com/nkhine/itools/pkg/formats"
	"github.com/nkhine/itools/pkg/handler"
)

// NewRegistry builds the type registry for a session: every built-in format,
// then the suffix and tag bindings from cfg. Configured bindings override the
// built-in ones.
//
// Example:
//
//	formats:
//	  suffixes:
//	    .conf: yaml
//	  tags:
//	    application/vnd.api+json: json
func NewRegistry(cfg FormatsConfig) (*handler.Registry, error) {
	r := formats.NewRegistry()

	for suffix, name := range cfg.Suffixes {
		f, ok := formats.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("suffix %q: unknown format %q", suffix, name)
		}
		r.Register(handler.Suffix(suffix), handler.FileFactory(f))
		logger.Debug("format bound", logger.KeyDiscriminator, suffix, logger.KeyFormat, name)
	}

	for tag, name := range cfg.Tags {
		f, ok := formats.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("tag %q: unknown format %q", tag, name)
		}
		r.Register(handler.Tag(tag), handler.FileFactory(f))
		logger.Debug("format bound", logger.KeyDiscriminator, tag, logger.KeyFormat, name)
	}

	return r, nil
}
