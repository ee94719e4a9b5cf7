package entity

import "github.com/goliatone/go-entities/internal/hydrate"

// DecodeConf flattens e with ToConf and decodes the result into T through
// JSON struct tags. strict rejects conf keys T does not declare.
func DecodeConf[T any](e Entity, strict bool) (T, error) {
	var opts []hydrate.DecoderOption[T]
	if strict {
		opts = append(opts, hydrate.WithDisallowUnknownFields[T]())
	}
	decoder := hydrate.NewDecoder(opts...)
	return decoder.Decode(hydrate.Context{ID: e.ID(), Type: e.Type()}, e.ToConf())
}
