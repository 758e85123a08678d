package document

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Properties reads the declared document property names of an index from its
// mapping descriptor.
type Properties interface {
	PropertyNames(index string) ([]string, error)
}

// Builder derives documents from registered entity sources.
type Builder struct {
	props  Properties
	logger *zap.Logger
}

// NewBuilder creates a document builder.
func NewBuilder(props Properties, logger *zap.Logger) *Builder {
	return &Builder{props: props, logger: logger}
}

// Full builds the complete document for an entity by delegating to its
// source capability.
func (b *Builder) Full(ctx context.Context, src Source, typeName, id, index string) (Document, error) {
	fields, err := src.SearchDocument(ctx, id, index)
	if err != nil {
		return Document{}, fmt.Errorf("search document for %s(%s): %w", typeName, id, err)
	}
	return New(docID(src, id, index), fields), nil
}

// Partial builds the update document for an entity: the intersection of the
// changed fields and the index's declared properties. Changed fields absent
// from the mapping are dropped with a debug log. Every surviving field is
// checked for direct serializability unless the type overrides update
// construction via UpdateSource.
func (b *Builder) Partial(
	ctx context.Context, src Source, typeName, id, index string, changed []string,
) (Document, error) {
	if upd, ok := src.(UpdateSource); ok {
		fields, err := upd.SearchDocumentUpdate(ctx, id, index, changed)
		if err != nil {
			return Document{}, fmt.Errorf("search document update for %s(%s): %w", typeName, id, err)
		}
		return New(docID(src, id, index), fields), nil
	}

	full, err := src.SearchDocument(ctx, id, index)
	if err != nil {
		return Document{}, fmt.Errorf("search document for %s(%s): %w", typeName, id, err)
	}

	props, err := b.props.PropertyNames(index)
	if err != nil {
		return Document{}, fmt.Errorf("property names for %q: %w", index, err)
	}
	mapped := make(map[string]struct{}, len(props))
	for _, p := range props {
		mapped[p] = struct{}{}
	}

	fields := make(Fields, len(changed))
	for _, name := range changed {
		if _, ok := mapped[name]; !ok {
			b.logger.Debug("dropping unmapped update field",
				zap.String("type", typeName),
				zap.String("index", index),
				zap.String("field", name),
			)
			continue
		}
		fields[name] = full[name]
	}

	if err := ValidateFields(typeName, fields); err != nil {
		return Document{}, err
	}
	return New(docID(src, id, index), fields), nil
}

func docID(src Source, id, index string) string {
	if ident, ok := src.(Identifier); ok {
		return ident.SearchDocumentID(id, index)
	}
	return id
}
