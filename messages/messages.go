// Package messages holds the localized user-facing texts of the licensing
// service, built on golang.org/x/text.
package messages

import (
	"context"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	KeyLicenseSearchError = "license.search.error"
	KeyLicenseDelete      = "license.delete"
)

var entries = map[language.Tag]map[string]string{
	language.English: {
		KeyLicenseSearchError: "Unable to find license with License id %[1]s and Organization id %[2]s",
		KeyLicenseDelete:      "Deleting license with id %[1]s for the organization %[2]s",
	},
	language.Spanish: {
		KeyLicenseSearchError: "No se encontró la licencia con id %[1]s para la organización %[2]s",
		KeyLicenseDelete:      "Eliminando la licencia con id %[1]s de la organización %[2]s",
	},
}

// Catalog resolves message keys for the supported languages.
// English is the fallback for unsupported or missing languages.
type Catalog struct {
	builder   *catalog.Builder
	supported []language.Tag
	matcher   language.Matcher
}

// New builds the catalog with the English and Spanish texts.
func New() (*Catalog, error) {
	supported := []language.Tag{language.English, language.Spanish}
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, tag := range supported {
		for key, msg := range entries[tag] {
			if err := b.SetString(tag, key, msg); err != nil {
				return nil, err
			}
		}
	}
	return &Catalog{
		builder:   b,
		supported: supported,
		matcher:   language.NewMatcher(supported),
	}, nil
}

// Match picks the best supported language for an Accept-Language header.
func (c *Catalog) Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return c.supported[0]
	}
	return c.resolve(tags...)
}

// resolve maps requested tags onto a supported one, English when none fits.
func (c *Catalog) resolve(tags ...language.Tag) language.Tag {
	_, idx, conf := c.matcher.Match(tags...)
	if conf == language.No {
		return c.supported[0]
	}
	return c.supported[idx]
}

// Get formats the message for key in the supported language closest to tag.
func (c *Catalog) Get(tag language.Tag, key string, args ...any) string {
	return message.NewPrinter(c.resolve(tag), message.Catalog(c.builder)).Sprintf(key, args...)
}

// Localize formats the message for key in the language stored in ctx.
func (c *Catalog) Localize(ctx context.Context, key string, args ...any) string {
	return c.Get(LanguageFrom(ctx), key, args...)
}

// Languages returns the supported languages, fallback first.
func (c *Catalog) Languages() []language.Tag {
	out := make([]language.Tag, len(c.supported))
	copy(out, c.supported)
	return out
}

type languageKey struct{}

// WithLanguage stores the request language in ctx.
func WithLanguage(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, languageKey{}, tag)
}

// LanguageFrom returns the request language in ctx, English when unset.
func LanguageFrom(ctx context.Context) language.Tag {
	if tag, ok := ctx.Value(languageKey{}).(language.Tag); ok {
		return tag
	}
	return language.English
}
