// Package i18n loads gettext catalogues and translates user facing notices.
//
// Catalogues live in po/<locale>.po and are embedded in the binary. Message ids
// are the English text, formatted with fmt verbs. English is the base locale and
// needs no catalogue.
package i18n

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/leonelquinteros/gotext"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

//go:embed po/*.po
var catalogues embed.FS

const BaseLocale = "en"

var baseTag = language.Make(BaseLocale)

var (
	// keyed by canonical tag string, for example "es" or "pt-BR"
	poByTag   map[string]*gotext.Po
	supported []language.Tag
	matcher   language.Matcher
)

// Setup loads every embedded catalogue and builds the Accept-Language matcher.
// Calling it again replaces the loaded catalogues.
func Setup() error {
	return setup(catalogues)
}

func setup(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, "po")
	if err != nil {
		return fmt.Errorf("read po directory: %w", err)
	}

	loaded := make(map[string]*gotext.Po)
	tags := []language.Tag{baseTag}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".po") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".po")
		tag, err := language.Parse(strings.ReplaceAll(name, "_", "-"))
		if err != nil {
			log.WithFields(log.Fields{
				"file":  entry.Name(),
				"error": err,
			}).Warn("Skipping invalid locale file")
			continue
		}
		if tag == baseTag {
			continue
		}

		po := gotext.NewPoFS(fsys)
		po.ParseFile(path.Join("po", entry.Name()))

		loaded[tag.String()] = po
		tags = append(tags, tag)

		log.WithField("locale", tag.String()).Info("Loaded locale")
	}

	poByTag = loaded
	supported = tags
	matcher = language.NewMatcher(tags)
	return nil
}

// Languages lists the base locale followed by every loaded locale.
func Languages() []language.Tag {
	out := make([]language.Tag, len(supported))
	copy(out, supported)
	return out
}

// Match picks the best supported locale for an Accept-Language header value.
// Without a usable header, or before Setup, the base locale is returned.
func Match(acceptLanguage string) language.Tag {
	if matcher == nil || acceptLanguage == "" {
		return baseTag
	}

	preferred, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(preferred) == 0 {
		return baseTag
	}

	_, index, confidence := matcher.Match(preferred...)
	if confidence == language.No {
		return baseTag
	}
	return supported[index]
}

type contextKey struct{}

// WithTag stores the request locale on ctx.
func WithTag(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, contextKey{}, tag)
}

// TagFrom returns the locale stored on ctx, or the base locale.
func TagFrom(ctx context.Context) language.Tag {
	if ctx != nil {
		if tag, ok := ctx.Value(contextKey{}).(language.Tag); ok {
			return tag
		}
	}
	return baseTag
}

// Tr translates msgid into the locale carried by ctx and formats it with vars.
// Missing translations fall back to the English msgid.
func Tr(ctx context.Context, msgid string, vars ...any) string {
	if po, ok := poByTag[TagFrom(ctx).String()]; ok {
		return po.Get(msgid, vars...)
	}
	if len(vars) == 0 {
		return msgid
	}
	return fmt.Sprintf(msgid, vars...)
}
