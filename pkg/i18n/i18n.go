// Package i18n maps message keys to display strings per request language.
//
// Locale tables are embedded JSON files under locales/. The middleware
// reads Accept-Language and stores the best-matching language in the
// request context; handlers call T(ctx, key) for every user-facing string.
// Unknown languages fall back to the default locale; unknown keys fall
// back to the key itself so a missing translation is visible, not fatal.
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/rajatverma/kirana/config"
)

//go:embed locales/*.json
var localeFS embed.FS

type ctxKey struct{}

var tables = map[string]map[string]string{}

func init() {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		panic(fmt.Sprintf("i18n: read locales: %v", err))
	}
	for _, e := range entries {
		lang := strings.TrimSuffix(e.Name(), ".json")
		data, err := localeFS.ReadFile(path.Join("locales", e.Name()))
		if err != nil {
			panic(fmt.Sprintf("i18n: read %s: %v", e.Name(), err))
		}
		table := map[string]string{}
		if err := json.Unmarshal(data, &table); err != nil {
			panic(fmt.Sprintf("i18n: parse %s: %v", e.Name(), err))
		}
		tables[lang] = table
	}
}

// Languages returns the loaded locale codes.
func Languages() []string {
	out := make([]string, 0, len(tables))
	for lang := range tables {
		out = append(out, lang)
	}
	return out
}

// WithLang stores a language code in ctx.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKey{}, lang)
}

// Lang returns the language stored in ctx, or the configured default.
func Lang(ctx context.Context) string {
	if lang, ok := ctx.Value(ctxKey{}).(string); ok && lang != "" {
		return lang
	}
	return config.DefaultLocale()
}

// T resolves key in the context language, falling back to the default
// locale and finally to the key itself.
func T(ctx context.Context, key string) string {
	lang := Lang(ctx)
	if msg, ok := tables[lang][key]; ok {
		return msg
	}
	if msg, ok := tables[config.DefaultLocale()][key]; ok {
		return msg
	}
	return key
}

// Middleware detects the request language from Accept-Language and stores
// it in the context for T.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := negotiate(r.Header.Get("Accept-Language"))
			ctx := WithLang(r.Context(), lang)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// negotiate picks the first Accept-Language entry we have a table for.
// Quality weights are ignored: clients list preferences in order anyway.
func negotiate(header string) string {
	for _, part := range strings.Split(header, ",") {
		lang := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if lang == "" {
			continue
		}
		lang = strings.ToLower(lang)
		if _, ok := tables[lang]; ok {
			return lang
		}
		// "en-GB" → "en"
		if base, _, found := strings.Cut(lang, "-"); found {
			if _, ok := tables[base]; ok {
				return base
			}
		}
	}
	return config.DefaultLocale()
}
