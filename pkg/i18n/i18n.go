package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"sync"
)

//go:embed messages/*.json
var messagesFS embed.FS

// Supported locales
const (
	LocaleEnglish = "en"
	LocaleSpanish = "es"
	DefaultLocale = LocaleEnglish
)

var supported = map[string]bool{LocaleEnglish: true, LocaleSpanish: true}

type localeKey struct{}

var (
	messages     map[string]map[string]interface{}
	messagesOnce sync.Once
)

func loadMessages() {
	messagesOnce.Do(func() {
		messages = make(map[string]map[string]interface{})
		for locale := range supported {
			data, err := messagesFS.ReadFile("messages/" + locale + ".json")
			if err != nil {
				continue
			}
			var msg map[string]interface{}
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			messages[locale] = msg
		}
	})
}

// Localizer handles message localization
type Localizer struct {
	locale string
}

// NewLocalizer creates a localizer for locale, falling back to English.
func NewLocalizer(locale string) *Localizer {
	loadMessages()
	if !supported[locale] {
		locale = DefaultLocale
	}
	return &Localizer{locale: locale}
}

// LocalizerFromContext creates a localizer from context
func LocalizerFromContext(ctx context.Context) *Localizer {
	return NewLocalizer(GetLocaleFromContext(ctx))
}

// T translates a dot-notation key, replacing {param} placeholders.
// Unknown keys are returned unchanged.
func (l *Localizer) T(key string, params ...map[string]string) string {
	msg := lookup(key, l.locale)
	if msg == "" && l.locale != DefaultLocale {
		msg = lookup(key, DefaultLocale)
	}
	if msg == "" {
		return key
	}
	if len(params) > 0 {
		for k, v := range params[0] {
			msg = strings.ReplaceAll(msg, "{"+k+"}", v)
		}
	}
	return msg
}

// GetLocale returns the current locale
func (l *Localizer) GetLocale() string {
	return l.locale
}

func lookup(key, locale string) string {
	current, ok := messages[locale]
	if !ok {
		return ""
	}
	parts := strings.Split(key, ".")
	for i, part := range parts {
		if i == len(parts)-1 {
			s, _ := current[part].(string)
			return s
		}
		nested, ok := current[part].(map[string]interface{})
		if !ok {
			return ""
		}
		current = nested
	}
	return ""
}

// WithLocale adds locale to context
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeKey{}, locale)
}

// GetLocaleFromContext retrieves locale from context
func GetLocaleFromContext(ctx context.Context) string {
	if locale, ok := ctx.Value(localeKey{}).(string); ok && locale != "" {
		return locale
	}
	return DefaultLocale
}

// ParseAcceptLanguage returns the supported locale with the highest quality
// value in an Accept-Language header.
func ParseAcceptLanguage(header string) string {
	type candidate struct {
		locale string
		q      float64
	}
	var found []candidate

	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tag, q := part, 1.0
		if idx := strings.Index(part, ";"); idx >= 0 {
			tag = strings.TrimSpace(part[:idx])
			if v, ok := strings.CutPrefix(strings.TrimSpace(part[idx+1:]), "q="); ok {
				if parsed, err := strconv.ParseFloat(v, 64); err == nil {
					q = parsed
				}
			}
		}
		base := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if supported[base] && q > 0 {
			found = append(found, candidate{base, q})
		}
	}

	if len(found) == 0 {
		return DefaultLocale
	}
	sort.SliceStable(found, func(a, b int) bool { return found[a].q > found[b].q })
	return found[0].locale
}

// T translates using the default locale
func T(key string, params ...map[string]string) string {
	return NewLocalizer(DefaultLocale).T(key, params...)
}

// TFromContext translates using locale from context
func TFromContext(ctx context.Context, key string, params ...map[string]string) string {
	return LocalizerFromContext(ctx).T(key, params...)
}
