package bot

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mtabot/assets"
	"golang.org/x/text/language"
)

// Catalog holds the embedded message files and matches user locales against them.
type Catalog struct {
	bundle   *i18n.Bundle
	matcher  language.Matcher
	tags     []language.Tag
	fallback language.Tag
}

// NewCatalog loads every locales/*.toml file. fallback is used when a user
// locale matches none of them.
func NewCatalog(fallback string) (*Catalog, error) {
	def, err := language.Parse(fallback)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", fallback, err)
	}

	bundle := i18n.NewBundle(def)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	locales := assets.Locales()
	entries, err := fs.ReadDir(locales, ".")
	if err != nil {
		return nil, fmt.Errorf("read locales: %w", err)
	}

	tags := []language.Tag{def}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		data, err := fs.ReadFile(locales, e.Name())
		if err != nil {
			return nil, err
		}
		mf, err := bundle.ParseMessageFileBytes(data, e.Name())
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		if mf.Tag != def {
			tags = append(tags, mf.Tag)
		}
	}

	return &Catalog{
		bundle:   bundle,
		matcher:  language.NewMatcher(tags),
		tags:     tags,
		fallback: def,
	}, nil
}

// Tags returns the available languages, fallback first.
func (c *Catalog) Tags() []language.Tag {
	return c.tags
}

// Match resolves a client locale such as "es-ES" or "en-US" to a loaded language.
func (c *Catalog) Match(locale string) language.Tag {
	if locale == "" {
		return c.fallback
	}
	t, err := language.Parse(locale)
	if err != nil {
		return c.fallback
	}

	_, idx, conf := c.matcher.Match(t)
	if conf == language.No {
		return c.fallback
	}
	return c.tags[idx]
}

// For returns a localizer for the client locale.
func (c *Catalog) For(locale string) *Localizer {
	tag := c.Match(locale)
	return &Localizer{
		l:   i18n.NewLocalizer(c.bundle, tag.String(), c.fallback.String()),
		Tag: tag,
	}
}

// Localizer renders messages in one language.
type Localizer struct {
	l   *i18n.Localizer
	Tag language.Tag
}

// T renders the message id with data. Unknown ids render as the id itself.
func (l *Localizer) T(id string, data map[string]any) string {
	return l.localize(&i18n.LocalizeConfig{MessageID: id, TemplateData: data})
}

// Plural renders a message selected by count. Count is also passed as template data.
func (l *Localizer) Plural(id string, count int) string {
	return l.localize(&i18n.LocalizeConfig{
		MessageID:    id,
		PluralCount:  count,
		TemplateData: map[string]any{"Count": count},
	})
}

func (l *Localizer) localize(cfg *i18n.LocalizeConfig) string {
	msg, err := l.l.Localize(cfg)
	if err != nil {
		log.Warn().Err(err).Str("message_id", cfg.MessageID).Str("lang", l.Tag.String()).Msg("Missing translation")
		if msg == "" {
			return cfg.MessageID
		}
	}
	return msg
}
