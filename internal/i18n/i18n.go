// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package i18n localizes the account emails. API responses stay English.
package i18n

import (
	"context"
	"embed"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed translations/*.toml
var translationFS embed.FS

// supported lists the bundled languages; the first is the fallback.
var supported = []language.Tag{
	language.English,
	language.Filipino,
}

var (
	bundle  *i18n.Bundle
	matcher = language.NewMatcher(supported)
)

// locale is what WithLocale stores in a context.
type locale struct {
	tag       string
	localizer *i18n.Localizer
}

type localeKey struct{}

// Init loads the embedded translation file of every supported language.
func Init() error {
	b := i18n.NewBundle(supported[0])
	b.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, tag := range supported {
		file := fmt.Sprintf("translations/active.%s.toml", tag)
		if _, err := b.LoadMessageFileFS(translationFS, file); err != nil {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}

	bundle = b
	return nil
}

// MatchLanguage picks the best supported language for an Accept-Language
// header, falling back to English.
func MatchLanguage(acceptLanguage string) language.Tag {
	_, index := language.MatchStrings(matcher, acceptLanguage)
	return supported[index]
}

// WithLocale stores the language for later T and TData calls.
func WithLocale(ctx context.Context, lang language.Tag) context.Context {
	return context.WithValue(ctx, localeKey{}, &locale{
		tag:       lang.String(),
		localizer: i18n.NewLocalizer(bundle, lang.String()),
	})
}

// GetLocale returns the language stored in ctx, "en" if there is none.
func GetLocale(ctx context.Context) string {
	if l, ok := ctx.Value(localeKey{}).(*locale); ok {
		return l.tag
	}
	return supported[0].String()
}

// T translates a message by ID.
func T(ctx context.Context, messageID string) string {
	return TData(ctx, messageID, nil)
}

// TData translates a message with template data. Unknown IDs come back
// unchanged.
func TData(ctx context.Context, messageID string, data map[string]any) string {
	msg, err := localizer(ctx).Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}

func localizer(ctx context.Context) *i18n.Localizer {
	if l, ok := ctx.Value(localeKey{}).(*locale); ok {
		return l.localizer
	}
	return i18n.NewLocalizer(bundle, supported[0].String())
}
