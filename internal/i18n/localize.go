package i18n

import (
	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

var Bundle *i18n.Bundle

// RegisterLanguages loads the message catalogs. English is the
// fallback; missing catalogs are skipped.
func RegisterLanguages() *i18n.Bundle {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	bundle.MustLoadMessageFile("translations/en.toml")
	bundle.LoadMessageFile("translations/it.toml")
	Bundle = bundle
	return bundle
}

// Translate resolves a message id for a language tag, falling back to
// English. An unknown id returns the id itself so the UI never shows an
// empty message.
func Translate(languageCode string, messageId string) string {
	if Bundle == nil {
		return messageId
	}
	localizer := i18n.NewLocalizer(Bundle, languageCode, "en")
	message, err := localizer.Localize(&i18n.LocalizeConfig{MessageID: messageId})
	if err != nil {
		log.Warnf("[i18n] could not localize %s: %s", messageId, err.Error())
		return messageId
	}
	return message
}
