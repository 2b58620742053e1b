// Package locale translates the user-facing texts of the application.
package locale

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/go-sobriety/internal/config"
	"github.com/tartampluch/go-sobriety/internal/engine"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// loadBundle reads every embedded locale file once.
var loadBundle = sync.OnceValues(func() (*i18n.Bundle, []string) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		slog.Error(config.ErrLocalesAccess,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyError, err,
		)
		return bundle, nil
	}

	var detectedLangs []string

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		langCode := strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json")
		if langCode == "" {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}

		detectedLangs = append(detectedLangs, langCode)
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, langCode,
			config.LogKeyFile, name,
		)
	}

	slices.Sort(detectedLangs)
	return bundle, detectedLangs
})

// Languages returns the language codes with an embedded translation file.
func Languages() []string {
	_, langs := loadBundle()
	return slices.Clone(langs)
}

// Locale renders texts in one language.
type Locale struct {
	tag       language.Tag
	localizer *i18n.Localizer
}

// New returns a Locale for lang (ISO 639-1). Unknown or malformed codes fall
// back to the default language.
func New(lang string) *Locale {
	bundle, langs := loadBundle()

	tag, err := language.Parse(lang)
	if err != nil || !slices.Contains(langs, baseOf(tag)) {
		tag = language.Make(config.DefaultLanguage)
	}

	return &Locale{
		tag:       tag,
		localizer: i18n.NewLocalizer(bundle, tag.String()),
	}
}

// Lang returns the base language code in use.
func (l *Locale) Lang() string {
	return baseOf(l.tag)
}

// Msg translates a key safely, returning the key itself when it is missing.
func (l *Locale) Msg(key string) string {
	return l.localize(key, key, nil, nil)
}

// FormatBreakdown is engine.Format with translated units and CLDR plural rules.
func (l *Locale) FormatBreakdown(b engine.Breakdown) string {
	var parts []string
	parts = l.appendUnit(parts, b.Years, config.TKeyUnitYear, config.UnitYear)
	parts = l.appendUnit(parts, b.Months, config.TKeyUnitMonth, config.UnitMonth)
	parts = l.appendUnit(parts, b.Days, config.TKeyUnitDay, config.UnitDay)

	if len(parts) == 0 {
		parts = l.appendUnit(parts, b.Hours, config.TKeyUnitHour, config.UnitHour)
		parts = l.appendUnit(parts, b.Minutes, config.TKeyUnitMinute, config.UnitMinute)
	}

	if len(parts) == 0 {
		return l.localize(config.TKeyJustStarted, config.MsgJustStarted, nil, nil)
	}
	return strings.Join(parts, l.localize(config.TKeyPartSeparator, config.FormatPartSeparator, nil, nil))
}

// MilestoneName returns the translated milestone name.
func (l *Locale) MilestoneName(m engine.Milestone) string {
	return l.localize(config.TKeyMilestonePrefix+m.ID, m.Name, nil, nil)
}

// MilestoneDescription returns the translated milestone description.
func (l *Locale) MilestoneDescription(m engine.Milestone) string {
	return l.localize(config.TKeyMilestonePrefix+m.ID+config.TKeyMilestoneDesc, m.Description, nil, nil)
}

// Summary formats a calendar event title. It matches the signature of
// engine.CalendarBuilder.FormatSummary.
func (l *Locale) Summary(m engine.Milestone, achieved bool) string {
	key := config.TKeyEvtUpcoming
	if achieved {
		key = config.TKeyEvtAchieved
	}
	name := l.MilestoneName(m)
	data := map[string]any{"Icon": m.Icon, "Name": name}
	return l.localize(key, fmt.Sprintf(config.FallbackSummary, m.Icon, name), data, nil)
}

// NextMilestone describes the distance to the next milestone, or that every
// milestone has been reached when ok is false.
func (l *Locale) NextMilestone(next engine.Milestone, daysRemaining int, ok bool) string {
	if !ok {
		return l.Msg(config.TKeyAllMilestones)
	}
	data := map[string]any{"Name": l.MilestoneName(next), "Count": daysRemaining}
	return l.localize(config.TKeyNextMilestone, next.Name, data, daysRemaining)
}

// NoActiveRecord is the text shown while no sobriety period is running.
func (l *Locale) NoActiveRecord() string {
	return l.localize(config.TKeyNoActiveRecord, config.MsgNoActiveRecord, nil, nil)
}

// Date formats t with the short date layout of the language.
func (l *Locale) Date(t time.Time) string {
	layout := l.localize(config.TKeyFormatDate, config.DateFormatFullDash, nil, nil)
	return t.Format(layout)
}

// Since formats "Since <date>".
func (l *Locale) Since(t time.Time) string {
	return l.localize(config.TKeyStatusSince, l.Date(t), map[string]any{"Date": l.Date(t)}, nil)
}

func (l *Locale) appendUnit(parts []string, n int, key, unit string) []string {
	if n <= 0 {
		return parts
	}
	fallback := engine.Format(unitOnly(unit, n))
	return append(parts, l.localize(key, fallback, map[string]any{"Count": n}, n))
}

// localize translates key, returning fallback when the key cannot be rendered.
func (l *Locale) localize(key, fallback string, data map[string]any, plural any) string {
	if l == nil || l.localizer == nil {
		return fallback
	}

	msg, err := l.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
		PluralCount:  plural,
	})
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, key,
			config.LogKeyError, err,
		)
		return fallback
	}
	return msg
}

// unitOnly builds a breakdown holding a single unit so that engine.Format can
// produce the English fallback.
func unitOnly(unit string, n int) engine.Breakdown {
	switch unit {
	case config.UnitYear:
		return engine.Breakdown{Years: n}
	case config.UnitMonth:
		return engine.Breakdown{Months: n}
	case config.UnitDay:
		return engine.Breakdown{Days: n}
	case config.UnitHour:
		return engine.Breakdown{Hours: n}
	default:
		return engine.Breakdown{Minutes: n}
	}
}

func baseOf(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}
