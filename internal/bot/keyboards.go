package bot

import (
	"github.com/groupcal/calbot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

func (b *Bot) label(lang, key string) string {
	return b.catalog.Text(lang, key)
}

func (b *Bot) mainKeyboard(c tele.Context) *tele.ReplyMarkup {
	lang := b.lang(c)
	rows := [][]string{
		{b.label(lang, BtnCalendar)},
		{b.label(lang, BtnHelp)},
		{b.label(lang, BtnLanguage)},
	}
	if b.isAdmin(c) {
		rows = append(rows, []string{b.label(lang, BtnAdminMenu)})
	}
	return keyboard.ReplyButtons(rows...)
}

func (b *Bot) calendarKeyboard(c tele.Context) *tele.ReplyMarkup {
	lang := b.lang(c)
	if b.isAdmin(c) {
		return keyboard.ReplyButtons(
			[]string{b.label(lang, BtnCreate)},
			[]string{b.label(lang, BtnWeek)},
			[]string{b.label(lang, BtnDelete)},
			[]string{b.label(lang, BtnBack)},
		)
	}
	return keyboard.ReplyButtons(
		[]string{b.label(lang, BtnWeek)},
		[]string{b.label(lang, BtnBack)},
	)
}

func (b *Bot) adminKeyboard(c tele.Context) *tele.ReplyMarkup {
	lang := b.lang(c)
	return keyboard.ReplyButtons(
		[]string{b.label(lang, BtnStats)},
		[]string{b.label(lang, BtnBroadcast)},
		[]string{b.label(lang, BtnBackToMain)},
	)
}

// flowKeyboard offers only the way out of a flow.
func (b *Bot) flowKeyboard(c tele.Context, cancel string) *tele.ReplyMarkup {
	return keyboard.ReplyButtons([]string{b.label(b.lang(c), cancel)})
}

func (b *Bot) languageKeyboard(c tele.Context) *tele.ReplyMarkup {
	langs := b.catalog.Languages()
	rows := make([][]string, 0, len(langs)+1)
	for _, l := range langs {
		rows = append(rows, []string{l.Name})
	}
	rows = append(rows, []string{b.label(b.lang(c), BtnBack)})
	return keyboard.OneTimeButtons(rows...)
}
