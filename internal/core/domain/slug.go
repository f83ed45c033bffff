package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Буквы, которые не раскладываются через NFD на базовую латиницу + диакритику
var specialLatin = map[rune]string{
	'ß': "ss", 'æ': "ae", 'œ': "oe", 'ø': "o", 'ł': "l", 'đ': "d", 'ð': "d", 'þ': "th", 'ı': "i",
}

// Транслитерация кириллицы (русский + белорусский алфавит)
var cyrillic = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e", 'ж': "zh", 'з': "z",
	'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m", 'н': "n", 'о': "o", 'п': "p", 'р': "r",
	'с': "s", 'т': "t", 'у': "u", 'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "sch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya", 'і': "i", 'ў': "u",
}

var lowerCaser = cases.Lower(language.Und)

// DeriveSlug детерминированно превращает заголовок в URL-безопасный токен:
// нижний регистр, латиница и цифры, любые другие последовательности символов
// схлопываются в один дефис, дефисы по краям обрезаются.
func DeriveSlug(title string) string {
	// Кириллица транслитерируется до удаления диакритики, иначе й -> и
	plain := lowerCaser.String(norm.NFC.String(title))
	var translit strings.Builder
	translit.Grow(len(plain))
	for _, r := range plain {
		if tr, ok := cyrillic[r]; ok {
			translit.WriteString(tr)
			continue
		}
		translit.WriteRune(r)
	}

	// Убираем диакритику: "Café" -> "Cafe"
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(stripMarks, translit.String())
	if err != nil {
		plain = translit.String()
	}

	var b strings.Builder
	b.Grow(len(plain))
	pendingHyphen := false

	write := func(s string) {
		if s == "" {
			return
		}
		if pendingHyphen && b.Len() > 0 {
			b.WriteByte('-')
		}
		pendingHyphen = false
		b.WriteString(s)
	}

	for _, r := range plain {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			write(string(r))
		case specialLatin[r] != "":
			write(specialLatin[r])
		default:
			pendingHyphen = true
		}
	}

	return b.String()
}
